package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInputType is returned when a raw word is not text (not valid UTF-8).
	ErrInputType = errors.New("raw word is not text")
	// ErrConfiguration is returned for invalid scoring or application settings.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrMissingVector means a key presumed valid has no vector. The
	// vocabulary and the vector store are out of sync.
	ErrMissingVector = errors.New("missing vector")
	// ErrUnsupportedFormat is returned for unknown input/output file extensions.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrDimensionMismatch is returned when two vectors differ in length.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrDuplicateRespondent is returned when a dataset repeats an identifier.
	ErrDuplicateRespondent = errors.New("duplicate respondent id")
)

// ConfigurationError reports which setting was rejected.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrConfiguration, e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// MissingVectorError names the key without a vector.
type MissingVectorError struct {
	Key string
}

func (e *MissingVectorError) Error() string {
	return fmt.Sprintf("%s for key %q", ErrMissingVector, e.Key)
}

func (e *MissingVectorError) Unwrap() error { return ErrMissingVector }

// UnsupportedFormatError names the file whose extension was not recognized.
type UnsupportedFormatError struct {
	Path string
	Ext  string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("%s %q (%s)", ErrUnsupportedFormat, e.Ext, e.Path)
}

func (e *UnsupportedFormatError) Unwrap() error { return ErrUnsupportedFormat }

// InputTypeError carries the offending raw bytes.
type InputTypeError struct {
	Raw string
}

func (e *InputTypeError) Error() string {
	return fmt.Sprintf("%s: %q", ErrInputType, e.Raw)
}

func (e *InputTypeError) Unwrap() error { return ErrInputType }
