// Package vocab validates respondent words against a fixed vocabulary.
package vocab

import (
	"fmt"
	"unicode/utf8"

	"dat/internal/domain"
	"dat/internal/normalize"
)

// Vocabulary is an immutable set of canonical keys that have a vector.
type Vocabulary struct {
	keys map[string]struct{}
}

// New copies keys into a vocabulary.
func New(keys []string) *Vocabulary {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return &Vocabulary{keys: set}
}

// Load reads every known key from lookup once.
func Load(lookup domain.VectorLookup) (*Vocabulary, error) {
	keys, err := lookup.Keys()
	if err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}
	return New(keys), nil
}

// Contains reports whether key is in the vocabulary.
func (v *Vocabulary) Contains(key string) bool {
	_, ok := v.keys[key]
	return ok
}

// Len returns the number of keys.
func (v *Vocabulary) Len() int { return len(v.keys) }

// Dedupe selects how ProcessWords collapses repeated words.
type Dedupe int

const (
	// DedupeCanonical drops a word whose canonical key was already emitted.
	DedupeCanonical Dedupe = iota
	// DedupeRaw drops only exact repeats of the raw string, so two spellings
	// of the same key may both appear.
	DedupeRaw
)

// ParseDedupe maps a config value to a Dedupe mode.
func ParseDedupe(s string) (Dedupe, error) {
	switch s {
	case "canonical", "":
		return DedupeCanonical, nil
	case "raw":
		return DedupeRaw, nil
	default:
		return 0, &domain.ConfigurationError{Field: "dedupe", Reason: fmt.Sprintf("unknown mode %q", s)}
	}
}

func (d Dedupe) String() string {
	if d == DedupeRaw {
		return "raw"
	}
	return "canonical"
}

// Validation is the outcome for one raw word. At most one field is set;
// both are empty when the word is too short to form any candidate.
type Validation struct {
	Valid   string
	Invalid string
}

// IsValid reports whether the word resolved to a vocabulary key.
func (v Validation) IsValid() bool { return v.Valid != "" }

// Processed holds the valid and invalid keys of one answer in first-occurrence order.
type Processed struct {
	Valid   []string
	Invalid []string
}

// Validator classifies raw words. It is read-only after construction.
type Validator struct {
	normalizer *normalize.Normalizer
	vocab      *Vocabulary
	dedupe     Dedupe
}

// Option configures a Validator.
type Option func(*Validator)

// WithNormalizer replaces the default Polish normalizer.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(v *Validator) { v.normalizer = n }
}

// WithDedupe sets the deduplication rule used by ProcessWords.
func WithDedupe(d Dedupe) Option {
	return func(v *Validator) { v.dedupe = d }
}

// NewValidator builds a validator over vocab.
func NewValidator(vocab *Vocabulary, opts ...Option) *Validator {
	v := &Validator{normalizer: normalize.Default(), vocab: vocab, dedupe: DedupeCanonical}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Vocabulary returns the underlying key set.
func (v *Validator) Vocabulary() *Vocabulary { return v.vocab }

// Validate returns the first candidate of raw found in the vocabulary, or the
// first candidate as the invalid form when none match.
func (v *Validator) Validate(raw string) (Validation, error) {
	if !utf8.ValidString(raw) {
		return Validation{}, &domain.InputTypeError{Raw: raw}
	}
	cands := v.normalizer.Candidates(raw)
	for _, c := range cands {
		if v.vocab.Contains(c) {
			return Validation{Valid: c}, nil
		}
	}
	if len(cands) == 0 {
		return Validation{}, nil
	}
	return Validation{Invalid: cands[0]}, nil
}

// ProcessWords validates an answer and splits it into unique valid and
// invalid keys. Unusable words (no candidates) appear in neither list.
func (v *Validator) ProcessWords(raw []string) (Processed, error) {
	var out Processed
	seenRaw := make(map[string]struct{}, len(raw))
	seenValid := make(map[string]struct{}, len(raw))
	seenInvalid := make(map[string]struct{})
	for i, word := range raw {
		if _, dup := seenRaw[word]; dup {
			continue
		}
		seenRaw[word] = struct{}{}

		res, err := v.Validate(word)
		if err != nil {
			return Processed{}, fmt.Errorf("word %d: %w", i+1, err)
		}
		switch {
		case res.Valid != "":
			if v.dedupe == DedupeCanonical {
				if _, dup := seenValid[res.Valid]; dup {
					continue
				}
				seenValid[res.Valid] = struct{}{}
			}
			out.Valid = append(out.Valid, res.Valid)
		case res.Invalid != "":
			if v.dedupe == DedupeCanonical {
				if _, dup := seenInvalid[res.Invalid]; dup {
					continue
				}
				seenInvalid[res.Invalid] = struct{}{}
			}
			out.Invalid = append(out.Invalid, res.Invalid)
		}
	}
	return out, nil
}
