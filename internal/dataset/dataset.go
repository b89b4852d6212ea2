// Package dataset reads respondent answers from delimited text files and
// spreadsheets. Each row is one respondent; every column except the
// identifier column holds one raw word.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"dat/internal/domain"
)

// Options controls how rows become respondents.
type Options struct {
	// Separator for .csv files; .tsv always uses a tab.
	Separator rune
	// IDColumn is a header name or a 1-based "#N" index. Empty generates a
	// UUID for each respondent.
	IDColumn string
	// Header marks the first row as column names.
	Header bool
}

// DefaultOptions reads comma-separated files with a header row.
func DefaultOptions() Options {
	return Options{Separator: ',', Header: true}
}

// Read loads respondents from path. Supported extensions are .csv, .tsv and
// .xlsx; anything else fails with *domain.UnsupportedFormatError.
func Read(path string, opts Options) ([]domain.Respondent, error) {
	ext := strings.ToLower(filepath.Ext(path))
	var (
		rows [][]string
		err  error
	)
	switch ext {
	case ".csv":
		sep := opts.Separator
		if sep == 0 {
			sep = ','
		}
		rows, err = readDelimited(path, sep)
	case ".tsv":
		rows, err = readDelimited(path, '\t')
	case ".xlsx":
		rows, err = readSpreadsheet(path)
	default:
		return nil, &domain.UnsupportedFormatError{Path: path, Ext: ext}
	}
	if err != nil {
		return nil, err
	}
	return FromRows(rows, opts)
}

// FromRows converts raw table rows into respondents. Short rows are padded
// with empty cells so missing answers become empty raw words.
func FromRows(rows [][]string, opts Options) ([]domain.Respondent, error) {
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	var header []string
	if opts.Header {
		if len(rows) == 0 {
			return nil, errors.New("empty file")
		}
		header, rows = rows[0], rows[1:]
	}
	width := len(header)
	for _, r := range rows {
		width = max(width, len(r))
	}
	idCol, err := resolveColumn(header, width, opts.IDColumn)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Respondent, 0, len(rows))
	seen := make(map[string]int, len(rows))
	for i, row := range rows {
		if blank(row) {
			continue
		}
		line := i + 1
		if opts.Header {
			line++
		}
		r := domain.Respondent{Words: make([]string, 0, width)}
		for c := 0; c < width; c++ {
			cell := ""
			if c < len(row) {
				cell = row[c]
			}
			if c == idCol {
				r.ID = strings.TrimSpace(cell)
				continue
			}
			r.Words = append(r.Words, cell)
		}
		if idCol < 0 {
			r.ID = uuid.NewString()
		} else if r.ID == "" {
			return nil, fmt.Errorf("row %d: empty respondent id", line)
		}
		if prev, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("rows %d and %d: %w: %q", prev, line, domain.ErrDuplicateRespondent, r.ID)
		}
		seen[r.ID] = line
		out = append(out, r)
	}
	return out, nil
}

func readDelimited(path string, sep rune) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	reader := csv.NewReader(f)
	reader.Comma = sep
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return rows, nil
}

func readSpreadsheet(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s has no sheets", filepath.Base(path))
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return rows, nil
}

// resolveColumn returns the index of the id column or -1 when ids are generated.
func resolveColumn(header []string, width int, column string) (int, error) {
	column = strings.TrimSpace(column)
	if column == "" {
		return -1, nil
	}
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), column) {
			return i, nil
		}
	}
	if strings.HasPrefix(column, "#") {
		idx, err := strconv.Atoi(strings.TrimPrefix(column, "#"))
		if err != nil || idx <= 0 {
			return -1, &domain.ConfigurationError{Field: "id_column", Reason: fmt.Sprintf("column indices are 1-based: %q", column)}
		}
		if idx > width {
			return -1, &domain.ConfigurationError{Field: "id_column", Reason: fmt.Sprintf("column %s is out of range", column)}
		}
		return idx - 1, nil
	}
	return -1, &domain.ConfigurationError{Field: "id_column", Reason: fmt.Sprintf("column %q not found", column)}
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
