// Package report writes scoring results as CSV files.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"dat/internal/scoring"
)

// DefaultDir is where result files go when no directory is configured.
const DefaultDir = "results"

const stamp = "2006-Jan-02__15_04_05"

// ColumnNames returns the results header for an n-word subset:
// ID, the pair labels and DAT.
func ColumnNames(n int) []string {
	cols := []string{"ID"}
	cols = append(cols, scoring.PairLabels(n)...)
	return append(cols, "DAT")
}

// FileName is the results file name for a run started at t.
func FileName(t time.Time) string {
	return "dat_distances" + t.Format(stamp) + ".csv"
}

// InvalidFileName is the invalid-words file name for a run started at t.
func InvalidFileName(t time.Time) string {
	return "invalid_words" + t.Format(stamp) + ".csv"
}

// WriteResults writes one row per respondent in input order. Respondents
// without a score get empty distance and DAT cells. It returns the path of
// the new file.
func WriteResults(dir string, res *scoring.DatasetResult, minimum int, t time.Time) (string, error) {
	cols := ColumnNames(minimum)
	rows := make([][]string, 0, len(res.Order)+1)
	rows = append(rows, cols)
	for _, id := range res.Order {
		r := res.Results[id]
		row := make([]string, len(cols))
		row[0] = id
		if r.Scored {
			for i, d := range r.Distances[:min(len(r.Distances), len(cols)-2)] {
				row[i+1] = formatFloat(d)
			}
			row[len(cols)-1] = formatFloat(r.Score)
		}
		rows = append(rows, row)
	}
	return write(dir, FileName(t), rows)
}

// WriteInvalid writes one ID, INVALID row per invalid word. It writes
// nothing and returns an empty path when no respondent had invalid words.
func WriteInvalid(dir string, res *scoring.DatasetResult, t time.Time) (string, error) {
	if len(res.Invalid) == 0 {
		return "", nil
	}
	rows := [][]string{{"ID", "INVALID"}}
	for _, id := range res.Order {
		for _, w := range res.Invalid[id] {
			rows = append(rows, []string{id, w})
		}
	}
	return write(dir, InvalidFileName(t), rows)
}

func write(dir, name string, rows [][]string) (string, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
