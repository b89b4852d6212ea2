// Package builder fills a vector store from a text embedding model (GloVe
// format: one "word v1 v2 ..." line per entry), keeping only dictionary words.
package builder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"

	"dat/internal/domain"
	"dat/internal/normalize"
	"dat/internal/vectorstore/sqlite"
)

// DefaultPattern accepts lowercase Polish words of at least two letters that
// may contain inner hyphens.
const DefaultPattern = `^[a-ząćęłńóśźż][a-ząćęłńóśźż-]*[a-ząćęłńóśźż]$`

const maxLineBytes = 16 << 20

// Dictionary is the set of accepted words.
type Dictionary map[string]struct{}

// Stats summarizes one model pass.
type Stats struct {
	Lines     int
	Stored    int
	Dimension int
}

// Batcher is implemented by stores that can group writes in a transaction.
type Batcher interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error
}

// ReadDictionary reads one word per line. When pattern is non-nil only
// matching lines are kept.
func ReadDictionary(r io.Reader, pattern *regexp.Regexp) (Dictionary, error) {
	dict := make(Dictionary)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		w := strings.TrimSpace(sc.Text())
		if w == "" {
			continue
		}
		if pattern != nil && !pattern.MatchString(w) {
			continue
		}
		dict[w] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}
	return dict, nil
}

// LoadDictionary reads the dictionary file at path, filtered by pattern
// (empty pattern keeps every line).
func LoadDictionary(path, pattern string) (Dictionary, error) {
	var re *regexp.Regexp
	if pattern != "" {
		var err error
		if re, err = regexp.Compile(pattern); err != nil {
			return nil, &domain.ConfigurationError{Field: "build.pattern", Reason: err.Error()}
		}
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dictionary: %w", err)
	}
	defer f.Close()
	return ReadDictionary(f, re)
}

// DictionaryFromRespondents builds a dictionary out of every candidate key
// of every word in the dataset, so a store can be cut down to exactly the
// words a study needs.
func DictionaryFromRespondents(respondents []domain.Respondent, n *normalize.Normalizer) Dictionary {
	if n == nil {
		n = normalize.Default()
	}
	dict := make(Dictionary)
	for _, r := range respondents {
		for _, w := range r.Words {
			for _, c := range n.Candidates(w) {
				dict[c] = struct{}{}
			}
		}
	}
	return dict
}

// Load streams model lines from r and writes every dictionary word to w.
// All stored vectors must share the dimension of the first one.
func Load(ctx context.Context, r io.Reader, dict Dictionary, w domain.VectorWriter) (Stats, error) {
	var st Stats
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		st.Lines++
		if st.Lines%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return st, err
			}
		}
		line := sc.Text()
		word, rest, ok := strings.Cut(line, " ")
		if !ok {
			continue
		}
		if _, want := dict[word]; !want {
			continue
		}
		vec, err := parseVector(rest)
		if err != nil {
			return st, fmt.Errorf("line %d (%s): %w", st.Lines, word, err)
		}
		if st.Dimension == 0 {
			st.Dimension = len(vec)
		}
		if len(vec) != st.Dimension {
			return st, fmt.Errorf("line %d (%s): %w: %d values, want %d", st.Lines, word, domain.ErrDimensionMismatch, len(vec), st.Dimension)
		}
		if err := w.Put(word, vec); err != nil {
			return st, err
		}
		st.Stored++
	}
	if err := sc.Err(); err != nil {
		return st, fmt.Errorf("read model: %w", err)
	}
	return st, nil
}

// LoadFile is Load over the model file at path. Writes are wrapped in a
// transaction when w supports it.
func LoadFile(ctx context.Context, path string, dict Dictionary, w domain.VectorWriter) (Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return Stats{}, fmt.Errorf("open model: %w", err)
	}
	defer f.Close()

	b, batched := w.(Batcher)
	if batched {
		if err := b.Begin(ctx); err != nil {
			return Stats{}, err
		}
	}
	st, err := Load(ctx, f, dict, w)
	if err != nil {
		if batched {
			_ = b.Rollback()
		}
		return st, err
	}
	if batched {
		if err := b.Commit(); err != nil {
			return st, fmt.Errorf("commit vectors: %w", err)
		}
	}
	return st, nil
}

// BuildSQLite creates the vector database at storePath from the model file.
// It does nothing and returns false when the database already exists. A
// failed build removes the partial file.
func BuildSQLite(ctx context.Context, storePath, modelPath string, dict Dictionary, logger *slog.Logger) (bool, Stats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if sqlite.Exists(storePath) {
		logger.Info("vector database already exists", "path", storePath)
		return false, Stats{}, nil
	}
	if len(dict) == 0 {
		return false, Stats{}, errors.New("dictionary is empty")
	}
	store, err := sqlite.Create(sqlite.Config{Path: storePath})
	if err != nil {
		return false, Stats{}, err
	}
	st, err := LoadFile(ctx, modelPath, dict, store)
	closeErr := store.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(storePath)
		return false, st, fmt.Errorf("build %s: %w", storePath, err)
	}
	logger.Info("vector database created", "path", storePath, "words", st.Stored, "dimension", st.Dimension, "lines", st.Lines)
	return true, st, nil
}

func parseVector(s string) ([]float64, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no values", domain.ErrDimensionMismatch)
	}
	vec := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i+1, err)
		}
		vec[i] = v
	}
	return vec, nil
}
