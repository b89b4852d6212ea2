// Package scoring reduces respondent answers to Divergent Association Task
// scores: the mean pairwise cosine distance of the first N valid unique
// words, times 100.
package scoring

import (
	"errors"
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/stat"

	"dat/internal/distance"
	"dat/internal/domain"
	"dat/internal/vocab"
)

// DefaultMinimumWords is the number of words the task asks for.
const DefaultMinimumWords = 7

// Options configures a Pipeline.
type Options struct {
	MinimumWords int
	Logger       *slog.Logger
}

// Result is the outcome for a single answer. Distances is empty and Scored is
// false when fewer than the minimum number of valid unique words were given.
type Result struct {
	Valid     []string
	Invalid   []string
	Subset    []string
	Distances []float64
	Score     float64
	Scored    bool
}

// DatasetResult collects per-respondent results in input order. Invalid only
// holds respondents with at least one invalid word; Rejected holds
// respondents whose answer contained non-text data.
type DatasetResult struct {
	Order    []string
	Results  map[string]Result
	Invalid  map[string][]string
	Rejected map[string]error
}

// Pipeline scores answers against an immutable vocabulary and vector lookup.
// It keeps no per-call state and may be shared between goroutines.
type Pipeline struct {
	validator *vocab.Validator
	engine    *distance.Engine
	minimum   int
	logger    *slog.Logger
}

// ValidateMinimum rejects thresholds that cannot produce a pair of words.
func ValidateMinimum(n int) error {
	if n <= 1 {
		return &domain.ConfigurationError{Field: "minimum_words", Reason: fmt.Sprintf("must be an integer greater than 1, got %d", n)}
	}
	return nil
}

// NewPipeline checks opts and wires the validator and distance engine.
func NewPipeline(validator *vocab.Validator, engine *distance.Engine, opts Options) (*Pipeline, error) {
	if validator == nil || engine == nil {
		return nil, errors.New("validator and distance engine are required")
	}
	if err := ValidateMinimum(opts.MinimumWords); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{validator: validator, engine: engine, minimum: opts.MinimumWords, logger: logger}, nil
}

// MinimumWords returns the configured subset size.
func (p *Pipeline) MinimumWords() int { return p.minimum }

// PairLabels returns the column names of the pairwise distances for a subset
// of n words, in the order Score reports them: W1-W2, W1-W3, ..., W(n-1)-Wn.
func (p *Pipeline) PairLabels() []string { return PairLabels(p.minimum) }

// Score validates answer, takes the first MinimumWords valid unique keys and
// averages their pairwise distances.
func (p *Pipeline) Score(answer []string) (Result, error) {
	processed, err := p.validator.ProcessWords(answer)
	if err != nil {
		return Result{}, err
	}
	res := Result{Valid: processed.Valid, Invalid: processed.Invalid}
	if len(processed.Valid) < p.minimum {
		return res, nil
	}
	res.Subset = processed.Valid[:p.minimum]
	res.Distances, err = p.engine.Pairwise(res.Subset)
	if err != nil {
		return Result{}, err
	}
	res.Score, res.Scored = MeanScore(res.Distances)
	return res, nil
}

// ScoreDataset scores every respondent. Answers with non-text words are
// recorded in Rejected and left unscored; a missing vector aborts the run.
func (p *Pipeline) ScoreDataset(respondents []domain.Respondent) (*DatasetResult, error) {
	out := &DatasetResult{
		Order:    make([]string, 0, len(respondents)),
		Results:  make(map[string]Result, len(respondents)),
		Invalid:  make(map[string][]string),
		Rejected: make(map[string]error),
	}
	for _, r := range respondents {
		if _, dup := out.Results[r.ID]; dup {
			return nil, fmt.Errorf("%w: %q", domain.ErrDuplicateRespondent, r.ID)
		}
		res, err := p.Score(r.Words)
		switch {
		case errors.Is(err, domain.ErrInputType):
			p.logger.Warn("answer rejected", "respondent", r.ID, "err", err)
			out.Rejected[r.ID] = err
			res = Result{}
		case err != nil:
			return nil, fmt.Errorf("respondent %s: %w", r.ID, err)
		}
		out.Order = append(out.Order, r.ID)
		out.Results[r.ID] = res
		if len(res.Invalid) > 0 {
			out.Invalid[r.ID] = res.Invalid
		}
		p.logger.Debug("scored respondent", "respondent", r.ID, "valid", len(res.Valid), "invalid", len(res.Invalid), "scored", res.Scored)
	}
	return out, nil
}

// Scored counts respondents with a score.
func (d *DatasetResult) Scored() int {
	n := 0
	for _, r := range d.Results {
		if r.Scored {
			n++
		}
	}
	return n
}

// MeanScore returns the mean of distances times 100, or false when there
// are no distances.
func MeanScore(distances []float64) (float64, bool) {
	if len(distances) == 0 {
		return 0, false
	}
	return stat.Mean(distances, nil) * 100, true
}

// PairLabels names the pairs of an n-word subset in enumeration order.
func PairLabels(n int) []string {
	if n < 2 {
		return nil
	}
	labels := make([]string, 0, n*(n-1)/2)
	for i := 1; i <= n; i++ {
		for j := i + 1; j <= n; j++ {
			labels = append(labels, fmt.Sprintf("W%d-W%d", i, j))
		}
	}
	return labels
}
