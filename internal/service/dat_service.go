package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"dat/internal/config"
	"dat/internal/dataset"
	"dat/internal/distance"
	"dat/internal/domain"
	"dat/internal/normalize"
	"dat/internal/report"
	"dat/internal/scoring"
	"dat/internal/vectorstore/builder"
	"dat/internal/vectorstore/memory"
	"dat/internal/vectorstore/sqlite"
	"dat/internal/vocab"
)

// DATService wires a vector store, vocabulary, validator and distance engine
// into one scoring pipeline built from the application config.
type DATService struct {
	cfg        *config.AppConfig
	store      domain.VectorStore
	vocabulary *vocab.Vocabulary
	normalizer *normalize.Normalizer
	pipeline   *scoring.Pipeline
	logger     *slog.Logger
}

// Saved lists the files written by Save. Invalid is empty when no invalid
// words were found or the diagnostics file is disabled.
type Saved struct {
	Results string
	Invalid string
}

// NewDATService opens the configured store and prepares the pipeline. For the
// memory store the vectors are read from build.model; respondents, when
// given, supply the dictionary if build.dictionary is empty.
func NewDATService(ctx context.Context, cfg *config.AppConfig, respondents []domain.Respondent, logger *slog.Logger) (*DATService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	n := normalize.New(cfg.Normalizer.Alphabet)
	store, err := openStore(ctx, cfg, respondents, n, logger)
	if err != nil {
		return nil, err
	}
	s, err := assemble(cfg, store, n, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	return s, nil
}

// NewDATServiceWithStore uses an already populated store.
func NewDATServiceWithStore(cfg *config.AppConfig, store domain.VectorStore, logger *slog.Logger) (*DATService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return assemble(cfg, store, normalize.New(cfg.Normalizer.Alphabet), logger)
}

func assemble(cfg *config.AppConfig, store domain.VectorStore, n *normalize.Normalizer, logger *slog.Logger) (*DATService, error) {
	dedupe, err := vocab.ParseDedupe(cfg.Scoring.Dedupe)
	if err != nil {
		return nil, err
	}
	voc, err := vocab.Load(store)
	if err != nil {
		return nil, err
	}
	if voc.Len() == 0 {
		return nil, errors.New("vector store holds no words")
	}
	validator := vocab.NewValidator(voc, vocab.WithNormalizer(n), vocab.WithDedupe(dedupe))
	pipeline, err := scoring.NewPipeline(validator, distance.NewEngine(store), scoring.Options{
		MinimumWords: cfg.Scoring.MinimumWords,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("vocabulary loaded", "words", voc.Len(), "store", cfg.VectorStore.Type)
	return &DATService{cfg: cfg, store: store, vocabulary: voc, normalizer: n, pipeline: pipeline, logger: logger}, nil
}

func openStore(ctx context.Context, cfg *config.AppConfig, respondents []domain.Respondent, n *normalize.Normalizer, logger *slog.Logger) (domain.VectorStore, error) {
	switch cfg.VectorStore.Type {
	case "sqlite":
		st, err := sqlite.Open(sqlite.Config{Path: cfg.VectorStore.Path, CacheSize: cfg.VectorStore.CacheSize})
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: run `dat build` first", err)
		}
		if err != nil {
			return nil, err
		}
		return st, nil
	case "memory":
		if cfg.Build.Model == "" {
			return nil, &domain.ConfigurationError{Field: "build.model", Reason: "required for the memory store"}
		}
		dict, err := dictionary(cfg, respondents, n)
		if err != nil {
			return nil, err
		}
		st := memory.NewStorage()
		stats, err := builder.LoadFile(ctx, cfg.Build.Model, dict, st)
		if err != nil {
			return nil, err
		}
		logger.Info("vectors loaded into memory", "words", stats.Stored, "dimension", stats.Dimension)
		return st, nil
	}
	return nil, &domain.ConfigurationError{Field: "vector_store.type", Reason: fmt.Sprintf("unknown store %q", cfg.VectorStore.Type)}
}

func dictionary(cfg *config.AppConfig, respondents []domain.Respondent, n *normalize.Normalizer) (builder.Dictionary, error) {
	if cfg.Build.Dictionary != "" {
		return builder.LoadDictionary(cfg.Build.Dictionary, cfg.Build.Pattern)
	}
	if len(respondents) > 0 {
		return builder.DictionaryFromRespondents(respondents, n), nil
	}
	return nil, &domain.ConfigurationError{Field: "build.dictionary", Reason: "required for the memory store without an input file"}
}

// Build creates the SQLite store from build.model. The dictionary is either
// build.dictionary or, when respondents are given, every candidate key of
// their words. It is a no-op when the store already exists.
func Build(ctx context.Context, cfg *config.AppConfig, respondents []domain.Respondent, logger *slog.Logger) (bool, builder.Stats, error) {
	if cfg.Build.Model == "" {
		return false, builder.Stats{}, &domain.ConfigurationError{Field: "build.model", Reason: "path to the embedding model is required"}
	}
	n := normalize.New(cfg.Normalizer.Alphabet)
	var (
		dict builder.Dictionary
		err  error
	)
	if len(respondents) > 0 {
		dict = builder.DictionaryFromRespondents(respondents, n)
	} else if cfg.Build.Dictionary != "" {
		dict, err = builder.LoadDictionary(cfg.Build.Dictionary, cfg.Build.Pattern)
	} else {
		err = &domain.ConfigurationError{Field: "build.dictionary", Reason: "a dictionary file or an input dataset is required"}
	}
	if err != nil {
		return false, builder.Stats{}, err
	}
	return builder.BuildSQLite(ctx, cfg.VectorStore.Path, cfg.Build.Model, dict, logger)
}

// ReadInput loads respondents using the input section of the config.
func ReadInput(cfg *config.AppConfig, path string) ([]domain.Respondent, error) {
	if path == "" {
		path = cfg.Input.Path
	}
	if path == "" {
		return nil, &domain.ConfigurationError{Field: "input.path", Reason: "no input file given"}
	}
	return dataset.Read(path, dataset.Options{
		Separator: cfg.SeparatorRune(),
		IDColumn:  cfg.Input.IDColumn,
		Header:    cfg.HasHeader(),
	})
}

// Score scores a single answer.
func (s *DATService) Score(answer []string) (scoring.Result, error) {
	return s.pipeline.Score(answer)
}

// PairLabels names the pairwise distances reported by Score.
func (s *DATService) PairLabels() []string { return s.pipeline.PairLabels() }

// MinimumWords is the configured subset size.
func (s *DATService) MinimumWords() int { return s.pipeline.MinimumWords() }

// ScoreAll scores a dataset and logs the invalid words of each respondent.
func (s *DATService) ScoreAll(respondents []domain.Respondent) (*scoring.DatasetResult, error) {
	res, err := s.pipeline.ScoreDataset(respondents)
	if err != nil {
		return nil, err
	}
	for _, id := range res.Order {
		if inv := res.Invalid[id]; len(inv) > 0 {
			s.logger.Info("invalid words", "respondent", id, "words", inv)
		}
	}
	s.logger.Info("dataset scored", "respondents", len(res.Order), "scored", res.Scored(), "rejected", len(res.Rejected))
	return res, nil
}

// Save writes the results file and, when enabled, the invalid-words file.
func (s *DATService) Save(res *scoring.DatasetResult, at time.Time) (Saved, error) {
	var out Saved
	var err error
	out.Results, err = report.WriteResults(s.cfg.Output.Dir, res, s.pipeline.MinimumWords(), at)
	if err != nil {
		return out, err
	}
	s.logger.Info("results saved", "path", out.Results)
	if s.cfg.Output.InvalidWords {
		out.Invalid, err = report.WriteInvalid(s.cfg.Output.Dir, res, at)
		if err != nil {
			return out, err
		}
		if out.Invalid != "" {
			s.logger.Info("invalid words saved", "path", out.Invalid)
		}
	}
	return out, nil
}

// Summary describes the loaded store for display.
func (s *DATService) Summary() string {
	where := s.cfg.VectorStore.Type
	if where == "sqlite" {
		where = s.cfg.VectorStore.Path
	}
	return fmt.Sprintf("%d words from %s, %d-word subsets, %s dedupe", s.vocabulary.Len(), where, s.pipeline.MinimumWords(), s.cfg.Scoring.Dedupe)
}

// Close releases the vector store.
func (s *DATService) Close() error { return s.store.Close() }
