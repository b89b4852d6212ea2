package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"dat/internal/domain"
	"dat/internal/normalize"
	"dat/internal/report"
	"dat/internal/scoring"
	"dat/internal/vectorstore/builder"
	"dat/internal/vectorstore/sqlite"
	"dat/internal/vocab"
)

// ScoringConfig controls subset size and duplicate handling.
type ScoringConfig struct {
	MinimumWords int    `yaml:"minimum_words"`
	Dedupe       string `yaml:"dedupe"`
}

// NormalizerConfig sets the letters kept by the normalizer.
type NormalizerConfig struct {
	Alphabet string `yaml:"alphabet"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type      string `yaml:"type"`
	Path      string `yaml:"path"`
	CacheSize int    `yaml:"cache_size"`
}

// BuildConfig points at the embedding model and dictionary used to build a store.
type BuildConfig struct {
	Model      string `yaml:"model"`
	Dictionary string `yaml:"dictionary"`
	Pattern    string `yaml:"pattern"`
}

// InputConfig describes the respondent file.
type InputConfig struct {
	Path      string `yaml:"path"`
	Separator string `yaml:"separator"`
	IDColumn  string `yaml:"id_column"`
	Header    *bool  `yaml:"header,omitempty"`
}

// OutputConfig sets where results go.
type OutputConfig struct {
	Dir          string `yaml:"dir"`
	InvalidWords bool   `yaml:"invalid_words"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Scoring     ScoringConfig     `yaml:"scoring"`
	Normalizer  NormalizerConfig  `yaml:"normalizer"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Build       BuildConfig       `yaml:"build"`
	Input       InputConfig       `yaml:"input"`
	Output      OutputConfig      `yaml:"output"`
	LogLevel    string            `yaml:"log_level"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./dat.yaml first, then ~/.config/dat/config.yaml.
// If neither exists, it writes defaults to ~/.config/dat/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "dat.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate reports the first setting that cannot be used as a
// *domain.ConfigurationError.
func (c *AppConfig) Validate() error {
	if err := scoring.ValidateMinimum(c.Scoring.MinimumWords); err != nil {
		return err
	}
	if _, err := vocab.ParseDedupe(c.Scoring.Dedupe); err != nil {
		return err
	}
	switch c.VectorStore.Type {
	case "sqlite", "memory":
	default:
		return &domain.ConfigurationError{Field: "vector_store.type", Reason: fmt.Sprintf("unknown store %q, want sqlite or memory", c.VectorStore.Type)}
	}
	if c.VectorStore.CacheSize < 0 {
		return &domain.ConfigurationError{Field: "vector_store.cache_size", Reason: "must not be negative"}
	}
	if utf8.RuneCountInString(c.Input.Separator) != 1 {
		return &domain.ConfigurationError{Field: "input.separator", Reason: fmt.Sprintf("must be a single character, got %q", c.Input.Separator)}
	}
	if c.Normalizer.Alphabet == "" {
		return &domain.ConfigurationError{Field: "normalizer.alphabet", Reason: "must not be empty"}
	}
	return nil
}

// SeparatorRune returns the configured CSV separator.
func (c *AppConfig) SeparatorRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Input.Separator)
	return r
}

// HasHeader reports whether the input's first row holds column names.
func (c *AppConfig) HasHeader() bool {
	return c.Input.Header == nil || *c.Input.Header
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "dat", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Scoring.MinimumWords == 0 {
		cfg.Scoring.MinimumWords = scoring.DefaultMinimumWords
	}
	if cfg.Scoring.Dedupe == "" {
		cfg.Scoring.Dedupe = vocab.DedupeCanonical.String()
	}
	if cfg.Normalizer.Alphabet == "" {
		cfg.Normalizer.Alphabet = normalize.DefaultAlphabet
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "sqlite"
	}
	if cfg.VectorStore.Path == "" {
		cfg.VectorStore.Path = sqlite.DefaultPath
	}
	if cfg.VectorStore.CacheSize == 0 {
		cfg.VectorStore.CacheSize = 4096
	}
	if cfg.Build.Pattern == "" {
		cfg.Build.Pattern = builder.DefaultPattern
	}
	if cfg.Input.Separator == "" {
		cfg.Input.Separator = ","
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = report.DefaultDir
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "INFO"
	}
}
