package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dat/internal/domain"
	"dat/internal/normalize"
)

func TestLoadMissingReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Scoring.MinimumWords)
	assert.Equal(t, "canonical", cfg.Scoring.Dedupe)
	assert.Equal(t, "sqlite", cfg.VectorStore.Type)
	assert.Equal(t, "vectors.db", cfg.VectorStore.Path)
	assert.Equal(t, normalize.DefaultAlphabet, cfg.Normalizer.Alphabet)
	assert.Equal(t, ',', cfg.SeparatorRune())
	assert.True(t, cfg.HasHeader())
	assert.Equal(t, "results", cfg.Output.Dir)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFillsZeroValues(t *testing.T) {
	p := filepath.Join(t.TempDir(), "dat.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
scoring:
  minimum_words: 5
  dedupe: raw
input:
  separator: ";"
  id_column: ID
  header: false
log_level: DEBUG
`), 0o644))

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Scoring.MinimumWords)
	assert.Equal(t, "raw", cfg.Scoring.Dedupe)
	assert.Equal(t, ';', cfg.SeparatorRune())
	assert.Equal(t, "ID", cfg.Input.IDColumn)
	assert.False(t, cfg.HasHeader())
	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, 4096, cfg.VectorStore.CacheSize)
	assert.NoError(t, cfg.Validate())
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	p := filepath.Join(t.TempDir(), "dat.yaml")
	require.NoError(t, os.WriteFile(p, []byte("scoring: [\n"), 0o644))
	_, err := Load(p)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultConfig()
	cfg.Scoring.MinimumWords = 10
	require.NoError(t, Save(p, cfg))

	got, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*AppConfig){
		"minimum one":      func(c *AppConfig) { c.Scoring.MinimumWords = 1 },
		"minimum negative": func(c *AppConfig) { c.Scoring.MinimumWords = -3 },
		"dedupe":           func(c *AppConfig) { c.Scoring.Dedupe = "fuzzy" },
		"store type":       func(c *AppConfig) { c.VectorStore.Type = "qdrant" },
		"cache size":       func(c *AppConfig) { c.VectorStore.CacheSize = -1 },
		"separator":        func(c *AppConfig) { c.Input.Separator = ";;" },
		"alphabet":         func(c *AppConfig) { c.Normalizer.Alphabet = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := defaultConfig()
			mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrConfiguration))
		})
	}
}

func TestLoadDefaultPrefersWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", filepath.Join(dir, "home"))

	cfg, path, err := LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "home", ".config", "dat", "config.yaml"), path)
	assert.FileExists(t, path)
	assert.Equal(t, 7, cfg.Scoring.MinimumWords)

	require.NoError(t, os.WriteFile("dat.yaml", []byte("scoring:\n  minimum_words: 3\n"), 0o644))
	cfg, path, err = LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, "dat.yaml", path)
	assert.Equal(t, 3, cfg.Scoring.MinimumWords)
}
