package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dat/internal/config"
	"dat/internal/domain"
	"dat/internal/vectorstore/memory"
)

const model = `kot 1 0 0
pies 0 1 0
ryba 0 0 1
ptak 1 1 0
top-hat 1 0 1
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func testConfig(t *testing.T, dir string) *config.AppConfig {
	t.Helper()
	cfg, err := config.Load(filepath.Join(dir, "absent.yaml"))
	require.NoError(t, err)
	cfg.Scoring.MinimumWords = 3
	cfg.Build.Model = writeFile(t, dir, "model.txt", model)
	cfg.Build.Dictionary = writeFile(t, dir, "dict.txt", "kot\npies\nryba\nptak\ntop-hat\n")
	cfg.VectorStore.Path = filepath.Join(dir, "vectors.db")
	cfg.Output.Dir = filepath.Join(dir, "results")
	cfg.Output.InvalidWords = true
	cfg.Input.IDColumn = "ID"
	return cfg
}

func TestBuildThenScoreFile(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	ctx := context.Background()

	built, stats, err := Build(ctx, cfg, nil, nil)
	require.NoError(t, err)
	assert.True(t, built)
	assert.Equal(t, 5, stats.Stored)

	input := writeFile(t, dir, "answers.csv", "ID,W1,W2,W3,W4\na1,Kot,pies,ryba,xyzzy\na2,kot,KOT,pies,\n")
	respondents, err := ReadInput(cfg, input)
	require.NoError(t, err)

	svc, err := NewDATService(ctx, cfg, nil, nil)
	require.NoError(t, err)
	defer svc.Close()
	assert.Contains(t, svc.Summary(), "5 words")

	res, err := svc.ScoreAll(respondents)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2"}, res.Order)
	assert.True(t, res.Results["a1"].Scored)
	assert.InDelta(t, 100.0, res.Results["a1"].Score, 1e-9)
	assert.False(t, res.Results["a2"].Scored)
	assert.Equal(t, map[string][]string{"a1": {"xyzzy"}}, res.Invalid)

	at := time.Date(2024, time.January, 2, 3, 4, 5, 0, time.Local)
	saved, err := svc.Save(res, at)
	require.NoError(t, err)
	assert.FileExists(t, saved.Results)
	assert.FileExists(t, saved.Invalid)
}

func TestMemoryStoreUsesInputDictionary(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	cfg.VectorStore.Type = "memory"
	cfg.Build.Dictionary = ""

	respondents := []domain.Respondent{{ID: "1", Words: []string{"kot", "top hat", "ptak"}}}
	svc, err := NewDATService(context.Background(), cfg, respondents, nil)
	require.NoError(t, err)
	defer svc.Close()

	res, err := svc.Score([]string{"kot", "top hat", "ptak"})
	require.NoError(t, err)
	assert.Equal(t, []string{"kot", "top-hat", "ptak"}, res.Subset)
	assert.Len(t, res.Distances, 3)
	assert.Equal(t, []string{"W1-W2", "W1-W3", "W2-W3"}, svc.PairLabels())

	_, err = svc.Score([]string{"pies"})
	require.NoError(t, err)
}

func TestMissingStoreAndConfigErrors(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)

	_, err := NewDATService(context.Background(), cfg, nil, nil)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	cfg.Scoring.MinimumWords = 1
	_, err = NewDATService(context.Background(), cfg, nil, nil)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))

	cfg = testConfig(t, dir)
	cfg.VectorStore.Type = "memory"
	cfg.Build.Dictionary = ""
	_, err = NewDATService(context.Background(), cfg, nil, nil)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))

	cfg.Build.Model = ""
	_, _, err = Build(context.Background(), cfg, nil, nil)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))

	_, err = ReadInput(cfg, "")
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}

func TestWithStoreRejectsEmptyStore(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	_, err := NewDATServiceWithStore(cfg, memory.NewStorage(), nil)
	assert.ErrorContains(t, err, "no words")
}
