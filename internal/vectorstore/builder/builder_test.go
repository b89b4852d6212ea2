package builder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dat/internal/domain"
	"dat/internal/vectorstore/memory"
	"dat/internal/vectorstore/sqlite"
)

const model = `4 3
kot 0.1 0.2 0.3
pies 0.4 0.5 0.6
ryba 1 0 0
Kot 9 9 9
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestReadDictionaryPattern(t *testing.T) {
	in := "kot\npies\n\nKot\nx\nkot-ek\n-zły\nżółw\n"
	dict, err := ReadDictionary(strings.NewReader(in), regexp.MustCompile(DefaultPattern))
	require.NoError(t, err)
	assert.Equal(t, Dictionary{"kot": {}, "pies": {}, "kot-ek": {}, "żółw": {}}, dict)

	all, err := ReadDictionary(strings.NewReader(in), nil)
	require.NoError(t, err)
	assert.Len(t, all, 7)
}

func TestLoadDictionaryBadPattern(t *testing.T) {
	p := writeFile(t, t.TempDir(), "words.txt", "kot\n")
	_, err := LoadDictionary(p, "[")
	assert.True(t, errors.Is(err, domain.ErrConfiguration))

	dict, err := LoadDictionary(p, "")
	require.NoError(t, err)
	assert.Contains(t, dict, "kot")
}

func TestLoadKeepsDictionaryWords(t *testing.T) {
	st := memory.NewStorage()
	stats, err := Load(context.Background(), strings.NewReader(model), Dictionary{"kot": {}, "pies": {}}, st)
	require.NoError(t, err)
	assert.Equal(t, Stats{Lines: 5, Stored: 2, Dimension: 3}, stats)

	v, ok, _ := st.Vector("pies")
	require.True(t, ok)
	assert.Equal(t, []float64{0.4, 0.5, 0.6}, v)
	_, ok, _ = st.Vector("ryba")
	assert.False(t, ok)
}

func TestLoadRejectsRaggedVectors(t *testing.T) {
	in := "kot 1 2 3\npies 1 2\n"
	_, err := Load(context.Background(), strings.NewReader(in), Dictionary{"kot": {}, "pies": {}}, memory.NewStorage())
	assert.True(t, errors.Is(err, domain.ErrDimensionMismatch))

	_, err = Load(context.Background(), strings.NewReader("kot 1 x 3\n"), Dictionary{"kot": {}}, memory.NewStorage())
	assert.ErrorContains(t, err, "line 1")
}

func TestDictionaryFromRespondents(t *testing.T) {
	dict := DictionaryFromRespondents([]domain.Respondent{
		{ID: "1", Words: []string{"Kot", "top hat"}},
		{ID: "2", Words: []string{"x", "pies!"}},
	}, nil)
	assert.Equal(t, Dictionary{"kot": {}, "top-hat": {}, "tophat": {}, "pies": {}}, dict)
}

func TestBuildSQLiteIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	modelPath := writeFile(t, dir, "model.txt", model)
	storePath := filepath.Join(dir, "vectors.db")
	dict := Dictionary{"kot": {}, "ryba": {}}

	built, stats, err := BuildSQLite(context.Background(), storePath, modelPath, dict, nil)
	require.NoError(t, err)
	assert.True(t, built)
	assert.Equal(t, 2, stats.Stored)

	built, _, err = BuildSQLite(context.Background(), storePath, modelPath, Dictionary{"pies": {}}, nil)
	require.NoError(t, err)
	assert.False(t, built)

	s, err := sqlite.Open(sqlite.Config{Path: storePath})
	require.NoError(t, err)
	defer s.Close()
	keys, err := s.Keys()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"kot", "ryba"}, keys)
}

func TestBuildSQLiteRemovesPartialFile(t *testing.T) {
	dir := t.TempDir()
	modelPath := writeFile(t, dir, "model.txt", "kot 1 2\npies 1\n")
	storePath := filepath.Join(dir, "vectors.db")

	_, _, err := BuildSQLite(context.Background(), storePath, modelPath, Dictionary{"kot": {}, "pies": {}}, nil)
	require.Error(t, err)
	assert.False(t, sqlite.Exists(storePath))

	_, _, err = BuildSQLite(context.Background(), storePath, modelPath, Dictionary{}, nil)
	assert.Error(t, err)
}
