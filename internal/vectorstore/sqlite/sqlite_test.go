package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dat/internal/domain"
)

func TestCreatePutReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "vectors.db")
	assert.False(t, Exists(path))

	s, err := Create(Config{Path: path})
	require.NoError(t, err)
	require.NoError(t, s.Put("kot", []float64{0.5, -1.25, 3}))
	require.NoError(t, s.Put("pies", []float64{1, 2, 3}))
	require.NoError(t, s.Close())
	assert.True(t, Exists(path))

	s, err = Open(Config{Path: path, CacheSize: 1})
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, path, s.Path())

	keys, err := s.Keys()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"kot", "pies"}, keys)

	for i := 0; i < 2; i++ {
		v, ok, err := s.Vector("kot")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []float64{0.5, -1.25, 3}, v)
	}

	_, ok, err := s.Vector("ryba")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(Config{Path: filepath.Join(t.TempDir(), "absent.db")})
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestPutReplacesCachedVector(t *testing.T) {
	s, err := Create(Config{Path: filepath.Join(t.TempDir(), "v.db")})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put("kot", []float64{1}))
	v, _, err := s.Vector("kot")
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, v)

	require.NoError(t, s.Put("kot", []float64{2}))
	v, _, err = s.Vector("kot")
	require.NoError(t, err)
	assert.Equal(t, []float64{2}, v)
}

func TestTransaction(t *testing.T) {
	s, err := Create(Config{Path: filepath.Join(t.TempDir(), "v.db")})
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Begin(ctx))
	assert.Error(t, s.Begin(ctx))
	require.NoError(t, s.Put("kot", []float64{1, 1}))
	require.NoError(t, s.Rollback())

	_, ok, err := s.Vector("kot")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Begin(ctx))
	require.NoError(t, s.Put("pies", []float64{1, 1}))
	require.NoError(t, s.Commit())
	assert.Error(t, s.Commit())

	_, ok, err = s.Vector("pies")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPutRejectsEmpty(t *testing.T) {
	s, err := Create(Config{Path: filepath.Join(t.TempDir(), "v.db")})
	require.NoError(t, err)
	defer s.Close()

	assert.Error(t, s.Put("", []float64{1}))
	assert.True(t, errors.Is(s.Put("kot", nil), domain.ErrDimensionMismatch))
}

func TestDecodeRejectsTruncatedBlob(t *testing.T) {
	_, err := decode([]byte{1, 2, 3})
	assert.True(t, errors.Is(err, domain.ErrDimensionMismatch))

	v, err := decode(encode([]float64{3.5, -0}))
	require.NoError(t, err)
	assert.Equal(t, []float64{3.5, 0}, v)
}
