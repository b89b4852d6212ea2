// Package distance computes cosine distances between vocabulary keys.
package distance

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"dat/internal/domain"
)

// Engine resolves keys to vectors through a read-only lookup.
type Engine struct {
	lookup domain.VectorLookup
}

// NewEngine wraps lookup.
func NewEngine(lookup domain.VectorLookup) *Engine {
	return &Engine{lookup: lookup}
}

// Vector returns the vector for key or a *domain.MissingVectorError.
func (e *Engine) Vector(key string) ([]float64, error) {
	vec, ok, err := e.lookup.Vector(key)
	if err != nil {
		return nil, fmt.Errorf("lookup %q: %w", key, err)
	}
	if !ok || vec == nil {
		return nil, &domain.MissingVectorError{Key: key}
	}
	return vec, nil
}

// Distance returns the cosine distance (0 to 2) between two keys.
func (e *Engine) Distance(a, b string) (float64, error) {
	u, err := e.Vector(a)
	if err != nil {
		return 0, err
	}
	if a == b {
		return 0, nil
	}
	v, err := e.Vector(b)
	if err != nil {
		return 0, err
	}
	return Cosine(u, v)
}

// Pairwise returns the distance of every pair (i, j), i < j, of keys in
// row-major order: (0,1), (0,2), ..., (1,2), ... Each vector is fetched once.
func (e *Engine) Pairwise(keys []string) ([]float64, error) {
	vecs := make([][]float64, len(keys))
	for i, k := range keys {
		v, err := e.Vector(k)
		if err != nil {
			return nil, err
		}
		vecs[i] = v
	}
	out := make([]float64, 0, len(keys)*(len(keys)-1)/2)
	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			if keys[i] == keys[j] {
				out = append(out, 0)
				continue
			}
			d, err := Cosine(vecs[i], vecs[j])
			if err != nil {
				return nil, fmt.Errorf("%s-%s: %w", keys[i], keys[j], err)
			}
			out = append(out, d)
		}
	}
	return out, nil
}

// Cosine returns 1 - cos(u, v), clamped to [0, 2]. A zero vector has no
// direction and is treated as orthogonal to everything (distance 1).
func Cosine(u, v []float64) (float64, error) {
	if len(u) != len(v) || len(u) == 0 {
		return 0, fmt.Errorf("%w: %d vs %d", domain.ErrDimensionMismatch, len(u), len(v))
	}
	nu, nv := floats.Norm(u, 2), floats.Norm(v, 2)
	if nu == 0 || nv == 0 {
		return 1, nil
	}
	sim := floats.Dot(u, v) / (nu * nv)
	if sim > 1 {
		sim = 1
	} else if sim < -1 {
		sim = -1
	}
	return 1 - sim, nil
}
