package memory

import (
	"errors"
	"fmt"
	"sync"

	"dat/internal/domain"
)

// Storage is an in-memory vector lookup. All vectors share one dimension,
// fixed by the first Put.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	vectors   map[string][]float64
	keys      []string
}

func NewStorage() *Storage { return &Storage{vectors: make(map[string][]float64)} }

// FromMap builds a storage from word -> vector pairs.
func FromMap(m map[string][]float64) (*Storage, error) {
	s := NewStorage()
	for k, v := range m {
		if err := s.Put(k, v); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Storage) Put(key string, vector []float64) error {
	if key == "" {
		return errors.New("empty key")
	}
	if len(vector) == 0 {
		return fmt.Errorf("%w: empty vector for %q", domain.ErrDimensionMismatch, key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension == 0 {
		s.dimension = len(vector)
	}
	if len(vector) != s.dimension {
		return fmt.Errorf("%w: %q has %d values, want %d", domain.ErrDimensionMismatch, key, len(vector), s.dimension)
	}
	if _, exists := s.vectors[key]; !exists {
		s.keys = append(s.keys, key)
	}
	s.vectors[key] = append([]float64(nil), vector...)
	return nil
}

// Keys returns the stored keys in insertion order.
func (s *Storage) Keys() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.keys...), nil
}

func (s *Storage) Vector(key string) ([]float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vectors[key]
	return v, ok, nil
}

func (s *Storage) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimension
}

func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

func (s *Storage) Close() error { return nil }
