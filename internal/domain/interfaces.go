package domain

// Respondent is one participant's submitted answer: an ordered list of raw,
// untrusted words keyed by an identifier.
type Respondent struct {
	ID    string
	Words []string
}

// VectorLookup exposes the known vocabulary and the embedding vector of each
// key. Implementations are loaded once per scoring run and are read-only
// afterwards, so they may be shared between goroutines without locking.
type VectorLookup interface {
	Keys() ([]string, error)
	Vector(key string) ([]float64, bool, error)
}

// VectorWriter persists key/vector pairs while a store is being built.
type VectorWriter interface {
	Put(key string, vector []float64) error
}

// VectorStore is a lookup that can also be populated.
type VectorStore interface {
	VectorLookup
	VectorWriter
	Close() error
}
