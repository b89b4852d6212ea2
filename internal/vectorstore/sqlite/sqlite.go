package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "modernc.org/sqlite"

	"dat/internal/domain"
)

const (
	// DefaultPath is where the vector database lives unless configured.
	DefaultPath = "vectors.db"

	defaultCacheSize = 4096

	schema = `CREATE TABLE IF NOT EXISTS vectors (word VARCHAR(40) PRIMARY KEY, vector BLOB)`
)

// Config locates the database and sizes the read cache.
type Config struct {
	Path      string
	CacheSize int
}

// Storage is a SQLite-backed vector lookup. Vectors are stored as raw
// little-endian float64 arrays, one row per word.
type Storage struct {
	db    *sql.DB
	path  string
	cache *lru.Cache[string, []float64]

	txMu sync.Mutex
	tx   *sql.Tx
}

// Exists reports whether a database file is already present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Open opens an existing database.
func Open(cfg Config) (*Storage, error) {
	if !Exists(cfg.Path) {
		return nil, fmt.Errorf("vector database %s: %w", cfg.Path, os.ErrNotExist)
	}
	return open(cfg)
}

// Create opens the database at cfg.Path, creating the file and table if needed.
func Create(cfg Config) (*Storage, error) {
	if dir := filepath.Dir(cfg.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dir: %w", err)
		}
	}
	s, err := open(cfg)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.Exec(schema); err != nil {
		s.db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return s, nil
}

func open(cfg Config) (*Storage, error) {
	path := cfg.Path
	if path == "" {
		path = DefaultPath
	}
	size := cfg.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	cache, err := lru.New[string, []float64](size)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Storage{db: db, path: path, cache: cache}, nil
}

// Path returns the database file location.
func (s *Storage) Path() string { return s.path }

// Keys returns every stored word.
func (s *Storage) Keys() ([]string, error) {
	rows, err := s.db.Query(`SELECT word FROM vectors`)
	if err != nil {
		return nil, fmt.Errorf("query words: %w", err)
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, err
		}
		keys = append(keys, w)
	}
	return keys, rows.Err()
}

// Vector returns the vector for key, consulting the cache first.
func (s *Storage) Vector(key string) ([]float64, bool, error) {
	if v, ok := s.cache.Get(key); ok {
		return v, true, nil
	}
	var blob []byte
	err := s.db.QueryRow(`SELECT vector FROM vectors WHERE word = ?`, key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query vector %q: %w", key, err)
	}
	v, err := decode(blob)
	if err != nil {
		return nil, false, fmt.Errorf("decode vector %q: %w", key, err)
	}
	s.cache.Add(key, v)
	return v, true, nil
}

// Put inserts or replaces one vector. Inside Begin/Commit the write joins
// the open transaction.
func (s *Storage) Put(key string, vector []float64) error {
	if key == "" {
		return errors.New("empty key")
	}
	if len(vector) == 0 {
		return fmt.Errorf("%w: empty vector for %q", domain.ErrDimensionMismatch, key)
	}
	const q = `INSERT OR REPLACE INTO vectors (word, vector) VALUES (?, ?)`
	s.txMu.Lock()
	defer s.txMu.Unlock()
	var err error
	if s.tx != nil {
		_, err = s.tx.Exec(q, key, encode(vector))
	} else {
		_, err = s.db.Exec(q, key, encode(vector))
	}
	if err != nil {
		return fmt.Errorf("insert %q: %w", key, err)
	}
	s.cache.Remove(key)
	return nil
}

// Begin starts a write transaction used by subsequent Puts.
func (s *Storage) Begin(ctx context.Context) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if s.tx != nil {
		return errors.New("transaction already open")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	s.tx = tx
	return nil
}

// Commit finishes the transaction opened by Begin.
func (s *Storage) Commit() error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if s.tx == nil {
		return errors.New("no open transaction")
	}
	err := s.tx.Commit()
	s.tx = nil
	return err
}

// Rollback abandons the transaction opened by Begin, if any.
func (s *Storage) Rollback() error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if s.tx == nil {
		return nil
	}
	err := s.tx.Rollback()
	s.tx = nil
	return err
}

func (s *Storage) Close() error {
	_ = s.Rollback()
	return s.db.Close()
}

func encode(v []float64) []byte {
	buf := make([]byte, 8*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(f))
	}
	return buf
}

func decode(b []byte) ([]float64, error) {
	if len(b) == 0 || len(b)%8 != 0 {
		return nil, fmt.Errorf("%w: blob of %d bytes", domain.ErrDimensionMismatch, len(b))
	}
	v := make([]float64, len(b)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[8*i:]))
	}
	return v, nil
}
