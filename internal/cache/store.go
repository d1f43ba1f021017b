package cache

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/mapmend/internal/feature"
)

//go:embed schema.sql
var schemaSQL string

// Store is the per-run feature cache.
// Uses a single SQLite file that is deleted on Close.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates a fresh cache store under dir, or under the OS temp
// directory when dir is empty. The file name carries a UUIDv7 token so
// concurrent runs never collide.
//
// The returned store owns the file: Close both closes the database and
// removes the file. Callers should defer Close on every exit path.
func Open(dir string) (*Store, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, fmt.Sprintf("mapmend-cache-%s.db", uuid.Must(uuid.NewV7())))

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, &InitError{Path: path, Err: err}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		os.Remove(path)
		return nil, &InitError{Path: path, Err: err}
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		os.Remove(path)
		return nil, &InitError{Path: path, Err: err}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		os.Remove(path)
		return nil, &InitError{Path: path, Err: err}
	}

	return &Store{db: db, path: path}, nil
}

// applyPragmas sets required SQLite configuration.
// Durability pragmas stay minimal: the file never outlives the run, so
// synchronous=OFF trades crash safety it doesn't need for write speed.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = MEMORY",
		"PRAGMA synchronous = OFF",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// Path returns the location of the backing file. Useful for diagnostics;
// the file is private to this run and removed on Close.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database and removes the backing file.
// Safe to call more than once.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if rmErr := os.Remove(s.path); rmErr != nil && !os.IsNotExist(rmErr) && err == nil {
		err = rmErr
	}
	return err
}

// Put writes one entity's history, keyed by entity id, using the version
// reported by the delta that referenced it. A second Put for the same id
// replaces the earlier row entirely.
func (s *Store) Put(ctx context.Context, id, version int64, history []feature.HistoryEntry) error {
	blob, err := json.Marshal(history)
	if err != nil {
		return &WriteError{EntityID: id, Err: fmt.Errorf("marshal history: %w", err)}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO features (id, version, history)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			version = excluded.version,
			history = excluded.history
	`, id, version, string(blob))
	if err != nil {
		return &WriteError{EntityID: id, Err: err}
	}

	return nil
}

// Count returns the number of cached entities.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM features`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count features: %w", err)
	}
	return n, nil
}
