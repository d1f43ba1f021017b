package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/roach88/mapmend/internal/feature"
)

// Entry is one cached row: an entity id, the version the triggering delta
// reported for it, and the history as fetched (wrapper metadata intact).
type Entry struct {
	ID      int64
	Version int64
	History []feature.HistoryEntry
}

// Scanner is a lazy, non-restartable cursor over the cache. Rows come out
// in primary-key order. Callers must Close the scanner and should check
// Err after the final Next.
type Scanner struct {
	rows *sql.Rows
}

// ScanAll opens a cursor over every cached entity.
// Only one scan should be active at a time; the store is single-reader by
// contract once the write phase ends.
func (s *Store) ScanAll(ctx context.Context) (*Scanner, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, version, history
		FROM features
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("scan features: %w", err)
	}
	return &Scanner{rows: rows}, nil
}

// Next advances to the next entry. Returns false when the scan is
// exhausted or has failed; distinguish via Err.
func (sc *Scanner) Next() bool {
	return sc.rows.Next()
}

// Entry decodes the current row.
func (sc *Scanner) Entry() (Entry, error) {
	var (
		e    Entry
		blob string
	)
	if err := sc.rows.Scan(&e.ID, &e.Version, &blob); err != nil {
		return Entry{}, fmt.Errorf("scan row: %w", err)
	}
	if err := json.Unmarshal([]byte(blob), &e.History); err != nil {
		return Entry{}, fmt.Errorf("decode history for entity %d: %w", e.ID, err)
	}
	return e, nil
}

// Err returns the first error encountered during iteration.
func (sc *Scanner) Err() error {
	return sc.rows.Err()
}

// Close releases the cursor.
func (sc *Scanner) Close() error {
	return sc.rows.Close()
}
