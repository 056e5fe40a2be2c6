package frontier

import (
	"database/sql"
	"fmt"

	"github.com/ucicrawl/ucicrawl/internal/types"

	_ "github.com/mattn/go-sqlite3"
)

// seenStore is the durable key-value store backing the frontier's
// seen-set (spec §6): urlhash -> (url, completed). SQLite gives us
// single-writer durability and incremental sync (each write commits
// immediately) with an embedded, dependency-free file format — the
// same engine the teacher reached for, repurposed here for the
// frontier's crash-safe bookkeeping instead of a queryable page
// corpus.
type seenStore struct {
	db *sql.DB
}

func openSeenStore(path string) (*seenStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seen store: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS seen (
		urlhash TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		completed INTEGER NOT NULL DEFAULT 0
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create seen schema: %w", err)
	}

	return &seenStore{db: db}, nil
}

// upsert inserts a new (urlhash, url, completed) row, or replaces an
// existing one — used both for first admission and for
// mark-complete's upsert semantics (spec §7).
func (s *seenStore) upsert(urlhash, url string, completed bool) error {
	_, err := s.db.Exec(
		`INSERT INTO seen (urlhash, url, completed) VALUES (?, ?, ?)
		 ON CONFLICT(urlhash) DO UPDATE SET completed = excluded.completed`,
		urlhash, url, boolToInt(completed),
	)
	return err
}

// get returns the record for urlhash, if any.
func (s *seenStore) get(urlhash string) (types.SeenRecord, bool, error) {
	var rec types.SeenRecord
	var completed int
	err := s.db.QueryRow(`SELECT url, completed FROM seen WHERE urlhash = ?`, urlhash).Scan(&rec.URL, &completed)
	if err == sql.ErrNoRows {
		return types.SeenRecord{}, false, nil
	}
	if err != nil {
		return types.SeenRecord{}, false, err
	}
	rec.Completed = completed != 0
	return rec, true, nil
}

// markComplete upserts urlhash as completed and reports whether a
// record already existed for it.
func (s *seenStore) markComplete(urlhash, url string) (existed bool, err error) {
	_, existed, err = s.get(urlhash)
	if err != nil {
		return false, err
	}
	if err := s.upsert(urlhash, url, true); err != nil {
		return existed, err
	}
	return existed, nil
}

// all loads every seen record, for frontier startup (spec §4.3).
func (s *seenStore) all() ([]types.SeenRecord, error) {
	rows, err := s.db.Query(`SELECT url, completed FROM seen`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.SeenRecord
	for rows.Next() {
		var rec types.SeenRecord
		var completed int
		if err := rows.Scan(&rec.URL, &completed); err != nil {
			return nil, err
		}
		rec.Completed = completed != 0
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *seenStore) close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
