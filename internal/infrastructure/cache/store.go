// Package cache is a small sqlite-backed key/value store with TTL reads,
// used for the mirror catalog.
package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: open %s: %w", path, err)
	}

	// Single writer; the store is touched from request handlers only.
	db.SetMaxOpenConns(1)

	schema := `CREATE TABLE IF NOT EXISTS cache_entries (
		key        TEXT PRIMARY KEY,
		data       BLOB NOT NULL,
		created_at INTEGER NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: init schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the stored value if it is younger than maxAge.
func (s *Store) Get(key string, maxAge time.Duration) ([]byte, bool) {
	var data []byte
	var createdAt int64
	row := s.db.QueryRow(`SELECT data, created_at FROM cache_entries WHERE key = ?`, key)
	if err := row.Scan(&data, &createdAt); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, false
		}
		return nil, false
	}

	if time.Since(time.Unix(createdAt, 0)) >= maxAge {
		return nil, false
	}
	return data, true
}

// Put stores or replaces the value for key.
func (s *Store) Put(key string, data []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO cache_entries (key, data, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET data = excluded.data, created_at = excluded.created_at`,
		key, data, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("cache: put %s: %w", key, err)
	}
	return nil
}
