package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite connection backing the local durable cache. The cache
// is a single key/value table of JSON documents; it is read at startup to
// rehydrate state when the backend is unreachable and written on every
// local-fallback path.
type DB struct {
	*sql.DB
}

// New opens (or creates) the cache database at path.
func New(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// A single writer keeps SQLite happy; the cache is tiny.
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping cache database: %w", err)
	}

	return &DB{db}, nil
}

// Initialize creates the cache schema if it does not exist yet.
func (db *DB) Initialize() error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS cache (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create cache table: %w", err)
	}
	return nil
}
