package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Cache keys mirrored from the browser-durable storage of the original
// client: each holds the JSON-serialized form of one in-memory collection.
const (
	KeyCurrentUser = "currentUser"
	KeyAssignments = "assignments"
	KeyArchived    = "archivedAssignments"
)

// Get reads the value stored under key into out. The second return is false
// when the key has never been written.
func (db *DB) Get(key string, out any) (bool, error) {
	var raw string
	err := db.QueryRow(`SELECT value FROM cache WHERE key = ?`, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache key %q: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("failed to decode cache key %q: %w", key, err)
	}
	return true, nil
}

// Put serializes v as JSON and stores it under key, replacing any previous
// value.
func (db *DB) Put(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cache key %q: %w", key, err)
	}
	_, err = db.Exec(`
		INSERT INTO cache (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, string(raw), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write cache key %q: %w", key, err)
	}
	return nil
}

// Delete removes a key; deleting a missing key is a no-op.
func (db *DB) Delete(key string) error {
	if _, err := db.Exec(`DELETE FROM cache WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete cache key %q: %w", key, err)
	}
	return nil
}
