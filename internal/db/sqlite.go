package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection backing the local cache
type DB struct {
	conn *sql.DB
}

// New creates a new database connection and initializes the schema
func New(dbPath string) (*DB, error) {
	// Ensure the directory exists
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection keeps ":memory:" databases coherent across calls
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(createCacheTable); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Read returns the value stored under key.
// ok is false when the slot has never been written.
func (db *DB) Read(key string) (value string, ok bool, err error) {
	err = db.conn.QueryRow(selectCacheValue, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read cache entry %q: %w", key, err)
	}
	return value, true, nil
}

// Write stores value under key, replacing any previous value
func (db *DB) Write(key, value string) error {
	if _, err := db.conn.Exec(upsertCacheValue, key, value); err != nil {
		return fmt.Errorf("failed to write cache entry %q: %w", key, err)
	}
	return nil
}

// Delete removes the entry for key (no error if absent)
func (db *DB) Delete(key string) error {
	if _, err := db.conn.Exec(deleteCacheValue, key); err != nil {
		return fmt.Errorf("failed to delete cache entry %q: %w", key, err)
	}
	return nil
}

// UpdatedAt returns when key was last written.
// The zero time is returned for missing keys.
func (db *DB) UpdatedAt(key string) (time.Time, error) {
	var raw string
	err := db.conn.QueryRow(selectCacheUpdatedAt, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read cache timestamp %q: %w", key, err)
	}
	return parseTimestamp(raw)
}

// parseTimestamp parses SQLite timestamp formats
func parseTimestamp(ts string) (time.Time, error) {
	formats := []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05Z",
		time.RFC3339,
	}
	for _, format := range formats {
		if t, err := time.Parse(format, ts); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse timestamp: %s", ts)
}
