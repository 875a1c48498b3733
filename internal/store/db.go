package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrAthleteNotFound is returned when no credential exists for an athlete
var ErrAthleteNotFound = errors.New("athlete not found")

// ErrNoSnapshot is returned when no stats snapshot has been written yet
var ErrNoSnapshot = errors.New("no stats snapshot stored")

// StorageError wraps store-level failures: an unreadable database or a
// malformed row. It is fatal for a collection run, unlike per-athlete
// errors.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// DB is the application's data access layer, backed by SQLite.
type DB struct {
	db *sql.DB
}

// Open opens the SQLite database at path, creating it and its schema if
// necessary.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Serialized access keeps WriteAll transactions atomic under
	// concurrent readers
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// migrate runs all database migrations
func migrate(db *sql.DB) error {
	migrations := []string{
		// One row per connected athlete, keyed by Strava's athlete id
		`CREATE TABLE IF NOT EXISTS credentials (
			athlete_id INTEGER PRIMARY KEY,
			display_name TEXT NOT NULL,
			access_token TEXT NOT NULL,
			refresh_token TEXT NOT NULL,
			expires_at INTEGER NOT NULL,
			connected_at INTEGER NOT NULL
		)`,

		// Stats snapshot (singleton row, JSON payload, replaced wholesale)
		`CREATE TABLE IF NOT EXISTS snapshot (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			payload TEXT NOT NULL,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}

	return nil
}
