// Package db opens the SQLite database that holds the inquiry log.
package db

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// BusyTimeout is how long a write waits for another connection's lock
// before SQLite reports the database as busy.
const BusyTimeout = 5 * time.Second

// DefaultPath returns the default database path: ~/.courier-site/courier.db
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".courier-site", "courier.db"), nil
}

// Open opens (or creates) the database at path and brings its schema up to
// date. Contact handlers write concurrently through the returned pool.
func Open(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := migrate(db); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("running migrations: %w (also failed to close: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}

// dsn sets WAL mode and the busy timeout as go-sqlite3 connection
// parameters. A PRAGMA run through the pool would only reach one
// connection; these apply to every connection the pool opens.
func dsn(path string) string {
	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	params.Set("_busy_timeout", strconv.FormatInt(BusyTimeout.Milliseconds(), 10))
	return path + "?" + params.Encode()
}
