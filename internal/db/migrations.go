package db

import (
	"database/sql"
	"fmt"
)

// migrations run in order; PRAGMA user_version records how many have been
// applied. Append only.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS inquiries (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		name       TEXT    NOT NULL,
		email      TEXT    NOT NULL,
		subject    TEXT    NOT NULL DEFAULT '',
		status     TEXT    NOT NULL CHECK (status IN ('success', 'error')),
		message    TEXT    NOT NULL DEFAULT '',
		relay      TEXT    NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_inquiries_created_at ON inquiries (created_at)`,
}

// SchemaVersion returns the number of migrations applied to db.
func SchemaVersion(db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

// migrate applies the migrations db has not seen yet, each in its own
// transaction together with the version bump.
func migrate(db *sql.DB) error {
	applied, err := SchemaVersion(db)
	if err != nil {
		return err
	}
	if applied > len(migrations) {
		return fmt.Errorf("database schema version %d is newer than this binary (%d)", applied, len(migrations))
	}

	for i := applied; i < len(migrations); i++ {
		if err := apply(db, i); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

func apply(db *sql.DB, i int) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if _, err := tx.Exec(migrations[i]); err != nil {
		_ = tx.Rollback()
		return err
	}
	// PRAGMA does not accept bound parameters.
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("recording version: %w", err)
	}
	return tx.Commit()
}
