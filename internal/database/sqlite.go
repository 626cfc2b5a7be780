// Package database opens the SQLite file backing the backup history.
package database

import (
	"database/sql"
	"fmt"

	"mid-go/internal/database/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// OpenConnection opens and configures a SQLite database connection.
// path can be a file path or ":memory:" for an in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: an in-memory database exists per connection, and the
	// history is only ever touched by one caller at a time.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// OpenMigrated opens path and brings its schema up to date. A dirty schema or
// one written by a newer binary fails the open.
func OpenMigrated(path string) (*sql.DB, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.Ensure(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
