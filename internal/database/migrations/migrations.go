// Package migrations owns the SQLite schema of the backup history.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed files/*.sql
var migrationFiles embed.FS

var (
	// ErrDirtySchema is returned when an earlier migration stopped halfway.
	ErrDirtySchema = errors.New("backup schema is dirty")

	// ErrSchemaAhead is returned when the database was migrated by a newer mid.
	ErrSchemaAhead = errors.New("backup schema is newer than this binary")

	// ErrSchemaBehind is returned when migrations are still pending.
	ErrSchemaBehind = errors.New("backup schema needs migration")
)

// Schema describes the migration state of one database.
type Schema struct {
	Version uint // 0 when no migration has run
	Latest  uint
	Dirty   bool
}

// Inspect reads the schema version of db without changing it.
func Inspect(db *sql.DB) (*Schema, error) {
	m, err := newMigrate(db)
	if err != nil {
		return nil, err
	}
	// m stays open: closing it would close db, which the caller owns.

	latest, err := embeddedVersion()
	if err != nil {
		return nil, err
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return &Schema{Latest: latest}, nil
	case err != nil:
		return nil, fmt.Errorf("reading schema version: %w", err)
	}
	return &Schema{Version: version, Latest: latest, Dirty: dirty}, nil
}

// Check classifies s: nil when current, otherwise one of ErrDirtySchema,
// ErrSchemaAhead or ErrSchemaBehind.
func (s *Schema) Check() error {
	switch {
	case s.Dirty:
		return fmt.Errorf("%w at version %d", ErrDirtySchema, s.Version)
	case s.Version > s.Latest:
		return fmt.Errorf("%w: version %d, binary knows %d", ErrSchemaAhead, s.Version, s.Latest)
	case s.Version < s.Latest:
		return fmt.Errorf("%w: version %d of %d", ErrSchemaBehind, s.Version, s.Latest)
	}
	return nil
}

// CheckDBMigrationStatus returns nil when db is at the embedded schema version.
func CheckDBMigrationStatus(db *sql.DB) error {
	schema, err := Inspect(db)
	if err != nil {
		return err
	}
	return schema.Check()
}

// Ensure migrates db forward when it is behind and then verifies the result.
// A dirty schema or one written by a newer binary is left untouched.
func Ensure(db *sql.DB) error {
	schema, err := Inspect(db)
	if err != nil {
		return err
	}
	if err := schema.Check(); err != nil && !errors.Is(err, ErrSchemaBehind) {
		return err
	}
	if schema.Version < schema.Latest {
		if err := MigrateUp(db); err != nil {
			return err
		}
	}
	return CheckDBMigrationStatus(db)
}

// MigrateUp applies every pending migration.
func MigrateUp(db *sql.DB) error {
	m, err := newMigrate(db)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

func newMigrate(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationFiles, "files")
	if err != nil {
		return nil, fmt.Errorf("loading embedded migrations: %w", err)
	}

	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("preparing sqlite3 migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("creating migrator: %w", err)
	}
	return m, nil
}

// embeddedVersion is the highest migration compiled into the binary.
func embeddedVersion() (uint, error) {
	src, err := iofs.New(migrationFiles, "files")
	if err != nil {
		return 0, fmt.Errorf("loading embedded migrations: %w", err)
	}
	defer src.Close()
	return highestVersion(src)
}

func highestVersion(src source.Driver) (uint, error) {
	version, err := src.First()
	if err != nil {
		return 0, fmt.Errorf("reading first migration: %w", err)
	}
	for {
		next, err := src.Next(version)
		if err != nil {
			return version, nil
		}
		version = next
	}
}
