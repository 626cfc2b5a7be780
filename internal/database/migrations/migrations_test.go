package migrations

import (
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestMigrateUp_FreshDatabase(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	for _, table := range []string{"backups", "schema_migrations"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s was not created: %v", table, err)
		}
	}
}

func TestCheckDBMigrationStatus_FreshDatabase(t *testing.T) {
	db := openTestDB(t)

	err := CheckDBMigrationStatus(db)
	if !errors.Is(err, ErrSchemaBehind) {
		t.Fatalf("CheckDBMigrationStatus() error = %v, want ErrSchemaBehind", err)
	}
}

func TestCheckDBMigrationStatus_AfterMigration(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}
	if err := CheckDBMigrationStatus(db); err != nil {
		t.Errorf("CheckDBMigrationStatus() after migration returned error: %v", err)
	}
}

func TestMigrateUp_Idempotent(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("first MigrateUp() failed: %v", err)
	}
	if err := MigrateUp(db); err != nil {
		t.Errorf("second MigrateUp() failed: %v (should be idempotent)", err)
	}
}

func TestInspect(t *testing.T) {
	db := openTestDB(t)

	schema, err := Inspect(db)
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	if schema.Version != 0 || schema.Latest != 1 || schema.Dirty {
		t.Errorf("Inspect() before migration = %+v", schema)
	}

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}
	schema, err = Inspect(db)
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	if schema.Version != 1 || schema.Latest != 1 {
		t.Errorf("Inspect() after migration = %+v", schema)
	}
}

func TestEnsure(t *testing.T) {
	tests := []struct {
		name    string
		tamper  string // applied after a first migration; empty leaves a fresh database
		wantErr error
	}{
		{name: "fresh database is migrated"},
		{name: "current database", tamper: "SELECT 1"},
		{name: "dirty schema", tamper: "UPDATE schema_migrations SET dirty = 1", wantErr: ErrDirtySchema},
		{name: "schema from newer binary", tamper: "UPDATE schema_migrations SET version = 99", wantErr: ErrSchemaAhead},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := openTestDB(t)
			if tt.tamper != "" {
				if err := MigrateUp(db); err != nil {
					t.Fatalf("MigrateUp() failed: %v", err)
				}
				if _, err := db.Exec(tt.tamper); err != nil {
					t.Fatalf("tampering schema: %v", err)
				}
			}

			err := Ensure(db)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Ensure() error = %v", err)
				}
				if err := CheckDBMigrationStatus(db); err != nil {
					t.Errorf("CheckDBMigrationStatus() after Ensure = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Ensure() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSchema_BackupIDsNotUnique(t *testing.T) {
	db := openTestDB(t)
	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	insert := "INSERT INTO backups (id, value, source, timestamp) VALUES ('backup_1', ?, 'test', 1)"
	if _, err := db.Exec(insert, "550e8400-e29b-41d4-a716-446655440000"); err != nil {
		t.Fatalf("first insert error = %v", err)
	}
	if _, err := db.Exec(insert, "660e8400-e29b-41d4-a716-446655440000"); err != nil {
		t.Errorf("second insert with same id failed: %v", err)
	}
}

// openTestDB opens an in-memory SQLite database for testing.
// A single connection keeps every statement on the same in-memory database.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	return db
}
