package backup

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"mid-go/internal/database"
	"mid-go/internal/mid"
)

// SQLiteFileName is the database file created inside the configured data dir.
const SQLiteFileName = "backups.db"

// SQLiteRepository keeps the backup history in a SQLite table.
// History order is the insertion sequence: the highest seq is the newest record.
type SQLiteRepository struct {
	db         *sql.DB
	maxRecords int
}

// OpenSQLiteRepository opens (creating if needed) the history database in dataDir.
func OpenSQLiteRepository(dataDir string, maxRecords int) (*SQLiteRepository, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, &mid.StorageError{Op: "open", Err: fmt.Errorf("failed to create data directory: %w", err)}
	}
	db, err := database.OpenMigrated(filepath.Join(dataDir, SQLiteFileName))
	if err != nil {
		return nil, &mid.StorageError{Op: "open", Err: err}
	}
	return &SQLiteRepository{db: db, maxRecords: maxRecords}, nil
}

// NewSQLiteRepository wraps an existing, migrated connection.
func NewSQLiteRepository(db *sql.DB, maxRecords int) *SQLiteRepository {
	return &SQLiteRepository{db: db, maxRecords: maxRecords}
}

// Close closes the underlying database.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

const selectColumns = "id, value, source, timestamp, description, kind"

func (r *SQLiteRepository) Load() (*mid.BackupStore, error) {
	rows, err := r.db.Query("SELECT " + selectColumns + " FROM backups ORDER BY seq DESC")
	if err != nil {
		return nil, &mid.StorageError{Op: "load", Err: err}
	}
	defer rows.Close()

	store := mid.NewBackupStore()
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, &mid.StorageError{Op: "load", Err: err}
		}
		store.Backups = append(store.Backups, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &mid.StorageError{Op: "load", Err: err}
	}
	return store, nil
}

// Save replaces the whole table with store inside one transaction, keeping
// at most maxRecords of the newest records.
func (r *SQLiteRepository) Save(store *mid.BackupStore) error {
	tx, err := r.db.Begin()
	if err != nil {
		return &mid.StorageError{Op: "save", Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM backups"); err != nil {
		return &mid.StorageError{Op: "save", Err: err}
	}
	if store != nil {
		n := len(store.Backups)
		if r.maxRecords > 0 && n > r.maxRecords {
			n = r.maxRecords
		}
		// Oldest first so that seq order matches history order.
		for i := n - 1; i >= 0; i-- {
			if err := insertRecord(tx, store.Backups[i]); err != nil {
				return &mid.StorageError{Op: "save", Err: err}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return &mid.StorageError{Op: "save", Err: err}
	}
	return nil
}

func (r *SQLiteRepository) Add(record *mid.BackupRecord) error {
	tx, err := r.db.Begin()
	if err != nil {
		return &mid.StorageError{Op: "add", Err: err}
	}
	defer tx.Rollback()

	if err := insertRecord(tx, record); err != nil {
		return &mid.StorageError{Op: "add", Err: err}
	}
	if r.maxRecords > 0 {
		_, err := tx.Exec(
			"DELETE FROM backups WHERE seq NOT IN (SELECT seq FROM backups ORDER BY seq DESC LIMIT ?)",
			r.maxRecords,
		)
		if err != nil {
			return &mid.StorageError{Op: "add", Err: fmt.Errorf("trimming history: %w", err)}
		}
	}

	if err := tx.Commit(); err != nil {
		return &mid.StorageError{Op: "add", Err: err}
	}
	return nil
}

// Remove deletes the newest record with the given id.
func (r *SQLiteRepository) Remove(id string) (*mid.BackupRecord, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, &mid.StorageError{Op: "remove", Err: err}
	}
	defer tx.Rollback()

	row := tx.QueryRow("SELECT seq, "+selectColumns+" FROM backups WHERE id = ? ORDER BY seq DESC LIMIT 1", id)
	var seq int64
	rec, err := scanRecordWithSeq(row, &seq)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &mid.NotFoundError{ID: id}
		}
		return nil, &mid.StorageError{Op: "remove", Err: err}
	}

	if _, err := tx.Exec("DELETE FROM backups WHERE seq = ?", seq); err != nil {
		return nil, &mid.StorageError{Op: "remove", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return nil, &mid.StorageError{Op: "remove", Err: err}
	}
	return rec, nil
}

func (r *SQLiteRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM backups"); err != nil {
		return &mid.StorageError{Op: "clear", Err: err}
	}
	return nil
}

func (r *SQLiteRepository) FindByID(id string) (*mid.BackupRecord, error) {
	row := r.db.QueryRow("SELECT "+selectColumns+" FROM backups WHERE id = ? ORDER BY seq DESC LIMIT 1", id)
	return r.queryOne("find", row)
}

func (r *SQLiteRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM backups").Scan(&n); err != nil {
		return 0, &mid.StorageError{Op: "count", Err: err}
	}
	return n, nil
}

func (r *SQLiteRepository) ContainsValue(value string) (bool, error) {
	rec, err := r.LatestByValue(value)
	if err != nil {
		return false, err
	}
	return rec != nil, nil
}

// LatestByValue matches values case-insensitively, like mid.SameIdentifier.
func (r *SQLiteRepository) LatestByValue(value string) (*mid.BackupRecord, error) {
	row := r.db.QueryRow(
		"SELECT "+selectColumns+" FROM backups WHERE value = ? COLLATE NOCASE ORDER BY seq DESC LIMIT 1",
		value,
	)
	return r.queryOne("find", row)
}

func (r *SQLiteRepository) queryOne(op string, row *sql.Row) (*mid.BackupRecord, error) {
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, &mid.StorageError{Op: op, Err: err}
	}
	return rec, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*mid.BackupRecord, error) {
	var (
		rec         mid.BackupRecord
		description sql.NullString
		kind        string
	)
	if err := s.Scan(&rec.ID, &rec.Value, &rec.Source, &rec.Timestamp, &description, &kind); err != nil {
		return nil, err
	}
	rec.Description = description.String
	rec.Kind = mid.Kind(kind)
	return &rec, nil
}

func scanRecordWithSeq(s scanner, seq *int64) (*mid.BackupRecord, error) {
	var (
		rec         mid.BackupRecord
		description sql.NullString
		kind        string
	)
	if err := s.Scan(seq, &rec.ID, &rec.Value, &rec.Source, &rec.Timestamp, &description, &kind); err != nil {
		return nil, err
	}
	rec.Description = description.String
	rec.Kind = mid.Kind(kind)
	return &rec, nil
}

func insertRecord(tx *sql.Tx, rec *mid.BackupRecord) error {
	var description sql.NullString
	if rec.Description != "" {
		description = sql.NullString{String: rec.Description, Valid: true}
	}
	_, err := tx.Exec(
		"INSERT INTO backups (id, value, source, timestamp, description, kind) VALUES (?, ?, ?, ?, ?, ?)",
		rec.ID, rec.Value, rec.Source, rec.Timestamp, description, string(rec.Kind),
	)
	if err != nil {
		return fmt.Errorf("inserting backup %s: %w", rec.ID, err)
	}
	return nil
}

var _ mid.BackupRepository = (*SQLiteRepository)(nil)
