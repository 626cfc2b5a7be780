package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"mid-go/internal/mid"
)

// JSONRepository keeps the backup history in a single JSON document:
//
//	{"backups": [ {"id": "backup_1705314600000", "value": "...", ...}, ... ]}
//
// A missing file reads as an empty history. Writes go to a temp file in the
// same directory which is then renamed over the document.
type JSONRepository struct {
	*snapshotRepository
	path string
}

// NewJSONRepository creates a repository for the document at path.
// maxRecords caps the history on insert; zero keeps everything.
func NewJSONRepository(path string, maxRecords int) *JSONRepository {
	r := &JSONRepository{path: path}
	r.snapshotRepository = &snapshotRepository{
		load:       r.read,
		save:       r.write,
		maxRecords: maxRecords,
	}
	return r
}

// Path returns the document location.
func (r *JSONRepository) Path() string {
	return r.path
}

func (r *JSONRepository) read() (*mid.BackupStore, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return mid.NewBackupStore(), nil
		}
		return nil, &mid.StorageError{Op: "load", Err: err}
	}

	var store mid.BackupStore
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, &mid.StorageError{Op: "load", Err: fmt.Errorf("decoding %s: %w", r.path, err)}
	}
	if store.Backups == nil {
		store.Backups = []*mid.BackupRecord{}
	}
	for i, rec := range store.Backups {
		if rec == nil {
			return nil, &mid.StorageError{Op: "load", Err: fmt.Errorf("decoding %s: backup entry %d is null", r.path, i)}
		}
	}
	return &store, nil
}

func (r *JSONRepository) write(store *mid.BackupStore) error {
	if store == nil || store.Backups == nil {
		store = mid.NewBackupStore()
	}
	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return &mid.StorageError{Op: "save", Err: fmt.Errorf("encoding backups: %w", err)}
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return &mid.StorageError{Op: "save", Err: fmt.Errorf("failed to create backup directory: %w", err)}
	}
	if err := writeFileAtomic(r.path, data); err != nil {
		return &mid.StorageError{Op: "save", Err: err}
	}
	return nil
}

// writeFileAtomic writes data to destPath using a temp file + rename.
func writeFileAtomic(destPath string, data []byte) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

var _ mid.BackupRepository = (*JSONRepository)(nil)
