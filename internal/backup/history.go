// Package backup persists the machine identifier backup history.
package backup

import (
	"mid-go/internal/mid"
)

// snapshotRepository implements the record-level operations of
// mid.BackupRepository on top of whole-document load and save.
// Every call reloads the document; nothing is cached between calls.
type snapshotRepository struct {
	load       func() (*mid.BackupStore, error)
	save       func(*mid.BackupStore) error
	maxRecords int
}

func (r *snapshotRepository) Load() (*mid.BackupStore, error) {
	return r.load()
}

// Save writes store, dropping the oldest records beyond the retention cap.
// The caller's store is left untouched.
func (r *snapshotRepository) Save(store *mid.BackupStore) error {
	if store != nil && r.maxRecords > 0 && store.Len() > r.maxRecords {
		store = &mid.BackupStore{Backups: store.Backups[:r.maxRecords]}
	}
	return r.save(store)
}

func (r *snapshotRepository) Add(record *mid.BackupRecord) error {
	store, err := r.load()
	if err != nil {
		return err
	}
	store.Add(record)
	store.Truncate(r.maxRecords)
	return r.save(store)
}

func (r *snapshotRepository) Remove(id string) (*mid.BackupRecord, error) {
	store, err := r.load()
	if err != nil {
		return nil, err
	}
	removed, err := store.Remove(id)
	if err != nil {
		return nil, err
	}
	if err := r.save(store); err != nil {
		return nil, err
	}
	return removed, nil
}

func (r *snapshotRepository) Clear() error {
	return r.save(mid.NewBackupStore())
}

func (r *snapshotRepository) FindByID(id string) (*mid.BackupRecord, error) {
	store, err := r.load()
	if err != nil {
		return nil, err
	}
	return store.Find(id), nil
}

func (r *snapshotRepository) Count() (int, error) {
	store, err := r.load()
	if err != nil {
		return 0, err
	}
	return store.Len(), nil
}

func (r *snapshotRepository) ContainsValue(value string) (bool, error) {
	store, err := r.load()
	if err != nil {
		return false, err
	}
	return store.ContainsValue(value), nil
}

func (r *snapshotRepository) LatestByValue(value string) (*mid.BackupRecord, error) {
	store, err := r.load()
	if err != nil {
		return nil, err
	}
	return store.LatestByValue(value), nil
}
