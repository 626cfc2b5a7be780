package backup

import (
	"sync"

	"mid-go/internal/mid"
)

// MemoryRepository keeps the backup history in memory.
// Loads return copies, so callers never share records with the repository.
type MemoryRepository struct {
	*snapshotRepository

	mu      sync.Mutex
	backups []mid.BackupRecord
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository(maxRecords int) *MemoryRepository {
	r := &MemoryRepository{}
	r.snapshotRepository = &snapshotRepository{
		load:       r.read,
		save:       r.write,
		maxRecords: maxRecords,
	}
	return r
}

func (r *MemoryRepository) read() (*mid.BackupStore, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	store := mid.NewBackupStore()
	for i := range r.backups {
		rec := r.backups[i]
		store.Backups = append(store.Backups, &rec)
	}
	return store, nil
}

func (r *MemoryRepository) write(store *mid.BackupStore) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.backups = make([]mid.BackupRecord, 0, store.Len())
	for _, rec := range store.Backups {
		r.backups = append(r.backups, *rec)
	}
	return nil
}

var _ mid.BackupRepository = (*MemoryRepository)(nil)
