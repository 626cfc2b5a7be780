package testutil

import (
	"sync"

	"mid-go/internal/backup"
	"mid-go/internal/mid"
)

// FaultyRepository wraps an in-memory repository and fails selected
// operations with a *mid.StorageError. Failures persist until cleared with nil.
type FaultyRepository struct {
	*backup.MemoryRepository

	mu       sync.Mutex
	loadErr  error
	addErr   error
	saveErr  error
	addCalls int
	// failAddAfter lets the first n adds succeed before addErr applies.
	failAddAfter int
}

// NewFaultyRepository creates a repository with no failures armed.
func NewFaultyRepository() *FaultyRepository {
	return &FaultyRepository{MemoryRepository: backup.NewMemoryRepository(0)}
}

// FailLoad makes Load and FindByID fail with err.
func (r *FaultyRepository) FailLoad(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadErr = err
}

// FailAdd makes Add fail with err once afterN adds have succeeded.
func (r *FaultyRepository) FailAdd(err error, afterN int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addErr = err
	r.failAddAfter = r.addCalls + afterN
}

// FailSave makes Save and Clear fail with err.
func (r *FaultyRepository) FailSave(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveErr = err
}

func (r *FaultyRepository) failure(err error, op string) error {
	if err == nil {
		return nil
	}
	return &mid.StorageError{Op: op, Err: err}
}

func (r *FaultyRepository) Load() (*mid.BackupStore, error) {
	r.mu.Lock()
	err := r.failure(r.loadErr, "load")
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return r.MemoryRepository.Load()
}

func (r *FaultyRepository) Save(store *mid.BackupStore) error {
	r.mu.Lock()
	err := r.failure(r.saveErr, "save")
	r.mu.Unlock()
	if err != nil {
		return err
	}
	return r.MemoryRepository.Save(store)
}

func (r *FaultyRepository) Clear() error {
	r.mu.Lock()
	err := r.failure(r.saveErr, "save")
	r.mu.Unlock()
	if err != nil {
		return err
	}
	return r.MemoryRepository.Clear()
}

func (r *FaultyRepository) Add(record *mid.BackupRecord) error {
	r.mu.Lock()
	var err error
	if r.addCalls >= r.failAddAfter {
		err = r.failure(r.addErr, "add")
	}
	if err == nil {
		r.addCalls++
	}
	r.mu.Unlock()
	if err != nil {
		return err
	}
	return r.MemoryRepository.Add(record)
}

func (r *FaultyRepository) FindByID(id string) (*mid.BackupRecord, error) {
	if _, err := r.Load(); err != nil {
		return nil, err
	}
	return r.MemoryRepository.FindByID(id)
}

// Records returns the stored history, newest first, ignoring armed failures.
func (r *FaultyRepository) Records() []*mid.BackupRecord {
	store, _ := r.MemoryRepository.Load()
	return store.Backups
}

var _ mid.BackupRepository = (*FaultyRepository)(nil)
