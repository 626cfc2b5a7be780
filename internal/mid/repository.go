package mid

// BackupRepository is the durable, ordered backup history.
// Every method reads the persisted form afresh; mutating methods rewrite it.
// Failures are reported as *StorageError.
type BackupRepository interface {
	// Load reads the whole store, returning an empty store if none exists yet.
	Load() (*BackupStore, error)

	// Save replaces the persisted store with store.
	Save(store *BackupStore) error

	// Add inserts record at the front of the history and persists it.
	Add(record *BackupRecord) error

	// Remove deletes the record with the given id and returns it.
	// Returns a *NotFoundError if no record has that id.
	Remove(id string) (*BackupRecord, error)

	// Clear persists an empty store.
	Clear() error

	// FindByID returns the record with the given id, or nil if absent.
	FindByID(id string) (*BackupRecord, error)

	// Count returns the number of records.
	Count() (int, error)

	// ContainsValue reports whether any record holds value.
	ContainsValue(value string) (bool, error)

	// LatestByValue returns the most recent record holding value, or nil.
	LatestByValue(value string) (*BackupRecord, error)
}
