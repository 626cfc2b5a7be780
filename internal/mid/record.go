package mid

import (
	"sort"
	"time"
)

// Kind records why a backup was taken.
type Kind string

const (
	KindManual     Kind = "manual"
	KindPreWrite   Kind = "pre-write"
	KindPostWrite  Kind = "post-write"
	KindPreRestore Kind = "pre-restore"
	KindImported   Kind = "imported"
)

// BackupRecord is an immutable snapshot of the machine identifier.
type BackupRecord struct {
	ID          string `json:"id" yaml:"id"`
	Value       string `json:"value" yaml:"value"`
	Source      string `json:"source" yaml:"source"`
	Timestamp   int64  `json:"timestamp" yaml:"timestamp"` // unix seconds
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Kind        Kind   `json:"kind,omitempty" yaml:"kind,omitempty"`
}

// CreatedAt returns the record timestamp as a time.Time.
func (r *BackupRecord) CreatedAt() time.Time {
	return time.Unix(r.Timestamp, 0)
}

// EffectiveKind returns the record kind, treating records written without one as manual.
func (r *BackupRecord) EffectiveKind() Kind {
	if r.Kind == "" {
		return KindManual
	}
	return r.Kind
}

// IsSnapshot reports whether the record captured a value before (or instead of) a change.
// Post-write records only mark that a change happened.
func (r *BackupRecord) IsSnapshot() bool {
	return r.EffectiveKind() != KindPostWrite
}

// BackupStore is the ordered backup history, newest first.
type BackupStore struct {
	Backups []*BackupRecord `json:"backups" yaml:"backups"`
}

// NewBackupStore returns an empty store.
func NewBackupStore() *BackupStore {
	return &BackupStore{Backups: []*BackupRecord{}}
}

// Add inserts record at the front.
func (s *BackupStore) Add(record *BackupRecord) {
	s.Backups = append([]*BackupRecord{record}, s.Backups...)
}

// Remove deletes the first record with the given id.
func (s *BackupStore) Remove(id string) (*BackupRecord, error) {
	for i, b := range s.Backups {
		if b.ID == id {
			s.Backups = append(s.Backups[:i:i], s.Backups[i+1:]...)
			return b, nil
		}
	}
	return nil, &NotFoundError{ID: id}
}

// Find returns the first record with the given id, or nil.
func (s *BackupStore) Find(id string) *BackupRecord {
	for _, b := range s.Backups {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// Len returns the number of records.
func (s *BackupStore) Len() int {
	return len(s.Backups)
}

// ContainsValue reports whether any record holds value.
func (s *BackupStore) ContainsValue(value string) bool {
	return s.LatestByValue(value) != nil
}

// LatestByValue returns the most recent record holding value, or nil.
func (s *BackupStore) LatestByValue(value string) *BackupRecord {
	for _, b := range s.Backups {
		if SameIdentifier(b.Value, value) {
			return b
		}
	}
	return nil
}

// LatestSnapshot returns the most recent snapshot record holding value, or nil.
func (s *BackupStore) LatestSnapshot(value string) *BackupRecord {
	for _, b := range s.Backups {
		if b.IsSnapshot() && SameIdentifier(b.Value, value) {
			return b
		}
	}
	return nil
}

// Truncate drops the oldest records so that at most max remain.
// A max of zero or less keeps everything.
func (s *BackupStore) Truncate(max int) int {
	if max <= 0 || len(s.Backups) <= max {
		return 0
	}
	dropped := len(s.Backups) - max
	s.Backups = s.Backups[:max]
	return dropped
}

// SortNewestFirst orders records by timestamp, newest first, keeping the
// existing order between records with equal timestamps.
func (s *BackupStore) SortNewestFirst() {
	sort.SliceStable(s.Backups, func(i, j int) bool {
		return s.Backups[i].Timestamp > s.Backups[j].Timestamp
	})
}
