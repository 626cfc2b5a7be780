package mid

import (
	"fmt"
)

// GuardOptions tunes the mutation guard.
type GuardOptions struct {
	// SkipDuplicates suppresses a new backup when a snapshot of the same
	// value already exists.
	SkipDuplicates bool
}

// DefaultGuardOptions returns the options used when none are configured.
func DefaultGuardOptions() GuardOptions {
	return GuardOptions{SkipDuplicates: true}
}

// BackupOutcome is the result of a backup attempt. Exactly one of Record or
// Existing is set: Record when a new backup was created, Existing when the
// backup was skipped because the value is already recorded.
type BackupOutcome struct {
	Record   *BackupRecord `json:"record,omitempty" yaml:"record,omitempty"`
	Skipped  bool          `json:"skipped" yaml:"skipped"`
	Existing *BackupRecord `json:"existing,omitempty" yaml:"existing,omitempty"`
}

// WriteResult describes a guarded write.
type WriteResult struct {
	PreviousValue string         `json:"previous_value" yaml:"previous_value"`
	NewValue      string         `json:"new_value" yaml:"new_value"`
	PreWrite      *BackupOutcome `json:"pre_write_backup" yaml:"pre_write_backup"`
	PostWrite     *BackupRecord  `json:"post_write_backup,omitempty" yaml:"post_write_backup,omitempty"`
}

// RestoreResult describes a restore from the backup history.
type RestoreResult struct {
	PreviousValue string         `json:"previous_value" yaml:"previous_value"`
	RestoredValue string         `json:"restored_value" yaml:"restored_value"`
	PreRestore    *BackupOutcome `json:"pre_restore_backup" yaml:"pre_restore_backup"`
	RestoredFrom  *BackupRecord  `json:"restored_from" yaml:"restored_from"`
}

// Guard orchestrates every change of the live identifier so that it is
// bracketed by backups: the live value is never replaced unless it has been
// recorded first, or an identical snapshot already exists.
type Guard struct {
	store  IdentifierStore
	repo   BackupRepository
	logger Logger
	clock  Clock
	idgen  IDGenerator
	opts   GuardOptions

	newIdentifier func() (string, error)
}

// NewGuard creates a Guard with the provided dependencies.
func NewGuard(store IdentifierStore, repo BackupRepository, logger Logger, clock Clock, idgen IDGenerator, opts GuardOptions) *Guard {
	return &Guard{
		store:         store,
		repo:          repo,
		logger:        logger,
		clock:         clock,
		idgen:         idgen,
		opts:          opts,
		newIdentifier: NewRandomIdentifier,
	}
}

// Current reads the live identifier.
func (g *Guard) Current() (*Reading, error) {
	return g.store.Read()
}

// BackupCurrent records the live identifier in the backup history unless a
// snapshot of the same value already exists.
func (g *Guard) BackupCurrent(description string) (*BackupOutcome, error) {
	outcome, _, err := g.backupCurrent(KindManual, description)
	return outcome, err
}

// backupCurrent also returns the reading it backed up.
func (g *Guard) backupCurrent(kind Kind, description string) (*BackupOutcome, *Reading, error) {
	current, err := g.store.Read()
	if err != nil {
		return nil, nil, err
	}

	if g.opts.SkipDuplicates {
		store, err := g.repo.Load()
		if err != nil {
			return nil, nil, err
		}
		if existing := store.LatestSnapshot(current.Value); existing != nil {
			g.logger.Debug("backup skipped, value already recorded", "backup_id", existing.ID, "kind", kind)
			return &BackupOutcome{Skipped: true, Existing: existing}, current, nil
		}
	}

	record := g.newRecord(current, kind, description)
	if err := g.repo.Add(record); err != nil {
		return nil, nil, err
	}

	g.logger.Info("backup created", "backup_id", record.ID, "kind", kind, "source", record.Source)
	return &BackupOutcome{Record: record}, current, nil
}

func (g *Guard) newRecord(reading *Reading, kind Kind, description string) *BackupRecord {
	return &BackupRecord{
		ID:          g.idgen.New(),
		Value:       reading.Value,
		Source:      reading.Source,
		Timestamp:   g.clock.Now().Unix(),
		Description: description,
		Kind:        kind,
	}
}

// Write replaces the live identifier with newValue.
//
// The sequence is fixed: validate, back up the current value (a duplicate skip
// is tolerated, any other failure aborts before the store is touched), write,
// then record a post-write marker carrying description. Permission failures
// from the store are returned unchanged so the caller can elevate and retry the
// whole operation.
//
// If only the post-write record fails to persist, the populated result is
// returned together with the storage error: the write itself succeeded.
func (g *Guard) Write(newValue string, description string) (*WriteResult, error) {
	if err := Validate(newValue); err != nil {
		return nil, err
	}

	pre, previous, err := g.backupCurrent(KindPreWrite, preWriteDescription(description))
	if err != nil {
		return nil, fmt.Errorf("backing up current identifier: %w", err)
	}

	if err := g.store.Write(newValue); err != nil {
		g.logger.Warn("identifier write failed", "category", Category(err), "error", err)
		return nil, err
	}
	g.logger.Info("identifier written", "source", g.store.Source())

	result := &WriteResult{
		PreviousValue: previous.Value,
		NewValue:      newValue,
		PreWrite:      pre,
	}

	post := g.newRecord(&Reading{Value: newValue, Source: g.store.Source()}, KindPostWrite, description)
	if err := g.repo.Add(post); err != nil {
		g.logger.Error("post-write backup failed", "error", err)
		return result, fmt.Errorf("recording post-write backup: %w", err)
	}
	result.PostWrite = post

	return result, nil
}

// GenerateRandom writes a freshly generated identifier through Write.
func (g *Guard) GenerateRandom(description string) (*WriteResult, error) {
	value, err := g.newIdentifier()
	if err != nil {
		return nil, err
	}
	return g.Write(value, description)
}

// Restore writes the value held by backup id back to the live identifier,
// taking a pre-restore snapshot of the current value first.
func (g *Guard) Restore(id string) (*RestoreResult, error) {
	target, err := g.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, &NotFoundError{ID: id}
	}

	if err := Validate(target.Value); err != nil {
		return nil, fmt.Errorf("backup %s holds a corrupt value: %w", id, err)
	}

	current, err := g.store.Read()
	if err != nil {
		return nil, err
	}

	pre, _, err := g.backupCurrent(KindPreRestore, "before restoring "+id)
	if err != nil {
		return nil, fmt.Errorf("backing up current identifier: %w", err)
	}

	if err := g.store.Write(target.Value); err != nil {
		g.logger.Warn("identifier restore failed", "backup_id", id, "category", Category(err), "error", err)
		return nil, err
	}

	restored, err := g.store.Read()
	if err != nil {
		return nil, fmt.Errorf("reading restored identifier: %w", err)
	}

	g.logger.Info("identifier restored", "backup_id", id)
	return &RestoreResult{
		PreviousValue: current.Value,
		RestoredValue: restored.Value,
		PreRestore:    pre,
		RestoredFrom:  target,
	}, nil
}

// List returns the backup history, newest first.
func (g *Guard) List() ([]*BackupRecord, error) {
	store, err := g.repo.Load()
	if err != nil {
		return nil, err
	}
	return store.Backups, nil
}

// Get returns the backup with the given id.
func (g *Guard) Get(id string) (*BackupRecord, error) {
	record, err := g.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, &NotFoundError{ID: id}
	}
	return record, nil
}

// Delete removes a backup from the history.
func (g *Guard) Delete(id string) (*BackupRecord, error) {
	record, err := g.repo.Remove(id)
	if err != nil {
		return nil, err
	}
	g.logger.Info("backup deleted", "backup_id", id)
	return record, nil
}

// Clear removes every backup.
func (g *Guard) Clear() error {
	if err := g.repo.Clear(); err != nil {
		return err
	}
	g.logger.Info("backups cleared")
	return nil
}

// Count returns the number of backups.
func (g *Guard) Count() (int, error) {
	return g.repo.Count()
}

func preWriteDescription(description string) string {
	if description == "" {
		return "before write"
	}
	return "before write: " + description
}
