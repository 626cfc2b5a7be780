package mid

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ArchiveName is the vault metadata name holding the exported backup history.
const ArchiveName = "backups"

// ArchiveInfo describes an exported archive.
type ArchiveInfo struct {
	HostID  string `json:"host_id" yaml:"host_id"`
	Version int64  `json:"version" yaml:"version"`
	Records int    `json:"records" yaml:"records"`
	Size    int64  `json:"size" yaml:"size"`
}

// ImportResult reports how an archive was merged into the local history.
type ImportResult struct {
	Version  int64 `json:"version" yaml:"version"`
	Imported int   `json:"imported" yaml:"imported"`
	Skipped  int   `json:"skipped" yaml:"skipped"`
}

// Archiver copies the backup history to and from a vault, encrypted.
type Archiver struct {
	repo      BackupRepository
	vault     Vault
	encryptor Encryptor
	hostID    string
	logger    Logger
	clock     Clock
}

// NewArchiver creates an Archiver with the provided dependencies.
func NewArchiver(repo BackupRepository, vault Vault, encryptor Encryptor, hostID string, logger Logger, clock Clock) *Archiver {
	return &Archiver{
		repo:      repo,
		vault:     vault,
		encryptor: encryptor,
		hostID:    hostID,
		logger:    logger,
		clock:     clock,
	}
}

// Export encrypts the whole backup history and uploads it to the vault.
// The archive version is the export instant in unix milliseconds.
func (a *Archiver) Export() (*ArchiveInfo, error) {
	store, err := a.repo.Load()
	if err != nil {
		return nil, err
	}

	plain, err := json.Marshal(store)
	if err != nil {
		return nil, fmt.Errorf("encoding backup history: %w", err)
	}

	var sealed bytes.Buffer
	if err := a.encryptor.Encrypt(bytes.NewReader(plain), &sealed); err != nil {
		return nil, fmt.Errorf("encrypting backup history: %w", err)
	}

	version := a.clock.Now().UnixMilli()
	size := int64(sealed.Len())
	if err := a.vault.PutMetadata(a.hostID, ArchiveName, &sealed, size, version); err != nil {
		return nil, fmt.Errorf("uploading backup history: %w", err)
	}

	a.logger.Info("backup history exported", "records", store.Len(), "version", version)
	return &ArchiveInfo{
		HostID:  a.hostID,
		Version: version,
		Records: store.Len(),
		Size:    size,
	}, nil
}

// Import downloads the archived history and merges it into the local one.
// Records whose id already exists locally are skipped. The merged history is
// re-ordered newest first by timestamp before it is saved.
func (a *Archiver) Import(dc DecryptionContext) (*ImportResult, error) {
	version, err := a.vault.GetMetadataVersion(a.hostID, ArchiveName)
	if err != nil {
		return nil, fmt.Errorf("checking archive version: %w", err)
	}
	if version == 0 {
		return nil, fmt.Errorf("no archive found for host %s", a.hostID)
	}

	var sealed bytes.Buffer
	if err := a.vault.GetMetadata(a.hostID, ArchiveName, &sealed); err != nil {
		return nil, fmt.Errorf("downloading backup history: %w", err)
	}

	var plain bytes.Buffer
	if err := dc.Decrypt(&sealed, &plain); err != nil {
		return nil, fmt.Errorf("decrypting backup history: %w", err)
	}

	var remote BackupStore
	if err := json.Unmarshal(plain.Bytes(), &remote); err != nil {
		return nil, fmt.Errorf("decoding backup history: %w", err)
	}

	local, err := a.repo.Load()
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Version: version}
	for _, rec := range remote.Backups {
		if rec == nil {
			a.logger.Warn("archived backup skipped", "error", "null entry")
			result.Skipped++
			continue
		}
		if local.Find(rec.ID) != nil {
			result.Skipped++
			continue
		}
		if err := Validate(rec.Value); err != nil {
			a.logger.Warn("archived backup skipped", "backup_id", rec.ID, "error", err)
			result.Skipped++
			continue
		}
		if rec.Kind == "" {
			rec.Kind = KindImported
		}
		local.Backups = append(local.Backups, rec)
		result.Imported++
	}

	if result.Imported > 0 {
		local.SortNewestFirst()
		if err := a.repo.Save(local); err != nil {
			return nil, err
		}
	}

	a.logger.Info("backup history imported", "imported", result.Imported, "skipped", result.Skipped, "version", version)
	return result, nil
}

// RemoteVersion returns the version of the archived history, 0 if none.
func (a *Archiver) RemoteVersion() (int64, error) {
	return a.vault.GetMetadataVersion(a.hostID, ArchiveName)
}

// ValidateSetup verifies the vault is reachable.
func (a *Archiver) ValidateSetup() error {
	return a.vault.ValidateSetup()
}
