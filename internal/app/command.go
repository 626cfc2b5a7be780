package app

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mid-go/internal/encryption"
	"mid-go/internal/mid"
	"mid-go/internal/privilege"
)

// CategoryConfig marks failures caused by missing or invalid configuration.
const CategoryConfig = "config"

// Response is the outcome of one command. Error carries a category-level
// message only; the full error goes to the log.
type Response struct {
	Success  bool   `json:"success" yaml:"success"`
	Data     any    `json:"data,omitempty" yaml:"data,omitempty"`
	Message  string `json:"message,omitempty" yaml:"message,omitempty"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`

	// ShutdownAfter is non-zero when the process should exit this long after
	// the response has been reported.
	ShutdownAfter time.Duration `json:"-" yaml:"-"`
}

// CountResult is the payload of CountBackups.
type CountResult struct {
	Count int `json:"count" yaml:"count"`
}

// RestartStatus is the payload of CheckRestartState.
type RestartStatus struct {
	WasRestarted bool                    `json:"was_restarted" yaml:"was_restarted"`
	State        *privilege.RestartState `json:"state,omitempty" yaml:"state,omitempty"`
}

// ArchiveStatus is the payload of ArchiveStatus.
type ArchiveStatus struct {
	HostID        string `json:"host_id" yaml:"host_id"`
	Vault         string `json:"vault" yaml:"vault"`
	KeyConfigured bool   `json:"key_configured" yaml:"key_configured"`
	RemoteVersion int64  `json:"remote_version" yaml:"remote_version"`
}

// configError is a configuration problem whose message is safe to show.
type configError struct {
	msg string
}

func (e *configError) Error() string { return e.msg }

var categoryMessages = map[string]string{
	mid.CategoryValidation:  "invalid identifier format: expected xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx",
	mid.CategoryRead:        "failed to read the machine identifier",
	mid.CategoryPermission:  "administrator privileges are required to change the machine identifier",
	mid.CategoryWrite:       "failed to write the machine identifier",
	mid.CategoryStorage:     "backup storage is unavailable or damaged",
	mid.CategoryUnsupported: "this operation is not supported on this platform",
}

// sanitize maps err to a message that carries no paths or OS error text.
func sanitize(action string, err error) (category, message string) {
	var cfgErr *configError
	if errors.As(err, &cfgErr) {
		return CategoryConfig, cfgErr.msg
	}

	category = mid.Category(err)
	if category == mid.CategoryNotFound {
		var nf *mid.NotFoundError
		if errors.As(err, &nf) {
			return category, fmt.Sprintf("backup not found: %s", nf.ID)
		}
		return category, "backup not found"
	}
	if msg, ok := categoryMessages[category]; ok {
		return category, msg
	}
	return category, action + " failed"
}

func (a *MIDApp) fail(action string, err error) *Response {
	a.op.Fail(err)
	category, message := sanitize(action, err)
	a.logger.Error(action+" failed", "category", category, "error", err)
	return &Response{Success: false, Category: category, Error: message}
}

// StartupFailure reports an error raised before a MIDApp could be built.
// Errors outside the known categories are reported as configuration
// problems. The full error is appended to the log in logDir when one can be
// opened.
func StartupFailure(logDir, operation string, err error) *Response {
	category, message := sanitize(operation, err)
	if category == mid.CategoryUnknown {
		category, message = CategoryConfig, "mid could not start: check the configuration file"
	}

	if logDir != "" {
		opID := time.Now().UTC().Format("20060102T150405Z")
		if logger, f, lerr := newLogger(logDir, opID, slog.LevelError+4); lerr == nil {
			logger.Error("startup failed", "operation", operation, "category", category, "error", err)
			f.Close()
		}
	}

	return &Response{Success: false, Category: category, Error: message}
}

func ok(data any, format string, args ...any) *Response {
	return &Response{Success: true, Data: data, Message: fmt.Sprintf(format, args...)}
}

// ReadIdentifier returns the live identifier.
func (a *MIDApp) ReadIdentifier() *Response {
	reading, err := a.guard.Current()
	if err != nil {
		return a.fail("read identifier", err)
	}
	return ok(reading, "%s", reading.Value)
}

// BackupCurrent records the live identifier.
func (a *MIDApp) BackupCurrent(description string) *Response {
	outcome, err := a.guard.BackupCurrent(description)
	if err != nil {
		return a.fail("backup", err)
	}
	if outcome.Skipped {
		return ok(outcome, "identifier already backed up as %s", outcome.Existing.ID)
	}
	return ok(outcome, "backup created: %s", outcome.Record.ID)
}

// ListBackups returns every backup, newest first.
func (a *MIDApp) ListBackups() *Response {
	records, err := a.guard.List()
	if err != nil {
		return a.fail("list backups", err)
	}
	if records == nil {
		records = []*mid.BackupRecord{}
	}
	return ok(records, "%d backup(s)", len(records))
}

// DeleteBackup removes one backup.
func (a *MIDApp) DeleteBackup(id string) *Response {
	record, err := a.guard.Delete(id)
	if err != nil {
		return a.fail("delete backup", err)
	}
	return ok(record, "backup deleted: %s", id)
}

// ClearBackups removes every backup.
func (a *MIDApp) ClearBackups() *Response {
	if err := a.guard.Clear(); err != nil {
		return a.fail("clear backups", err)
	}
	return ok(nil, "all backups removed")
}

// CountBackups returns the number of backups.
func (a *MIDApp) CountBackups() *Response {
	n, err := a.guard.Count()
	if err != nil {
		return a.fail("count backups", err)
	}
	return ok(&CountResult{Count: n}, "%d backup(s)", n)
}

// WriteIdentifier replaces the live identifier with value.
func (a *MIDApp) WriteIdentifier(value, description string) *Response {
	return a.writeResponse("write identifier", func() (*mid.WriteResult, error) {
		return a.guard.Write(value, description)
	})
}

// GenerateRandom writes a freshly generated identifier.
func (a *MIDApp) GenerateRandom(description string) *Response {
	return a.writeResponse("generate identifier", func() (*mid.WriteResult, error) {
		return a.guard.GenerateRandom(description)
	})
}

// writeResponse reports a write whose post-write backup failed as a success
// with a warning: the identifier has already changed.
func (a *MIDApp) writeResponse(action string, write func() (*mid.WriteResult, error)) *Response {
	result, err := write()
	if err != nil && result == nil {
		return a.fail(action, err)
	}
	if err != nil {
		a.op.Fail(err)
		a.logger.Warn(action+" completed without post-write backup", "error", err)
		return ok(result, "identifier changed to %s, but the post-write backup could not be recorded", result.NewValue)
	}
	return ok(result, "identifier changed from %s to %s", result.PreviousValue, result.NewValue)
}

// RestoreBackup writes the value of backup id back to the live identifier.
func (a *MIDApp) RestoreBackup(id string) *Response {
	result, err := a.guard.Restore(id)
	if err != nil {
		return a.fail("restore backup", err)
	}
	return ok(result, "identifier restored to %s from %s", result.RestoredValue, id)
}

// CheckPermission reports whether the identifier can be written.
func (a *MIDApp) CheckPermission() *Response {
	status, err := a.gate.Check()
	if err != nil {
		return a.fail("permission check", err)
	}
	if status.HasPermission {
		return ok(status, "identifier is writable")
	}
	return ok(status, "%s", status.Detail)
}

// RequestElevation relaunches the process elevated. When a relaunch was
// started the response asks the caller to shut down.
func (a *MIDApp) RequestElevation() *Response {
	elevation, err := a.gate.RequestElevation()
	if err != nil {
		return a.fail("elevation", err)
	}
	if !elevation.Relaunched {
		return ok(elevation, "already running with elevated privileges")
	}
	resp := ok(elevation, "elevation requested via %s", elevation.Method)
	resp.ShutdownAfter = ElevationGracePeriod
	return resp
}

// CheckRestartState consumes the restart marker left by an elevation request.
func (a *MIDApp) CheckRestartState() *Response {
	state, err := a.marker.Consume()
	if err != nil {
		return a.fail("restart state check", err)
	}
	if state == nil {
		return ok(&RestartStatus{}, "not restarted")
	}
	return ok(&RestartStatus{WasRestarted: true, State: state}, "restarted with elevated privileges")
}

// ArchiveInit generates the archive key pair and verifies the vault.
func (a *MIDApp) ArchiveInit(passphrase string) *Response {
	archiver, enc, err := a.archiveDeps()
	if err != nil {
		return a.fail("archive init", err)
	}
	if err := enc.Setup(passphrase); err != nil {
		if errors.Is(err, encryption.ErrAlreadyConfigured) {
			return a.fail("archive init", &configError{msg: "archive keys already exist"})
		}
		return a.fail("archive init", err)
	}
	if err := archiver.ValidateSetup(); err != nil {
		return a.fail("archive init", err)
	}
	return ok(nil, "archive keys created, vault %s is reachable", a.cfg.Vaults[0].Name)
}

// ArchiveExport uploads the encrypted backup history to the vault.
func (a *MIDApp) ArchiveExport() *Response {
	archiver, _, err := a.archiveDeps()
	if err != nil {
		return a.fail("archive export", err)
	}
	info, err := archiver.Export()
	if err != nil {
		return a.fail("archive export", err)
	}
	return ok(info, "exported %d backup(s), version %d", info.Records, info.Version)
}

// ArchiveImport merges the archived history into the local one.
func (a *MIDApp) ArchiveImport(passphrase string) *Response {
	archiver, enc, err := a.archiveDeps()
	if err != nil {
		return a.fail("archive import", err)
	}

	version, err := archiver.RemoteVersion()
	if err != nil {
		return a.fail("archive import", err)
	}
	if version == 0 {
		return a.fail("archive import", &configError{msg: "no archive has been exported for this host"})
	}

	dc, err := enc.Unlock(passphrase)
	if err != nil {
		a.logger.Warn("archive key unlock failed", "error", err)
		return a.fail("archive import", &configError{msg: "could not unlock the archive key"})
	}

	result, err := archiver.Import(dc)
	if err != nil {
		return a.fail("archive import", err)
	}
	return ok(result, "imported %d backup(s), skipped %d", result.Imported, result.Skipped)
}

// ArchiveStatus reports the archive configuration and remote version.
func (a *MIDApp) ArchiveStatus() *Response {
	archiver, enc, err := a.archiveDeps()
	if err != nil {
		return a.fail("archive status", err)
	}
	version, err := archiver.RemoteVersion()
	if err != nil {
		return a.fail("archive status", err)
	}
	status := &ArchiveStatus{
		HostID:        a.cfg.HostID,
		Vault:         a.cfg.Vaults[0].Name,
		KeyConfigured: enc.IsConfigured(),
		RemoteVersion: version,
	}
	if version == 0 {
		return ok(status, "no archive exported yet")
	}
	return ok(status, "archive version %d", version)
}
