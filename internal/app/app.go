package app

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"mid-go/internal/backup"
	"mid-go/internal/config"
	"mid-go/internal/encryption"
	"mid-go/internal/idstore"
	"mid-go/internal/mid"
	"mid-go/internal/privilege"
	"mid-go/internal/vault"
)

// ElevationGracePeriod is how long the CLI waits after reporting an elevated
// relaunch before it exits.
const ElevationGracePeriod = 500 * time.Millisecond

// Options tunes how NewMIDApp wires the application.
type Options struct {
	// Operation identifies the CLI command being run (e.g. "WriteIdentifier").
	Operation  string
	Parameters string

	// BackupPath replaces the configured JSON backup document when set.
	BackupPath string

	// RelaunchArgs are passed to the elevated copy of the executable.
	RelaunchArgs []string

	// StderrLevel is the lowest level mirrored to stderr.
	StderrLevel slog.Level
}

// MIDApp is the application layer between the CLI and the mutation guard.
// It constructs all dependencies from config, exposes one method per command
// and releases the backup repository and log file on Close.
type MIDApp struct {
	cfg     *config.Config
	store   mid.IdentifierStore
	repo    mid.BackupRepository
	guard   *mid.Guard
	gate    mid.PrivilegeGate
	marker  *privilege.RestartMarker
	clock   mid.Clock
	logger  mid.Logger
	op      *Operation
	logFile *os.File

	// archive dependencies are built on first use
	archiver  *mid.Archiver
	encryptor mid.Encryptor
}

// LoadConfig reads the config file at path. A missing file yields the
// built-in defaults rooted at baseDir.
func LoadConfig(path, baseDir string) (*config.Config, error) {
	cfg, err := config.ReadFromFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return config.NewConfig("", baseDir), nil
		}
		return nil, err
	}
	if cfg.BaseDir == "" {
		cfg.BaseDir = baseDir
	}
	if cfg.LogDir == "" {
		cfg.LogDir = filepath.Join(cfg.BaseDir, "log")
	}
	return cfg, nil
}

// NewMIDApp creates a fully wired MIDApp from the given config.
// The caller must call Close when done.
func NewMIDApp(cfg *config.Config, opts Options) (*MIDApp, error) {
	clock := mid.RealClock{}
	started := clock.Now()
	opID := started.UTC().Format("20060102T150405Z")

	logger, logFile, err := newLogger(cfg.LogDir, opID, opts.StderrLevel)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	log := &slogAdapter{l: logger}

	store, err := idstore.NewStoreFromConfig(cfg.Identifier)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating identifier store: %w", err)
	}

	repo, err := backup.NewRepositoryFromConfig(cfg.Backup, opts.BackupPath)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating backup repository: %w", err)
	}

	guardOpts := mid.GuardOptions{SkipDuplicates: !cfg.Backup.AllowDuplicates}
	guard := mid.NewGuard(store, repo, log, clock, mid.NewTimestampIDGenerator(clock), guardOpts)

	marker := privilege.NewRestartMarker(cfg.RestartMarkerPath(), clock)
	gate := privilege.NewGate(store, marker, log, opts.RelaunchArgs)

	return &MIDApp{
		cfg:     cfg,
		store:   store,
		repo:    repo,
		guard:   guard,
		gate:    gate,
		marker:  marker,
		clock:   clock,
		logger:  log,
		op:      NewOperation(opID, opts.Operation, opts.Parameters, started),
		logFile: logFile,
	}, nil
}

// Config returns the configuration the app was built from.
func (a *MIDApp) Config() *config.Config {
	return a.cfg
}

// archiveDeps builds the archiver from the first configured vault.
// Missing configuration is reported as a *configError.
func (a *MIDApp) archiveDeps() (*mid.Archiver, mid.Encryptor, error) {
	if a.archiver != nil {
		return a.archiver, a.encryptor, nil
	}

	if len(a.cfg.Vaults) == 0 {
		return nil, nil, &configError{msg: "no vaults configured"}
	}
	if a.cfg.HostID == "" {
		return nil, nil, &configError{msg: "host_id is not configured: run `mid config init`"}
	}

	v, err := vault.NewVaultFromConfig(a.cfg.Vaults[0])
	if err != nil {
		return nil, nil, fmt.Errorf("creating vault: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(a.cfg.Encryption)
	if err != nil {
		return nil, nil, fmt.Errorf("creating encryptor: %w", err)
	}

	a.encryptor = enc
	a.archiver = mid.NewArchiver(a.repo, v, enc, a.cfg.HostID, a.logger, a.clock)
	return a.archiver, a.encryptor, nil
}

// Close logs the outcome of the operation and closes all resources.
func (a *MIDApp) Close() error {
	var firstErr error

	if c, ok := a.repo.(io.Closer); ok {
		if err := c.Close(); err != nil {
			firstErr = fmt.Errorf("closing backup repository: %w", err)
		}
	}

	a.logger.Info("operation finished",
		"operation", a.op.Name,
		"status", a.op.Status,
		"category", a.op.Category,
		"duration", a.clock.Now().Sub(a.op.StartedAt).Truncate(time.Millisecond),
	)

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
