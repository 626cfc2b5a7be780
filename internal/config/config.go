package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// DefaultMaxBackups is the retention cap written by NewConfig.
const DefaultMaxBackups = 1000

// MinMaxBackups is the smallest non-zero retention cap. A restore records a
// pre-write snapshot and a post-write snapshot; a smaller cap would evict the
// pre-write snapshot in the same operation.
const MinMaxBackups = 3

// Config represents the main configuration for mid.
type Config struct {
	HostID     string           `toml:"host_id"`
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	Identifier IdentifierConfig `toml:"identifier"`
	Backup     BackupConfig     `toml:"backup"`
	Vaults     []VaultConfig    `toml:"vaults"`
	Encryption EncryptionConfig `toml:"encryption"`
}

// IdentifierConfig selects where the live machine identifier is stored.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type IdentifierConfig struct {
	Type string `toml:"type"` // "platform" (default), "file" or "memory"

	// File-specific fields (only used when Type == "file")
	Path    string `toml:"path,omitempty"`
	Compact bool   `toml:"compact,omitempty"` // file holds 32 hex digits without dashes

	// Memory-specific fields (only used when Type == "memory")
	Value string `toml:"value,omitempty"`
}

// BackupConfig represents configuration for the backup history.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type BackupConfig struct {
	Type    string `toml:"type"`               // "json" (default), "sqlite" or "memory"
	Path    string `toml:"path,omitempty"`     // only used for type=json
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite

	MaxBackups      int  `toml:"max_backups"`      // oldest records beyond this are dropped; 0 keeps all
	AllowDuplicates bool `toml:"allow_duplicates"` // back up a value even if a snapshot of it exists
}

// Validate checks the retention settings.
func (c BackupConfig) Validate() error {
	if c.MaxBackups < 0 {
		return fmt.Errorf("max_backups must not be negative, got %d", c.MaxBackups)
	}
	if c.MaxBackups > 0 && c.MaxBackups < MinMaxBackups {
		return fmt.Errorf("max_backups must be 0 (unlimited) or at least %d, got %d", MinMaxBackups, c.MaxBackups)
	}
	return nil
}

// EncryptionConfig holds paths to the age key pair used to encrypt archives.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "age" (default) or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// VaultConfig represents configuration for an archive vault backend.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type VaultConfig struct {
	Type string `toml:"type"` // "memory", "s3", or "filesystem"
	Name string `toml:"name"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket          string `toml:"s3_bucket,omitempty"`
	S3Prefix          string `toml:"s3_prefix,omitempty"`
	S3Region          string `toml:"s3_region,omitempty"`
	S3Endpoint        string `toml:"s3_endpoint,omitempty"` // S3-compatible stores
	S3PathStyle       bool   `toml:"s3_path_style,omitempty"`
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSVaultRoot string `toml:"fs_vault_root,omitempty"`
}

// NewConfig creates a new Config with the provided values and default paths.
func NewConfig(hostID, baseDir string) *Config {
	return &Config{
		HostID:     hostID,
		BaseDir:    baseDir,
		LogDir:     filepath.Join(baseDir, "log"),
		Identifier: IdentifierConfig{Type: "platform"},
		Backup: BackupConfig{
			Type:       "json",
			Path:       filepath.Join(baseDir, "backups.json"),
			DataDir:    filepath.Join(baseDir, "db"),
			MaxBackups: DefaultMaxBackups,
		},
		Encryption: EncryptionConfig{
			PublicKeyPath:  filepath.Join(baseDir, "keys", "mid.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "mid.key"),
		},
	}
}

// RestartMarkerPath returns where the privilege gate records a pending restart.
func (c *Config) RestartMarkerPath() string {
	return filepath.Join(c.BaseDir, "restart.json")
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
