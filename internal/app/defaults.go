package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - MID_CONFIG_PATH: config file location (default: ~/.config/mid.toml)
//   - MID_HOME: base directory for mid data (default: ~/.local/share/mid)
//   - MID_BACKUP_PATH: backup document location, overrides the configured path
//
// The "backup_path" key is only present when MID_BACKUP_PATH is set.
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	defaults := map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}
	if path := os.Getenv("MID_BACKUP_PATH"); path != "" {
		defaults["backup_path"] = path
	}
	return defaults, nil
}

// getConfigPath returns the config file path, checking MID_CONFIG_PATH env var first,
// then falling back to the default ~/.config/mid.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("MID_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "mid.toml"), nil
}

// getBaseDir returns the base directory for mid data, checking MID_HOME env var first,
// then falling back to the XDG default ~/.local/share/mid.
func getBaseDir() (string, error) {
	if path := os.Getenv("MID_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "mid"), nil
}
