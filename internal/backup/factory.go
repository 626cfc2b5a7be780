package backup

import (
	"fmt"

	"mid-go/internal/config"
	"mid-go/internal/mid"
)

// NewRepositoryFromConfig creates a BackupRepository based on the backup config type.
// A non-empty pathOverride replaces the configured JSON document path.
// The caller closes the repository if it implements io.Closer.
func NewRepositoryFromConfig(cfg config.BackupConfig, pathOverride string) (mid.BackupRepository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Type {
	case "json", "":
		path := cfg.Path
		if pathOverride != "" {
			path = pathOverride
		}
		if path == "" {
			return nil, fmt.Errorf("json backup repository requires path to be set")
		}
		return NewJSONRepository(path, cfg.MaxBackups), nil
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite backup repository")
		}
		return OpenSQLiteRepository(cfg.DataDir, cfg.MaxBackups)
	case "memory":
		return NewMemoryRepository(cfg.MaxBackups), nil
	default:
		return nil, fmt.Errorf("unknown backup type: %s", cfg.Type)
	}
}
