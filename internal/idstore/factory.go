package idstore

import (
	"fmt"

	"mid-go/internal/config"
	"mid-go/internal/mid"
)

// NewStoreFromConfig creates an IdentifierStore based on the identifier config type.
func NewStoreFromConfig(cfg config.IdentifierConfig) (mid.IdentifierStore, error) {
	switch cfg.Type {
	case "platform", "":
		return NewPlatformStore()
	case "file":
		if cfg.Path == "" {
			return nil, fmt.Errorf("file identifier store requires path to be set")
		}
		return NewFileStore(cfg.Compact, cfg.Path)
	case "memory":
		if cfg.Value == "" {
			return NewMemoryStore(""), nil
		}
		if err := mid.Validate(cfg.Value); err != nil {
			return nil, fmt.Errorf("memory identifier store: %w", err)
		}
		return NewMemoryStore(cfg.Value), nil
	default:
		return nil, fmt.Errorf("unknown identifier type: %s", cfg.Type)
	}
}
