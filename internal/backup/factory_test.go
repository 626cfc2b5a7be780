package backup

import (
	"io"
	"path/filepath"
	"testing"

	"mid-go/internal/config"
)

func TestNewRepositoryFromConfig(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		cfg      config.BackupConfig
		override string
		wantType string
		wantErr  bool
	}{
		{name: "json", cfg: config.BackupConfig{Type: "json", Path: filepath.Join(dir, "a.json")}, wantType: "json"},
		{name: "default type is json", cfg: config.BackupConfig{Path: filepath.Join(dir, "b.json")}, wantType: "json"},
		{name: "override without path", cfg: config.BackupConfig{Type: "json"}, override: filepath.Join(dir, "c.json"), wantType: "json"},
		{name: "json without path", cfg: config.BackupConfig{Type: "json"}, wantErr: true},
		{name: "sqlite", cfg: config.BackupConfig{Type: "sqlite", DataDir: filepath.Join(dir, "db")}, wantType: "sqlite"},
		{name: "sqlite without data_dir", cfg: config.BackupConfig{Type: "sqlite"}, wantErr: true},
		{name: "memory", cfg: config.BackupConfig{Type: "memory"}, wantType: "memory"},
		{name: "unknown", cfg: config.BackupConfig{Type: "redis"}, wantErr: true},
		{name: "minimum retention", cfg: config.BackupConfig{Type: "memory", MaxBackups: config.MinMaxBackups}, wantType: "memory"},
		{name: "retention too small", cfg: config.BackupConfig{Type: "memory", MaxBackups: 2}, wantErr: true},
		{name: "negative retention", cfg: config.BackupConfig{Type: "json", Path: filepath.Join(dir, "d.json"), MaxBackups: -5}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, err := NewRepositoryFromConfig(tt.cfg, tt.override)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewRepositoryFromConfig() error = %v", err)
			}
			if c, ok := repo.(io.Closer); ok {
				t.Cleanup(func() { c.Close() })
			}

			switch r := repo.(type) {
			case *JSONRepository:
				if tt.wantType != "json" {
					t.Errorf("got json repository, want %s", tt.wantType)
				}
				if tt.override != "" && r.Path() != tt.override {
					t.Errorf("Path() = %q, want override %q", r.Path(), tt.override)
				}
			case *SQLiteRepository:
				if tt.wantType != "sqlite" {
					t.Errorf("got sqlite repository, want %s", tt.wantType)
				}
			case *MemoryRepository:
				if tt.wantType != "memory" {
					t.Errorf("got memory repository, want %s", tt.wantType)
				}
			default:
				t.Errorf("unexpected repository type %T", repo)
			}
		})
	}
}
