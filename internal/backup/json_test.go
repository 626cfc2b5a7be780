package backup

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mid-go/internal/idstore"
	"mid-go/internal/mid"
)

func TestJSONRepository_DocumentFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "backups.json")
	repo := NewJSONRepository(path, 0)

	if err := repo.Add(record(1, valueA)); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("document not written: %v", err)
	}
	for _, want := range []string{`"backups"`, `"id": "backup_1705314600001"`, `"value": "` + valueA + `"`, `"timestamp": 1705314601`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("document missing %s:\n%s", want, data)
		}
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("directory holds %d entries, want only the document (temp file left behind?)", len(entries))
	}
}

func TestJSONRepository_ReadsDocumentWithoutKind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backups.json")
	doc := `{"backups":[{"id":"backup_1","value":"` + valueA + `","source":"registry","timestamp":1}]}`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	rec, err := NewJSONRepository(path, 0).FindByID("backup_1")
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if rec == nil {
		t.Fatal("FindByID() = nil")
	}
	if rec.EffectiveKind() != mid.KindManual {
		t.Errorf("EffectiveKind() = %q, want %q", rec.EffectiveKind(), mid.KindManual)
	}
}

func TestJSONRepository_CorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backups.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	repo := NewJSONRepository(path, 0)

	_, err := repo.Load()
	if !errors.Is(err, mid.ErrStorage) {
		t.Fatalf("Load() error = %v, want ErrStorage", err)
	}

	if err := repo.Add(record(1, valueA)); !errors.Is(err, mid.ErrStorage) {
		t.Errorf("Add() error = %v, want ErrStorage", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "{not json" {
		t.Errorf("corrupt document was overwritten: %q", data)
	}
}

func TestJSONRepository_NullEntry(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "only entry", doc: `{"backups":[null]}`},
		{name: "among records", doc: `{"backups":[{"id":"backup_1","value":"` + valueA + `","source":"test","timestamp":1},null]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "backups.json")
			if err := os.WriteFile(path, []byte(tt.doc), 0644); err != nil {
				t.Fatal(err)
			}
			repo := NewJSONRepository(path, 0)

			if _, err := repo.Load(); !errors.Is(err, mid.ErrStorage) {
				t.Errorf("Load() error = %v, want ErrStorage", err)
			}
			if _, err := repo.LatestByValue(valueA); !errors.Is(err, mid.ErrStorage) {
				t.Errorf("LatestByValue() error = %v, want ErrStorage", err)
			}

			store := idstore.NewMemoryStore(valueA)
			guard := mid.NewGuard(store, repo, mid.NewNopLogger(), mid.RealClock{}, mid.NewTimestampIDGenerator(mid.RealClock{}), mid.DefaultGuardOptions())

			if _, err := guard.BackupCurrent(""); !errors.Is(err, mid.ErrStorage) {
				t.Errorf("BackupCurrent() error = %v, want ErrStorage", err)
			}
			if _, err := guard.Write(valueB, ""); !errors.Is(err, mid.ErrStorage) {
				t.Errorf("Write() error = %v, want ErrStorage", err)
			}
			if store.Value() != valueA {
				t.Errorf("identifier changed to %q despite unreadable history", store.Value())
			}
		})
	}
}

func TestJSONRepository_UnwritableLocation(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}
	repo := NewJSONRepository(filepath.Join(blocker, "backups.json"), 0)

	err := repo.Add(record(1, valueA))
	var se *mid.StorageError
	if !errors.As(err, &se) {
		t.Fatalf("Add() error = %v, want *StorageError", err)
	}
}
