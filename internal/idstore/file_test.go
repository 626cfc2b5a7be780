package idstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"mid-go/internal/mid"
)

const canonicalID = "4c4c4544-0042-3510-8052-b4c04f4d3732"

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestFileStore_Read(t *testing.T) {
	tests := []struct {
		name    string
		content string
		compact bool
		want    string
		wantErr error
	}{
		{name: "canonical", content: canonicalID + "\n", want: canonicalID},
		{name: "compact", content: "4c4c4544004235108052b4c04f4d3732\n", compact: true, want: canonicalID},
		{name: "compact mode accepts canonical", content: canonicalID, compact: true, want: canonicalID},
		{name: "malformed", content: "not-an-id\n", wantErr: mid.ErrInvalidFormat},
		{name: "compact not accepted in canonical mode", content: "4c4c4544004235108052b4c04f4d3732", wantErr: mid.ErrInvalidFormat},
		{name: "empty", content: "\n", wantErr: mid.ErrReadFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "machine-id")
			writeFile(t, path, tt.content)
			store, err := NewFileStore(tt.compact, path)
			if err != nil {
				t.Fatal(err)
			}

			got, err := store.Read()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Read() error = %v, want %v", err, tt.wantErr)
				}
				if !errors.Is(err, mid.ErrReadFailure) {
					t.Errorf("Read() error = %v, want it to be a read failure", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if got.Value != tt.want {
				t.Errorf("Value = %q, want %q", got.Value, tt.want)
			}
			if got.Source != path {
				t.Errorf("Source = %q, want %q", got.Source, path)
			}
		})
	}
}

func TestFileStore_ReadFallsBack(t *testing.T) {
	dir := t.TempDir()
	primary := filepath.Join(dir, "etc-machine-id")
	fallback := filepath.Join(dir, "dbus-machine-id")
	writeFile(t, fallback, "4c4c4544004235108052b4c04f4d3732\n")

	store, err := NewFileStore(true, primary, fallback)
	if err != nil {
		t.Fatal(err)
	}

	got, err := store.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.Value != canonicalID || got.Source != fallback {
		t.Errorf("Read() = %+v, want %s from %s", got, canonicalID, fallback)
	}
	if store.Source() != primary {
		t.Errorf("Source() = %q, want write target %q", store.Source(), primary)
	}
}

func TestFileStore_ReadMissing(t *testing.T) {
	store, err := NewFileStore(false, filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatal(err)
	}

	_, err = store.Read()
	if mid.Category(err) != mid.CategoryRead {
		t.Errorf("Category(%v) = %q, want %q", err, mid.Category(err), mid.CategoryRead)
	}
}

func TestFileStore_Write(t *testing.T) {
	t.Run("compact", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "machine-id")
		writeFile(t, path, "00000000000000000000000000000000\n")
		store, _ := NewFileStore(true, path)

		if err := store.Write("4C4C4544-0042-3510-8052-B4C04F4D3732"); err != nil {
			t.Fatalf("Write() error = %v", err)
		}

		data, _ := os.ReadFile(path)
		if string(data) != "4c4c4544004235108052b4c04f4d3732\n" {
			t.Errorf("file = %q, want compact lower-case form", data)
		}
	})

	t.Run("canonical round trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "guid")
		store, _ := NewFileStore(false, path)

		if err := store.Write(canonicalID); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		got, err := store.Read()
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if got.Value != canonicalID {
			t.Errorf("Read() = %q, want %q", got.Value, canonicalID)
		}
	})

	t.Run("rejects malformed value without touching the file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "guid")
		writeFile(t, path, canonicalID)
		store, _ := NewFileStore(false, path)

		if err := store.Write("bogus"); !errors.Is(err, mid.ErrInvalidFormat) {
			t.Fatalf("Write() error = %v, want ErrInvalidFormat", err)
		}
		data, _ := os.ReadFile(path)
		if string(data) != canonicalID {
			t.Errorf("file changed to %q", data)
		}
	})
}

func TestFileStore_PermissionDenied(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "guid")
	if err := os.WriteFile(path, []byte(canonicalID), 0444); err != nil {
		t.Fatal(err)
	}
	store, _ := NewFileStore(false, path)

	err := store.Write("550e8400-e29b-41d4-a716-446655440000")
	if !errors.Is(err, mid.ErrPermissionDenied) {
		t.Fatalf("Write() error = %v, want ErrPermissionDenied", err)
	}
	if mid.Category(err) != mid.CategoryPermission {
		t.Errorf("Category() = %q, want %q", mid.Category(err), mid.CategoryPermission)
	}

	if err := store.ProbeWrite(); !errors.Is(err, mid.ErrPermissionDenied) {
		t.Errorf("ProbeWrite() error = %v, want ErrPermissionDenied", err)
	}
}

func TestFileStore_ProbeWrite(t *testing.T) {
	dir := t.TempDir()

	t.Run("existing file is left intact", func(t *testing.T) {
		path := filepath.Join(dir, "guid")
		writeFile(t, path, canonicalID)
		store, _ := NewFileStore(false, path)

		if err := store.ProbeWrite(); err != nil {
			t.Fatalf("ProbeWrite() error = %v", err)
		}
		data, _ := os.ReadFile(path)
		if string(data) != canonicalID {
			t.Errorf("file changed to %q", data)
		}
	})

	t.Run("missing file probes directory", func(t *testing.T) {
		sub := filepath.Join(dir, "sub")
		if err := os.Mkdir(sub, 0755); err != nil {
			t.Fatal(err)
		}
		store, _ := NewFileStore(false, filepath.Join(sub, "guid"))

		if err := store.ProbeWrite(); err != nil {
			t.Fatalf("ProbeWrite() error = %v", err)
		}
		entries, _ := os.ReadDir(sub)
		if len(entries) != 0 {
			t.Errorf("probe left %d files behind", len(entries))
		}
	})
}

func TestNewFileStore_RequiresPath(t *testing.T) {
	if _, err := NewFileStore(false); err == nil {
		t.Fatal("NewFileStore() without paths expected error")
	}
}
