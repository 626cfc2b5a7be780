package idstore

import (
	"errors"
	"testing"

	"mid-go/internal/mid"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore(canonicalID)

	got, err := store.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.Value != canonicalID || got.Source != MemorySource {
		t.Errorf("Read() = %+v", got)
	}

	next := "550e8400-e29b-41d4-a716-446655440000"
	if err := store.Write(next); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if store.Value() != next || store.Writes() != 1 {
		t.Errorf("after Write: value %q writes %d", store.Value(), store.Writes())
	}
}

func TestMemoryStore_InjectedFailures(t *testing.T) {
	store := NewMemoryStore(canonicalID)

	store.FailReads(errors.New("boom"))
	if _, err := store.Read(); !errors.Is(err, mid.ErrReadFailure) {
		t.Errorf("Read() error = %v, want ErrReadFailure", err)
	}
	store.FailReads(nil)

	store.FailWrites(mid.ErrPermissionDenied)
	err := store.Write("550e8400-e29b-41d4-a716-446655440000")
	if mid.Category(err) != mid.CategoryPermission {
		t.Errorf("Write() category = %q, want permission", mid.Category(err))
	}
	if store.Value() != canonicalID {
		t.Errorf("value changed by failed write: %q", store.Value())
	}

	store.FailProbes(mid.ErrPermissionDenied)
	if err := store.ProbeWrite(); !errors.Is(err, mid.ErrPermissionDenied) {
		t.Errorf("ProbeWrite() error = %v", err)
	}
}

func TestMemoryStore_StoredValueInvalid(t *testing.T) {
	store := NewMemoryStore("")
	if _, err := store.Read(); !errors.Is(err, mid.ErrReadFailure) {
		t.Errorf("Read() of empty store error = %v, want ErrReadFailure", err)
	}

	store.Set("garbage")
	_, err := store.Read()
	if !errors.Is(err, mid.ErrInvalidFormat) || mid.Category(err) != mid.CategoryRead {
		t.Errorf("Read() error = %v (category %q), want invalid format read failure", err, mid.Category(err))
	}
}
