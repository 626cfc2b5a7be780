package mid_test

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"mid-go/internal/mid"
)

func TestCategory(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"format", &mid.FormatError{Value: "x"}, mid.CategoryValidation},
		{"read", &mid.StoreError{Op: "read", Source: "s", Err: os.ErrNotExist}, mid.CategoryRead},
		{"malformed stored value", &mid.StoreError{Op: "read", Source: "s", Err: &mid.FormatError{Value: "x"}}, mid.CategoryRead},
		{"write", &mid.StoreError{Op: "write", Source: "s", Err: errors.New("io")}, mid.CategoryWrite},
		{"permission", &mid.StoreError{Op: "write", Source: "s", Err: mid.ErrPermissionDenied}, mid.CategoryPermission},
		{"unsupported", &mid.StoreError{Op: "write", Source: "s", Err: mid.ErrUnsupported}, mid.CategoryUnsupported},
		{"storage", &mid.StorageError{Op: "save", Err: errors.New("disk full")}, mid.CategoryStorage},
		{"wrapped storage", fmt.Errorf("backing up current identifier: %w", &mid.StorageError{Op: "load", Err: errors.New("eof")}), mid.CategoryStorage},
		{"not found", &mid.NotFoundError{ID: "backup_1"}, mid.CategoryNotFound},
		{"unknown", errors.New("something else"), mid.CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mid.Category(tt.err); got != tt.want {
				t.Errorf("Category(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestStoreError_Unwrap(t *testing.T) {
	err := &mid.StoreError{Op: "read", Source: "/etc/machine-id", Err: os.ErrPermission}
	if !errors.Is(err, os.ErrPermission) {
		t.Error("StoreError does not unwrap to its cause")
	}
	if errors.Is(err, mid.ErrWriteFailure) {
		t.Error("read StoreError matched ErrWriteFailure")
	}
}
