package encryption

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"mid-go/internal/config"
)

func newTestAgeEncryptor(t *testing.T) *AgeEncryptor {
	t.Helper()
	dir := t.TempDir()
	return NewAgeEncryptor(config.EncryptionConfig{
		PublicKeyPath:  filepath.Join(dir, "keys", "mid.pub"),
		PrivateKeyPath: filepath.Join(dir, "keys", "mid.key"),
	})
}

func TestAgeEncryptor_Setup(t *testing.T) {
	t.Parallel()
	e := newTestAgeEncryptor(t)

	if e.IsConfigured() {
		t.Fatal("IsConfigured() = true before Setup")
	}
	if err := e.Setup("correct horse"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if !e.IsConfigured() {
		t.Error("IsConfigured() = false after Setup")
	}

	info, err := os.Stat(e.privateKeyPath)
	if err != nil {
		t.Fatalf("private key missing: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("private key mode = %v, want 0600", info.Mode().Perm())
	}

	if err := e.Setup("other"); !errors.Is(err, ErrAlreadyConfigured) {
		t.Errorf("second Setup() error = %v, want ErrAlreadyConfigured", err)
	}
}

func TestAgeEncryptor_SetupRejectsEmptyPassphrase(t *testing.T) {
	t.Parallel()
	if err := newTestAgeEncryptor(t).Setup(""); err == nil {
		t.Fatal("Setup(\"\") expected error")
	}
}

func TestAgeEncryptor_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
	}{
		{name: "archive", input: []byte(`{"backups":[{"id":"backup_1","value":"550e8400-e29b-41d4-a716-446655440000"}]}`)},
		{name: "empty", input: []byte{}},
		{name: "large", input: bytes.Repeat([]byte("abcdef"), 10000)},
	}

	passphrase := "test-passphrase"
	e := newTestAgeEncryptor(t)
	if err := e.Setup(passphrase); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	dc, err := e.Unlock(passphrase)
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sealed bytes.Buffer
			if err := e.Encrypt(bytes.NewReader(tt.input), &sealed); err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}
			if len(tt.input) > 0 && bytes.Contains(sealed.Bytes(), tt.input) {
				t.Error("sealed output contains the plaintext")
			}

			var plain bytes.Buffer
			if err := dc.Decrypt(&sealed, &plain); err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if !bytes.Equal(plain.Bytes(), tt.input) {
				t.Errorf("round trip mismatch: got %d bytes, want %d", plain.Len(), len(tt.input))
			}
		})
	}
}

func TestAgeEncryptor_UnlockWrongPassphrase(t *testing.T) {
	t.Parallel()
	e := newTestAgeEncryptor(t)
	if err := e.Setup("right"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	if _, err := e.Unlock("wrong"); err == nil {
		t.Fatal("Unlock() with wrong passphrase expected error")
	}
}

func TestAgeEncryptor_EncryptWithoutKeys(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	if err := newTestAgeEncryptor(t).Encrypt(bytes.NewReader([]byte("x")), &out); err == nil {
		t.Fatal("Encrypt() without keys expected error")
	}
}
