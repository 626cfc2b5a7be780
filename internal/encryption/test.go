package encryption

import (
	"bytes"
	"fmt"
	"io"

	"mid-go/internal/mid"
)

// plainMarker prefixes data sealed by PlainEncryptor.
var plainMarker = []byte("MIDPLAIN")

// PlainEncryptor frames data with a fixed marker instead of encrypting it.
// Output is deterministic and reversible, for tests and throwaway vaults.
type PlainEncryptor struct {
	configured bool
}

// NewPlainEncryptor creates a PlainEncryptor that reports itself configured.
func NewPlainEncryptor() *PlainEncryptor {
	return &PlainEncryptor{configured: true}
}

func (e *PlainEncryptor) Setup(string) error {
	e.configured = true
	return nil
}

func (e *PlainEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := w.Write(plainMarker); err != nil {
		return fmt.Errorf("writing marker: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (e *PlainEncryptor) Unlock(string) (mid.DecryptionContext, error) {
	return plainContext{}, nil
}

func (e *PlainEncryptor) IsConfigured() bool { return e.configured }

type plainContext struct{}

func (plainContext) Decrypt(r io.Reader, w io.Writer) error {
	marker := make([]byte, len(plainMarker))
	if _, err := io.ReadFull(r, marker); err != nil {
		return fmt.Errorf("reading marker: %w", err)
	}
	if !bytes.Equal(marker, plainMarker) {
		return fmt.Errorf("data was not sealed by the plain encryptor")
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

var _ mid.Encryptor = (*PlainEncryptor)(nil)
