package testutil

import (
	"mid-go/internal/encryption"
	"mid-go/internal/mid"
)

// NewTestEncryptor creates a deterministic, reversible encryptor for testing.
func NewTestEncryptor() mid.Encryptor {
	return encryption.NewPlainEncryptor()
}
