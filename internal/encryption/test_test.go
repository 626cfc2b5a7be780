package encryption

import (
	"bytes"
	"testing"

	"mid-go/internal/config"
)

func TestPlainEncryptor_RoundTrip(t *testing.T) {
	t.Parallel()
	e := NewPlainEncryptor()

	input := []byte(`{"backups":[]}`)
	var sealed bytes.Buffer
	if err := e.Encrypt(bytes.NewReader(input), &sealed); err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if bytes.Equal(sealed.Bytes(), input) {
		t.Error("sealed output equals input")
	}

	dc, err := e.Unlock("")
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	var plain bytes.Buffer
	if err := dc.Decrypt(&sealed, &plain); err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if !bytes.Equal(plain.Bytes(), input) {
		t.Errorf("Decrypt() = %q, want %q", plain.Bytes(), input)
	}
}

func TestPlainEncryptor_RejectsForeignData(t *testing.T) {
	t.Parallel()
	dc, _ := NewPlainEncryptor().Unlock("")

	var out bytes.Buffer
	if err := dc.Decrypt(bytes.NewReader([]byte("age-encryption.org/v1")), &out); err == nil {
		t.Fatal("Decrypt() of foreign data expected error")
	}
}

func TestNewEncryptorFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.EncryptionConfig
		want    string
		wantErr bool
	}{
		{name: "age", cfg: config.EncryptionConfig{Type: "age", PublicKeyPath: "a.pub", PrivateKeyPath: "a.key"}, want: "age"},
		{name: "default is age", cfg: config.EncryptionConfig{PublicKeyPath: "a.pub", PrivateKeyPath: "a.key"}, want: "age"},
		{name: "age without keys", cfg: config.EncryptionConfig{Type: "age"}, wantErr: true},
		{name: "test", cfg: config.EncryptionConfig{Type: "test"}, want: "test"},
		{name: "unknown", cfg: config.EncryptionConfig{Type: "rot13"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := NewEncryptorFromConfig(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewEncryptorFromConfig() error = %v", err)
			}
			switch enc.(type) {
			case *AgeEncryptor:
				if tt.want != "age" {
					t.Errorf("got age encryptor, want %s", tt.want)
				}
			case *PlainEncryptor:
				if tt.want != "test" {
					t.Errorf("got plain encryptor, want %s", tt.want)
				}
			}
		})
	}
}
