//go:build windows

package idstore

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"

	"mid-go/internal/mid"
)

const (
	registryKeyPath   = `SOFTWARE\Microsoft\Cryptography`
	registryValueName = "MachineGuid"

	// RegistrySource is the full registry location of the identifier.
	RegistrySource = `HKLM\` + registryKeyPath + `\` + registryValueName
)

// RegistryStore keeps the identifier in the MachineGuid value of the
// 64-bit registry view, whatever the bitness of the running process.
type RegistryStore struct{}

// NewRegistryStore creates a store over the Windows registry.
func NewRegistryStore() *RegistryStore {
	return &RegistryStore{}
}

func (s *RegistryStore) Read() (*mid.Reading, error) {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, registryKeyPath, registry.QUERY_VALUE|registry.WOW64_64KEY)
	if err != nil {
		return nil, &mid.StoreError{Op: "read", Source: RegistrySource, Err: err}
	}
	defer k.Close()

	guid, _, err := k.GetStringValue(registryValueName)
	if err != nil {
		return nil, &mid.StoreError{Op: "read", Source: RegistrySource, Err: err}
	}
	if guid == "" {
		return nil, &mid.StoreError{Op: "read", Source: RegistrySource, Err: errNoIdentifier}
	}
	if err := mid.Validate(guid); err != nil {
		return nil, &mid.StoreError{Op: "read", Source: RegistrySource, Err: err}
	}
	return &mid.Reading{Value: guid, Source: RegistrySource}, nil
}

func (s *RegistryStore) Write(value string) error {
	if err := mid.Validate(value); err != nil {
		return err
	}

	k, err := s.openForWrite()
	if err != nil {
		return err
	}
	defer k.Close()

	if err := k.SetStringValue(registryValueName, value); err != nil {
		return writeError(err)
	}
	return nil
}

func (s *RegistryStore) ProbeWrite() error {
	k, err := s.openForWrite()
	if err != nil {
		return err
	}
	return k.Close()
}

func (s *RegistryStore) Source() string { return RegistrySource }

func (s *RegistryStore) openForWrite() (registry.Key, error) {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, registryKeyPath, registry.SET_VALUE|registry.WOW64_64KEY)
	if err != nil {
		return 0, writeError(err)
	}
	return k, nil
}

func writeError(err error) error {
	if errors.Is(err, windows.ERROR_ACCESS_DENIED) {
		err = fmt.Errorf("%w: %v", mid.ErrPermissionDenied, err)
	}
	return &mid.StoreError{Op: "write", Source: RegistrySource, Err: err}
}

var _ mid.IdentifierStore = (*RegistryStore)(nil)
