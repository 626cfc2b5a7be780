package vault

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"mid-go/internal/mid"
)

// FileSystemVault stores archives as files, typically on removable or
// network-mounted storage:
//
//	<root>/
//	  <hostID>/
//	    <name>.age      (archive data)
//	    <name>.version  (version marker)
type FileSystemVault struct {
	name string
	root string
}

// NewFileSystemVault creates a vault rooted at root, creating it if needed.
func NewFileSystemVault(name, root string) (*FileSystemVault, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create vault root: %w", err)
	}
	return &FileSystemVault{name: name, root: root}, nil
}

func (v *FileSystemVault) dataPath(hostID, name string) string {
	return filepath.Join(v.root, hostID, name+".age")
}

func (v *FileSystemVault) versionPath(hostID, name string) string {
	return filepath.Join(v.root, hostID, name+".version")
}

// PutMetadata writes the archive, then its version marker. A reader never
// sees a version newer than the data it describes.
func (v *FileSystemVault) PutMetadata(hostID string, name string, r io.Reader, size int64, version int64) error {
	if err := os.MkdirAll(filepath.Join(v.root, hostID), 0755); err != nil {
		return fmt.Errorf("failed to create host directory: %w", err)
	}
	if err := writeFileAtomic(v.dataPath(hostID, name), r, size); err != nil {
		return err
	}
	marker := strings.NewReader(strconv.FormatInt(version, 10))
	return writeFileAtomic(v.versionPath(hostID, name), marker, marker.Size())
}

func (v *FileSystemVault) GetMetadata(hostID string, name string, w io.Writer) error {
	f, err := os.Open(v.dataPath(hostID, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s for host %s: %w", name, hostID, ErrNotFound)
		}
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}
	return nil
}

// GetMetadataVersion returns 0 if no version marker exists.
func (v *FileSystemVault) GetMetadataVersion(hostID string, name string) (int64, error) {
	data, err := os.ReadFile(v.versionPath(hostID, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading version file: %w", err)
	}

	version, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing version: %w", err)
	}
	return version, nil
}

// ValidateSetup verifies that the vault root is an accessible directory.
func (v *FileSystemVault) ValidateSetup() error {
	info, err := os.Stat(v.root)
	if err != nil {
		return fmt.Errorf("vault root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("vault root is not a directory: %s", v.root)
	}
	return nil
}

// writeFileAtomic copies r to destPath through a temp file + rename and
// checks that exactly expectedSize bytes were written.
func writeFileAtomic(destPath string, r io.Reader, expectedSize int64) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	success = true
	return nil
}

var _ mid.Vault = (*FileSystemVault)(nil)
