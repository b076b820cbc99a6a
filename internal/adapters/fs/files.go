package fs

import (
	"os"
	"path/filepath"

	"github.com/bft-labs/pixscale/internal/ports"
)

// OS implements ports.FileSystem on the local file system.
type OS struct{}

// NewOS creates a new OS file system adapter.
func NewOS() OS {
	return OS{}
}

// Exists reports whether path names an existing regular file or symlink to one.
func (OS) Exists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}

// MkdirAll creates dir and any missing parents.
func (OS) MkdirAll(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// WriteFileAtomic writes data to dir/name, replacing any existing file.
// Uses atomic write (write to temp file, then rename) so readers never
// observe a partial file.
func (OS) WriteFileAtomic(dir, name string, data []byte) error {
	path := filepath.Join(dir, name)

	// Temp file in the same directory keeps the rename atomic.
	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

var _ ports.FileSystem = OS{}
