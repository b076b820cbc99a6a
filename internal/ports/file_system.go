package ports

// FileSystem abstracts the file operations of a batch pass.
type FileSystem interface {
	// Exists reports whether path names an existing file.
	Exists(path string) bool

	// MkdirAll creates dir and any missing parents. Idempotent.
	MkdirAll(dir string) error

	// WriteFileAtomic writes data to dir/name, replacing any existing file.
	// The implementation should write to a temp file and rename it so a
	// failed write leaves no partial file behind.
	WriteFileAtomic(dir, name string, data []byte) error
}
