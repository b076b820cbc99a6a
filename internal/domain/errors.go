package domain

import "errors"

// Domain errors represent error conditions in the pixscale domain.
// They can be checked with errors.Is.
var (
	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("pixscale: invalid configuration")

	// ErrSourceNotFound marks a source image that does not exist on disk.
	ErrSourceNotFound = errors.New("pixscale: source not found")

	// ErrEmptyImage is returned when a factor truncates a dimension to zero.
	ErrEmptyImage = errors.New("pixscale: scaled image has no pixels")

	// ErrImageTooLarge is returned when a scaled image exceeds MaxPixels.
	ErrImageTooLarge = errors.New("pixscale: scaled image too large")

	// ErrUnsupportedFormat is returned for output extensions no encoder handles.
	ErrUnsupportedFormat = errors.New("pixscale: unsupported image format")
)
