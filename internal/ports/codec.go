package ports

import "io"

// Image is a decoded raster image as seen by the application layer.
type Image interface {
	// Size returns the pixel dimensions of the image.
	Size() (width, height int)
}

// EncodeOptions tune the encoder.
type EncodeOptions struct {
	// Optimize enables lossless size optimization where the format supports it.
	Optimize bool
}

// Codec decodes, resamples and encodes raster images.
type Codec interface {
	// Probe reads only the image header and returns its dimensions.
	Probe(path string) (width, height int, err error)

	// Decode reads the full image at path.
	Decode(path string) (Image, error)

	// ResizeNearest resamples img to width x height with nearest-neighbor
	// filtering. Each output pixel copies its closest input pixel.
	ResizeNearest(img Image, width, height int) (Image, error)

	// Encode writes img to w in the format implied by ext (".png", ".gif", ...).
	Encode(w io.Writer, img Image, ext string, opts EncodeOptions) error

	// Supports reports whether ext can be encoded.
	Supports(ext string) bool
}
