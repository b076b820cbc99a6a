// Package ports defines the interfaces that connect the batch scaler to
// infrastructure adapters.
//
// # Port Interfaces
//
//   - [Codec]: decodes, resamples and encodes raster images
//   - [FileSystem]: existence checks, directory creation and atomic writes
//   - [Logger]: structured logging abstraction
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them with the
// image codecs, the OS file system and zerolog.
package ports
