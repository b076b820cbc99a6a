// Package imaging implements ports.Codec on top of the standard image
// codecs and golang.org/x/image.
//
// Decoding accepts PNG, JPEG, GIF, WebP, BMP and TIFF. Encoding picks the
// format from the output extension; WebP is decode-only. Multi-frame GIFs
// are kept animated: every frame is resampled and re-encoded with its
// delay and disposal.
package imaging
