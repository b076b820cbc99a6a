package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp" // decode-only

	"github.com/bft-labs/pixscale/internal/domain"
	"github.com/bft-labs/pixscale/internal/ports"
)

// JPEGQuality is used for .jpg/.jpeg outputs.
const JPEGQuality = 95

// Codec implements ports.Codec.
type Codec struct{}

// NewCodec creates a new Codec.
func NewCodec() *Codec {
	return &Codec{}
}

// Probe reads the image header at path.
func (c *Codec) Probe(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, notFound(err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("decode header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// Decode reads the full image at path. GIFs with more than one frame are
// decoded as animations. A single GIF frame is placed on its logical
// screen.
func (c *Codec) Decode(path string) (ports.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, notFound(err)
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode header: %w", err)
	}

	if format == "gif" {
		g, err := gif.DecodeAll(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode gif: %w", err)
		}
		if len(g.Image) > 1 {
			return NewAnimation(g), nil
		}
		return NewPicture(onScreen(g, g.Image[0])), nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}
	return NewPicture(img), nil
}

// ResizeNearest resamples img to width x height using nearest-neighbor
// filtering. Paletted images stay paletted.
func (c *Codec) ResizeNearest(img ports.Image, width, height int) (ports.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", domain.ErrEmptyImage, width, height)
	}
	if int64(width)*int64(height) > domain.MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d", domain.ErrImageTooLarge, width, height)
	}
	p, ok := img.(*Picture)
	if !ok {
		return nil, fmt.Errorf("imaging: unsupported image type %T", img)
	}

	if p.anim != nil {
		return NewAnimation(scaleGIF(p.anim, width, height)), nil
	}
	return NewPicture(scale(p.still, image.Rect(0, 0, width, height))), nil
}

func scale(src image.Image, r image.Rectangle) image.Image {
	dst := canvasLike(src, r)
	draw.NearestNeighbor.Scale(dst, r, src, src.Bounds(), draw.Src, nil)
	return dst
}

// canvasLike allocates r in the color model of src so bit depth and
// palettes survive resampling.
func canvasLike(src image.Image, r image.Rectangle) draw.Image {
	switch s := src.(type) {
	case *image.Paletted:
		return image.NewPaletted(r, s.Palette)
	case *image.Gray:
		return image.NewGray(r)
	case *image.Gray16:
		return image.NewGray16(r)
	case *image.Alpha:
		return image.NewAlpha(r)
	case *image.Alpha16:
		return image.NewAlpha16(r)
	case *image.RGBA:
		return image.NewRGBA(r)
	case *image.RGBA64:
		return image.NewRGBA64(r)
	case *image.NRGBA64:
		return image.NewNRGBA64(r)
	case *image.CMYK:
		return image.NewCMYK(r)
	default:
		return image.NewNRGBA(r)
	}
}

func notFound(err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %w", domain.ErrSourceNotFound, err)
	}
	return err
}

// scaleGIF resamples every frame. Frame rectangles are mapped onto the new
// logical screen so partial frames keep their position.
func scaleGIF(g *gif.GIF, width, height int) *gif.GIF {
	sw, sh := animSize(g)

	out := &gif.GIF{
		Image:           make([]*image.Paletted, 0, len(g.Image)),
		Delay:           append([]int(nil), g.Delay...),
		Disposal:        append([]byte(nil), g.Disposal...),
		LoopCount:       g.LoopCount,
		BackgroundIndex: g.BackgroundIndex,
		Config: image.Config{
			ColorModel: g.Config.ColorModel,
			Width:      width,
			Height:     height,
		},
	}

	for _, frame := range g.Image {
		fb := frame.Bounds()
		r := image.Rect(
			mapCoord(fb.Min.X, sw, width), mapCoord(fb.Min.Y, sh, height),
			mapCoord(fb.Max.X, sw, width), mapCoord(fb.Max.Y, sh, height),
		)
		r = nonEmpty(r, width, height)

		dst := image.NewPaletted(r, frame.Palette)
		draw.NearestNeighbor.Scale(dst, r, frame, fb, draw.Src, nil)
		out.Image = append(out.Image, dst)
	}
	return out
}

func mapCoord(v, from, to int) int {
	if from == 0 {
		return 0
	}
	return v * to / from
}

// nonEmpty grows r to at least one pixel inside the w x h screen.
func nonEmpty(r image.Rectangle, w, h int) image.Rectangle {
	if r.Min.X >= w {
		r.Min.X = w - 1
	}
	if r.Min.Y >= h {
		r.Min.Y = h - 1
	}
	if r.Max.X <= r.Min.X {
		r.Max.X = r.Min.X + 1
	}
	if r.Max.Y <= r.Min.Y {
		r.Max.Y = r.Min.Y + 1
	}
	return r
}

// Supports reports whether ext can be encoded.
func (c *Codec) Supports(ext string) bool {
	switch strings.ToLower(ext) {
	case ".png", ".gif", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff":
		return true
	default:
		return false
	}
}

// Encode writes img to w in the format implied by ext.
func (c *Codec) Encode(w io.Writer, img ports.Image, ext string, opts ports.EncodeOptions) error {
	p, ok := img.(*Picture)
	if !ok {
		return fmt.Errorf("imaging: unsupported image type %T", img)
	}

	switch strings.ToLower(ext) {
	case ".png":
		enc := png.Encoder{CompressionLevel: png.DefaultCompression}
		if opts.Optimize {
			enc.CompressionLevel = png.BestCompression
		}
		return enc.Encode(w, p.Image())
	case ".gif":
		if p.anim != nil {
			return gif.EncodeAll(w, p.anim)
		}
		if _, paletted := p.still.(*image.Paletted); paletted {
			return gif.Encode(w, p.still, nil)
		}
		// Src avoids dithering so hard pixel edges survive quantization.
		return gif.Encode(w, p.still, &gif.Options{NumColors: 256, Drawer: draw.Src})
	case ".jpg", ".jpeg":
		return jpeg.Encode(w, p.Image(), &jpeg.Options{Quality: JPEGQuality})
	case ".bmp":
		return bmp.Encode(w, p.Image())
	case ".tif", ".tiff":
		compression := tiff.Uncompressed
		if opts.Optimize {
			compression = tiff.Deflate
		}
		return tiff.Encode(w, p.Image(), &tiff.Options{Compression: compression})
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, ext)
	}
}

var _ ports.Codec = (*Codec)(nil)
