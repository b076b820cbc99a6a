package imaging

import (
	"image"
	"image/gif"

	"golang.org/x/image/draw"

	"github.com/bft-labs/pixscale/internal/ports"
)

// Picture is a decoded image. Exactly one of still and anim is set.
type Picture struct {
	still image.Image
	anim  *gif.GIF
}

// NewPicture wraps a single-frame image.
func NewPicture(img image.Image) *Picture {
	return &Picture{still: img}
}

// NewAnimation wraps a multi-frame GIF.
func NewAnimation(g *gif.GIF) *Picture {
	return &Picture{anim: g}
}

// Size returns the logical screen size of the picture.
func (p *Picture) Size() (int, int) {
	if p.anim != nil {
		return animSize(p.anim)
	}
	b := p.still.Bounds()
	return b.Dx(), b.Dy()
}

// Animated reports whether the picture has more than one frame.
func (p *Picture) Animated() bool {
	return p.anim != nil
}

// Image returns the first frame on the full screen, for formats that
// cannot hold animation.
func (p *Picture) Image() image.Image {
	if p.anim != nil {
		return onScreen(p.anim, p.anim.Image[0])
	}
	return p.still
}

func animSize(g *gif.GIF) (int, int) {
	if g.Config.Width > 0 && g.Config.Height > 0 {
		return g.Config.Width, g.Config.Height
	}
	var r image.Rectangle
	for _, f := range g.Image {
		r = r.Union(f.Bounds())
	}
	return r.Dx(), r.Dy()
}

// onScreen draws frame onto a canvas the size of the logical screen of g,
// filled with the background color elsewhere.
func onScreen(g *gif.GIF, frame *image.Paletted) *image.Paletted {
	w, h := animSize(g)
	screen := image.Rect(0, 0, w, h)
	if frame.Bounds() == screen {
		return frame
	}

	canvas := image.NewPaletted(screen, frame.Palette)
	if int(g.BackgroundIndex) < len(frame.Palette) {
		for i := range canvas.Pix {
			canvas.Pix[i] = g.BackgroundIndex
		}
	}
	draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Src)
	return canvas
}

var _ ports.Image = (*Picture)(nil)
