package domain

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	// MaxFactor is the largest accepted scale factor.
	MaxFactor = 64.0

	// MaxPixels bounds the area of one scaled image.
	MaxPixels = 1 << 26
)

// OutputName derives the output filename for name at factor.
//
// Factor 1.0 keeps name unchanged so the reference resolution can be used
// in place. Any other factor produces "<base>_<f>x<ext>" where f is
// formatted to one decimal with '.' replaced by '_'.
func OutputName(name string, factor float64) string {
	if factor == 1.0 {
		return name
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	scale := strings.Replace(strconv.FormatFloat(factor, 'f', 1, 64), ".", "_", 1)
	return base + "_" + scale + "x" + ext
}

// FactorLabel formats factor for humans: the shortest decimal form with at
// least one fractional digit (0.5, 1.0, 2.25).
func FactorLabel(factor float64) string {
	s := strconv.FormatFloat(factor, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// ScaledSize returns the target dimensions of a w x h image at factor.
// Fractional pixels are truncated.
func ScaledSize(w, h int, factor float64) (int, int) {
	return int(math.Floor(float64(w) * factor)), int(math.Floor(float64(h) * factor))
}

// TargetSize is ScaledSize with bounds: an empty result fails with
// ErrEmptyImage and one above MaxPixels with ErrImageTooLarge.
func TargetSize(w, h int, factor float64) (int, int, error) {
	fw := math.Floor(float64(w) * factor)
	fh := math.Floor(float64(h) * factor)
	if !(fw >= 1 && fh >= 1) {
		return 0, 0, fmt.Errorf("%w: %dx%d at %sx", ErrEmptyImage, w, h, FactorLabel(factor))
	}
	if fw*fh > MaxPixels {
		return 0, 0, fmt.Errorf("%w: %.0fx%.0f exceeds %d pixels", ErrImageTooLarge, fw, fh, MaxPixels)
	}
	w, h = ScaledSize(w, h, factor)
	return w, h, nil
}
