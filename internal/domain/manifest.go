package domain

import (
	"strings"
)

// ManifestName is the filename of the manifest in the output directory.
const ManifestName = "SCALES_REFERENCE.txt"

const manifestTitle = "Available Image Scales"

// RenderManifest renders the manifest listing, per source, every factor
// and the output filename it maps to. Sources appear in the given order;
// each block is followed by a blank line.
func RenderManifest(sources []Source, factors []float64) string {
	var b strings.Builder
	b.WriteString(manifestTitle)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", 20))
	b.WriteString("\n\n")

	for _, src := range sources {
		name := src.OutputBase()
		b.WriteString(name)
		b.WriteString(":\n")
		for _, f := range factors {
			b.WriteString("  ")
			b.WriteString(FactorLabel(f))
			b.WriteString("x → ")
			b.WriteString(OutputName(name, f))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// ProcessedSources returns the sources of the report that existed on disk.
func (r Report) ProcessedSources() []Source {
	out := make([]Source, 0, len(r.Sources))
	for _, s := range r.Sources {
		out = append(out, s.Source)
	}
	return out
}
