package domain

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
)

// Source is an input raster image.
type Source struct {
	// Path is the image location, relative to the working directory.
	Path string

	// Name is the base filename outputs derive from.
	// Empty means filepath.Base(Path).
	Name string
}

// OutputBase returns the filename the outputs of s are derived from.
func (s Source) OutputBase() string {
	if s.Name != "" {
		return s.Name
	}
	return filepath.Base(s.Path)
}

// Job pairs one source with one scale factor.
type Job struct {
	Source Source
	Factor float64
}

// Output returns the output filename of the job.
func (j Job) Output() string {
	return OutputName(j.Source.OutputBase(), j.Factor)
}

// Jobs returns the jobs of one source in factor order.
func Jobs(src Source, factors []float64) []Job {
	jobs := make([]Job, 0, len(factors))
	for _, f := range factors {
		jobs = append(jobs, Job{Source: src, Factor: f})
	}
	return jobs
}

// ValidateFactors checks that every factor is in (0, MaxFactor] and that
// no two factors map to the same output name.
func ValidateFactors(factors []float64) error {
	if len(factors) == 0 {
		return fmt.Errorf("%w: at least one scale factor is required", ErrInvalidConfig)
	}
	seen := make(map[string]float64, len(factors))
	for _, f := range factors {
		if !(f > 0) || math.IsInf(f, 1) {
			return fmt.Errorf("%w: scale factor %v must be positive", ErrInvalidConfig, f)
		}
		if f > MaxFactor {
			return fmt.Errorf("%w: scale factor %v exceeds %v", ErrInvalidConfig, f, MaxFactor)
		}
		key := OutputName("x", f)
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("%w: scale factors %v and %v produce the same filename", ErrInvalidConfig, prev, f)
		}
		seen[key] = f
	}
	return nil
}

// ValidateSources checks that every source has a path and that output
// base names are unique.
func ValidateSources(sources []Source) error {
	seen := make(map[string]string, len(sources))
	for _, s := range sources {
		if strings.TrimSpace(s.Path) == "" {
			return fmt.Errorf("%w: source path is empty", ErrInvalidConfig)
		}
		name := s.OutputBase()
		if strings.ContainsAny(name, `/\`) {
			return fmt.Errorf("%w: output name %q must not contain a path separator", ErrInvalidConfig, name)
		}
		if prev, ok := seen[name]; ok {
			return fmt.Errorf("%w: sources %q and %q share output name %q", ErrInvalidConfig, prev, s.Path, name)
		}
		seen[name] = s.Path
	}
	return nil
}

// ValidateOutputs checks that no job output written under outputDir lands
// on a source path.
func ValidateOutputs(sources []Source, factors []float64, outputDir string) error {
	inputs := make(map[string]string, len(sources))
	for _, s := range sources {
		inputs[absPath(s.Path)] = s.Path
	}
	for _, s := range sources {
		for _, job := range Jobs(s, factors) {
			out := filepath.Join(outputDir, job.Output())
			if src, ok := inputs[absPath(out)]; ok {
				return fmt.Errorf("%w: output %s would overwrite source %s", ErrInvalidConfig, out, src)
			}
		}
	}
	return nil
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
