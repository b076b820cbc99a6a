package app

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"github.com/bft-labs/pixscale/internal/domain"
	"github.com/bft-labs/pixscale/internal/ports"
)

// ScalerConfig contains configuration for a batch pass.
type ScalerConfig struct {
	Sources   []domain.Source
	Factors   []float64
	OutputDir string

	// DryRun plans every job without writing images or the manifest.
	DryRun bool

	// Optimize enables lossless size optimization in the encoder.
	Optimize bool
}

// Scaler generates the scaled copies of every source and the manifest.
type Scaler struct {
	config ScalerConfig
	codec  ports.Codec
	fs     ports.FileSystem
	logger ports.Logger
}

// NewScaler creates a new scaler with the given dependencies.
func NewScaler(config ScalerConfig, codec ports.Codec, fs ports.FileSystem, logger ports.Logger) *Scaler {
	return &Scaler{
		config: config,
		codec:  codec,
		fs:     fs,
		logger: logger,
	}
}

// ScaleOne scales the image at sourcePath by factor and writes it to
// outputPath, encoded by the output extension. Failures are returned in
// the result and leave no output file.
func (s *Scaler) ScaleOne(sourcePath, outputPath string, factor float64) domain.JobResult {
	res := domain.JobResult{
		Job:    domain.Job{Source: domain.Source{Path: sourcePath}, Factor: factor},
		Output: outputPath,
	}

	ext := filepath.Ext(outputPath)
	if !s.codec.Supports(ext) {
		res.Err = fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, ext)
		return res
	}

	img, err := s.codec.Decode(sourcePath)
	if err != nil {
		res.Err = err
		return res
	}

	w, h := img.Size()
	res.Width, res.Height, err = domain.TargetSize(w, h, factor)
	if err != nil {
		res.Err = err
		return res
	}

	scaled, err := s.codec.ResizeNearest(img, res.Width, res.Height)
	if err != nil {
		res.Err = fmt.Errorf("resize: %w", err)
		return res
	}

	var buf bytes.Buffer
	if err := s.codec.Encode(&buf, scaled, ext, ports.EncodeOptions{Optimize: s.config.Optimize}); err != nil {
		res.Err = fmt.Errorf("encode: %w", err)
		return res
	}

	if err := s.fs.WriteFileAtomic(filepath.Dir(outputPath), filepath.Base(outputPath), buf.Bytes()); err != nil {
		res.Err = fmt.Errorf("write: %w", err)
		return res
	}
	return res
}

// planOne computes what ScaleOne would produce without decoding pixels or
// writing anything.
func (s *Scaler) planOne(sourcePath, outputPath string, factor float64) domain.JobResult {
	res := domain.JobResult{
		Job:    domain.Job{Source: domain.Source{Path: sourcePath}, Factor: factor},
		Output: outputPath,
	}

	if ext := filepath.Ext(outputPath); !s.codec.Supports(ext) {
		res.Err = fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, ext)
		return res
	}

	w, h, err := s.codec.Probe(sourcePath)
	if err != nil {
		res.Err = err
		return res
	}
	res.Width, res.Height, res.Err = domain.TargetSize(w, h, factor)
	return res
}

// RunBatch runs every (source, factor) job in configuration order, then
// writes the manifest.
//
// Per-job failures are logged and recorded in the report; they never abort
// the pass. Only failing to create the output directory or to write the
// manifest returns an error. Cancelling ctx stops the pass between jobs.
func (s *Scaler) RunBatch(ctx context.Context) (domain.Report, error) {
	report := domain.Report{
		DryRun:    s.config.DryRun,
		OutputDir: s.config.OutputDir,
	}

	if s.config.DryRun {
		s.logger.Warn("dry run: no files will be written")
	} else if err := s.fs.MkdirAll(s.config.OutputDir); err != nil {
		return report, fmt.Errorf("create output dir %s: %w", s.config.OutputDir, err)
	}

	for _, src := range s.config.Sources {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if !s.fs.Exists(src.Path) {
			s.logger.Warn("image not found", ports.String("src", src.Path), ports.Err(domain.ErrSourceNotFound))
			report.Missing = append(report.Missing, src)
			continue
		}

		s.logger.Info("processing", ports.String("src", src.Path), ports.String("name", src.OutputBase()))

		sr := domain.SourceResult{Source: src}
		for _, job := range domain.Jobs(src, s.config.Factors) {
			if err := ctx.Err(); err != nil {
				report.Sources = append(report.Sources, sr)
				return report, err
			}

			out := filepath.Join(s.config.OutputDir, job.Output())
			var res domain.JobResult
			if s.config.DryRun {
				res = s.planOne(src.Path, out, job.Factor)
			} else {
				res = s.ScaleOne(src.Path, out, job.Factor)
			}
			res.Job = job

			s.logResult(res)
			sr.Jobs = append(sr.Jobs, res)
		}
		report.Sources = append(report.Sources, sr)
	}

	manifest := domain.RenderManifest(report.ProcessedSources(), s.config.Factors)
	manifestPath := filepath.Join(s.config.OutputDir, domain.ManifestName)
	if s.config.DryRun {
		s.logger.Info("dry run: would write manifest", ports.String("path", manifestPath))
		s.logger.Debug("dry run: manifest", ports.String("content", manifest))
	} else {
		if err := s.fs.WriteFileAtomic(s.config.OutputDir, domain.ManifestName, []byte(manifest)); err != nil {
			return report, fmt.Errorf("write manifest: %w", err)
		}
		report.Manifest = manifestPath
		s.logger.Info("manifest written", ports.String("path", manifestPath))
	}

	s.logger.Info("batch complete",
		ports.Int("succeeded", report.Succeeded()),
		ports.Int("failed", report.Failed()),
		ports.Int("missing", len(report.Missing)),
		ports.Bool("dry_run", report.DryRun),
	)
	return report, nil
}

func (s *Scaler) logResult(res domain.JobResult) {
	factor := domain.FactorLabel(res.Job.Factor) + "x"
	switch {
	case !res.OK():
		s.logger.Error("scale failed",
			ports.String("src", res.Job.Source.Path),
			ports.String("factor", factor),
			ports.Err(res.Err),
		)
	case s.config.DryRun:
		s.logger.Info("dry run: would scale",
			ports.String("src", res.Job.Source.Path),
			ports.String("factor", factor),
			ports.String("out", res.Output),
			ports.Int("width", res.Width),
			ports.Int("height", res.Height),
		)
	default:
		s.logger.Info("scaled",
			ports.String("src", res.Job.Source.Path),
			ports.String("factor", factor),
			ports.String("out", res.Output),
			ports.Int("width", res.Width),
			ports.Int("height", res.Height),
		)
	}
}
