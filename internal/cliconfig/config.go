package cliconfig

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/pixscale/internal/app"
	"github.com/bft-labs/pixscale/internal/domain"
)

// DefaultOutputDir is where scaled copies are written unless configured.
const DefaultOutputDir = "client/public/scaled"

// Config holds CLI configuration for pixscale.
type Config struct {
	Sources   []domain.Source
	Scales    []float64
	OutputDir string

	DryRun   bool
	Optimize bool
	Watch    bool
	Debounce time.Duration
	LogLevel string
}

// DefaultSources returns the built-in UI assets.
func DefaultSources() []domain.Source {
	return []domain.Source{
		{Path: "client/public/magnifying_glass.png"},
		{Path: "client/public/music-note.gif"},
		{Path: "client/public/bottom-right-decoration.gif"},
	}
}

// DefaultScales returns the built-in zoom levels, 0.5x to 4x in 0.5 steps.
func DefaultScales() []float64 {
	return []float64{0.5, 1.0, 1.5, 2.0, 2.5, 3.0, 3.5, 4.0}
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Sources:   DefaultSources(),
		Scales:    DefaultScales(),
		OutputDir: DefaultOutputDir,
		Optimize:  true,
		Debounce:  app.DefaultDebounce,
		LogLevel:  "info",
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.OutputDir) == "" {
		return fmt.Errorf("%w: output-dir is required", domain.ErrInvalidConfig)
	}
	if err := domain.ValidateSources(c.Sources); err != nil {
		return err
	}
	if err := domain.ValidateFactors(c.Scales); err != nil {
		return err
	}
	if err := domain.ValidateOutputs(c.Sources, c.Scales, c.OutputDir); err != nil {
		return err
	}
	if c.Watch && c.Debounce <= 0 {
		return fmt.Errorf("%w: debounce must be positive", domain.ErrInvalidConfig)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log-level: %v", domain.ErrInvalidConfig, err)
	}
	return nil
}

// ScalerConfig converts c into the batch configuration.
func (c Config) ScalerConfig() app.ScalerConfig {
	return app.ScalerConfig{
		Sources:   append([]domain.Source(nil), c.Sources...),
		Factors:   append([]float64(nil), c.Scales...),
		OutputDir: c.OutputDir,
		DryRun:    c.DryRun,
		Optimize:  c.Optimize,
	}
}

// SourcePaths returns the path of every source.
func (c Config) SourcePaths() []string {
	paths := make([]string, 0, len(c.Sources))
	for _, s := range c.Sources {
		paths = append(paths, s.Path)
	}
	return paths
}

// SourcesFromPaths builds sources whose output names derive from the paths.
func SourcesFromPaths(paths []string) []domain.Source {
	out := make([]domain.Source, 0, len(paths))
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, domain.Source{Path: p})
	}
	return out
}

// ParseScales parses scale factors such as "0.5", "1", "2.5".
func ParseScales(values []string) ([]float64, error) {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSuffix(v, "x"), 64)
		if err != nil {
			return nil, fmt.Errorf("parse scale %q: %w", v, err)
		}
		out = append(out, f)
	}
	return out, nil
}

// splitList splits a comma-separated environment value.
func splitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return strings.Split(value, ",")
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}

// setSources replaces the source list if non-empty and flag not changed.
func (s *configSetter) setSources(flag string, value []domain.Source, dst *[]domain.Source) {
	if len(value) == 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setScales replaces the factor list if non-empty and flag not changed.
func (s *configSetter) setScales(flag string, value []float64, dst *[]float64) {
	if len(value) == 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setScalesFromString parses a comma-separated factor list.
func (s *configSetter) setScalesFromString(flag, value string, dst *[]float64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	scales, err := ParseScales(splitList(value))
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	s.setScales(flag, scales, dst)
	return nil
}
