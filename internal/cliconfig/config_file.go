package cliconfig

import (
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/bft-labs/pixscale/internal/domain"
)

// DefaultConfigNames are looked up in the working directory, in order.
var DefaultConfigNames = []string{"pixscale.toml", "pixscale.yaml", "pixscale.yml"}

// SourceEntry is one source in a config file.
type SourceEntry struct {
	Path string `toml:"path" yaml:"path"`
	Name string `toml:"name" yaml:"name"`
}

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	OutputDir string        `toml:"output_dir" yaml:"output_dir"`
	Sources   []SourceEntry `toml:"sources" yaml:"sources"`
	Scales    []float64     `toml:"scales" yaml:"scales"`
	DryRun    *bool         `toml:"dry_run" yaml:"dry_run"`
	Optimize  *bool         `toml:"optimize" yaml:"optimize"`
	Watch     *bool         `toml:"watch" yaml:"watch"`
	Debounce  string        `toml:"debounce" yaml:"debounce"`
	LogLevel  string        `toml:"log_level" yaml:"log_level"`
}

// LoadFileConfig reads and parses a config file. Files ending in .yaml or
// .yml are parsed as YAML, everything else as TOML.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &fc)
	default:
		err = toml.Unmarshal(b, &fc)
	}
	if err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the first default config file present in dir,
// or "" if there is none.
func DefaultConfigPath(dir string) string {
	for _, name := range DefaultConfigNames {
		p := filepath.Join(dir, name)
		if FileExists(p) {
			return p
		}
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("output-dir", fc.OutputDir, &cfg.OutputDir)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	sources := make([]domain.Source, 0, len(fc.Sources))
	for _, e := range fc.Sources {
		sources = append(sources, domain.Source{Path: e.Path, Name: e.Name})
	}
	s.setSources("source", sources, &cfg.Sources)
	s.setScales("scales", fc.Scales, &cfg.Scales)

	if err := s.setDuration("debounce", fc.Debounce, &cfg.Debounce); err != nil {
		return err
	}

	s.setBool("dry-run", fc.DryRun, &cfg.DryRun)
	s.setBool("optimize", fc.Optimize, &cfg.Optimize)
	s.setBool("watch", fc.Watch, &cfg.Watch)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
