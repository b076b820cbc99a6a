package cliconfig

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// DefaultEnvFile is loaded from the working directory when present.
const DefaultEnvFile = ".env"

// LoadEnvFile loads PIXSCALE_* variables from a dotenv file. Variables
// already set in the environment win. A missing file is an error only when
// required is true.
func LoadEnvFile(path string, required bool) error {
	if path == "" {
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

// ApplyEnvConfig applies PIXSCALE_* environment variables to cfg.
// Environment values override the config file but not explicit flags.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("output-dir", os.Getenv("PIXSCALE_OUTPUT_DIR"), &cfg.OutputDir)
	s.setString("log-level", os.Getenv("PIXSCALE_LOG_LEVEL"), &cfg.LogLevel)
	s.setSources("source", SourcesFromPaths(splitList(os.Getenv("PIXSCALE_SOURCES"))), &cfg.Sources)

	if err := s.setScalesFromString("scales", os.Getenv("PIXSCALE_SCALES"), &cfg.Scales); err != nil {
		return err
	}
	if err := s.setDuration("debounce", os.Getenv("PIXSCALE_DEBOUNCE"), &cfg.Debounce); err != nil {
		return err
	}

	s.setBoolFromString("dry-run", os.Getenv("PIXSCALE_DRY_RUN"), &cfg.DryRun)
	s.setBoolFromString("optimize", os.Getenv("PIXSCALE_OPTIMIZE"), &cfg.Optimize)
	s.setBoolFromString("watch", os.Getenv("PIXSCALE_WATCH"), &cfg.Watch)

	return nil
}
