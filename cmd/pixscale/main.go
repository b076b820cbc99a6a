package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/pixscale/internal/adapters/fs"
	"github.com/bft-labs/pixscale/internal/adapters/imaging"
	logAdapter "github.com/bft-labs/pixscale/internal/adapters/log"
	"github.com/bft-labs/pixscale/internal/app"
	"github.com/bft-labs/pixscale/internal/cliconfig"
)

const helpDescription = `
Pre-generate pixel-perfect scaled copies of UI assets.

Every source image is resampled with nearest-neighbor filtering at each
configured zoom level and written to the output directory, followed by a
SCALES_REFERENCE.txt manifest listing the generated files.

Configuration is read from pixscale.toml (or pixscale.yaml) in the working
directory, then PIXSCALE_* environment variables (a .env file is loaded if
present), then flags.
`

var exampleUsage = strings.TrimSpace(`
  pixscale
  pixscale --dry-run
  pixscale --source assets/icon.png --scales 1,2,3 --output-dir public/scaled
  pixscale --config pixscale.toml --watch
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var (
		cfgPath     string
		envFile     string
		sourcePaths []string
		scales      []string
	)

	log := cliconfig.Logger()

	root := &cobra.Command{
		Use:           "pixscale",
		Short:         "Pre-generate nearest-neighbor scaled copies of pixel-art assets",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			// Dotenv first so its variables take part in the env layer.
			if err := cliconfig.LoadEnvFile(envFile, changed["env-file"]); err != nil {
				return fmt.Errorf("load env file: %w", err)
			}

			cfgFile := cfgPath
			if cfgFile == "" {
				if cwd, err := os.Getwd(); err == nil {
					cfgFile = cliconfig.DefaultConfigPath(cwd)
				}
			}
			if cfgFile != "" {
				if !cliconfig.FileExists(cfgFile) {
					return fmt.Errorf("config file %s not found", cfgFile)
				}
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if changed["source"] {
				cfg.Sources = cliconfig.SourcesFromPaths(sourcePaths)
			}
			if changed["scales"] {
				parsed, err := cliconfig.ParseScales(scales)
				if err != nil {
					return err
				}
				cfg.Scales = parsed
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			leveled, err := cliconfig.LeveledLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			log = leveled
			log.Debug().Interface("config", cfg).Msg("configuration")

			logger := logAdapter.NewZerologAdapterWithLogger(log)
			scaler := app.NewScaler(cfg.ScalerConfig(), imaging.NewCodec(), fs.NewOS(), logger)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if _, err := scaler.RunBatch(ctx); err != nil {
				return err
			}
			if !cfg.Watch {
				return nil
			}

			run := func(ctx context.Context) error {
				_, err := scaler.RunBatch(ctx)
				return err
			}
			return app.NewWatcher(cfg.SourcePaths(), cfg.Debounce, run, logger).Run(ctx)
		},
	}

	// Flags
	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: pixscale.toml or pixscale.yaml in the working directory)")
	root.Flags().StringVar(&envFile, "env-file", cliconfig.DefaultEnvFile, "dotenv file with PIXSCALE_* variables")

	root.Flags().BoolVar(&cfg.DryRun, "dry-run", cfg.DryRun, "show what would be done without writing any file")
	root.Flags().StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "directory receiving the scaled images and the manifest")
	root.Flags().StringSliceVar(&sourcePaths, "source", cfg.SourcePaths(), "source image path (repeatable)")
	root.Flags().StringSliceVar(&scales, "scales", scaleStrings(cfg.Scales), "comma-separated scale factors")
	root.Flags().BoolVar(&cfg.Optimize, "optimize", cfg.Optimize, "lossless size optimization where the format supports it")

	root.Flags().BoolVar(&cfg.Watch, "watch", cfg.Watch, "keep running and regenerate when a source changes")
	root.Flags().DurationVar(&cfg.Debounce, "debounce", cfg.Debounce, "delay after the last source change before regenerating")
	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("pixscale")
		os.Exit(1)
	}
}

func scaleStrings(scales []float64) []string {
	out := make([]string, 0, len(scales))
	for _, f := range scales {
		out = append(out, fmt.Sprintf("%g", f))
	}
	return out
}
