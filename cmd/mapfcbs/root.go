package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/elektrokombinacija/mapf-cbs/internal/config"
	"github.com/elektrokombinacija/mapf-cbs/internal/logging"
)

// rootOptions holds the persistent flags.
type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "mapfcbs",
		Short: "Multi-agent path finding on grids with Conflict-Based Search",
		Long: `mapfcbs plans collision-free paths for agents on a 4-connected grid.
Problems are described in YAML; without --config the built-in reference
instance is used.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log format (text, json)")

	cmd.AddCommand(
		newSolveCmd(opts),
		newGenCmd(),
		newBenchCmd(opts),
	)
	return cmd
}

// load reads the config and applies the logging flags on top. Flag values
// are checked here since config validation has already run.
func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		if _, err := logging.ParseLevel(o.logLevel); err != nil {
			return nil, fmt.Errorf("--log-level: %w", err)
		}
		cfg.Log.Level = o.logLevel
	}
	if o.logFormat != "" {
		format, err := logging.ParseFormat(o.logFormat)
		if err != nil {
			return nil, fmt.Errorf("--log-format: %w", err)
		}
		cfg.Log.Format = format
	}
	return cfg, nil
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	return logging.New(logging.Config{Level: cfg.Level, Format: cfg.Format}, w)
}
