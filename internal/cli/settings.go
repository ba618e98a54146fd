package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/toolserve/internal/config"
)

// storeFlags are the connection flags shared by commands that open the store.
type storeFlags struct {
	Database string
	Driver   string
}

func (f *storeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Database, "db", "", "database DSN (SQLite path or Postgres URL)")
	cmd.Flags().StringVar(&f.Driver, "driver", "", "database driver (sqlite3|postgres)")
}

// loadConfig layers .env, the config file, the environment and finally
// explicitly set flags.
func loadConfig(opts *RootOptions, flags storeFlags) (*config.Config, error) {
	if opts.EnvFile != "" {
		if err := config.LoadDotEnv(opts.EnvFile); err != nil {
			return nil, commandError(CodeConfig, "failed to load env file", err).with("env_file", opts.EnvFile)
		}
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, commandError(CodeConfig, "failed to load config", err).with("config", opts.Config)
	}

	if flags.Database != "" {
		cfg.Store.DSN = flags.Database
	}
	if flags.Driver != "" {
		cfg.Store.Driver = flags.Driver
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, commandError(CodeConfig, "invalid configuration", err).with("driver", cfg.Store.Driver)
	}
	return cfg, nil
}

// newLogger builds the process logger from the log settings.
// Logs always go to w (stderr) so they never mix with command output.
func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(handler)
}
