package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/toolserve/internal/dispatch"
	"github.com/roach88/toolserve/internal/httpapi"
	"github.com/roach88/toolserve/internal/metrics"
	"github.com/roach88/toolserve/internal/store"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	storeFlags
	Addr string

	// IDs allows overriding the request id generator (for testing).
	// If nil, defaults to httpapi.UUIDv7Generator.
	IDs httpapi.IDGenerator
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the app_package resource over HTTP",
		Long: `Start the HTTP server for the app_package resource.

The database is opened (and the table created if it does not exist)
before the listener starts. The server shuts down gracefully on
SIGINT or SIGTERM.

Example:
  toolserve serve --db ./toolserve.db --addr :8080
  toolserve serve --driver postgres --db "postgres://localhost/toolserve?sslmode=disable"
  toolserve serve --config ./toolserve.yaml --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	opts.storeFlags.register(cmd)
	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default from config, :8080)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions, opts.storeFlags)
	if err != nil {
		return err
	}
	if opts.Addr != "" {
		cfg.HTTP.Addr = opts.Addr
	}

	logger := newLogger(cfg.Log, cmd.ErrOrStderr())

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
			// Parent context cancelled (e.g., from test)
		}
	}()

	m := metrics.New()

	logger.Info("opening database", "driver", cfg.Store.Driver)
	st, err := store.Open(ctx, store.Options{
		Driver:           cfg.Store.Driver,
		DSN:              cfg.Store.DSN,
		StatementTimeout: cfg.Store.StatementTimeout,
		MaxOpenConns:     cfg.Store.MaxOpenConns,
		Logger:           logger,
		Observer:         m,
	})
	if err != nil {
		return commandError(CodeStore, "failed to open database", err).with("driver", cfg.Store.Driver)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()
	logger.Info("database ready", "table", st.Table().Name)

	d := dispatch.New(st, st.Table().Key, dispatch.WithLogger(logger))
	handler := httpapi.NewHandler(httpapi.Options{
		Path:       cfg.HTTP.Path,
		Dispatcher: d,
		Health:     st,
		Metrics:    m,
		Logger:     logger,
		IDs:        opts.IDs,
	})

	logger.Info("server starting", "addr", cfg.HTTP.Addr, "path", cfg.HTTP.Path)
	fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on %s\n", cfg.HTTP.Path, cfg.HTTP.Addr)
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")

	err = httpapi.ListenAndServe(ctx, cfg.HTTP.Addr, handler, httpapi.ServerTimeouts{
		Read:     cfg.HTTP.ReadTimeout,
		Write:    cfg.HTTP.WriteTimeout,
		Idle:     cfg.HTTP.IdleTimeout,
		Shutdown: cfg.HTTP.ShutdownTimeout,
	})
	if err != nil {
		return runtimeError(CodeServer, "server error", err).with("addr", cfg.HTTP.Addr)
	}

	logger.Info("server stopped gracefully")
	return nil
}
