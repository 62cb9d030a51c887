// serve.go: Long-running mode with background service and config hot reload
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	exampleplugin "github.com/agilira/example-plugin"
)

// ServeOptions configures the serve command.
type ServeOptions struct {
	Interval     time.Duration
	PollInterval time.Duration
	AuditLog     string
	MetricsAddr  string
}

// NewServeCmd creates the serve command.
func NewServeCmd(app *App) *cobra.Command {
	opts := ServeOptions{
		Interval:     exampleplugin.DefaultServiceInterval,
		PollInterval: exampleplugin.DefaultWatcherOptions().PollInterval,
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the background service and reload config.json on change",
		Long: `Run the plugin in the foreground until interrupted.

The background service runs its task every --interval. Changes to the
configuration file are picked up every --poll-interval. On SIGINT or
SIGTERM both are stopped and the configuration and usage data are saved.`,
		Args: cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.MetricsAddr != "" {
				app.enableMetrics()
			}
			return app.open()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return Serve(ctx, app, opts)
		},
	}

	cmd.Flags().DurationVar(&opts.Interval, "interval", opts.Interval, "Background task interval")
	cmd.Flags().DurationVar(&opts.PollInterval, "poll-interval", opts.PollInterval, "Configuration file poll interval")
	cmd.Flags().StringVar(&opts.AuditLog, "audit-log", "", "Write an audit trail of configuration reloads to this file")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	return cmd
}

// Serve runs the background service and the configuration watcher until
// ctx is done, then persists the plugin state. Serving metrics requires
// app to have been opened with metrics enabled.
func Serve(ctx context.Context, app *App, opts ServeOptions) error {
	logger := app.Logger
	if logger == nil {
		logger = exampleplugin.NewNoOpLogger()
	}

	if opts.MetricsAddr != "" {
		if app.registry == nil {
			return errors.New("metrics are not enabled for this plugin")
		}
		server := &http.Server{
			Addr:              opts.MetricsAddr,
			Handler:           promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	plugin := app.Plugin
	defer plugin.Cleanup()

	// Argus needs the file to exist to report modifications.
	if _, err := os.Stat(plugin.ConfigPath()); errors.Is(err, os.ErrNotExist) {
		plugin.SaveConfig()
	}

	service := exampleplugin.NewBackgroundService(plugin.Dir(),
		exampleplugin.WithInterval(opts.Interval),
		exampleplugin.WithServiceLogger(logger),
	)
	if err := service.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := service.Stop(); err != nil {
			logger.Error("Failed to stop background service", "error", err)
		}
	}()

	watcherOpts := exampleplugin.DefaultWatcherOptions()
	watcherOpts.PollInterval = opts.PollInterval
	watcherOpts.CacheTTL = opts.PollInterval / 2
	if opts.AuditLog != "" {
		watcherOpts.AuditConfig.Enabled = true
		watcherOpts.AuditConfig.OutputFile = opts.AuditLog
	}
	watcher, err := exampleplugin.NewConfigWatcher(plugin, watcherOpts, logger)
	if err != nil {
		return err
	}
	if err := watcher.Start(); err != nil {
		return err
	}
	defer func() {
		if err := watcher.Stop(); err != nil {
			logger.Error("Failed to stop configuration watcher", "error", err)
		}
	}()

	logger.Info("Plugin serving", "dir", plugin.Dir())
	<-ctx.Done()
	logger.Info("Shutting down")
	return nil
}
