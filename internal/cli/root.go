// Package cli implements the example-plugin command line interface.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	exampleplugin "github.com/agilira/example-plugin"
)

// App holds the state shared across commands.
type App struct {
	Out  io.Writer
	Err  io.Writer
	JSON bool

	// Dir is the plugin directory
	Dir string

	// LogLevel is one of debug, info, warn, error
	LogLevel string

	// Merge is "shallow" or "deep"
	Merge string

	// Plugin is created in PersistentPreRunE
	Plugin *exampleplugin.Plugin
	Logger exampleplugin.Logger

	mode exampleplugin.MergeMode

	// registry is set by enableMetrics before the plugin is created
	registry *prometheus.Registry
	recorder exampleplugin.Recorder
}

// Environment variables providing flag defaults.
const (
	EnvDir      = "EXAMPLE_PLUGIN_DIR"
	EnvLogLevel = "EXAMPLE_PLUGIN_LOG_LEVEL"
	EnvMerge    = "EXAMPLE_PLUGIN_MERGE"
)

// NewApp returns an App writing to the given streams. Flag defaults are
// taken from the EXAMPLE_PLUGIN_* environment variables when set.
func NewApp(out, errOut io.Writer) *App {
	return &App{
		Out:      out,
		Err:      errOut,
		Dir:      envOr(EnvDir, "."),
		LogLevel: envOr(EnvLogLevel, "warn"),
		Merge:    envOr(EnvMerge, exampleplugin.MergeShallow.String()),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Execute runs the CLI with the process streams and arguments. A .env
// file in the working directory is loaded first; variables already set
// in the environment win.
func Execute() error {
	_ = godotenv.Load()
	return NewRootCmd(NewApp(os.Stdout, os.Stderr)).Execute()
}

// NewRootCmd creates the root command and its subcommands.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "example-plugin",
		Short: "Run example plugin operations from the command line",
		Long: `example-plugin drives the example plugin outside its host application.

Configuration is read from config.json and usage statistics from data.json
inside the plugin directory. Both files are created on first save.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "manifest" {
				return nil
			}
			return app.open()
		},
	}

	root.PersistentFlags().StringVar(&app.Dir, "dir", app.Dir, "Plugin directory")
	root.PersistentFlags().BoolVar(&app.JSON, "json", app.JSON, "Output in JSON format")
	root.PersistentFlags().StringVar(&app.LogLevel, "log-level", app.LogLevel, "Log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&app.Merge, "merge", app.Merge, "Merge mode for persisted sub-objects: shallow, deep")

	root.AddCommand(
		NewInfoCmd(app),
		NewManifestCmd(app),
		NewExecCmd(app),
		NewStatsCmd(app),
		NewResetCmd(app),
		NewHealthCmd(app),
		NewServeCmd(app),
	)
	return root
}

func (app *App) open() error {
	level, err := parseLevel(app.LogLevel)
	if err != nil {
		return err
	}
	mode, err := parseMergeMode(app.Merge)
	if err != nil {
		return err
	}

	info, err := os.Stat(app.Dir)
	if err != nil {
		return fmt.Errorf("cannot access plugin directory %s: %w", app.Dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("plugin path is not a directory: %s", app.Dir)
	}

	app.mode = mode
	app.Logger = exampleplugin.NewSlogLogger(slog.New(slog.NewTextHandler(app.Err, &slog.HandlerOptions{Level: level})))
	app.Plugin = app.newPlugin()
	return nil
}

func (app *App) newPlugin() *exampleplugin.Plugin {
	opts := []exampleplugin.Option{
		exampleplugin.WithLogger(app.Logger),
		exampleplugin.WithMergeMode(app.mode),
	}
	if app.recorder != nil {
		opts = append(opts, exampleplugin.WithRecorder(app.recorder))
	}
	return exampleplugin.CreatePlugin(app.Dir, opts...)
}

// enableMetrics makes the next open create a plugin that records into a
// Prometheus registry.
func (app *App) enableMetrics() {
	app.registry = prometheus.NewRegistry()
	app.recorder = exampleplugin.NewPrometheusRecorder(app.registry)
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

func parseMergeMode(s string) (exampleplugin.MergeMode, error) {
	switch strings.ToLower(s) {
	case "", "shallow":
		return exampleplugin.MergeShallow, nil
	case "deep":
		return exampleplugin.MergeDeep, nil
	default:
		return exampleplugin.MergeShallow, fmt.Errorf("invalid merge mode %q (want shallow or deep)", s)
	}
}

// OutputJSON writes data as indented JSON.
func (app *App) OutputJSON(data interface{}) error {
	enc := json.NewEncoder(app.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
