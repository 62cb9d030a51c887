// commands.go: info, manifest, exec, stats, reset and health commands
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	exampleplugin "github.com/agilira/example-plugin"
)

// ErrOperationFailed is returned by exec when the result carries an error.
var ErrOperationFailed = errors.New("operation failed")

// NewInfoCmd creates the info command.
func NewInfoCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show plugin instance information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := app.Plugin.Info()
			if app.JSON {
				return app.OutputJSON(info)
			}
			fmt.Fprintf(app.Out, "%s %s by %s\n", info.Name, info.Version, info.Author)
			fmt.Fprintf(app.Out, "%s\n", info.Description)
			fmt.Fprintf(app.Out, "Enabled: %t\n", info.Enabled)
			fmt.Fprintf(app.Out, "Initialized: %s\n", info.InitializedTime)
			fmt.Fprintf(app.Out, "Usage count: %d\n", info.UsageCount)
			return nil
		},
	}
}

// NewManifestCmd creates the manifest command. It does not open the plugin
// directory.
func NewManifestCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "manifest",
		Short: "Show the static plugin manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			desc := exampleplugin.Descriptor()
			if app.JSON {
				return app.OutputJSON(desc)
			}
			fmt.Fprintf(app.Out, "%s %s (api %s)\n", desc.Name, desc.Version, desc.APIVersion)
			fmt.Fprintf(app.Out, "%s\n", desc.Description)
			fmt.Fprintf(app.Out, "Operations: %s\n", strings.Join(desc.Operations, ", "))
			fmt.Fprintf(app.Out, "Features: %s\n", strings.Join(desc.Features, ", "))
			return nil
		},
	}
}

// NewExecCmd creates the exec command.
func NewExecCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "exec <operation> [key=value ...]",
		Short: "Execute a plugin operation",
		Long: `Execute a plugin operation and print its result.

Parameter values are decoded as JSON when possible (10, 2.5, true, "quoted")
and used as plain strings otherwise.

Examples:
  example-plugin exec hello name=Alice
  example-plugin exec calculate a=10 b=4 operation=divide
  example-plugin exec process_text text="Hello World" operation=word_count`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := ParseParams(args[1:])
			if err != nil {
				return err
			}

			result := app.Plugin.Execute(args[0], params)
			if app.JSON {
				if err := app.OutputJSON(result.Map()); err != nil {
					return err
				}
			} else {
				writeResult(app.Out, result)
			}
			if result.Failed() {
				return fmt.Errorf("%w: %s", ErrOperationFailed, result.Error)
			}
			return nil
		},
	}
}

// ParseParams converts key=value arguments into operation parameters.
func ParseParams(args []string) (map[string]any, error) {
	params := make(map[string]any, len(args))
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q (want key=value)", arg)
		}
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil || value == nil {
			value = raw
		}
		params[key] = value
	}
	return params, nil
}

func writeResult(w io.Writer, result exampleplugin.Result) {
	m := result.Map()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := m[k]
		if f, ok := v.(float64); ok {
			v = exampleplugin.FormatFloat(f)
		}
		fmt.Fprintf(w, "%s: %v\n", k, v)
	}
}

// NewStatsCmd creates the stats command.
func NewStatsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show usage statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report := app.Plugin.Statistics()
			if app.JSON {
				return app.OutputJSON(report)
			}
			fmt.Fprintf(app.Out, "Usage count: %d\n", report.UsageCount)
			fmt.Fprintf(app.Out, "Last used: %s\n", report.LastUsed)
			fmt.Fprintf(app.Out, "Total operations: %d\n", report.Statistics.TotalOperations)
			fmt.Fprintf(app.Out, "Successful: %d\n", report.Statistics.SuccessCount)
			fmt.Fprintf(app.Out, "Failed: %d\n", report.Statistics.ErrorCount)
			return nil
		},
	}
}

// NewResetCmd creates the reset command.
func NewResetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset usage statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.Plugin.ResetStatistics() {
				return fmt.Errorf("failed to persist reset statistics to %s", app.Plugin.DataPath())
			}
			fmt.Fprintln(app.Out, "Statistics reset")
			return nil
		},
	}
}

// NewHealthCmd creates the health command.
func NewHealthCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show plugin health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			health := app.Plugin.Health()
			if app.JSON {
				return app.OutputJSON(health)
			}
			fmt.Fprintf(app.Out, "%s: %s\n", health.Status, health.Message)
			return nil
		},
	}
}
