// Package exampleplugin is the reference plugin for hosts that load plugins
// from a plugin directory. It shows how a plugin persists its configuration
// and usage statistics, dispatches operations and runs background work.
//
// Key Features:
//   - Typed configuration loaded from config.json (or YAML) over built-in defaults
//   - Usage statistics persisted to data.json after every operation
//   - Closed operation set: hello, calculate, process_text
//   - Structured errors that never escape the plugin boundary
//   - Hot reload of the configuration file with Argus
//   - Host-owned periodic background service
//   - Optional Prometheus metrics
//
// Basic Usage:
//
//	plugin := exampleplugin.CreatePlugin("/path/to/plugin",
//		exampleplugin.WithLogger(slog.Default()))
//	defer plugin.Cleanup()
//
//	res := plugin.Execute("process_text", map[string]any{
//		"text":      "Hello World",
//		"operation": "word_count",
//	})
//	if res.Failed() {
//		notifyError(res.Error)
//	} else {
//		notifySuccess(res.Value)
//	}
//
// Failure handling:
// Loading never fails: a missing, malformed or invalid file yields the
// defaults and the failure is logged. Saving reports success as a boolean.
// Operations report failures in Result.Error; a division by zero is not a
// failure and yields the result "cannot divide by zero".
//
// Copyright (c) 2025 AGILira - A. Giordano
// SPDX-License-Identifier: MPL-2.0
package exampleplugin
