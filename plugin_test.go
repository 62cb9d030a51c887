// plugin_test.go: Tests for operation dispatch, statistics and persistence
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package exampleplugin

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestPlugin creates a plugin in a fresh directory with a pinned clock.
func newTestPlugin(t *testing.T, opts ...Option) (*Plugin, *TestLogger) {
	t.Helper()
	logger := NewTestLogger()
	base := []Option{
		WithLogger(logger),
		WithClock(func() time.Time { return fixedNow }),
	}
	return New(t.TempDir(), append(base, opts...)...), logger
}

// readDataFile decodes data.json as a generic mapping.
func readDataFile(t *testing.T, p *Plugin) map[string]any {
	t.Helper()
	content, err := os.ReadFile(p.DataPath())
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(content, &m))
	return m
}

func TestNew_Defaults(t *testing.T) {
	p, logger := newTestPlugin(t)

	assert.Equal(t, DefaultConfig(), p.Config())
	assert.True(t, p.Enabled())
	assert.Equal(t, filepath.Join(p.Dir(), DefaultConfigFile), p.ConfigPath())
	assert.Equal(t, filepath.Join(p.Dir(), DefaultDataFile), p.DataPath())
	assert.True(t, logger.HasMessage("INFO", "Plugin initialized"))
	assert.NoFileExists(t, p.ConfigPath())
	assert.NoFileExists(t, p.DataPath())
}

func TestNew_LoadsPersistedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json"), `{"version": "1.2.3", "features": {"feature1": false}}`)
	writeFile(t, filepath.Join(dir, "data.json"), `{"usage_count": 4, "statistics": {"total_operations": 4, "success_count": 4, "error_count": 0}}`)

	p := New(dir)

	cfg := p.Config()
	assert.Equal(t, "1.2.3", cfg.Version)
	assert.Equal(t, map[string]bool{"feature1": false}, cfg.Features)
	assert.Equal(t, int64(4), p.Info().UsageCount)
	assert.Equal(t, "1.2.3", p.Info().Version)
}

func TestNew_DeepMergeMode(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json"), `{"features": {"feature1": false}}`)

	p := New(dir, WithMergeMode(MergeDeep))

	assert.Equal(t, map[string]bool{"feature1": false, "feature2": false, "feature3": true}, p.Config().Features)
}

func TestNew_CorruptFilesUseDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json"), `{{{`)
	writeFile(t, filepath.Join(dir, "data.json"), `"just a string"`)

	p := New(dir)

	assert.Equal(t, DefaultConfig(), p.Config())
	assert.Zero(t, p.Statistics().UsageCount)
	assert.Equal(t, StatusDegraded, p.Health().Status)
}

func TestNew_InvalidKeyKeepsRestOfData(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "data.json"), `{
		"usage_count": 41,
		"last_used": "last tuesday",
		"statistics": {"total_operations": 41, "success_count": 40, "error_count": 1},
		"user_preferences": {"lang": "zh"}
	}`)

	p := New(dir, WithClock(func() time.Time { return fixedNow }))
	assert.Equal(t, StatusDegraded, p.Health().Status)

	res := p.Execute("hello", nil)
	require.False(t, res.Failed())

	m := readDataFile(t, p)
	assert.Equal(t, 42.0, m["usage_count"])
	assert.Equal(t, map[string]any{"lang": "zh"}, m["user_preferences"])
	assert.Equal(t, map[string]any{"total_operations": 42.0, "success_count": 41.0, "error_count": 1.0}, m["statistics"])
	assert.Equal(t, fixedNow.Format(TimestampLayout), m["last_used"])
}

func TestNew_CustomFileNames(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "settings.yaml"), "theme: light\n")

	p := New(dir, WithConfigFile("settings.yaml"), WithDataFile(filepath.Join(dir, "usage.json")))

	assert.Equal(t, ThemeLight, p.Config().Theme)
	assert.Equal(t, filepath.Join(dir, "usage.json"), p.DataPath())
}

func TestInfo(t *testing.T) {
	p, _ := newTestPlugin(t)

	info := p.Info()
	assert.Equal(t, PluginName, info.Name)
	assert.Equal(t, "1.0.0", info.Version)
	assert.Equal(t, PluginAuthor, info.Author)
	assert.Equal(t, PluginDescription, info.Description)
	assert.True(t, info.Enabled)
	assert.Equal(t, "2025-05-17T08:30:00.000000Z", info.InitializedTime)
	assert.Zero(t, info.UsageCount)
}

func TestExecute_Hello(t *testing.T) {
	p, _ := newTestPlugin(t)

	res := p.Execute("hello", map[string]any{"name": "Bob"})

	assert.False(t, res.Failed())
	assert.Equal(t, "Hello, Bob! Welcome to the example plugin", res.Message)
	assert.Equal(t, "hello", res.Operation)
}

func TestExecute_CalculateAdd(t *testing.T) {
	p, _ := newTestPlugin(t)

	res := p.Execute("calculate", map[string]any{"a": 3, "b": 4, "operation": "add"})

	assert.Equal(t, 7.0, res.Value)
	assert.Equal(t, "3.0 add 4.0", res.Expression)
}

func TestExecute_DivideByZeroCountsAsSuccess(t *testing.T) {
	p, _ := newTestPlugin(t)

	res := p.Execute("calculate", map[string]any{"a": 10, "b": 0, "operation": "divide"})

	assert.Equal(t, "cannot divide by zero", res.Value)
	assert.False(t, res.Failed())
	stats := p.Statistics().Statistics
	assert.Equal(t, int64(1), stats.SuccessCount)
	assert.Zero(t, stats.ErrorCount)
}

func TestExecute_WordCount(t *testing.T) {
	p, _ := newTestPlugin(t)

	res := p.Execute("process_text", map[string]any{"text": "Hello World", "operation": "word_count"})

	assert.Equal(t, "2", res.Value)
	assert.Equal(t, "word_count", res.Operation)
	assert.Equal(t, "Hello World", res.OriginalText)
}

func TestExecute_UnknownOperation(t *testing.T) {
	p, logger := newTestPlugin(t)

	res := p.Execute("bogus", map[string]any{})

	require.True(t, res.Failed())
	assert.Contains(t, res.Error, "bogus")
	assert.Equal(t, ErrCodeUnknownOperation, res.ErrorCode)
	assert.Contains(t, res.Map(), "error")

	report := p.Statistics()
	assert.Equal(t, int64(1), report.UsageCount)
	assert.Equal(t, int64(1), report.Statistics.ErrorCount)
	assert.Zero(t, report.Statistics.SuccessCount)
	assert.True(t, logger.HasMessage("WARN", "Operation failed"))
}

func TestExecute_ValidationErrorsCountAsSuccess(t *testing.T) {
	p, _ := newTestPlugin(t)

	res := p.Execute("calculate", map[string]any{"a": "ten", "b": 1})
	require.True(t, res.Failed())
	assert.Equal(t, ErrCodeInvalidNumericInput, res.ErrorCode)

	res = p.Execute("process_text", map[string]any{"text": ""})
	require.True(t, res.Failed())
	assert.Equal(t, "text cannot be empty", res.Error)

	stats := p.Statistics().Statistics
	assert.Equal(t, Statistics{TotalOperations: 2, SuccessCount: 2}, stats)
}

func TestExecute_NonStringTextCountsAsError(t *testing.T) {
	p, _ := newTestPlugin(t)

	res := p.Execute("process_text", map[string]any{"text": 5.0})
	require.True(t, res.Failed())
	assert.Equal(t, ErrCodeInvalidTextInput, res.ErrorCode)
	assert.Equal(t, "invalid value for text: expected a string, got float64", res.Error)

	stats := p.Statistics().Statistics
	assert.Equal(t, Statistics{TotalOperations: 1, ErrorCount: 1}, stats)
	assert.Equal(t, 1.0, readDataFile(t, p)["statistics"].(map[string]any)["error_count"])
}

func TestExecute_PersistsEveryCall(t *testing.T) {
	p, _ := newTestPlugin(t)

	p.Execute("hello", nil)

	m := readDataFile(t, p)
	assert.Equal(t, 1.0, m["usage_count"])
	assert.Equal(t, "2025-05-17T08:30:00.000000Z", m["last_used"])
	assert.Equal(t, map[string]any{
		"total_operations": 1.0,
		"success_count":    1.0,
		"error_count":      0.0,
	}, m["statistics"])

	// A fresh instance sees the persisted counters.
	reopened := New(p.Dir())
	assert.Equal(t, int64(1), reopened.Statistics().UsageCount)
}

func TestExecute_MixedCallsAccounting(t *testing.T) {
	p, _ := newTestPlugin(t)

	calls := []struct {
		name   string
		params map[string]any
	}{
		{"hello", nil},
		{"bogus", nil},
		{"calculate", map[string]any{"a": 1, "b": 2}},
		{"calculate", map[string]any{"a": "x"}},
		{"process_text", map[string]any{"text": "abc", "operation": "reverse"}},
		{"", nil},
		{"process_text", map[string]any{}},
	}
	for _, c := range calls {
		p.Execute(c.name, c.params)
	}

	n := int64(len(calls))
	report := p.Statistics()
	assert.Equal(t, n, report.UsageCount)
	assert.Equal(t, n, report.Statistics.TotalOperations)
	assert.Equal(t, n, report.Statistics.SuccessCount+report.Statistics.ErrorCount)
	assert.Equal(t, int64(2), report.Statistics.ErrorCount)
}

func TestExecute_Concurrent(t *testing.T) {
	p, _ := newTestPlugin(t)

	const workers, perWorker = 8, 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				p.Execute("calculate", map[string]any{"a": j, "b": 1})
			}
		}()
	}
	wg.Wait()

	report := p.Statistics()
	assert.Equal(t, int64(workers*perWorker), report.UsageCount)
	assert.Equal(t, int64(workers*perWorker), report.Statistics.SuccessCount)
}

func TestExecuteOperation_Typed(t *testing.T) {
	p, _ := newTestPlugin(t)

	res := p.ExecuteOperation(Calculate{A: 6, B: 7, Operator: OperatorMultiply})
	assert.Equal(t, 42.0, res.Value)

	res = p.ExecuteOperation(Unrecognized{Name: "later"})
	assert.Equal(t, "unknown operation: later", res.Error)

	assert.Equal(t, int64(1), p.Statistics().Statistics.ErrorCount)
}

func TestExecute_HandlerPanic(t *testing.T) {
	p, logger := newTestPlugin(t)
	p.handlers[OpHello] = func(Operation, time.Time) Result {
		panic("handler exploded")
	}

	res := p.Execute("hello", nil)

	require.True(t, res.Failed())
	assert.Equal(t, ErrCodeOperationFailed, res.ErrorCode)
	assert.Contains(t, res.Error, "handler exploded")
	assert.Equal(t, int64(1), p.Statistics().Statistics.ErrorCount)
	assert.True(t, logger.HasMessage("ERROR", "Operation handler panicked"))

	// The plugin keeps working after a panic.
	res = p.Execute("calculate", map[string]any{"a": 1, "b": 1})
	assert.Equal(t, 2.0, res.Value)
}

func TestExecute_Disabled(t *testing.T) {
	p, _ := newTestPlugin(t)
	p.Disable()
	require.False(t, p.Enabled())

	res := p.Execute("hello", nil)

	assert.Equal(t, "plugin is disabled", res.Error)
	assert.Equal(t, ErrCodePluginNotEnabled, res.ErrorCode)
	assert.Equal(t, int64(1), p.Statistics().Statistics.ErrorCount)
	assert.Equal(t, StatusOffline, p.Health().Status)

	p.Enable()
	res = p.Execute("hello", nil)
	assert.False(t, res.Failed())
}

func TestExecute_SaveFailureStillReturnsResult(t *testing.T) {
	dir := t.TempDir()
	p := New(dir, WithDataFile(filepath.Join(dir, "missing", "data.json")))

	res := p.Execute("calculate", map[string]any{"a": 1, "b": 2})

	assert.Equal(t, 3.0, res.Value)
	assert.Equal(t, int64(1), p.Statistics().UsageCount)
	health := p.Health()
	assert.Equal(t, StatusDegraded, health.Status)
	assert.Contains(t, health.Message, "usage data")
}

func TestExecute_Metrics(t *testing.T) {
	recorder := NewPrometheusRecorder(prometheus.NewRegistry())
	p, _ := newTestPlugin(t, WithRecorder(recorder))

	p.Execute("hello", nil)
	p.Execute("hello", nil)
	p.Execute("bogus", nil)
	p.Execute("another-bogus", nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(recorder.operations.WithLabelValues("hello", OutcomeSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(recorder.operations.WithLabelValues("unknown", OutcomeError)))
}

func TestResetStatistics(t *testing.T) {
	p, _ := newTestPlugin(t)
	p.Execute("hello", nil)
	p.Execute("bogus", nil)

	require.True(t, p.ResetStatistics())

	report := p.Statistics()
	assert.Zero(t, report.UsageCount)
	assert.Equal(t, NeverUsed, report.LastUsed)
	assert.Equal(t, Statistics{}, report.Statistics)

	m := readDataFile(t, p)
	assert.Nil(t, m["last_used"])
	assert.Equal(t, 0.0, m["usage_count"])
}

func TestStatistics_Report(t *testing.T) {
	p, _ := newTestPlugin(t)

	report := p.Statistics()
	assert.Equal(t, NeverUsed, report.LastUsed)
	assert.Equal(t, DefaultConfig(), report.Config)

	p.Execute("hello", nil)
	report = p.Statistics()
	assert.Equal(t, "2025-05-17T08:30:00.000000Z", report.LastUsed)

	out, err := json.Marshal(report)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"last_used":"2025-05-17T08:30:00.000000Z"`)
	assert.Contains(t, string(out), `"theme":"default"`)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json"), `{"theme": "dark", "custom_key": 12}`)

	p := New(dir)
	require.True(t, p.SaveConfig())

	content, err := os.ReadFile(p.ConfigPath())
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(content, &m))

	assert.Equal(t, "dark", m["theme"])
	assert.Equal(t, 12.0, m["custom_key"])
	assert.Equal(t, "1.0.0", m["version"])
	assert.Equal(t, true, m["auto_start"])
}

func TestUpdateConfig(t *testing.T) {
	p, _ := newTestPlugin(t)

	ok := p.UpdateConfig(func(c *Config) {
		c.Theme = ThemeDark
		c.Features["feature2"] = true
	})
	require.True(t, ok)
	assert.Equal(t, ThemeDark, p.Config().Theme)
	assert.FileExists(t, p.ConfigPath())

	ok = p.UpdateConfig(func(c *Config) { c.MaxItems = -3 })
	assert.False(t, ok)
	assert.Equal(t, 100, p.Config().MaxItems, "rejected update leaves the configuration unchanged")
}

func TestConfig_ReturnsCopy(t *testing.T) {
	p, _ := newTestPlugin(t)

	cfg := p.Config()
	cfg.Features["feature2"] = true

	assert.False(t, p.Config().Features["feature2"])
}

func TestReloadConfig(t *testing.T) {
	p, logger := newTestPlugin(t)

	writeFile(t, p.ConfigPath(), `{"theme": "light"}`)
	require.True(t, p.ReloadConfig())
	assert.Equal(t, ThemeLight, p.Config().Theme)
	assert.True(t, logger.HasMessage("INFO", "Configuration reloaded"))

	writeFile(t, p.ConfigPath(), `{"theme": `)
	assert.False(t, p.ReloadConfig())
	assert.Equal(t, ThemeLight, p.Config().Theme, "failed reload keeps the current configuration")
}

func TestCleanup(t *testing.T) {
	p, logger := newTestPlugin(t)
	p.Execute("hello", nil)

	require.True(t, p.Cleanup())

	assert.FileExists(t, p.ConfigPath())
	assert.FileExists(t, p.DataPath())
	assert.True(t, logger.HasMessage("INFO", "Plugin cleanup completed"))
}

func TestCleanup_Failure(t *testing.T) {
	dir := t.TempDir()
	logger := NewTestLogger()
	p := New(dir, WithLogger(logger), WithConfigFile(filepath.Join(dir, "nope", "config.json")))

	assert.False(t, p.Cleanup())
	assert.FileExists(t, p.DataPath(), "data is still saved when the config write fails")
	assert.True(t, logger.HasMessage("ERROR", "Plugin cleanup incomplete"))
}

func TestHealth(t *testing.T) {
	p, _ := newTestPlugin(t)

	health := p.Health()
	assert.Equal(t, StatusHealthy, health.Status)
	assert.Equal(t, "plugin is operational", health.Message)
	assert.Equal(t, p.ConfigPath(), health.Metadata["config_path"])
	assert.Equal(t, p.DataPath(), health.Metadata["data_path"])
	assert.Equal(t, fixedNow, health.LastCheck)

	out, err := json.Marshal(health)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"status":"healthy"`)
}
