// plugin.go: Plugin core with persisted configuration, usage data and operation dispatch
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package exampleplugin

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/agilira/go-timecache"
)

// Default file names inside the plugin directory.
const (
	DefaultConfigFile = "config.json"
	DefaultDataFile   = "data.json"
)

// metricUnknownOperation is the metrics label for unrecognized operations,
// keeping label cardinality bounded.
const metricUnknownOperation = "unknown"

// Clock returns the current time. Tests replace it to pin timestamps.
type Clock func() time.Time

// handlerFunc executes one operation variant.
type handlerFunc func(op Operation, now time.Time) Result

// Option configures a Plugin.
type Option func(*options)

type options struct {
	logger     Logger
	mode       MergeMode
	recorder   Recorder
	clock      Clock
	configFile string
	dataFile   string
}

// WithLogger sets the plugin logger. Accepts a Logger, a *slog.Logger or nil.
func WithLogger(logger any) Option {
	return func(o *options) { o.logger = NewLogger(logger) }
}

// WithMergeMode selects how persisted sub-objects are merged over defaults.
func WithMergeMode(mode MergeMode) Option {
	return func(o *options) { o.mode = mode }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(recorder Recorder) Option {
	return func(o *options) { o.recorder = recorder }
}

// WithClock replaces the time source used for timestamps.
func WithClock(clock Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithConfigFile overrides the configuration file name. Relative names are
// resolved inside the plugin directory; a .yaml or .yml name selects YAML.
func WithConfigFile(name string) Option {
	return func(o *options) { o.configFile = name }
}

// WithDataFile overrides the usage data file name, resolved like
// WithConfigFile.
func WithDataFile(name string) Option {
	return func(o *options) { o.dataFile = name }
}

// Plugin owns the configuration and usage record of one plugin directory
// and dispatches the built-in operations.
//
// Both files are read once by New and written back only by SaveConfig,
// SaveData, ResetStatistics, UpdateConfig, Cleanup and every Execute call.
// No method returns an error: load failures fall back to defaults, save
// failures are reported as false, operation failures as a failed Result.
//
// A Plugin is safe for concurrent use; calls are serialized so that each
// Execute completes its handler, counter update and persistence before the
// next one starts.
//
// Example usage:
//
//	plugin := exampleplugin.New("/path/to/plugin")
//	defer plugin.Cleanup()
//
//	res := plugin.Execute("calculate", map[string]any{"a": 3, "b": 4, "operation": "add"})
//	if res.Failed() {
//	    return errors.New(res.Error)
//	}
//	fmt.Println(res.Expression, "=", res.Value)
type Plugin struct {
	mu sync.Mutex

	dir           string
	configStore   *ConfigStore
	dataStore     *DataStore
	config        Config
	data          UsageData
	enabled       bool
	initializedAt time.Time

	clock    Clock
	logger   Logger
	recorder Recorder
	handlers map[string]handlerFunc
}

// New creates the plugin for dir and loads its configuration and usage
// data. Missing or unreadable files yield the defaults.
func New(dir string, opts ...Option) *Plugin {
	o := options{
		mode:       MergeShallow,
		configFile: DefaultConfigFile,
		dataFile:   DefaultDataFile,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = NewNoOpLogger()
	}
	if o.recorder == nil {
		o.recorder = NoopRecorder{}
	}
	if o.clock == nil {
		o.clock = timecache.CachedTime
	}

	logger := o.logger.With("plugin", PluginName)
	storeOpts := []StoreOption{
		WithStoreMergeMode(o.mode),
		WithStoreLogger(logger),
		WithStoreRecorder(o.recorder),
	}

	p := &Plugin{
		dir:         dir,
		configStore: NewConfigStore(resolvePath(dir, o.configFile), storeOpts...),
		dataStore:   NewDataStore(resolvePath(dir, o.dataFile), storeOpts...),
		enabled:     true,
		clock:       o.clock,
		logger:      logger,
		recorder:    o.recorder,
		handlers: map[string]handlerFunc{
			OpHello: func(op Operation, now time.Time) Result {
				return handleHello(op.(Hello), now)
			},
			OpCalculate: func(op Operation, now time.Time) Result {
				return handleCalculate(op.(Calculate), now)
			},
			OpProcessText: func(op Operation, now time.Time) Result {
				return handleProcessText(op.(ProcessText), now)
			},
		},
	}
	p.config = p.configStore.Load()
	p.data = p.dataStore.Load()
	p.initializedAt = p.clock()

	p.logger.Info("Plugin initialized", "dir", dir)
	return p
}

func resolvePath(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

// Dir returns the plugin directory.
func (p *Plugin) Dir() string { return p.dir }

// ConfigPath returns the configuration file path.
func (p *Plugin) ConfigPath() string { return p.configStore.Path() }

// DataPath returns the usage data file path.
func (p *Plugin) DataPath() string { return p.dataStore.Path() }

// Info returns the descriptive record of this plugin instance.
func (p *Plugin) Info() PluginInfo {
	p.mu.Lock()
	defer p.mu.Unlock()

	return PluginInfo{
		Name:            PluginName,
		Version:         p.config.Version,
		Author:          PluginAuthor,
		Description:     PluginDescription,
		Enabled:         p.enabled,
		InitializedTime: p.initializedAt.Format(TimestampLayout),
		UsageCount:      p.data.UsageCount,
	}
}

// Execute runs the operation called name with loosely typed params.
//
// Every call, whatever its outcome, increments usage_count and
// statistics.total_operations, sets last_used and persists the usage
// data. Unknown names, handler failures, non-string text and calls on a
// disabled plugin count as errors. Everything else, including results
// carrying a parameter validation error, counts as a success.
func (p *Plugin) Execute(name string, params map[string]any) Result {
	op, err := ParseOperation(name, params)
	if err != nil {
		// Input the operation cannot read at all counts as a failed call;
		// other parameter errors are reported results.
		return p.run(op.Kind(), func(time.Time) (Result, bool) {
			return errorResult(err), errorCode(err) != ErrCodeInvalidTextInput
		})
	}
	return p.ExecuteOperation(op)
}

// ExecuteOperation runs a typed operation with the same accounting as
// Execute.
func (p *Plugin) ExecuteOperation(op Operation) Result {
	return p.run(op.Kind(), func(now time.Time) (Result, bool) {
		return p.dispatch(op, now)
	})
}

func (p *Plugin) dispatch(op Operation, now time.Time) (Result, bool) {
	if _, unknown := op.(Unrecognized); unknown {
		return errorResult(NewUnknownOperationError(op.Kind())), false
	}
	handler, ok := p.handlers[op.Kind()]
	if !ok {
		return errorResult(NewUnknownOperationError(op.Kind())), false
	}

	result, err := callSafely(func(recovered interface{}, stack []byte) {
		p.logger.Error("Operation handler panicked",
			"operation", op.Kind(),
			"panic", recovered,
			"stack", string(stack))
	}, func() Result {
		return handler(op, now)
	})
	if err != nil {
		return errorResult(NewOperationFailedError(op.Kind(), err)), false
	}
	return result, true
}

// run executes fn under the plugin lock and applies the per-call
// accounting and persistence.
func (p *Plugin) run(kind string, fn func(now time.Time) (Result, bool)) Result {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock()

	var (
		result  Result
		success bool
	)
	if p.enabled {
		result, success = fn(now)
	} else {
		result = errorResult(NewPluginNotEnabledError(kind))
	}

	p.data.recordCall(now, success)

	outcome := OutcomeSuccess
	if !success {
		outcome = OutcomeError
		p.logger.Warn("Operation failed", "operation", kind, "error", result.Error, "code", result.ErrorCode)
	}
	label := kind
	if _, known := p.handlers[kind]; !known {
		label = metricUnknownOperation
	}
	p.recorder.OperationCompleted(label, outcome)

	if !p.dataStore.Save(p.data) {
		p.logger.Warn("Usage data not persisted after operation", "operation", kind)
	}
	return result
}

// Statistics returns the usage counters and the current configuration.
func (p *Plugin) Statistics() StatisticsReport {
	p.mu.Lock()
	defer p.mu.Unlock()

	lastUsed, ok := p.data.lastUsedString()
	if !ok {
		lastUsed = NeverUsed
	}
	return StatisticsReport{
		UsageCount: p.data.UsageCount,
		LastUsed:   lastUsed,
		Statistics: p.data.Statistics,
		Config:     p.config.Clone(),
	}
}

// ResetStatistics zeroes usage_count and the statistics counters, clears
// last_used and persists the usage data.
func (p *Plugin) ResetStatistics() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.data.reset()
	ok := p.dataStore.Save(p.data)
	if ok {
		p.logger.Info("Statistics reset")
	}
	return ok
}

// SaveConfig persists the in-memory configuration.
func (p *Plugin) SaveConfig() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saveConfigLocked()
}

func (p *Plugin) saveConfigLocked() bool {
	ok := p.configStore.Save(p.config)
	if ok {
		p.logger.Info("Configuration saved")
	}
	return ok
}

// SaveData persists the in-memory usage data.
func (p *Plugin) SaveData() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	ok := p.dataStore.Save(p.data)
	if ok {
		p.logger.Info("Usage data saved")
	}
	return ok
}

// Cleanup persists both the configuration and the usage data. Hosts call
// it at shutdown. It reports whether both writes succeeded.
func (p *Plugin) Cleanup() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	configOK := p.configStore.Save(p.config)
	dataOK := p.dataStore.Save(p.data)
	if configOK && dataOK {
		p.logger.Info("Plugin cleanup completed")
	} else {
		p.logger.Error("Plugin cleanup incomplete", "config_saved", configOK, "data_saved", dataOK)
	}
	return configOK && dataOK
}

// Config returns a copy of the current configuration.
func (p *Plugin) Config() Config {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.config.Clone()
}

// UpdateConfig applies fn to a copy of the configuration, validates the
// result and, if valid, installs and persists it. It reports whether the
// update was applied and saved.
func (p *Plugin) UpdateConfig(fn func(*Config)) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	updated := p.config.Clone()
	fn(&updated)
	if err := updated.Validate(); err != nil {
		p.logger.Warn("Configuration update rejected", "error", err, "code", errorCode(err))
		return false
	}
	p.config = updated
	return p.saveConfigLocked()
}

// ReloadConfig re-reads the configuration file. When the file cannot be
// loaded, or any of its keys is invalid, the current configuration is kept
// and false is returned.
func (p *Plugin) ReloadConfig() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	loaded := p.configStore.Load()
	if err := p.configStore.LastError(); err != nil {
		p.logger.Warn("Configuration reload failed, keeping current configuration", "error", err)
		return false
	}
	p.config = loaded

	p.logger.Info("Configuration reloaded", "version", loaded.Version)
	return true
}

// Enable allows operations to run.
func (p *Plugin) Enable() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = true
}

// Disable makes every subsequent Execute return an error result.
func (p *Plugin) Disable() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = false
}

// Enabled reports whether operations are allowed to run.
func (p *Plugin) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}

// Health reports offline when disabled, degraded when the last load or
// save of either file failed, healthy otherwise.
func (p *Plugin) Health() HealthStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	status := HealthStatus{
		Status:    StatusHealthy,
		Message:   "plugin is operational",
		LastCheck: p.clock(),
		Metadata: map[string]string{
			"config_path": p.configStore.Path(),
			"data_path":   p.dataStore.Path(),
		},
	}
	switch {
	case !p.enabled:
		status.Status = StatusOffline
		status.Message = "plugin is disabled"
	case p.configStore.LastError() != nil:
		status.Status = StatusDegraded
		status.Message = "configuration: " + p.configStore.LastError().Error()
	case p.dataStore.LastError() != nil:
		status.Status = StatusDegraded
		status.Message = "usage data: " + p.dataStore.LastError().Error()
	}
	return status
}
