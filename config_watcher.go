// config_watcher.go: Hot reload of the plugin configuration with Argus
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package exampleplugin

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agilira/argus"
)

// ConfigReloader is implemented by *Plugin.
type ConfigReloader interface {
	ConfigPath() string
	ReloadConfig() bool
}

// WatcherOptions configures a ConfigWatcher.
type WatcherOptions struct {
	// PollInterval for file watching
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval"`

	// CacheTTL for Argus stat caching, should be <= PollInterval
	CacheTTL time.Duration `json:"cache_ttl" yaml:"cache_ttl"`

	// AuditConfig enables an audit trail of configuration reloads
	AuditConfig argus.AuditConfig `json:"audit_config" yaml:"audit_config"`
}

// DefaultWatcherOptions returns defaults suited to a single small
// configuration file. Auditing is disabled.
func DefaultWatcherOptions() WatcherOptions {
	return WatcherOptions{
		PollInterval: 2 * time.Second,
		CacheTTL:     1 * time.Second,
		AuditConfig: argus.AuditConfig{
			Enabled:       false,
			OutputFile:    "example-plugin-config-audit.jsonl",
			MinLevel:      argus.AuditInfo,
			BufferSize:    100,
			FlushInterval: 5 * time.Second,
		},
	}
}

// ConfigWatcher reloads the plugin configuration whenever its file changes.
//
// Create and delete events are handled as follows: a created or modified
// file is reloaded through ConfigReloader.ReloadConfig, which keeps the
// current configuration if the new file cannot be loaded; a deleted file
// is ignored so the plugin keeps running with its in-memory configuration.
//
// Usage example:
//
//	watcher, err := NewConfigWatcher(plugin, DefaultWatcherOptions(), logger)
//	if err != nil {
//	    return err
//	}
//	if err := watcher.Start(); err != nil {
//	    return err
//	}
//	defer watcher.Stop()
type ConfigWatcher struct {
	target      ConfigReloader
	watcher     *argus.Watcher
	auditLogger *argus.AuditLogger
	configPath  string
	logger      Logger
	options     WatcherOptions

	mu       sync.Mutex
	running  atomic.Bool
	stopOnce sync.Once
	stopped  atomic.Bool
	reloads  atomic.Int64
	failures atomic.Int64
}

// NewConfigWatcher creates a stopped watcher for target's configuration
// file. logger accepts a Logger, a *slog.Logger or nil.
func NewConfigWatcher(target ConfigReloader, options WatcherOptions, logger any) (*ConfigWatcher, error) {
	internalLogger := NewLogger(logger)
	configPath := target.ConfigPath()

	if options.PollInterval <= 0 {
		options.PollInterval = DefaultWatcherOptions().PollInterval
	}
	if options.CacheTTL <= 0 || options.CacheTTL > options.PollInterval {
		options.CacheTTL = options.PollInterval / 2
	}

	watcher := argus.New(argus.Config{
		PollInterval:         options.PollInterval,
		CacheTTL:             options.CacheTTL,
		MaxWatchedFiles:      1,
		OptimizationStrategy: argus.OptimizationSingleEvent,
		ErrorHandler: func(err error, filepath string) {
			internalLogger.Error("Argus file watching error", "error", err, "file", filepath)
		},
	})

	var auditLogger *argus.AuditLogger
	if options.AuditConfig.Enabled {
		var err error
		auditLogger, err = argus.NewAuditLogger(options.AuditConfig)
		if err != nil {
			return nil, NewConfigWatcherError(configPath, err)
		}
	}

	return &ConfigWatcher{
		target:      target,
		watcher:     watcher,
		auditLogger: auditLogger,
		configPath:  configPath,
		logger:      internalLogger.With("component", "config_watcher", "path", configPath),
		options:     options,
	}, nil
}

// Start begins watching the configuration file.
func (cw *ConfigWatcher) Start() error {
	if cw.stopped.Load() {
		return fmt.Errorf("config watcher has been stopped and cannot be restarted")
	}

	cw.mu.Lock()
	defer cw.mu.Unlock()

	if !cw.running.CompareAndSwap(false, true) {
		return fmt.Errorf("config watcher is already running")
	}

	if err := cw.watcher.Watch(cw.configPath, cw.handleConfigChange); err != nil {
		cw.running.Store(false)
		return NewConfigWatcherError(cw.configPath, err)
	}
	if err := cw.watcher.Start(); err != nil {
		cw.running.Store(false)
		return NewConfigWatcherError(cw.configPath, err)
	}

	cw.logger.Info("Configuration watcher started", "poll_interval", cw.options.PollInterval)
	return nil
}

// Stop stops watching. A stopped watcher cannot be restarted.
func (cw *ConfigWatcher) Stop() error {
	if cw.stopped.Load() {
		return fmt.Errorf("config watcher is already stopped")
	}

	var stopErr error
	cw.stopOnce.Do(func() {
		cw.mu.Lock()
		defer cw.mu.Unlock()

		cw.stopped.Store(true)

		if cw.running.CompareAndSwap(true, false) {
			if err := cw.watcher.Stop(); err != nil {
				stopErr = NewConfigWatcherError(cw.configPath, err)
			}
		}
		if cw.auditLogger != nil {
			if err := cw.auditLogger.Close(); err != nil {
				cw.logger.Warn("Failed to close audit logger", "error", err)
			}
		}

		cw.logger.Info("Configuration watcher stopped", "reloads", cw.reloads.Load())
	})
	return stopErr
}

// IsRunning reports whether the watcher is started and not stopped.
func (cw *ConfigWatcher) IsRunning() bool {
	return cw.running.Load()
}

// Reloads returns the number of successful reloads.
func (cw *ConfigWatcher) Reloads() int64 {
	return cw.reloads.Load()
}

// Failures returns the number of reloads that kept the previous
// configuration because the file could not be loaded.
func (cw *ConfigWatcher) Failures() int64 {
	return cw.failures.Load()
}

// handleConfigChange processes configuration file changes from Argus.
func (cw *ConfigWatcher) handleConfigChange(event argus.ChangeEvent) {
	cw.logger.Debug("Configuration file change detected",
		"mod_time", event.ModTime,
		"size", event.Size,
		"is_create", event.IsCreate,
		"is_delete", event.IsDelete,
		"is_modify", event.IsModify)

	if event.IsDelete {
		cw.logger.Warn("Configuration file was deleted, keeping current configuration")
		cw.audit("config_deleted", event)
		return
	}

	if !cw.target.ReloadConfig() {
		cw.failures.Add(1)
		cw.audit("config_reload_failed", event)
		return
	}
	cw.reloads.Add(1)
	cw.audit("config_reloaded", event)
}

func (cw *ConfigWatcher) audit(eventType string, event argus.ChangeEvent) {
	if cw.auditLogger == nil {
		return
	}
	cw.auditLogger.LogSecurityEvent(eventType, "Plugin configuration change", map[string]interface{}{
		"path":     event.Path,
		"size":     event.Size,
		"mod_time": event.ModTime,
	})
}
