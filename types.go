// types.go: Common data types returned by the plugin
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package exampleplugin

import (
	"time"
)

// PluginStatus represents the current operational status of the plugin.
//
// Status levels:
//   - StatusUnknown: Status cannot be determined
//   - StatusHealthy: Plugin is enabled and its files load and save cleanly
//   - StatusDegraded: Plugin is enabled but the last load or save failed
//   - StatusOffline: Plugin is disabled
type PluginStatus int

const (
	StatusUnknown PluginStatus = iota
	StatusHealthy
	StatusDegraded
	StatusOffline
)

// String returns a human-readable representation of the plugin status.
func (s PluginStatus) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status by name.
func (s PluginStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// HealthStatus contains health information about the plugin.
//
// Example usage:
//
//	health := plugin.Health()
//	if health.Status != StatusHealthy {
//	    log.Printf("plugin %s: %s", health.Status, health.Message)
//	}
type HealthStatus struct {
	Status    PluginStatus      `json:"status"`
	Message   string            `json:"message,omitempty"`
	LastCheck time.Time         `json:"last_check"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// PluginInfo describes a running plugin instance.
type PluginInfo struct {
	Name            string `json:"name"`
	Version         string `json:"version"`
	Author          string `json:"author"`
	Description     string `json:"description"`
	Enabled         bool   `json:"enabled"`
	InitializedTime string `json:"initialized_time"`
	UsageCount      int64  `json:"usage_count"`
}

// NeverUsed is reported as LastUsed before the first operation call.
const NeverUsed = "never used"

// StatisticsReport is a snapshot of the usage record and configuration.
type StatisticsReport struct {
	UsageCount int64      `json:"usage_count"`
	LastUsed   string     `json:"last_used"`
	Statistics Statistics `json:"statistics"`
	Config     Config     `json:"config"`
}
