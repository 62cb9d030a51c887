// descriptor.go: Static plugin manifest and host entry point
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package exampleplugin

// Plugin identity reported by Info and Descriptor.
const (
	PluginName        = "Example Plugin"
	PluginVersion     = "1.0.0"
	PluginAuthor      = "SecRandom Team"
	PluginDescription = "A fully featured example plugin"
	PluginAPIVersion  = "1.0"
)

// PluginDescriptor is the static manifest a host reads before loading the
// plugin.
type PluginDescriptor struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Author       string   `json:"author"`
	Description  string   `json:"description"`
	Features     []string `json:"features"`
	Operations   []string `json:"operations"`
	Requirements []string `json:"requirements"`
	APIVersion   string   `json:"api_version"`
}

// Descriptor returns the plugin manifest.
func Descriptor() PluginDescriptor {
	return PluginDescriptor{
		Name:        PluginName,
		Version:     PluginVersion,
		Author:      PluginAuthor,
		Description: "A fully featured example plugin showing configuration, persistence and operation dispatch",
		Features: []string{
			"configuration management",
			"data storage",
			"operation execution",
			"usage statistics",
			"background service",
		},
		Operations:   SupportedOperations(),
		Requirements: []string{},
		APIVersion:   PluginAPIVersion,
	}
}

// CreatePlugin is the entry point hosts call to instantiate the plugin for
// a plugin directory.
func CreatePlugin(dir string, opts ...Option) *Plugin {
	return New(dir, opts...)
}
