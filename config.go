// config.go: Typed plugin configuration with merge-over-defaults semantics
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package exampleplugin

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Theme is the UI theme requested by the configuration.
type Theme string

const (
	ThemeDefault Theme = "default"
	ThemeDark    Theme = "dark"
	ThemeLight   Theme = "light"
)

// Valid reports whether t is one of the known themes.
func (t Theme) Valid() bool {
	switch t {
	case ThemeDefault, ThemeDark, ThemeLight:
		return true
	default:
		return false
	}
}

// MergeMode controls how sub-objects loaded from a file are combined with
// the built-in defaults.
//
//   - MergeShallow: a sub-object present in the file replaces the default
//     sub-object entirely (fields missing from the file take zero values,
//     missing feature flags are dropped). This matches files written by
//     earlier releases of the plugin and is the default.
//   - MergeDeep: a sub-object present in the file is merged key by key over
//     the default sub-object.
//
// Top-level keys always replace their default in both modes.
type MergeMode int

const (
	MergeShallow MergeMode = iota
	MergeDeep
)

// String returns a human-readable representation of the merge mode.
func (m MergeMode) String() string {
	switch m {
	case MergeShallow:
		return "shallow"
	case MergeDeep:
		return "deep"
	default:
		return "unknown"
	}
}

// NotificationConfig configures user notifications.
type NotificationConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	Sound   bool `json:"sound" yaml:"sound"`
	// Duration in milliseconds
	Duration int `json:"duration" yaml:"duration"`
}

// Config is the plugin configuration persisted in config.json.
//
// Every field always holds a value: fields absent from the persisted file
// keep their DefaultConfig value. Unknown top-level keys found in the file
// are kept in Extra and written back on save.
//
// Example config.json:
//
//	{
//	  "version": "1.0.0",
//	  "auto_start": true,
//	  "debug_mode": false,
//	  "max_items": 100,
//	  "theme": "dark",
//	  "notifications": {"enabled": true, "sound": false, "duration": 3000},
//	  "features": {"feature1": true, "feature2": false, "feature3": true}
//	}
type Config struct {
	Version       string
	AutoStart     bool
	DebugMode     bool
	MaxItems      int
	Theme         Theme
	Notifications NotificationConfig
	Features      map[string]bool
	Extra         map[string]json.RawMessage
}

// Persisted key names
const (
	keyVersion       = "version"
	keyAutoStart     = "auto_start"
	keyDebugMode     = "debug_mode"
	keyMaxItems      = "max_items"
	keyTheme         = "theme"
	keyNotifications = "notifications"
	keyFeatures      = "features"
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		Version:   "1.0.0",
		AutoStart: true,
		DebugMode: false,
		MaxItems:  100,
		Theme:     ThemeDefault,
		Notifications: NotificationConfig{
			Enabled:  true,
			Sound:    true,
			Duration: 3000,
		},
		Features: map[string]bool{
			"feature1": true,
			"feature2": false,
			"feature3": true,
		},
		Extra: map[string]json.RawMessage{},
	}
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	out := c
	out.Features = make(map[string]bool, len(c.Features))
	for k, v := range c.Features {
		out.Features[k] = v
	}
	out.Extra = make(map[string]json.RawMessage, len(c.Extra))
	for k, v := range c.Extra {
		out.Extra[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

// FeatureEnabled reports whether the named feature flag is set.
func (c Config) FeatureEnabled(name string) bool {
	return c.Features[name]
}

// Validate checks value ranges that the JSON types alone do not enforce.
func (c *Config) Validate() error {
	if !c.Theme.Valid() {
		return NewConfigValidationError(keyTheme, string(c.Theme))
	}
	if c.MaxItems < 0 {
		return NewConfigValidationError(keyMaxItems, c.MaxItems)
	}
	if c.Notifications.Duration < 0 {
		return NewConfigValidationError("notifications.duration", c.Notifications.Duration)
	}
	return nil
}

// applyOverrides sets every key present in raw over the current values.
// A key that does not decode or is out of range keeps its current value;
// the failures of all such keys are returned joined.
func (c *Config) applyOverrides(raw map[string]json.RawMessage, mode MergeMode) error {
	if c.Extra == nil {
		c.Extra = map[string]json.RawMessage{}
	}
	var errs []error
	for key, value := range raw {
		if err := c.applyKey(key, value, mode); err != nil {
			errs = append(errs, fmt.Errorf("key %q: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

func (c *Config) applyKey(key string, value json.RawMessage, mode MergeMode) error {
	if _, known := configKeys[key]; !known {
		c.Extra[key] = value
		return nil
	}
	if isNull(value) {
		return nil
	}

	switch key {
	case keyVersion:
		return json.Unmarshal(value, &c.Version)
	case keyAutoStart:
		return json.Unmarshal(value, &c.AutoStart)
	case keyDebugMode:
		return json.Unmarshal(value, &c.DebugMode)
	case keyMaxItems:
		n, err := decodeInt(value)
		if err != nil {
			return err
		}
		if n < 0 || n > math.MaxInt32 {
			return NewConfigValidationError(keyMaxItems, n)
		}
		c.MaxItems = int(n)
	case keyTheme:
		var theme Theme
		if err := json.Unmarshal(value, &theme); err != nil {
			return err
		}
		if !theme.Valid() {
			return NewConfigValidationError(keyTheme, string(theme))
		}
		c.Theme = theme
	case keyNotifications:
		n := c.Notifications
		if mode == MergeShallow {
			n = NotificationConfig{}
		}
		if err := json.Unmarshal(value, &n); err != nil {
			return err
		}
		if n.Duration < 0 {
			return NewConfigValidationError("notifications.duration", n.Duration)
		}
		c.Notifications = n
	case keyFeatures:
		features := map[string]bool{}
		if mode == MergeDeep {
			for k, v := range c.Features {
				features[k] = v
			}
		}
		if err := json.Unmarshal(value, &features); err != nil {
			return err
		}
		c.Features = features
	}
	return nil
}

var configKeys = map[string]struct{}{
	keyVersion:       {},
	keyAutoStart:     {},
	keyDebugMode:     {},
	keyMaxItems:      {},
	keyTheme:         {},
	keyNotifications: {},
	keyFeatures:      {},
}

// UnmarshalJSON sets the fields present in data and keeps the others.
func (n *NotificationConfig) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := *n
	for key, value := range raw {
		var err error
		switch key {
		case "enabled":
			err = json.Unmarshal(value, &out.Enabled)
		case "sound":
			err = json.Unmarshal(value, &out.Sound)
		case "duration":
			var d int64
			if d, err = decodeInt(value); err == nil {
				out.Duration = int(d)
			}
		}
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	*n = out
	return nil
}

// decodeInt decodes an integral JSON number. Numbers written with a zero
// fractional part, such as 50.0, are accepted.
func decodeInt(raw json.RawMessage) (int64, error) {
	if isNull(raw) {
		return 0, fmt.Errorf("expected a number, got null")
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%v is not an integer", f)
	}
	return int64(f), nil
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

// toMap returns the persisted representation of c.
func (c *Config) toMap() (map[string]any, error) {
	m, err := extraToMap(c.Extra)
	if err != nil {
		return nil, err
	}
	features := make(map[string]bool, len(c.Features))
	for k, v := range c.Features {
		features[k] = v
	}
	m[keyVersion] = c.Version
	m[keyAutoStart] = c.AutoStart
	m[keyDebugMode] = c.DebugMode
	m[keyMaxItems] = c.MaxItems
	m[keyTheme] = string(c.Theme)
	m[keyNotifications] = map[string]any{
		"enabled":  c.Notifications.Enabled,
		"sound":    c.Notifications.Sound,
		"duration": c.Notifications.Duration,
	}
	m[keyFeatures] = features
	return m, nil
}

// MarshalJSON encodes c with the persisted key names.
func (c Config) MarshalJSON() ([]byte, error) {
	m, err := c.toMap()
	if err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes data over DefaultConfig using shallow merge.
func (c *Config) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = DefaultConfig()
	return c.applyOverrides(raw, MergeShallow)
}

// extraToMap decodes the retained unknown keys into plain values.
func extraToMap(extra map[string]json.RawMessage) (map[string]any, error) {
	m := make(map[string]any, len(extra)+8)
	for k, raw := range extra {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		m[k] = v
	}
	return m, nil
}
