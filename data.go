// data.go: Persisted usage record and statistics
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package exampleplugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// TimestampLayout is the ISO-8601 layout used for every timestamp the
// plugin writes.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// legacyTimestampLayouts are accepted when reading last_used values. The
// layouts without a zone offset, and those separated by a space, match
// timestamps written by earlier releases.
var legacyTimestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999Z07:00",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
}

// Statistics holds the operation counters.
type Statistics struct {
	TotalOperations int64 `json:"total_operations" yaml:"total_operations"`
	SuccessCount    int64 `json:"success_count" yaml:"success_count"`
	ErrorCount      int64 `json:"error_count" yaml:"error_count"`
}

// UsageData is the usage record persisted in data.json.
//
// Loading follows the same rules as Config: keys absent from the file keep
// their DefaultUsageData value, sub-objects present in the file replace the
// defaults (MergeShallow) or are merged over them (MergeDeep).
//
// A last_used value read from the file is written back in its original
// text as long as LastUsed still holds the instant it was parsed to, so a
// timestamp without a zone offset is not rewritten on save. New values
// are written with TimestampLayout.
type UsageData struct {
	UsageCount      int64
	LastUsed        *time.Time
	UserPreferences map[string]any
	Statistics      Statistics
	Cache           map[string]any
	Extra           map[string]json.RawMessage

	lastUsedText string
}

const (
	keyUsageCount      = "usage_count"
	keyLastUsed        = "last_used"
	keyUserPreferences = "user_preferences"
	keyStatistics      = "statistics"
	keyCache           = "cache"
)

// DefaultUsageData returns an empty usage record.
func DefaultUsageData() UsageData {
	return UsageData{
		UserPreferences: map[string]any{},
		Cache:           map[string]any{},
		Extra:           map[string]json.RawMessage{},
	}
}

// Validate rejects negative counters.
func (d *UsageData) Validate() error {
	if d.UsageCount < 0 {
		return NewConfigValidationError(keyUsageCount, d.UsageCount)
	}
	return d.Statistics.validate()
}

// recordCall updates the counters for one operation call.
func (d *UsageData) recordCall(at time.Time, success bool) {
	d.UsageCount++
	d.LastUsed = &at
	d.lastUsedText = ""
	d.Statistics.TotalOperations++
	if success {
		d.Statistics.SuccessCount++
	} else {
		d.Statistics.ErrorCount++
	}
}

// reset zeroes the counters and clears last_used. Preferences and cache
// are kept.
func (d *UsageData) reset() {
	d.UsageCount = 0
	d.LastUsed = nil
	d.lastUsedText = ""
	d.Statistics = Statistics{}
}

// applyOverrides sets every key present in raw over the current values.
// A key that does not decode or holds a negative counter keeps its current
// value; the failures of all such keys are returned joined.
func (d *UsageData) applyOverrides(raw map[string]json.RawMessage, mode MergeMode) error {
	if d.Extra == nil {
		d.Extra = map[string]json.RawMessage{}
	}
	var errs []error
	for key, value := range raw {
		if err := d.applyKey(key, value, mode); err != nil {
			errs = append(errs, fmt.Errorf("key %q: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

func (d *UsageData) applyKey(key string, value json.RawMessage, mode MergeMode) error {
	switch key {
	case keyUsageCount, keyUserPreferences, keyStatistics, keyCache:
		if isNull(value) {
			return nil
		}
	}

	switch key {
	case keyUsageCount:
		n, err := decodeInt(value)
		if err != nil {
			return err
		}
		if n < 0 {
			return NewConfigValidationError(keyUsageCount, n)
		}
		d.UsageCount = n
	case keyLastUsed:
		t, text, err := decodeTimestamp(value)
		if err != nil {
			return err
		}
		d.LastUsed, d.lastUsedText = t, text
	case keyUserPreferences:
		prefs, err := decodeObject(value, d.UserPreferences, mode)
		if err != nil {
			return err
		}
		d.UserPreferences = prefs
	case keyStatistics:
		stats := d.Statistics
		if mode == MergeShallow {
			stats = Statistics{}
		}
		if err := json.Unmarshal(value, &stats); err != nil {
			return err
		}
		if err := stats.validate(); err != nil {
			return err
		}
		d.Statistics = stats
	case keyCache:
		cache, err := decodeObject(value, d.Cache, mode)
		if err != nil {
			return err
		}
		d.Cache = cache
	default:
		d.Extra[key] = value
	}
	return nil
}

// UnmarshalJSON sets the counters present in data and keeps the others.
func (s *Statistics) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := *s
	for key, value := range raw {
		var dst *int64
		switch key {
		case "total_operations":
			dst = &out.TotalOperations
		case "success_count":
			dst = &out.SuccessCount
		case "error_count":
			dst = &out.ErrorCount
		default:
			continue
		}
		n, err := decodeInt(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
	}
	*s = out
	return nil
}

func (s Statistics) validate() error {
	switch {
	case s.TotalOperations < 0:
		return NewConfigValidationError("statistics.total_operations", s.TotalOperations)
	case s.SuccessCount < 0:
		return NewConfigValidationError("statistics.success_count", s.SuccessCount)
	case s.ErrorCount < 0:
		return NewConfigValidationError("statistics.error_count", s.ErrorCount)
	}
	return nil
}

// decodeObject decodes a JSON object, over a copy of current in MergeDeep.
func decodeObject(raw json.RawMessage, current map[string]any, mode MergeMode) (map[string]any, error) {
	out := map[string]any{}
	if mode == MergeDeep {
		for k, v := range current {
			out[k] = v
		}
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *UsageData) toMap() (map[string]any, error) {
	m, err := extraToMap(d.Extra)
	if err != nil {
		return nil, err
	}
	m[keyUsageCount] = d.UsageCount
	if lastUsed, ok := d.lastUsedString(); ok {
		m[keyLastUsed] = lastUsed
	} else {
		m[keyLastUsed] = nil
	}
	m[keyUserPreferences] = nonNilMap(d.UserPreferences)
	m[keyStatistics] = map[string]any{
		"total_operations": d.Statistics.TotalOperations,
		"success_count":    d.Statistics.SuccessCount,
		"error_count":      d.Statistics.ErrorCount,
	}
	m[keyCache] = nonNilMap(d.Cache)
	return m, nil
}

// MarshalJSON encodes d with the persisted key names.
func (d UsageData) MarshalJSON() ([]byte, error) {
	m, err := d.toMap()
	if err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes data over DefaultUsageData using shallow merge.
func (d *UsageData) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*d = DefaultUsageData()
	return d.applyOverrides(raw, MergeShallow)
}

// lastUsedString returns the persisted form of LastUsed and whether it is
// set.
func (d *UsageData) lastUsedString() (string, bool) {
	if d.LastUsed == nil {
		return "", false
	}
	if d.lastUsedText != "" {
		if t, err := ParseTimestamp(d.lastUsedText); err == nil && t.Equal(*d.LastUsed) {
			return d.lastUsedText, true
		}
	}
	return d.LastUsed.Format(TimestampLayout), true
}

// decodeTimestamp decodes a last_used value and returns it with the text it
// was parsed from. Null and the empty string mean never used.
func decodeTimestamp(raw json.RawMessage) (*time.Time, string, error) {
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, "", err
	}
	if s == nil || *s == "" {
		return nil, "", nil
	}
	t, err := ParseTimestamp(*s)
	if err != nil {
		return nil, "", err
	}
	return &t, *s, nil
}

// ParseTimestamp parses an ISO-8601 timestamp. Values without a zone
// offset are interpreted in local time.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range legacyTimestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

func nonNilMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
