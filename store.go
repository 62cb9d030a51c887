// store.go: File-backed stores with merge-over-defaults loading
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
	"io/fs"
	"os"
	"sync"

	"github.com/agilira/argus"
	goerrors "github.com/agilira/go-errors"
	"gopkg.in/yaml.v3"
)

// Document is a value that can be loaded over its defaults and persisted.
// It is implemented by *Config and *UsageData.
type Document[T any] interface {
	*T
	Validate() error
	applyOverrides(raw map[string]json.RawMessage, mode MergeMode) error
	toMap() (map[string]any, error)
}

// Store loads and saves one document file.
//
// Load never fails: a missing file yields the defaults, an unreadable or
// malformed file yields the defaults and records the failure (see
// LastError). Inside a well-formed file each key is merged on its own: a
// key with a value of the wrong type or out of range keeps its default,
// the failure is recorded and the other keys are still applied. Save reports success as a boolean and records the
// failure. The file format is detected from the extension: .yaml and .yml
// files use YAML, everything else JSON.
//
// Example usage:
//
//	store := NewConfigStore(filepath.Join(dir, "config.json"))
//	cfg := store.Load()
//	cfg.Theme = ThemeDark
//	if !store.Save(cfg) {
//	    log.Printf("save failed: %v", store.LastError())
//	}
type Store[T any, P Document[T]] struct {
	path     string
	kind     string
	format   argus.ConfigFormat
	defaults func() T
	mode     MergeMode
	logger   Logger
	recorder Recorder

	mu      sync.Mutex
	lastErr error
}

// ConfigStore persists the plugin configuration.
type ConfigStore = Store[Config, *Config]

// DataStore persists the plugin usage record.
type DataStore = Store[UsageData, *UsageData]

// StoreOption configures a Store.
type StoreOption func(*storeOptions)

type storeOptions struct {
	mode     MergeMode
	logger   Logger
	recorder Recorder
}

// WithStoreMergeMode selects how sub-objects are merged on load.
func WithStoreMergeMode(mode MergeMode) StoreOption {
	return func(o *storeOptions) { o.mode = mode }
}

// WithStoreLogger sets the logger used to record load and save failures.
func WithStoreLogger(logger Logger) StoreOption {
	return func(o *storeOptions) { o.logger = logger }
}

// WithStoreRecorder sets the metrics recorder notified of save failures.
func WithStoreRecorder(recorder Recorder) StoreOption {
	return func(o *storeOptions) { o.recorder = recorder }
}

// NewConfigStore creates a store for the configuration file at path.
func NewConfigStore(path string, opts ...StoreOption) *ConfigStore {
	return newStore[Config, *Config](path, "config", DefaultConfig, opts)
}

// NewDataStore creates a store for the usage data file at path.
func NewDataStore(path string, opts ...StoreOption) *DataStore {
	return newStore[UsageData, *UsageData](path, "data", DefaultUsageData, opts)
}

func newStore[T any, P Document[T]](path, kind string, defaults func() T, opts []StoreOption) *Store[T, P] {
	o := storeOptions{mode: MergeShallow}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = NewNoOpLogger()
	}
	if o.recorder == nil {
		o.recorder = NoopRecorder{}
	}
	return &Store[T, P]{
		path:     path,
		kind:     kind,
		format:   argus.DetectFormat(path),
		defaults: defaults,
		mode:     o.mode,
		logger:   o.logger.With("file", kind, "path", path),
		recorder: o.recorder,
	}
}

// Path returns the backing file path.
func (s *Store[T, P]) Path() string {
	return s.path
}

// LastError returns the failure recorded by the most recent Load or Save,
// or nil if it succeeded.
func (s *Store[T, P]) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Store[T, P]) setLastError(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

// Load returns the persisted document merged over the defaults.
func (s *Store[T, P]) Load() T {
	value := s.defaults()

	content, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("Persisted file not found, using defaults")
			s.setLastError(nil)
			return value
		}
		s.fail("Failed to read persisted file", NewConfigParseError(s.path, err))
		return s.defaults()
	}

	raw, err := s.decode(content)
	if err != nil {
		s.fail("Failed to load persisted file", NewConfigParseError(s.path, err))
		return s.defaults()
	}
	keyErr := P(&value).applyOverrides(raw, s.mode)
	if err := P(&value).Validate(); err != nil {
		s.fail("Persisted file failed validation", err)
		return s.defaults()
	}
	if keyErr != nil {
		s.fail("Persisted values replaced by defaults", NewConfigValueError(s.path, keyErr))
		return value
	}

	s.setLastError(nil)
	return value
}

// Save writes value to the backing file, replacing its content.
func (s *Store[T, P]) Save(value T) bool {
	m, err := P(&value).toMap()
	if err != nil {
		s.saveFailed(NewSerializationError(err))
		return false
	}

	content, err := s.encode(m)
	if err != nil {
		s.saveFailed(NewSerializationError(err))
		return false
	}

	if err := os.WriteFile(s.path, content, 0o644); err != nil { // #nosec G306 -- user-editable plugin files
		s.saveFailed(NewFileWriteError(s.path, err))
		return false
	}

	s.setLastError(nil)
	s.logger.Debug("Persisted file saved", "bytes", len(content))
	return true
}

func (s *Store[T, P]) fail(msg string, err error) {
	s.setLastError(err)
	s.logger.Error(msg, "error", err, "code", errorCode(err))
}

func (s *Store[T, P]) saveFailed(err error) {
	s.fail("Failed to save persisted file", err)
	s.recorder.PersistenceFailed(s.kind)
}

// decode parses content into top-level keys. Anything but an object is
// rejected.
func (s *Store[T, P]) decode(content []byte) (map[string]json.RawMessage, error) {
	if s.format == argus.FormatYAML {
		var doc map[string]any
		if err := yaml.Unmarshal(content, &doc); err != nil {
			return nil, err
		}
		if doc == nil {
			return nil, fmt.Errorf("document is not an object")
		}
		raw := make(map[string]json.RawMessage, len(doc))
		for k, v := range doc {
			b, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			raw[k] = b
		}
		return raw, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("document is not an object")
	}
	return raw, nil
}

func (s *Store[T, P]) encode(m map[string]any) ([]byte, error) {
	if s.format == argus.FormatYAML {
		return yaml.Marshal(m)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// errorCode extracts the structured error code from err, if any.
func errorCode(err error) string {
	var coded *goerrors.Error
	if errors.As(err, &coded) {
		return string(coded.ErrorCode())
	}
	return ""
}
