// errors.go: structured error definitions for the example plugin
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package exampleplugin

import (
	"fmt"

	"github.com/agilira/go-errors"
)

// Error codes for the example plugin
const (
	// Configuration and persistence errors (1700-1799)
	ErrCodeConfigNotFound        = "CONFIG_1701"
	ErrCodeConfigParseError      = "CONFIG_1702"
	ErrCodeConfigValidationError = "CONFIG_1703"
	ErrCodeConfigWatcherError    = "CONFIG_1704"
	ErrCodeConfigFileError       = "CONFIG_1706"

	// Operation errors (1200-1299)
	ErrCodeUnknownOperation    = "PLUGIN_1201"
	ErrCodePluginNotEnabled    = "PLUGIN_1202"
	ErrCodeOperationFailed     = "PLUGIN_1203"
	ErrCodeInvalidNumericInput = "PLUGIN_1206"
	ErrCodeEmptyTextInput      = "PLUGIN_1207"
	ErrCodeInvalidTextInput    = "PLUGIN_1208"

	// Serialization errors (2000-2099)
	ErrCodeSerializationError = "RPC_2005"
)

// Persistence error constructors

func NewConfigNotFoundError(path string) *errors.Error {
	return errors.New(ErrCodeConfigNotFound, "Configuration file not found").
		WithUserMessage("No persisted file was found, built-in defaults are used").
		WithContext("path", path).
		WithSeverity("info")
}

func NewConfigParseError(path string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeConfigParseError, "Failed to parse persisted file").
		WithUserMessage("The persisted file is not a valid object, built-in defaults are used").
		WithContext("path", path).
		WithSeverity("error")
}

func NewConfigValidationError(field string, value interface{}) *errors.Error {
	return errors.New(ErrCodeConfigValidationError, "Invalid configuration value").
		WithUserMessage("A configuration value is outside its allowed range").
		WithContext("field", field).
		WithContext("value", value).
		WithSeverity("error")
}

func NewConfigValueError(path string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeConfigValidationError, "Invalid values in persisted file").
		WithUserMessage("Some persisted values were invalid and their defaults are used").
		WithContext("path", path).
		WithSeverity("warning")
}

func NewConfigWatcherError(path string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeConfigWatcherError, "Configuration watcher error").
		WithUserMessage("Failed to watch the configuration file for changes").
		WithContext("path", path).
		WithSeverity("warning")
}

func NewFileWriteError(path string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeConfigFileError, "Failed to write persisted file").
		WithUserMessage("The file could not be written").
		WithContext("path", path).
		WithSeverity("error").
		AsRetryable()
}

func NewSerializationError(cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeSerializationError, "Serialization error").
		WithUserMessage("Failed to encode the value for persistence").
		WithSeverity("error")
}

// Operation error constructors
//
// The user message of an operation error is the text placed in the error
// field of the operation result.

func NewUnknownOperationError(name string) *errors.Error {
	return errors.New(ErrCodeUnknownOperation, "Unknown operation").
		WithUserMessage("unknown operation: "+name).
		WithContext("operation", name).
		WithSeverity("error")
}

func NewPluginNotEnabledError(name string) *errors.Error {
	return errors.New(ErrCodePluginNotEnabled, "Plugin not enabled").
		WithUserMessage("plugin is disabled").
		WithContext("operation", name).
		WithSeverity("warning")
}

func NewOperationFailedError(name string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeOperationFailed, "Operation failed").
		WithUserMessage("operation failed: "+cause.Error()).
		WithContext("operation", name).
		WithSeverity("error")
}

func NewInvalidNumericInputError(param string, value interface{}, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeInvalidNumericInput, "Invalid numeric input").
		WithUserMessage("calculation error: invalid value for "+param+": "+cause.Error()).
		WithContext("param", param).
		WithContext("value", value).
		WithSeverity("warning")
}

func NewInvalidTextInputError(param string, value interface{}) *errors.Error {
	return errors.New(ErrCodeInvalidTextInput, "Invalid text input").
		WithUserMessage(fmt.Sprintf("invalid value for %s: expected a string, got %T", param, value)).
		WithContext("param", param).
		WithContext("value", value).
		WithSeverity("error")
}

func NewEmptyTextError() *errors.Error {
	return errors.New(ErrCodeEmptyTextInput, "Empty text input").
		WithUserMessage("text cannot be empty").
		WithSeverity("warning")
}
