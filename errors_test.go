// errors_test.go: Tests for structured error constructors
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package exampleplugin

import (
	"errors"
	"fmt"
	"testing"

	goerrors "github.com/agilira/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorConstructors_Codes(t *testing.T) {
	cause := errors.New("underlying")

	tests := []struct {
		name string
		err  *goerrors.Error
		code string
	}{
		{"ConfigNotFound", NewConfigNotFoundError("/tmp/config.json"), ErrCodeConfigNotFound},
		{"ConfigParse", NewConfigParseError("/tmp/config.json", cause), ErrCodeConfigParseError},
		{"ConfigValidation", NewConfigValidationError("theme", "neon"), ErrCodeConfigValidationError},
		{"ConfigValue", NewConfigValueError("/tmp/config.json", cause), ErrCodeConfigValidationError},
		{"ConfigWatcher", NewConfigWatcherError("/tmp/config.json", cause), ErrCodeConfigWatcherError},
		{"FileWrite", NewFileWriteError("/tmp/data.json", cause), ErrCodeConfigFileError},
		{"Serialization", NewSerializationError(cause), ErrCodeSerializationError},
		{"UnknownOperation", NewUnknownOperationError("bogus"), ErrCodeUnknownOperation},
		{"PluginNotEnabled", NewPluginNotEnabledError("hello"), ErrCodePluginNotEnabled},
		{"OperationFailed", NewOperationFailedError("hello", cause), ErrCodeOperationFailed},
		{"InvalidNumericInput", NewInvalidNumericInputError("a", "x", cause), ErrCodeInvalidNumericInput},
		{"EmptyText", NewEmptyTextError(), ErrCodeEmptyTextInput},
		{"InvalidText", NewInvalidTextInputError("text", 5), ErrCodeInvalidTextInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, string(tt.err.ErrorCode()))
			assert.NotEmpty(t, tt.err.UserMessage())
			assert.Equal(t, tt.code, errorCode(tt.err))
		})
	}
}

func TestErrorConstructors_UserMessages(t *testing.T) {
	cause := errors.New("strconv.ParseFloat: parsing \"x\": invalid syntax")

	assert.Equal(t, "unknown operation: bogus", NewUnknownOperationError("bogus").UserMessage())
	assert.Equal(t, "plugin is disabled", NewPluginNotEnabledError("hello").UserMessage())
	assert.Equal(t, "text cannot be empty", NewEmptyTextError().UserMessage())
	assert.Equal(t, "operation failed: boom", NewOperationFailedError("hello", errors.New("boom")).UserMessage())
	assert.Equal(t,
		"calculation error: invalid value for a: "+cause.Error(),
		NewInvalidNumericInputError("a", "x", cause).UserMessage())
}

func TestErrorConstructors_Context(t *testing.T) {
	err := NewConfigValidationError("max_items", -1)
	assert.Equal(t, "max_items", err.Context["field"])
	assert.Equal(t, -1, err.Context["value"])

	err = NewUnknownOperationError("bogus")
	assert.Equal(t, "bogus", err.Context["operation"])
}

func TestErrorConstructors_WrapCause(t *testing.T) {
	cause := errors.New("disk full")
	err := NewFileWriteError("/tmp/data.json", cause)

	assert.Equal(t, cause, err.Cause)
	assert.True(t, err.IsRetryable())
	assert.False(t, NewEmptyTextError().IsRetryable())
}

func TestErrorCode_Helper(t *testing.T) {
	wrapped := fmt.Errorf("loading: %w", NewConfigParseError("x", errors.New("bad")))
	assert.Equal(t, ErrCodeConfigParseError, errorCode(wrapped))
	assert.Empty(t, errorCode(errors.New("plain")))
	require.Empty(t, errorCode(nil))
}
