// operations.go: Closed set of plugin operations and their parameters
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package exampleplugin

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Operation names accepted by Execute.
const (
	OpHello       = "hello"
	OpCalculate   = "calculate"
	OpProcessText = "process_text"
)

// Operation is one of Hello, Calculate, ProcessText or Unrecognized.
//
// The set is closed: the unexported marker method prevents other packages
// from adding variants. Callers holding untyped input use ParseOperation;
// callers that know the operation up front build the variant directly and
// call Plugin.ExecuteOperation.
type Operation interface {
	// Kind returns the operation name used for dispatch, statistics and metrics
	Kind() string

	operation()
}

// Hello greets Name. An empty Name greets DefaultGreetingName.
type Hello struct {
	Name string
}

// Arithmetic operators accepted by Calculate.
const (
	OperatorAdd      = "add"
	OperatorSubtract = "subtract"
	OperatorMultiply = "multiply"
	OperatorDivide   = "divide"
)

// Calculate applies Operator to A and B. An unknown Operator is not an
// error: the result is the string ResultUnknownOperator.
type Calculate struct {
	A        float64
	B        float64
	Operator string
}

// Text transforms accepted by ProcessText.
const (
	TransformUppercase = "uppercase"
	TransformLowercase = "lowercase"
	TransformReverse   = "reverse"
	TransformWordCount = "word_count"
	TransformCharCount = "char_count"
)

// ProcessText applies Transform to Text. An unknown Transform is not an
// error: the result is the string ResultUnknownTransform.
type ProcessText struct {
	Text      string
	Transform string
}

// Unrecognized carries an operation name outside the supported set.
// Executing it produces an error result.
type Unrecognized struct {
	Name string
}

func (Hello) Kind() string          { return OpHello }
func (Calculate) Kind() string      { return OpCalculate }
func (ProcessText) Kind() string    { return OpProcessText }
func (u Unrecognized) Kind() string { return u.Name }

func (Hello) operation()        {}
func (Calculate) operation()    {}
func (ProcessText) operation()  {}
func (Unrecognized) operation() {}

// SupportedOperations lists the operation names accepted by ParseOperation.
func SupportedOperations() []string {
	return []string{OpHello, OpCalculate, OpProcessText}
}

// ParseOperation builds the typed operation for name from loosely typed
// params, as received from a host UI or the command line.
//
// Unknown names yield Unrecognized and a nil error. Parameter validation
// failures (non-numeric calculate arguments, empty or non-string text) are
// returned as a structured error together with the operation kind they
// belong to.
//
// Parameters:
//   - hello: name (default "user", other values are rendered as text)
//   - calculate: a, b (numbers, numeric strings or booleans; default 0),
//     operation (default "add")
//   - process_text: text (required string), operation (default "uppercase")
func ParseOperation(name string, params map[string]any) (Operation, error) {
	switch name {
	case OpHello:
		return Hello{Name: stringParam(params, "name", DefaultGreetingName)}, nil

	case OpCalculate:
		a, err := floatParam(params, "a")
		if err != nil {
			return Calculate{}, err
		}
		b, err := floatParam(params, "b")
		if err != nil {
			return Calculate{}, err
		}
		return Calculate{
			A:        a,
			B:        b,
			Operator: stringParam(params, "operation", OperatorAdd),
		}, nil

	case OpProcessText:
		op := ProcessText{Transform: stringParam(params, "operation", TransformUppercase)}
		text, err := textParam(params, "text")
		if err != nil {
			return op, err
		}
		op.Text = text
		if op.Text == "" {
			return op, NewEmptyTextError()
		}
		return op, nil

	default:
		return Unrecognized{Name: name}, nil
	}
}

// stringParam returns params[key] rendered as a string, or def when the
// key is absent or null.
func stringParam(params map[string]any, key, def string) string {
	v, ok := params[key]
	if !ok || v == nil {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// textParam returns params[key] when it is a string. Blank values (false,
// zero, empty lists and objects) read as "", any other value is rejected
// with an ErrCodeInvalidTextInput error.
func textParam(params map[string]any, key string) (string, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return "", nil
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case bool:
		if !t {
			return "", nil
		}
	case float64:
		if t == 0 {
			return "", nil
		}
	case int:
		if t == 0 {
			return "", nil
		}
	case int64:
		if t == 0 {
			return "", nil
		}
	case []any:
		if len(t) == 0 {
			return "", nil
		}
	case map[string]any:
		if len(t) == 0 {
			return "", nil
		}
	}
	return "", NewInvalidTextInputError(key, v)
}

// floatParam coerces params[key] to float64. An absent key is 0.
func floatParam(params map[string]any, key string) (float64, error) {
	v, ok := params[key]
	if !ok {
		return 0, nil
	}
	f, err := toFloat(v)
	if err != nil {
		return 0, NewInvalidNumericInputError(key, v, err)
	}
	return f, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int8:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to a number", v)
	}
}
