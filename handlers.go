// handlers.go: Handlers for the built-in operations
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package exampleplugin

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultGreetingName is used by hello when no name is given.
const DefaultGreetingName = "user"

// Sentinel results. These are ordinary result values, not errors.
const (
	ResultDivideByZero     = "cannot divide by zero"
	ResultUnknownOperator  = "unknown operation"
	ResultUnknownTransform = "unknown text operation"
)

func handleHello(op Hello, now time.Time) Result {
	name := op.Name
	if name == "" {
		name = DefaultGreetingName
	}
	return Result{
		Operation: OpHello,
		Message:   fmt.Sprintf("Hello, %s! Welcome to the example plugin", name),
		Timestamp: now.Format(TimestampLayout),
	}
}

func handleCalculate(op Calculate, now time.Time) Result {
	var value any
	switch op.Operator {
	case OperatorAdd:
		value = op.A + op.B
	case OperatorSubtract:
		value = op.A - op.B
	case OperatorMultiply:
		value = op.A * op.B
	case OperatorDivide:
		if op.B == 0 {
			value = ResultDivideByZero
		} else {
			value = op.A / op.B
		}
	default:
		value = ResultUnknownOperator
	}
	return Result{
		Value:      value,
		Expression: fmt.Sprintf("%s %s %s", FormatFloat(op.A), op.Operator, FormatFloat(op.B)),
		Timestamp:  now.Format(TimestampLayout),
	}
}

func handleProcessText(op ProcessText, now time.Time) Result {
	if op.Text == "" {
		return errorResult(NewEmptyTextError())
	}

	var value string
	switch op.Transform {
	case TransformUppercase:
		value = strings.ToUpper(op.Text)
	case TransformLowercase:
		value = strings.ToLower(op.Text)
	case TransformReverse:
		value = reverseRunes(op.Text)
	case TransformWordCount:
		value = strconv.Itoa(len(strings.Fields(op.Text)))
	case TransformCharCount:
		value = strconv.Itoa(utf8.RuneCountInString(op.Text))
	default:
		value = ResultUnknownTransform
	}
	return Result{
		Operation:    op.Transform,
		Value:        value,
		OriginalText: op.Text,
		Timestamp:    now.Format(TimestampLayout),
	}
}

func reverseRunes(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}

// FormatFloat renders f the way expressions are displayed: integral values
// keep a trailing ".0" (3 → "3.0"), others use the shortest exact form.
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs >= 1e16 || abs < 1e-4) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}
