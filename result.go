// result.go: Operation results
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package exampleplugin

import (
	"errors"

	goerrors "github.com/agilira/go-errors"
)

// Result is the outcome of one Execute call.
//
// A result carries either a payload (Message for hello, Value for calculate
// and process_text) or Error, never both. Error holds the user-facing text
// and ErrorCode the structured code from errors.go.
type Result struct {
	Operation    string `json:"operation,omitempty"`
	Message      string `json:"message,omitempty"`
	Value        any    `json:"result,omitempty"`
	Expression   string `json:"expression,omitempty"`
	OriginalText string `json:"original_text,omitempty"`
	Timestamp    string `json:"timestamp,omitempty"`
	Error        string `json:"error,omitempty"`
	ErrorCode    string `json:"error_code,omitempty"`
}

// Failed reports whether the result carries an error. Hosts map a failed
// result to an error notification and anything else to a success
// notification.
func (r Result) Failed() bool {
	return r.Error != ""
}

// Map returns the result as the loosely typed mapping hosts exchange with
// plugins. Empty fields are omitted.
func (r Result) Map() map[string]any {
	m := make(map[string]any, 6)
	if r.Failed() {
		m["error"] = r.Error
		if r.ErrorCode != "" {
			m["error_code"] = r.ErrorCode
		}
		return m
	}
	if r.Operation != "" {
		m["operation"] = r.Operation
	}
	if r.Message != "" {
		m["message"] = r.Message
	}
	if r.Value != nil {
		m["result"] = r.Value
	}
	if r.Expression != "" {
		m["expression"] = r.Expression
	}
	if r.OriginalText != "" {
		m["original_text"] = r.OriginalText
	}
	if r.Timestamp != "" {
		m["timestamp"] = r.Timestamp
	}
	return m
}

// errorResult converts err into a failed result. Structured errors
// contribute their user message and code.
func errorResult(err error) Result {
	var coded *goerrors.Error
	if errors.As(err, &coded) {
		return Result{Error: coded.UserMessage(), ErrorCode: string(coded.ErrorCode())}
	}
	return Result{Error: err.Error()}
}
