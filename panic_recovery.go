// panic_recovery.go: Panic recovery for operation handlers and background tasks
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package exampleplugin

import (
	"fmt"
	"runtime"
)

// RecoveryHandler defines the signature for panic recovery handlers.
type RecoveryHandler func(recovered interface{}, stack []byte)

// withStackRecover returns a panic recovery function that logs panic
// details including the stack trace. Use it with defer:
//
//	defer withStackRecover(logger)()
func withStackRecover(logger Logger) func() {
	return func() {
		if r := recover(); r != nil {
			buf := make([]byte, 64<<10)
			n := runtime.Stack(buf, false)

			logger.Error("Panic recovered",
				"panic", r,
				"stack", string(buf[:n]))
		}
	}
}

// callSafely runs fn and converts a panic into an error. The handler, if
// not nil, receives the recovered value and stack trace.
func callSafely[T any](handler RecoveryHandler, fn func() T) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 64<<10)
			n := runtime.Stack(buf, false)
			if handler != nil {
				handler(r, buf[:n])
			}
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(), nil
}
