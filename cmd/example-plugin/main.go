// main.go: example-plugin command entry point
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/agilira/example-plugin/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		// exec already printed the failed result
		if !errors.Is(err, cli.ErrOperationFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
