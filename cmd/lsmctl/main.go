// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Command lsmctl inspects and modifies an LSM store on disk.
package main

import (
	"fmt"
	"os"

	"github.com/bureau-foundation/lsm/cmd/lsmctl/commands"
)

func main() {
	if err := run(); err != nil {
		// Commands that print their own output (like get on a missing
		// key) return an error carrying the exit code.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return commands.Root(os.Stdout, os.Stderr).Execute(os.Args[1:])
}
