// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// liteflow manages a hierarchy of tasks and runs user-authored
// workflow rules on every change. Run "liteflow --help" for commands.
package main

import (
	"fmt"
	"os"

	"github.com/bureau-foundation/liteflow/cmd/liteflow/commands"
)

func main() {
	if err := run(); err != nil {
		// Commands that print their own report (rules check) return an
		// ExitError carrying the exit code; don't print "error:" for them.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return commands.Root().Execute(os.Args[1:])
}
