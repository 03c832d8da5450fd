// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/liteflow/cmd/liteflow/cli"
	"github.com/bureau-foundation/liteflow/lib/clock"
	"github.com/bureau-foundation/liteflow/lib/version"
)

// Root builds and returns the complete liteflow command tree, writing
// results to stdout and logs to stderr.
func Root() *cli.Command {
	return newRoot(environment{
		stdout:    os.Stdout,
		logOutput: os.Stderr,
		clock:     clock.Real(),
	})
}

func newRoot(env environment) *cli.Command {
	return &cli.Command{
		Name: "liteflow",
		Description: `liteflow: task tracking with rule-driven automation.

Tasks form a parent/child hierarchy. Every create and update runs the
workflow rules from the rule file: matching rules update fields or
create sub-tasks, and closing a task closes its open descendants.`,
		Subcommands: []*cli.Command{
			taskCommand(env),
			rulesCommand(env),
			auditCommand(env),
			groupCommand(env),
			snapshotCommand(env),
			versionCommand(env),
		},
	}
}

type versionParams struct {
	Full bool `flag:"full" desc:"also print the Go toolchain and platform"`
}

func versionCommand(env environment) *cli.Command {
	var params versionParams
	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Usage:   "liteflow version [--full]",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("version", &params) },
		Run: func(args []string) error {
			if params.Full {
				fmt.Fprintf(env.stdout, "liteflow %s\n", version.Full())
				return nil
			}
			fmt.Fprintf(env.stdout, "liteflow %s\n", version.Info())
			return nil
		},
	}
}
