// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/liteflow/cmd/liteflow/cli"
	"github.com/bureau-foundation/liteflow/lib/schema/task"
)

func auditCommand(env environment) *cli.Command {
	return &cli.Command{
		Name:    "audit",
		Summary: "Read and annotate the audit log",
		Description: `The audit log records automatic closures, administrative edits, rule
and support group changes, and free-form notes. Entries are never
modified; deleting a task keeps its entries, detached.`,
		Subcommands: []*cli.Command{
			auditListCommand(env),
			auditAddCommand(env),
		},
	}
}

type auditListParams struct {
	globalParams
	cli.JSONOutput
	Task  string `json:"task"  flag:"task"  desc:"only entries of this task"`
	Limit int    `json:"limit" flag:"limit,n" desc:"maximum entries to show (0 for all)" default:"50"`
}

func auditListCommand(env environment) *cli.Command {
	var params auditListParams

	return &cli.Command{
		Name:    "list",
		Summary: "Show audit entries, newest first",
		Usage:   "liteflow audit list [--task ID] [flags]",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("list", &params) },
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected arguments: %v", args)
			}
			return params.withApp(env, "audit/list", func(ctx context.Context, a *app) error {
				var (
					entries []task.AuditEntry
					err     error
				)
				if params.Task != "" {
					entries, err = a.service.Audit(ctx, params.Task)
					if err == nil && params.Limit > 0 && len(entries) > params.Limit {
						entries = entries[:params.Limit]
					}
				} else {
					entries, err = a.service.AllAudit(ctx, params.Limit)
				}
				if err != nil {
					return err
				}
				if done, err := params.EmitJSON(env.stdout, entries); done {
					return err
				}
				if len(entries) == 0 {
					fmt.Fprintln(env.stdout, "no audit entries")
					return nil
				}
				printAuditLines(env.stdout, entries)
				return nil
			})
		},
	}
}

func printAuditLines(w io.Writer, entries []task.AuditEntry) {
	for _, entry := range entries {
		fmt.Fprintf(w, "  %s  %-12s %s\n", entry.Timestamp.Format(timeLayout), orDash(entry.TaskID), entry.Message)
	}
}

type auditAddParams struct {
	globalParams
	cli.JSONOutput
	Task string `json:"task" flag:"task" desc:"attach the note to this task"`
}

func auditAddCommand(env environment) *cli.Command {
	var params auditAddParams

	return &cli.Command{
		Name:    "add",
		Summary: "Write a note to the audit log",
		Usage:   "liteflow audit add [--task ID] <message...>",
		Examples: []cli.Example{
			{
				Description: "Note an escalation on a task",
				Command:     "liteflow audit add --task tsk-4f1c0a9b 'Escaladé au fournisseur'",
			},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("add", &params) },
		Run: func(args []string) error {
			message := strings.Join(args, " ")
			if strings.TrimSpace(message) == "" {
				return fmt.Errorf("a message is required")
			}
			return params.withApp(env, "audit/add", func(ctx context.Context, a *app) error {
				if params.Task != "" {
					if _, err := a.service.Get(ctx, params.Task); err != nil {
						return err
					}
				}
				entry, err := a.service.AddAuditNote(ctx, params.Task, message)
				if err != nil {
					return err
				}
				if done, err := params.EmitJSON(env.stdout, entry); done {
					return err
				}
				fmt.Fprintf(env.stdout, "recorded audit entry %d\n", entry.ID)
				return nil
			})
		},
	}
}
