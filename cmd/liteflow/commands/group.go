// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/liteflow/cmd/liteflow/cli"
	"github.com/bureau-foundation/liteflow/lib/schema/task"
	"github.com/bureau-foundation/liteflow/lib/taskservice"
)

func groupCommand(env environment) *cli.Command {
	return &cli.Command{
		Name:    "group",
		Summary: "Manage support groups",
		Description: `Support groups are the teams tasks are assigned to. Creating and
removing a group is recorded in the audit log. Removing a group does
not unassign its tasks.`,
		Subcommands: []*cli.Command{
			groupAddCommand(env),
			groupListCommand(env),
			groupRemoveCommand(env),
		},
	}
}

type groupParams struct {
	globalParams
	cli.JSONOutput
}

func groupAddCommand(env environment) *cli.Command {
	var params groupParams

	return &cli.Command{
		Name:    "add",
		Summary: "Create a support group",
		Usage:   "liteflow group add <name...>",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("add", &params) },
		Run: func(args []string) error {
			name := strings.Join(args, " ")
			return params.withApp(env, "group/add", func(ctx context.Context, a *app) error {
				group, err := a.service.AddGroup(ctx, name)
				if errors.Is(err, taskservice.ErrGroupExists) {
					return fmt.Errorf("support group %q already exists", strings.TrimSpace(name))
				}
				if err != nil {
					return err
				}
				if done, err := params.EmitJSON(env.stdout, group); done {
					return err
				}
				fmt.Fprintf(env.stdout, "created support group %q\n", group.Name)
				return nil
			})
		},
	}
}

func groupListCommand(env environment) *cli.Command {
	var params groupParams

	return &cli.Command{
		Name:    "list",
		Summary: "List support groups by name",
		Usage:   "liteflow group list [flags]",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("list", &params) },
		Run: func(args []string) error {
			return params.withApp(env, "group/list", func(ctx context.Context, a *app) error {
				groups, err := a.service.Groups(ctx)
				if err != nil {
					return err
				}
				if done, err := params.EmitJSON(env.stdout, groups); done {
					return err
				}
				if len(groups) == 0 {
					fmt.Fprintln(env.stdout, "no support groups")
					return nil
				}
				for _, group := range groups {
					fmt.Fprintln(env.stdout, group.Name)
				}
				return nil
			})
		},
	}
}

func groupRemoveCommand(env environment) *cli.Command {
	var params groupParams

	return &cli.Command{
		Name:    "remove",
		Summary: "Remove a support group",
		Usage:   "liteflow group remove <name...>",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("remove", &params) },
		Run: func(args []string) error {
			name := strings.Join(args, " ")
			if strings.TrimSpace(name) == "" {
				return fmt.Errorf("a group name is required")
			}
			return params.withApp(env, "group/remove", func(ctx context.Context, a *app) error {
				removed, err := a.service.RemoveGroup(ctx, name)
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("support group %q: %w", strings.TrimSpace(name), errNoSuchGroup)
				}
				fmt.Fprintf(env.stdout, "removed support group %q\n", strings.TrimSpace(name))
				return nil
			})
		},
	}
}

var errNoSuchGroup = errors.New("no such support group")

// warnUnknownGroup logs when record is assigned to a support group
// that does not exist. Rules may assign any string, so this is never
// an error.
func warnUnknownGroup(ctx context.Context, a *app, record task.Task) {
	if record.AssignedTo == "" {
		return
	}
	groups, err := a.service.Groups(ctx)
	if err != nil {
		a.logger.Warn("listing support groups failed", "error", err)
		return
	}
	for _, group := range groups {
		if group.Name == record.AssignedTo {
			return
		}
	}
	a.logger.Warn("task assigned to an unknown support group",
		"task_id", record.ID,
		"assigned_to", record.AssignedTo,
	)
}
