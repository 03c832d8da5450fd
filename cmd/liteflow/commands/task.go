// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/liteflow/cmd/liteflow/cli"
	"github.com/bureau-foundation/liteflow/lib/schema/task"
	"github.com/bureau-foundation/liteflow/lib/taskindex"
	"github.com/bureau-foundation/liteflow/lib/taskservice"
	"github.com/bureau-foundation/liteflow/lib/workflow"
)

func taskCommand(env environment) *cli.Command {
	return &cli.Command{
		Name:    "task",
		Summary: "Create, edit, and inspect tasks",
		Description: `Manage tasks. Creating or updating a task runs the workflow rules
against it; marking a task done closes its open descendants.`,
		Subcommands: []*cli.Command{
			taskCreateCommand(env),
			taskUpdateCommand(env),
			taskDeleteCommand(env),
			taskListCommand(env),
			taskShowCommand(env),
			taskProcessCommand(env),
			taskStatsCommand(env),
		},
	}
}

// --- create ---

type taskCreateParams struct {
	globalParams
	cli.JSONOutput
	Title       string `json:"title"       flag:"title,t"       desc:"task title (required)"`
	Description string `json:"description" flag:"description,d" desc:"longer description"`
	Status      string `json:"status"      flag:"status,s"      desc:"initial status (default Nouveau)"`
	Priority    string `json:"priority"    flag:"priority,p"    desc:"priority: Basse, Moyenne, Haute, Critique (default Moyenne)"`
	Tags        string `json:"tags"        flag:"tags"          desc:"comma-separated tags"`
	AssignedTo  string `json:"assigned_to" flag:"assigned-to,a" desc:"support group"`
	Parent      string `json:"parent"      flag:"parent"        desc:"parent task ID"`
}

func taskCreateCommand(env environment) *cli.Command {
	var params taskCreateParams

	return &cli.Command{
		Name:    "create",
		Summary: "Create a task and run the workflow on it",
		Description: `Create a task. Status defaults to "Nouveau" and priority to
"Moyenne". The new task is evaluated against every workflow rule
immediately; the printed task reflects the rules' changes.`,
		Usage: "liteflow task create --title TITLE [flags]",
		Examples: []cli.Example{
			{
				Description: "Create an urgent ticket",
				Command:     "liteflow task create --title 'Panne VPN siège' --priority Critique --tags vpn,réseau",
			},
			{
				Description: "Create a sub-task",
				Command:     "liteflow task create --title 'Redémarrer le concentrateur' --parent tsk-4f1c0a9b",
			},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("create", &params) },
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected arguments: %v", args)
			}
			if params.Title == "" {
				return fmt.Errorf("--title is required")
			}
			return params.withApp(env, "task/create", func(ctx context.Context, a *app) error {
				outcome, err := a.service.Create(ctx, taskservice.Draft{
					Title:       params.Title,
					Description: params.Description,
					Status:      params.Status,
					Priority:    params.Priority,
					Tags:        params.Tags,
					AssignedTo:  params.AssignedTo,
					Parent:      params.Parent,
				})
				if err != nil {
					return err
				}
				warnUnknownGroup(ctx, a, outcome.Task)
				if done, err := params.EmitJSON(env.stdout, outcome); done {
					return err
				}
				printOutcome(env.stdout, outcome)
				return nil
			})
		},
	}
}

// --- update ---

type taskUpdateParams struct {
	globalParams
	cli.JSONOutput
	Title        string `json:"title"         flag:"title,t"       desc:"new title"`
	Description  string `json:"description"   flag:"description,d" desc:"new description"`
	Status       string `json:"status"        flag:"status,s"      desc:"new status"`
	Priority     string `json:"priority"      flag:"priority,p"    desc:"new priority"`
	Tags         string `json:"tags"          flag:"tags"          desc:"replace tags"`
	AssignedTo   string `json:"assigned_to"   flag:"assigned-to,a" desc:"new support group (empty to unassign)"`
	Parent       string `json:"parent"        flag:"parent"        desc:"new parent task ID (empty to detach)"`
	Admin        bool   `json:"admin"         flag:"admin"         desc:"record the change as a manual administrative update"`
	SkipWorkflow bool   `json:"skip_workflow" flag:"skip-workflow" desc:"do not run the workflow rules after the update"`
}

// patch builds a Patch from the flags that were given, so an explicit
// empty value clears a field and an absent flag leaves it alone.
func (p *taskUpdateParams) patch(flagSet *pflag.FlagSet) taskservice.Patch {
	field := func(name string, value string) *string {
		if !cli.Changed(flagSet, name) {
			return nil
		}
		return &value
	}
	return taskservice.Patch{
		Title:       field("title", p.Title),
		Description: field("description", p.Description),
		Status:      field("status", p.Status),
		Priority:    field("priority", p.Priority),
		Tags:        field("tags", p.Tags),
		AssignedTo:  field("assigned-to", p.AssignedTo),
		Parent:      field("parent", p.Parent),
	}
}

func taskUpdateCommand(env environment) *cli.Command {
	var params taskUpdateParams
	var flagSet *pflag.FlagSet

	return &cli.Command{
		Name:    "update",
		Summary: "Change task fields",
		Description: `Change the given fields of a task; omitted flags leave fields as they
are. Setting the status to "Terminé" closes every open descendant.
The workflow rules run afterwards unless --skip-workflow is given.`,
		Usage: "liteflow task update <task-id> [flags]",
		Examples: []cli.Example{
			{
				Description: "Close a task and its sub-tasks",
				Command:     "liteflow task update tsk-4f1c0a9b --status Terminé",
			},
			{
				Description: "Reassign without running the rules, leaving an audit trail",
				Command:     "liteflow task update tsk-4f1c0a9b --assigned-to 'Support N2' --admin --skip-workflow",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet = cli.FlagsFromParams("update", &params)
			return flagSet
		},
		Run: func(args []string) error {
			id, err := singleArg(args, "task ID")
			if err != nil {
				return err
			}
			patch := params.patch(flagSet)
			if patch.Empty() && !params.Admin {
				return fmt.Errorf("nothing to update: pass at least one field flag")
			}
			return params.withApp(env, "task/update", func(ctx context.Context, a *app) error {
				outcome, err := a.service.Update(ctx, id, patch, taskservice.UpdateOptions{
					SkipWorkflow: params.SkipWorkflow,
					Admin:        params.Admin,
				})
				if err != nil {
					return err
				}
				warnUnknownGroup(ctx, a, outcome.Task)
				if done, err := params.EmitJSON(env.stdout, outcome); done {
					return err
				}
				printOutcome(env.stdout, outcome)
				return nil
			})
		},
	}
}

// --- delete ---

type taskDeleteParams struct {
	globalParams
}

func taskDeleteCommand(env environment) *cli.Command {
	var params taskDeleteParams

	return &cli.Command{
		Name:    "delete",
		Summary: "Delete a task and its sub-tasks",
		Description: `Delete a task together with all of its descendants. Their audit
entries are kept, detached from the deleted tasks. Deleting a task that
does not exist succeeds.`,
		Usage: "liteflow task delete <task-id> [flags]",
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("delete", &params) },
		Run: func(args []string) error {
			id, err := singleArg(args, "task ID")
			if err != nil {
				return err
			}
			return params.withApp(env, "task/delete", func(ctx context.Context, a *app) error {
				deleted, err := a.service.Delete(ctx, id)
				if err != nil {
					return err
				}
				if deleted {
					fmt.Fprintf(env.stdout, "deleted %s\n", id)
				} else {
					fmt.Fprintf(env.stdout, "%s does not exist\n", id)
				}
				return nil
			})
		},
	}
}

// --- list ---

type taskListParams struct {
	globalParams
	cli.JSONOutput
	Status     string `json:"status"      flag:"status,s"      desc:"only tasks with this status"`
	Priority   string `json:"priority"    flag:"priority,p"    desc:"only tasks with this priority"`
	AssignedTo string `json:"assigned_to" flag:"assigned-to,a" desc:"only tasks assigned to this support group"`
	Parent     string `json:"parent"      flag:"parent"        desc:"only direct children of this task"`
	Tag        string `json:"tag"         flag:"tag"           desc:"only tasks carrying this tag"`
	Roots      bool   `json:"roots"       flag:"roots"         desc:"only tasks without a parent"`
	Grep       string `json:"grep"        flag:"grep,g"        desc:"only tasks whose title, description, or tags match this regular expression"`
}

func taskListCommand(env environment) *cli.Command {
	var params taskListParams

	return &cli.Command{
		Name:    "list",
		Summary: "List tasks",
		Description: `List tasks, most urgent first. Filters combine: every given filter
must match.`,
		Usage: "liteflow task list [flags]",
		Examples: []cli.Example{
			{
				Description: "Open root tasks of the first-level support",
				Command:     "liteflow task list --roots --assigned-to 'Support N1' --status 'À faire'",
			},
			{
				Description: "Everything mentioning the VPN, in any case",
				Command:     "liteflow task list --grep '(?i)vpn'",
			},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("list", &params) },
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected arguments: %v", args)
			}
			return params.withApp(env, "task/list", func(ctx context.Context, a *app) error {
				filter := taskindex.Filter{
					Status:     params.Status,
					Priority:   params.Priority,
					AssignedTo: params.AssignedTo,
					Parent:     params.Parent,
					Tag:        params.Tag,
					RootsOnly:  params.Roots,
				}
				var (
					tasks []task.Task
					err   error
				)
				if params.Grep != "" {
					tasks, err = a.service.Search(ctx, params.Grep, filter)
				} else {
					tasks, err = a.service.List(ctx, filter)
				}
				if err != nil {
					return err
				}
				if done, err := params.EmitJSON(env.stdout, tasks); done {
					return err
				}
				printTaskTable(env.stdout, tasks)
				return nil
			})
		},
	}
}

// --- show ---

type taskShowParams struct {
	globalParams
	cli.JSONOutput
}

type taskDetail struct {
	Task     task.Task         `json:"task"`
	Children []task.Task       `json:"children"`
	Done     int               `json:"children_done"`
	Audit    []task.AuditEntry `json:"audit"`
}

func taskShowCommand(env environment) *cli.Command {
	var params taskShowParams

	return &cli.Command{
		Name:    "show",
		Summary: "Show a task with its sub-tasks and audit log",
		Usage:   "liteflow task show <task-id> [flags]",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("show", &params) },
		Run: func(args []string) error {
			id, err := singleArg(args, "task ID")
			if err != nil {
				return err
			}
			return params.withApp(env, "task/show", func(ctx context.Context, a *app) error {
				record, err := a.service.Get(ctx, id)
				if err != nil {
					return err
				}
				children, err := a.service.Children(ctx, id)
				if err != nil {
					return err
				}
				_, done, err := a.service.Progress(ctx, id)
				if err != nil {
					return err
				}
				audit, err := a.service.Audit(ctx, id)
				if err != nil {
					return err
				}
				detail := taskDetail{Task: record, Children: children, Done: done, Audit: audit}
				if detail.Children == nil {
					detail.Children = []task.Task{}
				}
				if detail.Audit == nil {
					detail.Audit = []task.AuditEntry{}
				}
				if done, err := params.EmitJSON(env.stdout, detail); done {
					return err
				}
				printTaskDetail(env.stdout, detail)
				return nil
			})
		},
	}
}

// --- process ---

type taskProcessParams struct {
	globalParams
	cli.JSONOutput
	MetricsFile string `json:"metrics_file" flag:"metrics-file" desc:"write workflow metrics to this file in Prometheus text format"`
}

func taskProcessCommand(env environment) *cli.Command {
	var params taskProcessParams

	return &cli.Command{
		Name:    "process",
		Summary: "Run the workflow rules on a task",
		Description: `Evaluate every workflow rule against a task and apply the matching
rules' steps, exactly as a create or update would. Useful after editing
the rule file.`,
		Usage: "liteflow task process <task-id> [flags]",
		Examples: []cli.Example{
			{
				Description: "Re-run the rules and export metrics for the node exporter",
				Command:     "liteflow task process tsk-4f1c0a9b --metrics-file /var/lib/node_exporter/liteflow.prom",
			},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("process", &params) },
		Run: func(args []string) error {
			id, err := singleArg(args, "task ID")
			if err != nil {
				return err
			}
			return params.withApp(env, "task/process", func(ctx context.Context, a *app) error {
				result, processErr := a.engine.Process(ctx, id)
				if params.MetricsFile != "" {
					if err := prometheus.WriteToTextfile(params.MetricsFile, a.registry); err != nil {
						return fmt.Errorf("writing metrics: %w", err)
					}
				}
				if processErr != nil {
					return processErr
				}
				if !result.Found {
					return fmt.Errorf("%s: %w", id, task.ErrNotFound)
				}
				if done, err := params.EmitJSON(env.stdout, result); done {
					return err
				}
				printResult(env.stdout, result)
				return nil
			})
		},
	}
}

// --- stats ---

type taskStatsParams struct {
	globalParams
	cli.JSONOutput
}

func taskStatsCommand(env environment) *cli.Command {
	var params taskStatsParams

	return &cli.Command{
		Name:    "stats",
		Summary: "Count tasks by status, priority, and support group",
		Usage:   "liteflow task stats [flags]",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("stats", &params) },
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected arguments: %v", args)
			}
			return params.withApp(env, "task/stats", func(ctx context.Context, a *app) error {
				stats, err := a.service.Stats(ctx)
				if err != nil {
					return err
				}
				if done, err := params.EmitJSON(env.stdout, stats); done {
					return err
				}
				printStats(env.stdout, stats)
				return nil
			})
		},
	}
}

// printStats lists statuses and priorities in vocabulary order, then
// support groups by name. Values outside the vocabulary follow, sorted.
func printStats(w io.Writer, stats taskindex.Stats) {
	fmt.Fprintf(w, "%d tasks\n", stats.Total)
	if stats.Total == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 2, 0, 2, ' ', 0)
	section := func(title string, counts map[string]int, order []string) {
		fmt.Fprintf(tw, "\n%s\t\n", title)
		seen := make(map[string]bool, len(order))
		for _, name := range order {
			seen[name] = true
			if counts[name] > 0 {
				fmt.Fprintf(tw, "  %s\t%d\n", name, counts[name])
			}
		}
		var rest []string
		for name := range counts {
			if !seen[name] {
				rest = append(rest, name)
			}
		}
		slices.Sort(rest)
		for _, name := range rest {
			fmt.Fprintf(tw, "  %s\t%d\n", name, counts[name])
		}
	}
	section("Statut", stats.ByStatus, task.Statuses())
	section("Priorité", stats.ByPriority, task.Priorities())
	section("Assigné à", stats.ByAssignedTo, nil)
	tw.Flush()
}

// --- output ---

func printTaskTable(w io.Writer, tasks []task.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "no tasks")
		return
	}
	tw := tabwriter.NewWriter(w, 2, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tPRIORITY\tASSIGNED\tPARENT\tTITLE")
	for _, record := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			record.ID, record.Status, record.Priority,
			orDash(record.AssignedTo), orDash(record.Parent), record.Title)
	}
	tw.Flush()
}

func printTaskDetail(w io.Writer, detail taskDetail) {
	record := detail.Task
	tw := tabwriter.NewWriter(w, 2, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", record.ID)
	fmt.Fprintf(tw, "Titre:\t%s\n", record.Title)
	fmt.Fprintf(tw, "Statut:\t%s\n", record.Status)
	fmt.Fprintf(tw, "Priorité:\t%s\n", record.Priority)
	fmt.Fprintf(tw, "Assigné à:\t%s\n", orDash(record.AssignedTo))
	fmt.Fprintf(tw, "Tags:\t%s\n", orDash(record.Tags))
	fmt.Fprintf(tw, "Parent:\t%s\n", orDash(record.Parent))
	fmt.Fprintf(tw, "Créée:\t%s\n", record.CreatedAt.Format(timeLayout))
	fmt.Fprintf(tw, "Modifiée:\t%s\n", record.UpdatedAt.Format(timeLayout))
	tw.Flush()
	if record.Description != "" {
		fmt.Fprintf(w, "\n%s\n", record.Description)
	}

	if len(detail.Children) > 0 {
		fmt.Fprintf(w, "\nSous-tâches (%d/%d terminées):\n", detail.Done, len(detail.Children))
		for _, child := range detail.Children {
			fmt.Fprintf(w, "  %s  %-9s %s\n", child.ID, child.Status, child.Title)
		}
	}
	if len(detail.Audit) > 0 {
		fmt.Fprintf(w, "\nHistorique:\n")
		printAuditLines(w, detail.Audit)
	}
}

func printOutcome(w io.Writer, outcome taskservice.Outcome) {
	record := outcome.Task
	fmt.Fprintf(w, "%s  %s  [%s, %s]\n", record.ID, record.Title, record.Status, record.Priority)
	if len(outcome.Cascaded) > 0 {
		fmt.Fprintf(w, "  closed sub-tasks: %s\n", strings.Join(outcome.Cascaded, ", "))
	}
	if outcome.Workflow != nil {
		printResult(w, *outcome.Workflow)
	}
}

func printResult(w io.Writer, result workflow.Result) {
	if len(result.MatchedRules) == 0 {
		fmt.Fprintf(w, "  no rule matched\n")
		return
	}
	fmt.Fprintf(w, "  rules matched: %s\n", strings.Join(result.MatchedRules, ", "))
	if len(result.UpdatedFields) > 0 {
		fmt.Fprintf(w, "  fields updated: %s\n", strings.Join(result.UpdatedFields, ", "))
	}
	if len(result.CreatedTasks) > 0 {
		fmt.Fprintf(w, "  sub-tasks created: %s\n", strings.Join(result.CreatedTasks, ", "))
	}
	if len(result.CascadedTasks) > 0 {
		fmt.Fprintf(w, "  sub-tasks closed: %s\n", strings.Join(result.CascadedTasks, ", "))
	}
}

const timeLayout = "2006-01-02 15:04:05"

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
