// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/liteflow/cmd/liteflow/cli"
	"github.com/bureau-foundation/liteflow/lib/rulestore"
	"github.com/bureau-foundation/liteflow/lib/schema/rule"
	"github.com/bureau-foundation/liteflow/lib/schema/task"
	"github.com/bureau-foundation/liteflow/lib/workflow"
)

func rulesCommand(env environment) *cli.Command {
	return &cli.Command{
		Name:    "rules",
		Summary: "Inspect and edit the workflow rules",
		Description: `Inspect and edit the workflow rule file. Rules are evaluated in file
order against every created or updated task; rule indexes below are
0-based positions in that order.

Edits made here are validated (a name, one to three triggers on
distinct fields, known step actions) and recorded in the audit log.
The engine itself reads whatever the file contains.`,
		Subcommands: []*cli.Command{
			rulesListCommand(env),
			rulesCheckCommand(env),
			rulesAddCommand(env),
			rulesReplaceCommand(env),
			rulesDeleteCommand(env),
			rulesWatchCommand(env),
		},
	}
}

// --- list ---

type rulesListParams struct {
	globalParams
	cli.JSONOutput
}

type ruleListing struct {
	Path   string      `json:"path"`
	Digest string      `json:"digest,omitempty"`
	Rules  []rule.Rule `json:"rules"`
}

func rulesListCommand(env environment) *cli.Command {
	var params rulesListParams

	return &cli.Command{
		Name:    "list",
		Summary: "List the rules in evaluation order",
		Usage:   "liteflow rules list [flags]",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("list", &params) },
		Run: func(args []string) error {
			cfg, err := params.loadConfig()
			if err != nil {
				return err
			}
			set, err := rulestore.Read(cfg.Paths.Rules)
			if err != nil {
				return err
			}
			listing := ruleListing{Path: cfg.Paths.Rules, Digest: set.Digest, Rules: set.Rules}
			if listing.Rules == nil {
				listing.Rules = []rule.Rule{}
			}
			if done, err := params.EmitJSON(env.stdout, listing); done {
				return err
			}
			printRules(env.stdout, set.Rules)
			return nil
		},
	}
}

func printRules(w io.Writer, rules []rule.Rule) {
	if len(rules) == 0 {
		fmt.Fprintln(w, "no rules")
		return
	}
	tw := tabwriter.NewWriter(w, 2, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tSTEPS\tTRIGGERS")
	for index, r := range rules {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", index, r.DisplayName(), len(r.Steps), r.Summary())
	}
	tw.Flush()
}

// --- check ---

type rulesCheckParams struct {
	globalParams
	cli.JSONOutput
}

func rulesCheckCommand(env environment) *cli.Command {
	var params rulesCheckParams

	return &cli.Command{
		Name:    "check",
		Summary: "Report rule mistakes the engine would silently tolerate",
		Description: `Inspect the rule file for unknown statuses, actions, fields, and
operators, and for rules that would apply to every task. Exits 1 when
any warning is found, 0 otherwise.`,
		Usage: "liteflow rules check [flags]",
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("check", &params) },
		Run: func(args []string) error {
			cfg, err := params.loadConfig()
			if err != nil {
				return err
			}
			set, err := rulestore.Read(cfg.Paths.Rules)
			if err != nil {
				return err
			}
			warnings := workflow.CheckIntegrity(set.Rules)
			if done, err := params.EmitJSON(env.stdout, warnings); done {
				if err != nil {
					return err
				}
			} else {
				printWarnings(env.stdout, len(set.Rules), warnings)
			}
			if len(warnings) > 0 {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}

func printWarnings(w io.Writer, ruleCount int, warnings []workflow.Warning) {
	if len(warnings) == 0 {
		fmt.Fprintf(w, "%d rules, no warnings\n", ruleCount)
		return
	}
	for _, warning := range warnings {
		fmt.Fprintf(w, "#%d %s\n", warning.Index, warning)
	}
	fmt.Fprintf(w, "%d rules, %d warnings\n", ruleCount, len(warnings))
}

// --- add / replace ---

type rulesAuthorParams struct {
	globalParams
	From string `json:"from" flag:"from,f" desc:"file holding the rules to write (same format as the rule file)"`
}

// readAuthored decodes the rules in the --from file.
func (p *rulesAuthorParams) readAuthored() ([]rule.Rule, error) {
	if p.From == "" {
		return nil, fmt.Errorf("--from is required")
	}
	if _, err := os.Stat(p.From); err != nil {
		return nil, err
	}
	set, err := rulestore.Read(p.From)
	if err != nil {
		return nil, err
	}
	if len(set.Rules) == 0 {
		return nil, fmt.Errorf("%s contains no rules", p.From)
	}
	return set.Rules, nil
}

// recordRuleChange writes an administrative audit entry for a rule
// edit.
func recordRuleChange(ctx context.Context, a *app, message string) error {
	if _, err := a.service.AddAuditNote(ctx, "", message); err != nil {
		return fmt.Errorf("recording rule change: %w", err)
	}
	return nil
}

func rulesAddCommand(env environment) *cli.Command {
	var params rulesAuthorParams

	return &cli.Command{
		Name:    "add",
		Summary: "Append rules to the rule file",
		Description: `Append every rule from --from to the end of the rule file. Each rule
is validated first; the file is left untouched by a rule that fails.`,
		Usage: "liteflow rules add --from FILE [flags]",
		Examples: []cli.Example{
			{
				Description: "Append the rules written in new-rule.yaml",
				Command:     "liteflow rules add --from new-rule.yaml",
			},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("add", &params) },
		Run: func(args []string) error {
			authored, err := params.readAuthored()
			if err != nil {
				return err
			}
			for i := range authored {
				if err := authored[i].ValidateForAuthoring(); err != nil {
					return fmt.Errorf("rule %q: %w", authored[i].DisplayName(), err)
				}
			}
			return params.withApp(env, "rules/add", func(ctx context.Context, a *app) error {
				for _, r := range authored {
					if err := rulestore.Append(a.config.Paths.Rules, r); err != nil {
						return err
					}
					if err := recordRuleChange(ctx, a, task.RuleSavedMessage(r.DisplayName())); err != nil {
						return err
					}
					a.logger.Info("rule added", "rule", r.DisplayName(), "rules", a.config.Paths.Rules)
					fmt.Fprintf(env.stdout, "added %q\n", r.DisplayName())
				}
				return nil
			})
		},
	}
}

func rulesReplaceCommand(env environment) *cli.Command {
	var params rulesAuthorParams

	return &cli.Command{
		Name:    "replace",
		Summary: "Replace one rule in the rule file",
		Description: `Replace the rule at the given index with the single rule in --from.`,
		Usage:       "liteflow rules replace <index> --from FILE [flags]",
		Flags:       func() *pflag.FlagSet { return cli.FlagsFromParams("replace", &params) },
		Run: func(args []string) error {
			index, err := ruleIndexArg(args)
			if err != nil {
				return err
			}
			authored, err := params.readAuthored()
			if err != nil {
				return err
			}
			if len(authored) != 1 {
				return fmt.Errorf("%s contains %d rules, want exactly one", params.From, len(authored))
			}
			replacement := authored[0]
			return params.withApp(env, "rules/replace", func(ctx context.Context, a *app) error {
				if err := rulestore.Replace(a.config.Paths.Rules, index, replacement); err != nil {
					return err
				}
				if err := recordRuleChange(ctx, a, task.RuleSavedMessage(replacement.DisplayName())); err != nil {
					return err
				}
				a.logger.Info("rule replaced", "rule", replacement.DisplayName(), "index", index)
				fmt.Fprintf(env.stdout, "replaced rule %d with %q\n", index, replacement.DisplayName())
				return nil
			})
		},
	}
}

// --- delete ---

type rulesDeleteParams struct {
	globalParams
}

func rulesDeleteCommand(env environment) *cli.Command {
	var params rulesDeleteParams

	return &cli.Command{
		Name:    "delete",
		Summary: "Delete one rule from the rule file",
		Usage:   "liteflow rules delete <index> [flags]",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("delete", &params) },
		Run: func(args []string) error {
			index, err := ruleIndexArg(args)
			if err != nil {
				return err
			}
			return params.withApp(env, "rules/delete", func(ctx context.Context, a *app) error {
				removed, err := rulestore.Delete(a.config.Paths.Rules, index)
				if err != nil {
					return err
				}
				if err := recordRuleChange(ctx, a, task.RuleDeletedMessage(removed.DisplayName())); err != nil {
					return err
				}
				a.logger.Info("rule deleted", "rule", removed.DisplayName(), "index", index)
				fmt.Fprintf(env.stdout, "deleted rule %d %q\n", index, removed.DisplayName())
				return nil
			})
		},
	}
}

func ruleIndexArg(args []string) (int, error) {
	raw, err := singleArg(args, "rule index")
	if err != nil {
		return 0, err
	}
	index, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("rule index %q is not a number", raw)
	}
	return index, nil
}

// --- watch ---

type rulesWatchParams struct {
	globalParams
	Debounce    time.Duration `json:"debounce"     flag:"debounce"     desc:"quiet period after the last change before checking" default:"250ms"`
	MetricsFile string        `json:"metrics_file" flag:"metrics-file" desc:"rewrite the integrity warning gauge to this file after every check"`
}

func rulesWatchCommand(env environment) *cli.Command {
	var params rulesWatchParams

	return &cli.Command{
		Name:    "watch",
		Summary: "Re-check the rule file every time it changes",
		Description: `Watch the rule file and run the integrity check after every change,
until interrupted. Warnings are printed; an unreadable file is reported
and the watch continues.`,
		Usage: "liteflow rules watch [flags]",
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("watch", &params) },
		Run: func(args []string) error {
			cfg, err := params.loadConfig()
			if err != nil {
				return err
			}
			logger, err := env.logger(cfg, "rules/watch")
			if err != nil {
				return err
			}
			registry := prometheus.NewRegistry()
			metrics, err := workflow.NewMetrics(registry)
			if err != nil {
				return err
			}

			check := func() {
				set, err := rulestore.Read(cfg.Paths.Rules)
				if err != nil {
					logger.Error("rule file unreadable", "error", err)
					fmt.Fprintf(env.stdout, "%s: %v\n", cfg.Paths.Rules, err)
					return
				}
				warnings := workflow.CheckIntegrity(set.Rules)
				metrics.ObserveIntegrity(len(warnings))
				logger.Info("rule file checked", "rules", len(set.Rules), "warnings", len(warnings), "digest", set.Digest)
				printWarnings(env.stdout, len(set.Rules), warnings)
				if params.MetricsFile != "" {
					if err := prometheus.WriteToTextfile(params.MetricsFile, registry); err != nil {
						logger.Error("writing metrics failed", "error", err)
					}
				}
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			check()
			return rulestore.Watch(ctx, rulestore.WatchConfig{
				Path:     cfg.Paths.Rules,
				Debounce: params.Debounce,
				Clock:    env.clock,
				Logger:   logger,
			}, func(string) { check() })
		},
	}
}
