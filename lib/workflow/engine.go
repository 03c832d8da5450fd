// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/bureau-foundation/liteflow/lib/clock"
	"github.com/bureau-foundation/liteflow/lib/schema/rule"
	"github.com/bureau-foundation/liteflow/lib/schema/task"
)

// Store is the task persistence a pass reads from and commits to.
type Store interface {
	// Task returns the stored task, or an error wrapping
	// task.ErrNotFound.
	Task(ctx context.Context, id string) (task.Task, error)

	// ChildIDs returns the IDs of the direct children of parentID.
	ChildIDs(ctx context.Context, parentID string) ([]string, error)

	// Commit applies every record of changes atomically.
	Commit(ctx context.Context, changes task.ChangeSet) error
}

// RuleSource supplies the rules for a pass. It is consulted at the
// start of every pass so edits to the rule file apply without a
// restart. Implementations report unreadable rules as an empty set.
type RuleSource interface {
	LoadRules(ctx context.Context) rule.Set
}

// StaticRules is a RuleSource over a fixed rule list.
type StaticRules []rule.Rule

// LoadRules returns the rules unchanged.
func (s StaticRules) LoadRules(context.Context) rule.Set {
	return rule.Set{Rules: s}
}

// Config holds the engine's collaborators.
type Config struct {
	Store Store
	Rules RuleSource

	// Clock stamps audit entries and tasks. Defaults to clock.Real().
	Clock clock.Clock

	// Logger defaults to a discarding logger.
	Logger *slog.Logger

	// Metrics may be nil.
	Metrics *Metrics
}

// Engine evaluates rules against tasks. Passes are sequential: the
// caller must not run two passes on the same task concurrently.
type Engine struct {
	store   Store
	rules   RuleSource
	clock   clock.Clock
	logger  *slog.Logger
	metrics *Metrics
}

// New returns an Engine. Store and Rules are required.
func New(config Config) (*Engine, error) {
	if config.Store == nil {
		return nil, errors.New("workflow: store is required")
	}
	if config.Rules == nil {
		return nil, errors.New("workflow: rule source is required")
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		store:   config.Store,
		rules:   config.Rules,
		clock:   config.Clock,
		logger:  config.Logger,
		metrics: config.Metrics,
	}, nil
}

// Result describes one pass.
type Result struct {
	// PassID correlates the log lines of the pass.
	PassID string `json:"pass_id"`

	TaskID string `json:"task_id"`

	// Found is false when the task did not exist; nothing else is
	// set in that case.
	Found bool `json:"found"`

	// RuleDigest identifies the rule file contents the pass used.
	RuleDigest string `json:"rule_digest,omitempty"`

	// MatchedRules lists matching rule names in evaluation order.
	MatchedRules []string `json:"matched_rules,omitempty"`

	// Changed is true when the pass committed.
	Changed bool `json:"changed"`

	// UpdatedFields lists the technical keys of fields assigned on
	// the triggering task, first assignment first.
	UpdatedFields []string `json:"updated_fields,omitempty"`

	CreatedTasks  []string `json:"created_tasks,omitempty"`
	CascadedTasks []string `json:"cascaded_tasks,omitempty"`

	// AuditEntries is the number of audit entries committed.
	AuditEntries int `json:"audit_entries"`
}

// Process runs one pass for taskID: it reloads the rules, evaluates
// every rule against the task in file order, executes the steps of
// each match, and commits all resulting changes once. A task that does
// not exist yields a Result with Found false and a nil error. Later
// rules see the field values written by earlier ones.
func (e *Engine) Process(ctx context.Context, taskID string) (Result, error) {
	start := e.clock.Now()
	result := Result{PassID: uuid.NewString(), TaskID: taskID}
	logger := e.logger.With("pass_id", result.PassID, "task_id", taskID)

	ruleSet := e.rules.LoadRules(ctx)
	result.RuleDigest = ruleSet.Digest

	ws := newWorkspace(ctx, e.store, e.clock)
	if _, found, err := ws.task(taskID); err != nil {
		e.metrics.observePass(outcomeError, e.clock.Now().Sub(start))
		return Result{}, err
	} else if !found {
		logger.Info("task not found, skipping workflow pass")
		e.metrics.observePass(outcomeMissing, e.clock.Now().Sub(start))
		return result, nil
	}
	result.Found = true

	exec := &executor{ws: ws, logger: logger, metrics: e.metrics, result: &result}
	changed := false
	for _, r := range ruleSet.Rules {
		current, _, err := ws.task(taskID)
		if err != nil {
			e.metrics.observePass(outcomeError, e.clock.Now().Sub(start))
			return Result{}, err
		}
		if !Match(r, current, logger) {
			continue
		}
		logger.Info("rule matched", "rule", r.DisplayName(), "steps", len(r.Steps))
		result.MatchedRules = append(result.MatchedRules, r.DisplayName())
		e.metrics.observeMatch(r.DisplayName())

		ruleChanged, err := exec.run(r, taskID)
		if err != nil {
			e.metrics.observePass(outcomeError, e.clock.Now().Sub(start))
			return Result{}, err
		}
		changed = changed || ruleChanged
	}

	if !changed {
		logger.Debug("workflow pass complete, nothing to commit", "rules", len(ruleSet.Rules))
		e.metrics.observePass(outcomeUnchanged, e.clock.Now().Sub(start))
		return result, nil
	}

	if err := e.commit(ctx, ws, &result); err != nil {
		e.metrics.observePass(outcomeError, e.clock.Now().Sub(start))
		return Result{}, err
	}
	logger.Info("workflow pass committed",
		"matched", len(result.MatchedRules),
		"created", len(result.CreatedTasks),
		"cascaded", len(result.CascadedTasks),
	)
	e.metrics.observePass(outcomeChanged, e.clock.Now().Sub(start))
	return result, nil
}

// Propagate closes the descendants of taskID as if a rule had just set
// its status to Done, and commits the result. The task's own status
// is not touched. The CRUD layer calls this when a person marks a task
// done directly. A missing task yields Found false and a nil error.
func (e *Engine) Propagate(ctx context.Context, taskID string) (Result, error) {
	result := Result{PassID: uuid.NewString(), TaskID: taskID}
	logger := e.logger.With("pass_id", result.PassID, "task_id", taskID)

	ws := newWorkspace(ctx, e.store, e.clock)
	if _, found, err := ws.task(taskID); err != nil {
		return Result{}, err
	} else if !found {
		return result, nil
	}
	result.Found = true

	exec := &executor{ws: ws, logger: logger, metrics: e.metrics, result: &result}
	if err := exec.propagate(taskID); err != nil {
		return Result{}, err
	}
	if len(result.CascadedTasks) == 0 {
		return result, nil
	}
	if err := e.commit(ctx, ws, &result); err != nil {
		return Result{}, err
	}
	logger.Info("cascade committed", "cascaded", len(result.CascadedTasks))
	return result, nil
}

func (e *Engine) commit(ctx context.Context, ws *workspace, result *Result) error {
	changes := ws.changes()
	if err := e.store.Commit(ctx, changes); err != nil {
		return fmt.Errorf("committing workflow changes for %s: %w", result.TaskID, err)
	}
	result.Changed = true
	result.AuditEntries = len(changes.Audit)
	return nil
}
