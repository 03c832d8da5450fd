// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/bureau-foundation/liteflow/lib/schema/rule"
	"github.com/bureau-foundation/liteflow/lib/schema/task"
)

// Sub-task defaults for create_task steps.
const (
	DefaultSubtaskTitle  = "Sous-tâche"
	DefaultSubtaskStatus = task.StatusNew
)

// executor applies matched rules to a workspace and records what it
// did in result.
type executor struct {
	ws      *workspace
	logger  *slog.Logger
	metrics *Metrics
	result  *Result
}

// run executes the steps of r against taskID in order. changed is
// true when any step assigned a field or created a task.
func (e *executor) run(r rule.Rule, taskID string) (changed bool, err error) {
	for i, step := range r.Steps {
		logger := e.logger.With("rule", r.DisplayName(), "step", i+1, "action", string(step.Action))
		for _, ignored := range step.Ignored {
			logger.Debug("step field not writable, ignoring", "field", ignored.Key)
		}

		var stepChanged bool
		switch step.Action {
		case rule.ActionUpdate:
			stepChanged, err = e.update(step, taskID, logger)
		case rule.ActionCreateTask:
			stepChanged, err = e.createTask(step, taskID, logger)
		default:
			logger.Warn("unknown step action, skipping")
			continue
		}
		if err != nil {
			return changed, fmt.Errorf("rule %q step %d: %w", r.DisplayName(), i+1, err)
		}
		e.metrics.observeStep(string(step.Action))
		changed = changed || stepChanged
	}
	return changed, nil
}

// update assigns the step's fields on the triggering task. Setting the
// status to a Done-equivalent value closes the task's descendants
// before the next assignment runs.
func (e *executor) update(step rule.Step, taskID string, logger *slog.Logger) (bool, error) {
	changed := false
	for _, assignment := range step.Fields {
		record, found, err := e.ws.task(taskID)
		if err != nil {
			return changed, err
		}
		if !found {
			return changed, fmt.Errorf("task %s disappeared during the pass", taskID)
		}

		record.Set(assignment.Field, assignment.Value)
		e.ws.update(record)
		changed = true
		e.noteField(assignment.Field)
		logger.Info("field updated", "task_id", taskID, "field", assignment.Field.String(), "value", record.Get(assignment.Field))

		if assignment.Field == task.FieldStatus && task.IsDoneStatus(record.Status) {
			if err := e.propagate(taskID); err != nil {
				return changed, err
			}
		}
	}
	return changed, nil
}

// createTask adds a child of parentID built from the defaults and the
// step's fields. The new task is not evaluated against the rules in
// this pass.
func (e *executor) createTask(step rule.Step, parentID string, logger *slog.Logger) (bool, error) {
	child := task.Task{
		Title:    DefaultSubtaskTitle,
		Status:   DefaultSubtaskStatus,
		Priority: task.DefaultPriority,
		Parent:   parentID,
	}
	for _, assignment := range step.Fields {
		child.Set(assignment.Field, assignment.Value)
	}
	child = e.ws.create(child)
	e.result.CreatedTasks = append(e.result.CreatedTasks, child.ID)
	e.metrics.observeCreated()
	logger.Info("sub-task created", "task_id", child.ID, "parent", parentID, "title", child.Title)
	return true, nil
}

func (e *executor) noteField(field task.Field) {
	if !slices.Contains(e.result.UpdatedFields, field.String()) {
		e.result.UpdatedFields = append(e.result.UpdatedFields, field.String())
	}
}
