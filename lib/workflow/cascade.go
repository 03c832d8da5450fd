// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import "github.com/bureau-foundation/liteflow/lib/schema/task"

// propagate closes every descendant of parentID depth-first. Each
// child not already "Terminé" is set to "Terminé", gets exactly one
// audit entry, and is recursed into; a child that is already done is
// left alone along with its subtree. A child that vanished from the
// store is skipped.
//
// The walk assumes an acyclic hierarchy.
func (e *executor) propagate(parentID string) error {
	childIDs, err := e.ws.children(parentID)
	if err != nil {
		return err
	}
	for _, childID := range childIDs {
		child, found, err := e.ws.task(childID)
		if err != nil {
			return err
		}
		if !found {
			e.logger.Warn("child disappeared during cascade, skipping", "task_id", childID, "parent", parentID)
			continue
		}
		if child.Status == task.StatusDone {
			continue
		}

		child.Status = task.StatusDone
		e.ws.update(child)
		e.ws.addAudit(childID, task.CascadeCompletionMessage)
		e.result.CascadedTasks = append(e.result.CascadedTasks, childID)
		e.metrics.observeCascade()
		e.logger.Info("descendant closed by cascade", "task_id", childID, "parent", parentID)

		if err := e.propagate(childID); err != nil {
			return err
		}
	}
	return nil
}
