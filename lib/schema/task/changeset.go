// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package task

// ChangeSet is everything one workflow pass wants to persist. Stores
// apply it atomically: either every record lands or none does.
type ChangeSet struct {
	// Updated holds the full new state of existing tasks, each at
	// most once, in first-modification order.
	Updated []Task

	// Created holds new tasks in creation order. A created task's
	// Parent may reference another task in Created.
	Created []Task

	// Audit holds new entries in the order they were written.
	Audit []AuditEntry
}

// Empty reports whether the change set carries nothing to persist.
func (c ChangeSet) Empty() bool {
	return len(c.Updated) == 0 && len(c.Created) == 0 && len(c.Audit) == 0
}
