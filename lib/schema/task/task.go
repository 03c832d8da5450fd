// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned by stores when a task ID does not exist.
var ErrNotFound = errors.New("task not found")

// Task is one work item. Tasks form a forest through Parent; the
// parent chain must be acyclic.
type Task struct {
	// ID is the stable identifier, "tsk-" followed by a hex hash
	// prefix (see GenerateID).
	ID string `json:"id"`

	// Title is a short summary. Required.
	Title string `json:"title"`

	Description string `json:"description,omitempty"`

	// Status is one of the canonical status labels.
	Status string `json:"status"`

	// Priority is one of the priority labels. Rules may write other
	// strings; only the CRUD surface enforces the closed set.
	Priority string `json:"priority"`

	// Tags is free text, conventionally comma separated.
	Tags string `json:"tags,omitempty"`

	// AssignedTo names the support group handling the task.
	AssignedTo string `json:"assigned_to,omitempty"`

	// Parent is the ID of the parent task, empty for roots.
	Parent string `json:"parent,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the fields a person supplies when creating or
// editing a task. The workflow engine does not call it: rules may
// legitimately write values outside the closed priority set.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return errors.New("task: title is required")
	}
	if !IsKnownStatus(t.Status) {
		return fmt.Errorf("task: unknown status %q (valid: %s)", t.Status, strings.Join(Statuses(), ", "))
	}
	if !IsKnownPriority(t.Priority) {
		return fmt.Errorf("task: unknown priority %q (valid: %s)", t.Priority, strings.Join(Priorities(), ", "))
	}
	if t.Parent != "" && t.Parent == t.ID {
		return fmt.Errorf("task: %s cannot be its own parent", t.ID)
	}
	return nil
}

// IsDone reports whether the task's status is Done-equivalent.
func (t *Task) IsDone() bool { return IsDoneStatus(t.Status) }
