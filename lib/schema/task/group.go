// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"errors"
	"strings"
)

// ErrGroupExists is returned when a support group name is already
// taken.
var ErrGroupExists = errors.New("support group already exists")

// Group is a support group: a team tasks are assigned to.
type Group struct {
	// ID is assigned by the store on insert.
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// NormalizeGroupName trims name and reports whether anything is left.
func NormalizeGroupName(name string) (string, bool) {
	name = strings.TrimSpace(name)
	return name, name != ""
}

// Dataset is the full contents of a store, used for backup and
// restore. Tasks are in no particular order; audit entries and groups
// keep their IDs.
type Dataset struct {
	Tasks  []Task       `json:"tasks"`
	Audit  []AuditEntry `json:"audit"`
	Groups []Group      `json:"groups"`
}
