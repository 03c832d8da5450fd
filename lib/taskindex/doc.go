// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package taskindex provides an in-memory task arena with secondary
// indexes: tasks by status, priority, and assigned group, and a
// parent-to-children reverse map.
//
// The workflow engine uses an Index as its per-pass workspace: every
// task a pass reads or writes lives in the arena, addressed by ID, so
// cascades walk the children map instead of following object
// references. The in-memory task store uses one as its whole state.
//
// An Index is not safe for concurrent use; callers serialize access.
package taskindex
