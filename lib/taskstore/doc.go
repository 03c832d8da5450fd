// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package taskstore persists tasks, audit entries, and support groups.
//
// [Store] is the durable implementation on SQLite (via lib/sqlitepool).
// Three tables hold the data:
//
//   - tasks: one row per task. parent_id references tasks(id) with
//     ON DELETE CASCADE, so deleting a task deletes its subtree.
//   - audit_logs: append-only. task_id references tasks(id) with
//     ON DELETE SET NULL, so entries outlive their task.
//   - support_groups: unique names.
//
// [Memory] implements the same methods over lib/taskindex for tests
// and dry runs.
//
// Both satisfy the workflow engine's store contract. [Store.Commit]
// applies a pass's ChangeSet in one IMMEDIATE transaction: either
// every updated task, created task, and audit entry lands, or none
// does. Missing tasks are reported with errors wrapping
// task.ErrNotFound; duplicate group names with task.ErrGroupExists.
package taskstore
