// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package workflow is liteflow's rule engine.
//
// A pass (Engine.Process) takes one task ID. It reloads the rule set,
// loads the task, and walks the rules in file order. For each rule the
// matcher resolves every trigger field through the display mapping
// (unmapped triggers are skipped), reads the task's value through the
// field accessor, and compares it case-insensitively with Evaluate.
// All triggers must hold. Every matching rule fires, and its steps run
// in order:
//
//   - update assigns fields on the triggering task; assigning a
//     Done-equivalent status closes the task's descendants on the spot
//     (propagate), each with one "[SYSTEME]" audit entry;
//   - create_task adds a child task from defaults plus the step fields.
//
// Everything a pass touches lives in a workspace backed by a
// taskindex.Index. Nothing reaches the Store until the end of the pass,
// when the accumulated ChangeSet is committed in one call, and only if
// some step changed something. Sub-tasks created by a pass are not
// evaluated in that pass.
//
// CheckIntegrity reports suspicious rules without blocking them.
package workflow
