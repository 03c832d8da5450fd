// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package taskservice is the task management surface the CLI drives:
// create, update, and delete tasks, read the audit log, and manage
// support groups. It is the caller of the workflow engine. Every
// create and every update not marked SkipWorkflow is followed by one
// workflow pass, and a task marked done by hand has its descendants
// closed the same way a rule would close them.
package taskservice
