// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package taskstore

import (
	"fmt"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/liteflow/lib/schema/task"
)

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL,
	priority    TEXT NOT NULL,
	tags        TEXT NOT NULL DEFAULT '',
	assigned_to TEXT NOT NULL DEFAULT '',
	parent_id   TEXT REFERENCES tasks(id) ON DELETE CASCADE,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS tasks_parent ON tasks(parent_id);
CREATE INDEX IF NOT EXISTS tasks_assigned_to ON tasks(assigned_to);

CREATE TABLE IF NOT EXISTS audit_logs (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	task_id   TEXT REFERENCES tasks(id) ON DELETE SET NULL,
	message   TEXT NOT NULL,
	timestamp TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS audit_logs_task ON audit_logs(task_id);

CREATE TABLE IF NOT EXISTS support_groups (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);
`

const taskColumns = `id, title, description, status, priority, tags, assigned_to, parent_id, created_at, updated_at`

func createSchema(conn *sqlite.Conn) error {
	return sqlitex.ExecuteScript(conn, schema, nil)
}

// formatTime stores timestamps as UTC RFC 3339 text so they sort
// lexically.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(column, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("column %s: %w", column, err)
	}
	return t, nil
}

// nullable maps "" to SQL NULL for foreign key columns.
func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func taskArgs(record *task.Task) []any {
	return []any{
		record.ID,
		record.Title,
		record.Description,
		record.Status,
		record.Priority,
		record.Tags,
		record.AssignedTo,
		nullable(record.Parent),
		formatTime(record.CreatedAt),
		formatTime(record.UpdatedAt),
	}
}

func scanTask(stmt *sqlite.Stmt) (task.Task, error) {
	record := task.Task{
		ID:          stmt.ColumnText(0),
		Title:       stmt.ColumnText(1),
		Description: stmt.ColumnText(2),
		Status:      stmt.ColumnText(3),
		Priority:    stmt.ColumnText(4),
		Tags:        stmt.ColumnText(5),
		AssignedTo:  stmt.ColumnText(6),
		Parent:      stmt.ColumnText(7),
	}
	var err error
	if record.CreatedAt, err = parseTime("created_at", stmt.ColumnText(8)); err != nil {
		return task.Task{}, fmt.Errorf("task %s: %w", record.ID, err)
	}
	if record.UpdatedAt, err = parseTime("updated_at", stmt.ColumnText(9)); err != nil {
		return task.Task{}, fmt.Errorf("task %s: %w", record.ID, err)
	}
	return record, nil
}

func scanAudit(stmt *sqlite.Stmt) (task.AuditEntry, error) {
	entry := task.AuditEntry{
		ID:      stmt.ColumnInt64(0),
		TaskID:  stmt.ColumnText(1),
		Message: stmt.ColumnText(2),
	}
	var err error
	if entry.Timestamp, err = parseTime("timestamp", stmt.ColumnText(3)); err != nil {
		return task.AuditEntry{}, fmt.Errorf("audit entry %d: %w", entry.ID, err)
	}
	return entry, nil
}
