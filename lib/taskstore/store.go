// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package taskstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/liteflow/lib/schema/task"
	"github.com/bureau-foundation/liteflow/lib/sqlitepool"
	"github.com/bureau-foundation/liteflow/lib/taskindex"
)

// Config holds the parameters for opening a Store.
type Config struct {
	// Path is the SQLite database file. The parent directory must
	// exist.
	Path string

	// PoolSize defaults to sqlitepool.DefaultPoolSize.
	PoolSize int

	// Logger defaults to a discarding logger.
	Logger *slog.Logger
}

// Store is the SQLite task store. Safe for concurrent use.
type Store struct {
	pool   *sqlitepool.Pool
	logger *slog.Logger
}

// Open opens (creating if needed) the database at config.Path and
// verifies the schema by taking one connection.
func Open(ctx context.Context, config Config) (*Store, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:      config.Path,
		PoolSize:  config.PoolSize,
		Logger:    logger,
		OnConnect: createSchema,
	})
	if err != nil {
		return nil, fmt.Errorf("task store: %w", err)
	}
	if err := pool.Do(ctx, func(*sqlite.Conn) error { return nil }); err != nil {
		pool.Close()
		return nil, fmt.Errorf("task store: %w", err)
	}
	return &Store{pool: pool, logger: logger}, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

// Task returns the task with id, or an error wrapping task.ErrNotFound.
func (s *Store) Task(ctx context.Context, id string) (task.Task, error) {
	var record task.Task
	err := s.pool.Do(ctx, func(conn *sqlite.Conn) error {
		var err error
		record, err = loadTask(conn, id)
		return err
	})
	return record, err
}

func loadTask(conn *sqlite.Conn, id string) (task.Task, error) {
	var (
		record  task.Task
		found   bool
		scanErr error
	)
	err := sqlitex.Execute(conn, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, &sqlitex.ExecOptions{
		Args: []any{id},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			record, scanErr = scanTask(stmt)
			found = true
			return scanErr
		},
	})
	if err != nil {
		return task.Task{}, fmt.Errorf("loading task %s: %w", id, err)
	}
	if !found {
		return task.Task{}, fmt.Errorf("task %s: %w", id, task.ErrNotFound)
	}
	return record, nil
}

// ChildIDs returns the IDs of the direct children of parentID in
// lexical order.
func (s *Store) ChildIDs(ctx context.Context, parentID string) ([]string, error) {
	var ids []string
	err := s.pool.Do(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `SELECT id FROM tasks WHERE parent_id = ? ORDER BY id`, &sqlitex.ExecOptions{
			Args: []any{parentID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				ids = append(ids, stmt.ColumnText(0))
				return nil
			},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("listing children of %s: %w", parentID, err)
	}
	return ids, nil
}

// Commit applies changes in one IMMEDIATE transaction. Updated tasks
// must exist; the commit fails with task.ErrNotFound otherwise and
// nothing is written.
func (s *Store) Commit(ctx context.Context, changes task.ChangeSet) error {
	if changes.Empty() {
		return nil
	}
	return s.pool.Do(ctx, func(conn *sqlite.Conn) (err error) {
		endTransaction, err := sqlitex.ImmediateTransaction(conn)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer endTransaction(&err)

		for i := range changes.Updated {
			if err := updateTask(conn, &changes.Updated[i]); err != nil {
				return err
			}
		}
		for i := range changes.Created {
			if err := insertTask(conn, &changes.Created[i]); err != nil {
				return err
			}
		}
		for _, entry := range changes.Audit {
			if _, err := insertAudit(conn, entry); err != nil {
				return err
			}
		}
		return nil
	})
}

// Insert adds a new task.
func (s *Store) Insert(ctx context.Context, record task.Task) error {
	return s.Commit(ctx, task.ChangeSet{Created: []task.Task{record}})
}

// Save overwrites an existing task.
func (s *Store) Save(ctx context.Context, record task.Task) error {
	return s.Commit(ctx, task.ChangeSet{Updated: []task.Task{record}})
}

func insertTask(conn *sqlite.Conn, record *task.Task) error {
	err := sqlitex.Execute(conn,
		`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{Args: taskArgs(record)})
	if err != nil {
		return fmt.Errorf("inserting task %s: %w", record.ID, err)
	}
	return nil
}

func updateTask(conn *sqlite.Conn, record *task.Task) error {
	args := taskArgs(record)
	err := sqlitex.Execute(conn, `UPDATE tasks SET
		title = ?, description = ?, status = ?, priority = ?, tags = ?,
		assigned_to = ?, parent_id = ?, created_at = ?, updated_at = ?
		WHERE id = ?`,
		&sqlitex.ExecOptions{Args: append(args[1:], args[0])})
	if err != nil {
		return fmt.Errorf("updating task %s: %w", record.ID, err)
	}
	if conn.Changes() == 0 {
		return fmt.Errorf("updating task %s: %w", record.ID, task.ErrNotFound)
	}
	return nil
}

func insertAudit(conn *sqlite.Conn, entry task.AuditEntry) (task.AuditEntry, error) {
	err := sqlitex.Execute(conn,
		`INSERT INTO audit_logs (task_id, message, timestamp) VALUES (?, ?, ?)`,
		&sqlitex.ExecOptions{Args: []any{nullable(entry.TaskID), entry.Message, formatTime(entry.Timestamp)}})
	if err != nil {
		return task.AuditEntry{}, fmt.Errorf("inserting audit entry: %w", err)
	}
	entry.ID = conn.LastInsertRowID()
	return entry, nil
}

// Delete removes the task and its whole subtree. Audit entries of the
// removed tasks are kept with an empty task ID. Returns false when the
// task did not exist.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := s.pool.Do(ctx, func(conn *sqlite.Conn) error {
		if err := sqlitex.Execute(conn, `DELETE FROM tasks WHERE id = ?`, &sqlitex.ExecOptions{Args: []any{id}}); err != nil {
			return fmt.Errorf("deleting task %s: %w", id, err)
		}
		deleted = conn.Changes() > 0
		return nil
	})
	return deleted, err
}

// List returns the tasks matching filter, most urgent first.
func (s *Store) List(ctx context.Context, filter taskindex.Filter) ([]task.Task, error) {
	var (
		where []string
		args  []any
	)
	switch {
	case filter.RootsOnly:
		where = append(where, "parent_id IS NULL")
	case filter.Parent != "":
		where = append(where, "parent_id = ?")
		args = append(args, filter.Parent)
	}
	if filter.AssignedTo != "" {
		where = append(where, "assigned_to = ?")
		args = append(args, filter.AssignedTo)
	}
	if filter.Priority != "" {
		where = append(where, "priority = ?")
		args = append(args, filter.Priority)
	}
	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	// Status and tag matching and the ordering are shared with the
	// in-memory index.
	candidates := taskindex.NewIndex()
	err := s.pool.Do(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
			Args: args,
			ResultFunc: func(stmt *sqlite.Stmt) error {
				record, err := scanTask(stmt)
				if err != nil {
					return err
				}
				candidates.Put(record)
				return nil
			},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	return candidates.List(filter), nil
}

// Index loads every task into a taskindex.Index, for hierarchy
// queries such as cycle detection.
func (s *Store) Index(ctx context.Context) (*taskindex.Index, error) {
	index := taskindex.NewIndex()
	err := s.pool.Do(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `SELECT `+taskColumns+` FROM tasks`, &sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				record, err := scanTask(stmt)
				if err != nil {
					return err
				}
				index.Put(record)
				return nil
			},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("loading tasks: %w", err)
	}
	return index, nil
}

// AppendAudit writes one entry and returns it with its ID.
func (s *Store) AppendAudit(ctx context.Context, entry task.AuditEntry) (task.AuditEntry, error) {
	var stored task.AuditEntry
	err := s.pool.Do(ctx, func(conn *sqlite.Conn) error {
		var err error
		stored, err = insertAudit(conn, entry)
		return err
	})
	return stored, err
}

// Audit returns the entries of one task, newest first.
func (s *Store) Audit(ctx context.Context, taskID string) ([]task.AuditEntry, error) {
	return s.queryAudit(ctx, `SELECT id, task_id, message, timestamp FROM audit_logs
		WHERE task_id = ? ORDER BY id DESC`, taskID)
}

// AllAudit returns the most recent entries across all tasks, newest
// first. A limit of zero or less returns everything.
func (s *Store) AllAudit(ctx context.Context, limit int) ([]task.AuditEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	return s.queryAudit(ctx, `SELECT id, task_id, message, timestamp FROM audit_logs
		ORDER BY id DESC LIMIT ?`, limit)
}

func (s *Store) queryAudit(ctx context.Context, query string, args ...any) ([]task.AuditEntry, error) {
	var entries []task.AuditEntry
	err := s.pool.Do(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
			Args: args,
			ResultFunc: func(stmt *sqlite.Stmt) error {
				entry, err := scanAudit(stmt)
				if err != nil {
					return err
				}
				entries = append(entries, entry)
				return nil
			},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("reading audit log: %w", err)
	}
	return entries, nil
}

// AddGroup creates a support group and writes entry in the same
// transaction. A duplicate name fails with task.ErrGroupExists.
func (s *Store) AddGroup(ctx context.Context, name string, entry task.AuditEntry) (task.Group, error) {
	var group task.Group
	err := s.pool.Do(ctx, func(conn *sqlite.Conn) (err error) {
		endTransaction, err := sqlitex.ImmediateTransaction(conn)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer endTransaction(&err)

		err = sqlitex.Execute(conn, `INSERT INTO support_groups (name) VALUES (?)`,
			&sqlitex.ExecOptions{Args: []any{name}})
		if sqlite.ErrCode(err) == sqlite.ResultConstraintUnique {
			return fmt.Errorf("%q: %w", name, task.ErrGroupExists)
		}
		if err != nil {
			return fmt.Errorf("inserting support group: %w", err)
		}
		group = task.Group{ID: conn.LastInsertRowID(), Name: name}
		_, err = insertAudit(conn, entry)
		return err
	})
	return group, err
}

// RemoveGroup deletes the named group and writes entry in the same
// transaction. Returns false, writing nothing, when no such group
// exists. Tasks assigned to the group keep the name.
func (s *Store) RemoveGroup(ctx context.Context, name string, entry task.AuditEntry) (bool, error) {
	var removed bool
	err := s.pool.Do(ctx, func(conn *sqlite.Conn) (err error) {
		endTransaction, err := sqlitex.ImmediateTransaction(conn)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer endTransaction(&err)

		err = sqlitex.Execute(conn, `DELETE FROM support_groups WHERE name = ?`,
			&sqlitex.ExecOptions{Args: []any{name}})
		if err != nil {
			return fmt.Errorf("deleting support group: %w", err)
		}
		if conn.Changes() == 0 {
			return nil
		}
		removed = true
		_, err = insertAudit(conn, entry)
		return err
	})
	return removed, err
}

// Groups returns every support group ordered by name.
func (s *Store) Groups(ctx context.Context) ([]task.Group, error) {
	var groups []task.Group
	err := s.pool.Do(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `SELECT id, name FROM support_groups ORDER BY name`, &sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				groups = append(groups, task.Group{ID: stmt.ColumnInt64(0), Name: stmt.ColumnText(1)})
				return nil
			},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("listing support groups: %w", err)
	}
	return groups, nil
}

// Dump returns the full contents of the store.
func (s *Store) Dump(ctx context.Context) (task.Dataset, error) {
	var dataset task.Dataset
	index, err := s.Index(ctx)
	if err != nil {
		return dataset, err
	}
	dataset.Tasks = index.List(taskindex.Filter{})
	if dataset.Audit, err = s.AllAudit(ctx, 0); err != nil {
		return dataset, err
	}
	if dataset.Groups, err = s.Groups(ctx); err != nil {
		return dataset, err
	}
	return dataset, nil
}

// Restore replaces the full contents of the store with dataset in one
// transaction. Foreign keys are checked at commit, so tasks may appear
// in any order, but every parent must be present.
func (s *Store) Restore(ctx context.Context, dataset task.Dataset) error {
	return s.pool.Do(ctx, func(conn *sqlite.Conn) (err error) {
		endTransaction, err := sqlitex.ImmediateTransaction(conn)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer endTransaction(&err)

		// Reset by SQLite at the end of the transaction.
		if err := sqlitex.ExecuteTransient(conn, "PRAGMA defer_foreign_keys=ON", nil); err != nil {
			return fmt.Errorf("deferring foreign keys: %w", err)
		}

		if err := sqlitex.ExecuteScript(conn, `
			DELETE FROM audit_logs;
			DELETE FROM support_groups;
			DELETE FROM tasks;
		`, nil); err != nil {
			return fmt.Errorf("clearing store: %w", err)
		}
		for i := range dataset.Tasks {
			if err := insertTask(conn, &dataset.Tasks[i]); err != nil {
				return err
			}
		}
		for _, entry := range dataset.Audit {
			err := sqlitex.Execute(conn,
				`INSERT INTO audit_logs (id, task_id, message, timestamp) VALUES (?, ?, ?, ?)`,
				&sqlitex.ExecOptions{Args: []any{entry.ID, nullable(entry.TaskID), entry.Message, formatTime(entry.Timestamp)}})
			if err != nil {
				return fmt.Errorf("restoring audit entry %d: %w", entry.ID, err)
			}
		}
		for _, group := range dataset.Groups {
			err := sqlitex.Execute(conn, `INSERT INTO support_groups (id, name) VALUES (?, ?)`,
				&sqlitex.ExecOptions{Args: []any{group.ID, group.Name}})
			if err != nil {
				return fmt.Errorf("restoring support group %q: %w", group.Name, err)
			}
		}
		s.logger.Info("store restored",
			"tasks", len(dataset.Tasks),
			"audit", len(dataset.Audit),
			"groups", len(dataset.Groups),
		)
		return nil
	})
}
