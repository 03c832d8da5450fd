// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package taskstore

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/bureau-foundation/liteflow/lib/schema/task"
	"github.com/bureau-foundation/liteflow/lib/taskindex"
)

// Memory is an in-memory store with the same behavior as Store.
// Safe for concurrent use.
type Memory struct {
	mu        sync.Mutex
	tasks     *taskindex.Index
	audit     []task.AuditEntry
	groups    []task.Group
	nextAudit int64
	nextGroup int64
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{tasks: taskindex.NewIndex(), nextAudit: 1, nextGroup: 1}
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

func (m *Memory) Task(_ context.Context, id string) (task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.tasks.Get(id)
	if !ok {
		return task.Task{}, fmt.Errorf("task %s: %w", id, task.ErrNotFound)
	}
	return record, nil
}

func (m *Memory) ChildIDs(_ context.Context, parentID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tasks.ChildIDs(parentID), nil
}

// Commit validates the whole change set before applying any of it.
func (m *Memory) Commit(_ context.Context, changes task.ChangeSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commitLocked(changes)
}

func (m *Memory) commitLocked(changes task.ChangeSet) error {
	created := make(map[string]struct{}, len(changes.Created))
	for _, record := range changes.Created {
		if m.tasks.Has(record.ID) {
			return fmt.Errorf("inserting task %s: already exists", record.ID)
		}
		created[record.ID] = struct{}{}
	}
	exists := func(id string) bool {
		_, isNew := created[id]
		return isNew || m.tasks.Has(id)
	}
	for _, record := range changes.Updated {
		if !m.tasks.Has(record.ID) {
			return fmt.Errorf("updating task %s: %w", record.ID, task.ErrNotFound)
		}
	}
	for _, record := range slices.Concat(changes.Updated, changes.Created) {
		if record.Parent != "" && !exists(record.Parent) {
			return fmt.Errorf("task %s: parent %s: %w", record.ID, record.Parent, task.ErrNotFound)
		}
	}
	for _, entry := range changes.Audit {
		if entry.TaskID != "" && !exists(entry.TaskID) {
			return fmt.Errorf("audit entry for %s: %w", entry.TaskID, task.ErrNotFound)
		}
	}

	for _, record := range changes.Updated {
		m.tasks.Put(record)
	}
	for _, record := range changes.Created {
		m.tasks.Put(record)
	}
	for _, entry := range changes.Audit {
		m.appendAuditLocked(entry)
	}
	return nil
}

func (m *Memory) Insert(ctx context.Context, record task.Task) error {
	return m.Commit(ctx, task.ChangeSet{Created: []task.Task{record}})
}

func (m *Memory) Save(ctx context.Context, record task.Task) error {
	return m.Commit(ctx, task.ChangeSet{Updated: []task.Task{record}})
}

// Delete removes the task and its subtree and detaches their audit
// entries.
func (m *Memory) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.tasks.Has(id) {
		return false, nil
	}
	removed := map[string]struct{}{id: {}}
	for _, descendant := range m.tasks.Descendants(id) {
		removed[descendant] = struct{}{}
	}
	for removedID := range removed {
		m.tasks.Remove(removedID)
	}
	for i := range m.audit {
		if _, gone := removed[m.audit[i].TaskID]; gone {
			m.audit[i].TaskID = ""
		}
	}
	return true, nil
}

func (m *Memory) List(_ context.Context, filter taskindex.Filter) ([]task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tasks.List(filter), nil
}

// Index returns a copy of the task index.
func (m *Memory) Index(context.Context) (*taskindex.Index, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	index := taskindex.NewIndex()
	for _, record := range m.tasks.List(taskindex.Filter{}) {
		index.Put(record)
	}
	return index, nil
}

func (m *Memory) AppendAudit(_ context.Context, entry task.AuditEntry) (task.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry.TaskID != "" && !m.tasks.Has(entry.TaskID) {
		return task.AuditEntry{}, fmt.Errorf("audit entry for %s: %w", entry.TaskID, task.ErrNotFound)
	}
	return m.appendAuditLocked(entry), nil
}

func (m *Memory) appendAuditLocked(entry task.AuditEntry) task.AuditEntry {
	entry.ID = m.nextAudit
	m.nextAudit++
	m.audit = append(m.audit, entry)
	return entry
}

func (m *Memory) Audit(_ context.Context, taskID string) ([]task.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var entries []task.AuditEntry
	for i := len(m.audit) - 1; i >= 0; i-- {
		if m.audit[i].TaskID == taskID {
			entries = append(entries, m.audit[i])
		}
	}
	return entries, nil
}

func (m *Memory) AllAudit(_ context.Context, limit int) ([]task.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var entries []task.AuditEntry
	for i := len(m.audit) - 1; i >= 0; i-- {
		if limit > 0 && len(entries) == limit {
			break
		}
		entries = append(entries, m.audit[i])
	}
	return entries, nil
}

func (m *Memory) AddGroup(_ context.Context, name string, entry task.AuditEntry) (task.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if slices.ContainsFunc(m.groups, func(g task.Group) bool { return g.Name == name }) {
		return task.Group{}, fmt.Errorf("%q: %w", name, task.ErrGroupExists)
	}
	group := task.Group{ID: m.nextGroup, Name: name}
	m.nextGroup++
	m.groups = append(m.groups, group)
	m.appendAuditLocked(entry)
	return group, nil
}

func (m *Memory) RemoveGroup(_ context.Context, name string, entry task.AuditEntry) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	index := slices.IndexFunc(m.groups, func(g task.Group) bool { return g.Name == name })
	if index < 0 {
		return false, nil
	}
	m.groups = slices.Delete(m.groups, index, index+1)
	m.appendAuditLocked(entry)
	return true, nil
}

func (m *Memory) Groups(context.Context) ([]task.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	groups := slices.Clone(m.groups)
	slices.SortFunc(groups, func(a, b task.Group) int { return cmp.Compare(a.Name, b.Name) })
	return groups, nil
}

func (m *Memory) Dump(context.Context) (task.Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dataset := task.Dataset{
		Tasks:  m.tasks.List(taskindex.Filter{}),
		Groups: slices.Clone(m.groups),
	}
	for i := len(m.audit) - 1; i >= 0; i-- {
		dataset.Audit = append(dataset.Audit, m.audit[i])
	}
	slices.SortFunc(dataset.Groups, func(a, b task.Group) int { return cmp.Compare(a.Name, b.Name) })
	return dataset, nil
}

// Restore replaces the contents. Every parent and every audit task
// reference must be present in dataset.
func (m *Memory) Restore(_ context.Context, dataset task.Dataset) error {
	tasks := taskindex.NewIndex()
	for _, record := range dataset.Tasks {
		tasks.Put(record)
	}
	for _, record := range dataset.Tasks {
		if record.Parent != "" && !tasks.Has(record.Parent) {
			return fmt.Errorf("task %s: parent %s: %w", record.ID, record.Parent, task.ErrNotFound)
		}
	}
	for _, entry := range dataset.Audit {
		if entry.TaskID != "" && !tasks.Has(entry.TaskID) {
			return fmt.Errorf("audit entry %d: task %s: %w", entry.ID, entry.TaskID, task.ErrNotFound)
		}
	}

	audit := slices.Clone(dataset.Audit)
	slices.SortFunc(audit, func(a, b task.AuditEntry) int { return cmp.Compare(a.ID, b.ID) })
	groups := slices.Clone(dataset.Groups)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = tasks
	m.audit = audit
	m.groups = groups
	m.nextAudit, m.nextGroup = 1, 1
	if len(audit) > 0 {
		m.nextAudit = audit[len(audit)-1].ID + 1
	}
	for _, group := range groups {
		m.nextGroup = max(m.nextGroup, group.ID+1)
	}
	return nil
}
