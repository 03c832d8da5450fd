// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/bureau-foundation/liteflow/lib/clock"
	"github.com/bureau-foundation/liteflow/lib/schema/task"
	"github.com/bureau-foundation/liteflow/lib/taskindex"
)

// workspace holds every task one pass has read or written. Reads go
// to the arena first and fall through to the store; writes stay in
// the arena until changes() hands them to Store.Commit.
type workspace struct {
	ctx   context.Context
	store Store
	clock clock.Clock
	arena *taskindex.Index

	// missing remembers IDs the store reported absent so a cascade
	// does not ask twice.
	missing map[string]struct{}

	updated    []string
	updatedSet map[string]struct{}
	created    []string
	createdSet map[string]struct{}
	audit      []task.AuditEntry
}

func newWorkspace(ctx context.Context, store Store, clk clock.Clock) *workspace {
	return &workspace{
		ctx:        ctx,
		store:      store,
		clock:      clk,
		arena:      taskindex.NewIndex(),
		missing:    make(map[string]struct{}),
		updatedSet: make(map[string]struct{}),
		createdSet: make(map[string]struct{}),
	}
}

// task returns the pass's current view of a task. found is false when
// the store has no such task.
func (ws *workspace) task(id string) (record task.Task, found bool, err error) {
	if record, ok := ws.arena.Get(id); ok {
		return record, true, nil
	}
	if _, gone := ws.missing[id]; gone {
		return task.Task{}, false, nil
	}
	record, err = ws.store.Task(ws.ctx, id)
	if errors.Is(err, task.ErrNotFound) {
		ws.missing[id] = struct{}{}
		return task.Task{}, false, nil
	}
	if err != nil {
		return task.Task{}, false, fmt.Errorf("loading task %s: %w", id, err)
	}
	ws.arena.Put(record)
	return record, true, nil
}

// children returns the direct children of id: those the store knows
// plus those created in this pass, in lexical order.
func (ws *workspace) children(id string) ([]string, error) {
	ids := ws.arena.ChildIDs(id)
	if _, isNew := ws.createdSet[id]; !isNew {
		stored, err := ws.store.ChildIDs(ws.ctx, id)
		if err != nil {
			return nil, fmt.Errorf("listing children of %s: %w", id, err)
		}
		ids = append(ids, stored...)
	}
	slices.Sort(ids)
	return slices.Compact(ids), nil
}

// update records the new state of an existing task.
func (ws *workspace) update(record task.Task) {
	record.UpdatedAt = ws.clock.Now()
	ws.arena.Put(record)
	if _, isNew := ws.createdSet[record.ID]; isNew {
		return
	}
	if _, seen := ws.updatedSet[record.ID]; !seen {
		ws.updatedSet[record.ID] = struct{}{}
		ws.updated = append(ws.updated, record.ID)
	}
}

// create assigns an ID to record and adds it to the pass.
func (ws *workspace) create(record task.Task) task.Task {
	now := ws.clock.Now()
	record.CreatedAt = now
	record.UpdatedAt = now
	record.ID = task.GenerateID(record.Parent, now, record.Title, ws.idTaken)
	ws.arena.Put(record)
	ws.createdSet[record.ID] = struct{}{}
	ws.created = append(ws.created, record.ID)
	return record
}

// idTaken treats any store error as a collision so a flaky read can
// only lengthen an ID, never duplicate one.
func (ws *workspace) idTaken(id string) bool {
	if ws.arena.Has(id) {
		return true
	}
	_, err := ws.store.Task(ws.ctx, id)
	return !errors.Is(err, task.ErrNotFound)
}

func (ws *workspace) addAudit(taskID, message string) {
	ws.audit = append(ws.audit, task.AuditEntry{
		TaskID:    taskID,
		Message:   message,
		Timestamp: ws.clock.Now(),
	})
}

// changes assembles the ChangeSet in first-touch order.
func (ws *workspace) changes() task.ChangeSet {
	var changes task.ChangeSet
	for _, id := range ws.updated {
		record, _ := ws.arena.Get(id)
		changes.Updated = append(changes.Updated, record)
	}
	for _, id := range ws.created {
		record, _ := ws.arena.Get(id)
		changes.Created = append(changes.Created, record)
	}
	changes.Audit = append(changes.Audit, ws.audit...)
	return changes
}
