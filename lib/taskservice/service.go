// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package taskservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bureau-foundation/liteflow/lib/clock"
	"github.com/bureau-foundation/liteflow/lib/schema/task"
	"github.com/bureau-foundation/liteflow/lib/taskindex"
	"github.com/bureau-foundation/liteflow/lib/workflow"
)

// ErrParentCycle is returned when a parent change would make a task
// its own ancestor.
var ErrParentCycle = errors.New("parent change would create a cycle")

// ErrGroupExists is returned by AddGroup for a name already in use.
var ErrGroupExists = task.ErrGroupExists

// Store is the persistence the service needs. Both taskstore.Store
// and taskstore.Memory implement it.
type Store interface {
	workflow.Store

	Insert(ctx context.Context, record task.Task) error
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, filter taskindex.Filter) ([]task.Task, error)
	Index(ctx context.Context) (*taskindex.Index, error)

	AppendAudit(ctx context.Context, entry task.AuditEntry) (task.AuditEntry, error)
	Audit(ctx context.Context, taskID string) ([]task.AuditEntry, error)
	AllAudit(ctx context.Context, limit int) ([]task.AuditEntry, error)

	AddGroup(ctx context.Context, name string, entry task.AuditEntry) (task.Group, error)
	RemoveGroup(ctx context.Context, name string, entry task.AuditEntry) (bool, error)
	Groups(ctx context.Context) ([]task.Group, error)
}

// Config holds the service's collaborators.
type Config struct {
	Store  Store
	Engine *workflow.Engine

	// Clock defaults to clock.Real().
	Clock clock.Clock

	// Logger defaults to a discarding logger.
	Logger *slog.Logger
}

// Service implements task management on top of a Store and a workflow
// Engine sharing that store.
type Service struct {
	store  Store
	engine *workflow.Engine
	clock  clock.Clock
	logger *slog.Logger
}

// New returns a Service. Store and Engine are required.
func New(config Config) (*Service, error) {
	if config.Store == nil {
		return nil, errors.New("taskservice: store is required")
	}
	if config.Engine == nil {
		return nil, errors.New("taskservice: engine is required")
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		store:  config.Store,
		engine: config.Engine,
		clock:  config.Clock,
		logger: config.Logger,
	}, nil
}

// Draft is the caller-supplied content of a new task. Empty Status
// and Priority take the defaults.
type Draft struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	Priority    string `json:"priority,omitempty"`
	Tags        string `json:"tags,omitempty"`
	AssignedTo  string `json:"assigned_to,omitempty"`
	Parent      string `json:"parent,omitempty"`
}

// Patch lists the fields to change. Nil fields are left alone; a
// non-nil empty Parent detaches the task.
type Patch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	Tags        *string `json:"tags,omitempty"`
	AssignedTo  *string `json:"assigned_to,omitempty"`
	Parent      *string `json:"parent,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && p.Priority == nil &&
		p.Tags == nil && p.AssignedTo == nil && p.Parent == nil
}

func (p Patch) apply(record *task.Task) {
	set := func(field task.Field, value *string) {
		if value != nil {
			record.Set(field, *value)
		}
	}
	set(task.FieldTitle, p.Title)
	set(task.FieldDescription, p.Description)
	set(task.FieldStatus, p.Status)
	set(task.FieldPriority, p.Priority)
	set(task.FieldTags, p.Tags)
	set(task.FieldAssignedTo, p.AssignedTo)
	if p.Parent != nil {
		record.Parent = strings.TrimSpace(*p.Parent)
	}
}

// check validates the fields the patch sets on the patched record.
// Fields the patch leaves alone are not checked: a rule may have
// stored a status or priority outside the vocabulary, and that must
// not block unrelated edits.
func (p Patch) check(record task.Task) error {
	if p.Title != nil && strings.TrimSpace(record.Title) == "" {
		return errors.New("task: title is required")
	}
	if p.Status != nil && !task.IsKnownStatus(record.Status) {
		return fmt.Errorf("task: unknown status %q (valid: %s)", record.Status, strings.Join(task.Statuses(), ", "))
	}
	if p.Priority != nil && !task.IsKnownPriority(record.Priority) {
		return fmt.Errorf("task: unknown priority %q (valid: %s)", record.Priority, strings.Join(task.Priorities(), ", "))
	}
	if p.Parent != nil && record.Parent == record.ID {
		return fmt.Errorf("task: %s cannot be its own parent", record.ID)
	}
	return nil
}

// UpdateOptions modify Update.
type UpdateOptions struct {
	// SkipWorkflow suppresses the workflow pass after the update.
	SkipWorkflow bool

	// Admin records the update as a manual administrative change in
	// the audit log.
	Admin bool
}

// Outcome describes a create or update.
type Outcome struct {
	// Task is the task as stored after every side effect.
	Task task.Task `json:"task"`

	// Cascaded lists descendants closed because the update marked the
	// task done.
	Cascaded []string `json:"cascaded,omitempty"`

	// Workflow is the pass that followed, nil when skipped.
	Workflow *workflow.Result `json:"workflow,omitempty"`
}

// Create validates draft, stores the new task, and runs a workflow
// pass on it.
func (s *Service) Create(ctx context.Context, draft Draft) (Outcome, error) {
	now := s.clock.Now()
	record := task.Task{
		Title:       strings.TrimSpace(draft.Title),
		Description: draft.Description,
		Status:      task.CanonicalStatus(draft.Status),
		Priority:    draft.Priority,
		Tags:        draft.Tags,
		AssignedTo:  draft.AssignedTo,
		Parent:      strings.TrimSpace(draft.Parent),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if record.Status == "" {
		record.Status = task.StatusNew
	}
	if record.Priority == "" {
		record.Priority = task.DefaultPriority
	}
	if err := record.Validate(); err != nil {
		return Outcome{}, err
	}
	if record.Parent != "" {
		if _, err := s.store.Task(ctx, record.Parent); err != nil {
			return Outcome{}, fmt.Errorf("parent: %w", err)
		}
	}

	var lookupErr error
	record.ID = task.GenerateID(record.Parent, now, record.Title, func(candidate string) bool {
		_, err := s.store.Task(ctx, candidate)
		if err != nil && !errors.Is(err, task.ErrNotFound) {
			lookupErr = err
		}
		return err == nil || lookupErr != nil
	})
	if lookupErr != nil {
		return Outcome{}, fmt.Errorf("allocating task ID: %w", lookupErr)
	}
	if err := s.store.Insert(ctx, record); err != nil {
		return Outcome{}, fmt.Errorf("creating task: %w", err)
	}
	s.logger.Info("task created", "task_id", record.ID, "title", record.Title)

	return s.finish(ctx, record.ID, nil, true)
}

// Update applies patch to the task. A parent change that would create
// a cycle fails with ErrParentCycle. When the task ends up done its
// descendants are closed. Then, unless options.SkipWorkflow is set,
// a workflow pass runs.
func (s *Service) Update(ctx context.Context, id string, patch Patch, options UpdateOptions) (Outcome, error) {
	record, err := s.store.Task(ctx, id)
	if err != nil {
		return Outcome{}, err
	}
	patch.apply(&record)
	if err := patch.check(record); err != nil {
		return Outcome{}, err
	}
	if patch.Parent != nil && record.Parent != "" {
		index, err := s.store.Index(ctx)
		if err != nil {
			return Outcome{}, err
		}
		if !index.Has(record.Parent) {
			return Outcome{}, fmt.Errorf("parent %s: %w", record.Parent, task.ErrNotFound)
		}
		if index.WouldCycle(id, record.Parent) {
			return Outcome{}, fmt.Errorf("moving %s under %s: %w", id, record.Parent, ErrParentCycle)
		}
	}

	record.UpdatedAt = s.clock.Now()
	if err := s.store.Commit(ctx, task.ChangeSet{Updated: []task.Task{record}}); err != nil {
		return Outcome{}, fmt.Errorf("updating task: %w", err)
	}
	s.logger.Info("task updated", "task_id", id, "admin", options.Admin)

	var cascaded []string
	if record.IsDone() {
		result, err := s.engine.Propagate(ctx, id)
		if err != nil {
			return Outcome{}, err
		}
		cascaded = result.CascadedTasks
	}

	if options.Admin {
		if _, err := s.store.AppendAudit(ctx, task.AuditEntry{
			TaskID:    id,
			Message:   task.AdminUpdateMessage,
			Timestamp: s.clock.Now(),
		}); err != nil {
			return Outcome{}, fmt.Errorf("recording admin update: %w", err)
		}
	}

	return s.finish(ctx, id, cascaded, !options.SkipWorkflow)
}

// finish optionally runs the workflow on id and reloads it.
func (s *Service) finish(ctx context.Context, id string, cascaded []string, runWorkflow bool) (Outcome, error) {
	outcome := Outcome{Cascaded: cascaded}
	if runWorkflow {
		result, err := s.engine.Process(ctx, id)
		if err != nil {
			return Outcome{}, err
		}
		outcome.Workflow = &result
	}
	record, err := s.store.Task(ctx, id)
	if err != nil {
		return Outcome{}, err
	}
	outcome.Task = record
	return outcome, nil
}

// Delete removes the task and its descendants; their audit entries
// are kept, detached. Deleting a missing task is not an error and
// returns false.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("deleting task: %w", err)
	}
	if deleted {
		s.logger.Info("task deleted", "task_id", id)
	}
	return deleted, nil
}

// Get returns one task.
func (s *Service) Get(ctx context.Context, id string) (task.Task, error) {
	return s.store.Task(ctx, id)
}

// List returns the tasks matching filter, most urgent first. The
// status filter accepts the unaccented "A faire".
func (s *Service) List(ctx context.Context, filter taskindex.Filter) ([]task.Task, error) {
	filter.Status = task.CanonicalStatus(filter.Status)
	return s.store.List(ctx, filter)
}

// Search returns the tasks whose title, description, or tags match
// the regular expression pattern and that also satisfy filter, most
// urgent first.
func (s *Service) Search(ctx context.Context, pattern string, filter taskindex.Filter) ([]task.Task, error) {
	index, err := s.store.Index(ctx)
	if err != nil {
		return nil, err
	}
	matches, err := index.Grep(pattern)
	if err != nil {
		return nil, err
	}
	filter.Status = task.CanonicalStatus(filter.Status)
	allowed := make(map[string]struct{})
	for _, record := range index.List(filter) {
		allowed[record.ID] = struct{}{}
	}
	result := matches[:0]
	for _, record := range matches {
		if _, ok := allowed[record.ID]; ok {
			result = append(result, record)
		}
	}
	return result, nil
}

// Progress reports how many direct children id has and how many of
// them are done.
func (s *Service) Progress(ctx context.Context, id string) (total, done int, err error) {
	index, err := s.store.Index(ctx)
	if err != nil {
		return 0, 0, err
	}
	if !index.Has(id) {
		return 0, 0, fmt.Errorf("task %s: %w", id, task.ErrNotFound)
	}
	total, done = index.ChildProgress(id)
	return total, done, nil
}

// Stats counts tasks by status, priority, and support group.
func (s *Service) Stats(ctx context.Context) (taskindex.Stats, error) {
	index, err := s.store.Index(ctx)
	if err != nil {
		return taskindex.Stats{}, err
	}
	return index.Stats(), nil
}

// Children returns the direct children of id.
func (s *Service) Children(ctx context.Context, id string) ([]task.Task, error) {
	if _, err := s.store.Task(ctx, id); err != nil {
		return nil, err
	}
	return s.store.List(ctx, taskindex.Filter{Parent: id})
}

// Audit returns the audit entries of one task, newest first.
func (s *Service) Audit(ctx context.Context, taskID string) ([]task.AuditEntry, error) {
	return s.store.Audit(ctx, taskID)
}

// AllAudit returns up to limit recent entries across the system,
// newest first. Zero means no limit.
func (s *Service) AllAudit(ctx context.Context, limit int) ([]task.AuditEntry, error) {
	return s.store.AllAudit(ctx, limit)
}

// AddAuditNote writes a free-form entry, attached to taskID when it is
// not empty.
func (s *Service) AddAuditNote(ctx context.Context, taskID, message string) (task.AuditEntry, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return task.AuditEntry{}, errors.New("audit message is required")
	}
	return s.store.AppendAudit(ctx, task.AuditEntry{
		TaskID:    taskID,
		Message:   message,
		Timestamp: s.clock.Now(),
	})
}

// AddGroup creates a support group. A name in use fails with
// ErrGroupExists.
func (s *Service) AddGroup(ctx context.Context, name string) (task.Group, error) {
	name, ok := task.NormalizeGroupName(name)
	if !ok {
		return task.Group{}, errors.New("group name is required")
	}
	group, err := s.store.AddGroup(ctx, name, task.AuditEntry{
		Message:   task.GroupCreatedMessage(name),
		Timestamp: s.clock.Now(),
	})
	if err != nil {
		return task.Group{}, err
	}
	s.logger.Info("support group created", "group", name)
	return group, nil
}

// RemoveGroup deletes a support group. Returns false when it does not
// exist.
func (s *Service) RemoveGroup(ctx context.Context, name string) (bool, error) {
	name, _ = task.NormalizeGroupName(name)
	removed, err := s.store.RemoveGroup(ctx, name, task.AuditEntry{
		Message:   task.GroupDeletedMessage(name),
		Timestamp: s.clock.Now(),
	})
	if err != nil {
		return false, err
	}
	if removed {
		s.logger.Info("support group removed", "group", name)
	}
	return removed, nil
}

// Groups returns every support group ordered by name.
func (s *Service) Groups(ctx context.Context) ([]task.Group, error) {
	return s.store.Groups(ctx)
}
