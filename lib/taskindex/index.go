// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package taskindex

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/bureau-foundation/liteflow/lib/schema/task"
)

// Filter controls which tasks [Index.List] returns. Zero-value fields
// mean "no filter" for that dimension; all non-zero fields must match.
type Filter struct {
	// Status matches tasks with this status after canonicalization.
	Status string

	Priority string

	// AssignedTo matches tasks handled by this support group.
	AssignedTo string

	// Parent matches direct children of this task.
	Parent string

	// Tag matches tasks whose comma-separated Tags contain this tag,
	// compared case-insensitively.
	Tag string

	// RootsOnly restricts the result to tasks without a parent.
	RootsOnly bool
}

// Stats holds aggregate counts across all tasks in the index.
type Stats struct {
	Total        int            `json:"total"`
	ByStatus     map[string]int `json:"by_status"`
	ByPriority   map[string]int `json:"by_priority"`
	ByAssignedTo map[string]int `json:"by_assigned_to"`
}

// Index is an in-memory task arena. Construct with [NewIndex].
type Index struct {
	tasks map[string]task.Task

	// Secondary indexes: dimension value → set of task IDs.
	byStatus   map[string]map[string]struct{}
	byPriority map[string]map[string]struct{}
	byAssignee map[string]map[string]struct{}

	// Parent → children reverse map.
	children map[string]map[string]struct{}
}

// NewIndex returns an empty index ready for use.
func NewIndex() *Index {
	return &Index{
		tasks:      make(map[string]task.Task),
		byStatus:   make(map[string]map[string]struct{}),
		byPriority: make(map[string]map[string]struct{}),
		byAssignee: make(map[string]map[string]struct{}),
		children:   make(map[string]map[string]struct{}),
	}
}

// Len returns the number of tasks in the index.
func (idx *Index) Len() int {
	return len(idx.tasks)
}

// Put adds or replaces the task with ID record.ID and updates every
// secondary index. Put does not validate: a parent that is not in the
// index is still recorded in the children map.
func (idx *Index) Put(record task.Task) {
	if old, exists := idx.tasks[record.ID]; exists {
		idx.updateIndexes(&old, removeFromStringIndex)
	}
	idx.tasks[record.ID] = record
	idx.updateIndexes(&record, addToStringIndex)
}

// Remove deletes a task and cleans up the secondary indexes. The
// task's own children keep their Parent reference. No-op if the task
// does not exist.
func (idx *Index) Remove(taskID string) {
	old, exists := idx.tasks[taskID]
	if !exists {
		return
	}
	idx.updateIndexes(&old, removeFromStringIndex)
	delete(idx.tasks, taskID)
}

// Get returns a single task. The second return value is false if the
// task does not exist.
func (idx *Index) Get(taskID string) (task.Task, bool) {
	record, exists := idx.tasks[taskID]
	return record, exists
}

// Has reports whether taskID is in the index.
func (idx *Index) Has(taskID string) bool {
	_, exists := idx.tasks[taskID]
	return exists
}

// List returns tasks matching the filter, sorted by priority (highest
// first), then creation time, then ID.
func (idx *Index) List(filter Filter) []task.Task {
	filter.Status = task.CanonicalStatus(filter.Status)
	var result []task.Task
	for _, id := range idx.candidates(&filter) {
		record := idx.tasks[id]
		if matchesFilter(&record, &filter) {
			result = append(result, record)
		}
	}
	sortTasks(result)
	return result
}

// Grep returns tasks whose title, description, or tags match the
// regular expression, sorted like List.
func (idx *Index) Grep(pattern string) ([]task.Task, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid grep pattern: %w", err)
	}
	var result []task.Task
	for _, record := range idx.tasks {
		if re.MatchString(record.Title) || re.MatchString(record.Description) || re.MatchString(record.Tags) {
			result = append(result, record)
		}
	}
	sortTasks(result)
	return result, nil
}

// ChildIDs returns the IDs of the direct children of parentID in
// lexical order. Children recorded by Put but later removed are not
// returned.
func (idx *Index) ChildIDs(parentID string) []string {
	childIDs, exists := idx.children[parentID]
	if !exists {
		return nil
	}
	result := make([]string, 0, len(childIDs))
	for childID := range childIDs {
		result = append(result, childID)
	}
	slices.Sort(result)
	return result
}

// Children returns the direct children of parentID, sorted like List.
func (idx *Index) Children(parentID string) []task.Task {
	childIDs := idx.children[parentID]
	result := make([]task.Task, 0, len(childIDs))
	for childID := range childIDs {
		if record, exists := idx.tasks[childID]; exists {
			result = append(result, record)
		}
	}
	sortTasks(result)
	return result
}

// Descendants returns every task below taskID in breadth-first order,
// children of each level in lexical ID order.
func (idx *Index) Descendants(taskID string) []string {
	var result []string
	visited := map[string]struct{}{taskID: {}}
	queue := []string{taskID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, childID := range idx.ChildIDs(current) {
			if _, seen := visited[childID]; seen {
				continue
			}
			visited[childID] = struct{}{}
			result = append(result, childID)
			queue = append(queue, childID)
		}
	}
	return result
}

// ChildProgress returns the number of direct children and how many of
// them are done. Useful for displays like "3 of 5 sub-tasks done".
func (idx *Index) ChildProgress(parentID string) (total, done int) {
	for childID := range idx.children[parentID] {
		record, exists := idx.tasks[childID]
		if !exists {
			continue
		}
		total++
		if record.IsDone() {
			done++
		}
	}
	return total, done
}

// Stats returns aggregate counts across all tasks in the index.
func (idx *Index) Stats() Stats {
	stats := Stats{
		Total:        len(idx.tasks),
		ByStatus:     make(map[string]int),
		ByPriority:   make(map[string]int),
		ByAssignedTo: make(map[string]int),
	}
	for _, record := range idx.tasks {
		stats.ByStatus[record.Status]++
		stats.ByPriority[record.Priority]++
		if record.AssignedTo != "" {
			stats.ByAssignedTo[record.AssignedTo]++
		}
	}
	return stats
}

// WouldCycle reports whether making proposedParent the parent of
// taskID would close a cycle in the parent chain. The CRUD layer
// calls this before accepting a parent change; the engine never
// creates cycles because it only attaches new tasks.
func (idx *Index) WouldCycle(taskID, proposedParent string) bool {
	if proposedParent == "" {
		return false
	}
	if proposedParent == taskID {
		return true
	}
	return idx.isAncestor(taskID, proposedParent)
}

// --- Internal helpers ---

// isAncestor walks up from start and reports whether ancestor appears
// in its parent chain. A pre-existing cycle terminates the walk.
func (idx *Index) isAncestor(ancestor, start string) bool {
	visited := map[string]struct{}{}
	current := start
	for current != "" {
		if current == ancestor {
			return true
		}
		if _, seen := visited[current]; seen {
			return false
		}
		visited[current] = struct{}{}
		record, exists := idx.tasks[current]
		if !exists {
			return false
		}
		current = record.Parent
	}
	return false
}

// updateIndexes applies a set operation to every secondary index for
// the given task. Used by Put (add) and Remove (remove).
func (idx *Index) updateIndexes(record *task.Task, op func(map[string]map[string]struct{}, string, string)) {
	op(idx.byStatus, task.CanonicalStatus(record.Status), record.ID)
	op(idx.byPriority, record.Priority, record.ID)
	if record.AssignedTo != "" {
		op(idx.byAssignee, record.AssignedTo, record.ID)
	}
	if record.Parent != "" {
		op(idx.children, record.Parent, record.ID)
	}
}

// candidates returns the IDs worth testing against filter: the
// smallest secondary index set the filter selects, or every ID.
func (idx *Index) candidates(filter *Filter) []string {
	var best map[string]struct{}
	narrowed := false
	consider := func(index map[string]map[string]struct{}, key string) {
		if key == "" {
			return
		}
		set := index[key]
		if !narrowed || len(set) < len(best) {
			best, narrowed = set, true
		}
	}
	consider(idx.byStatus, filter.Status)
	consider(idx.byPriority, filter.Priority)
	consider(idx.byAssignee, filter.AssignedTo)
	consider(idx.children, filter.Parent)

	var ids []string
	if narrowed {
		for id := range best {
			ids = append(ids, id)
		}
		return ids
	}
	for id := range idx.tasks {
		ids = append(ids, id)
	}
	return ids
}

// matchesFilter returns true if the task matches all non-zero fields
// in the filter.
func matchesFilter(record *task.Task, filter *Filter) bool {
	if filter.Status != "" && task.CanonicalStatus(record.Status) != filter.Status {
		return false
	}
	if filter.Priority != "" && record.Priority != filter.Priority {
		return false
	}
	if filter.AssignedTo != "" && record.AssignedTo != filter.AssignedTo {
		return false
	}
	if filter.Parent != "" && record.Parent != filter.Parent {
		return false
	}
	if filter.RootsOnly && record.Parent != "" {
		return false
	}
	if filter.Tag != "" && !hasTag(record.Tags, filter.Tag) {
		return false
	}
	return true
}

func hasTag(tags, wanted string) bool {
	for _, tag := range strings.Split(tags, ",") {
		if strings.EqualFold(strings.TrimSpace(tag), strings.TrimSpace(wanted)) {
			return true
		}
	}
	return false
}

// priorityRank orders priorities for sorting: Critique first, unknown
// values last.
func priorityRank(priority string) int {
	switch priority {
	case task.PriorityCritical:
		return 0
	case task.PriorityHigh:
		return 1
	case task.PriorityMedium:
		return 2
	case task.PriorityLow:
		return 3
	}
	return 4
}

// sortTasks sorts by priority rank, then CreatedAt (oldest first),
// then ID for a total order.
func sortTasks(tasks []task.Task) {
	slices.SortFunc(tasks, func(a, b task.Task) int {
		if rankA, rankB := priorityRank(a.Priority), priorityRank(b.Priority); rankA != rankB {
			return rankA - rankB
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// --- Generic index helpers ---

func addToStringIndex(index map[string]map[string]struct{}, key, value string) {
	set, exists := index[key]
	if !exists {
		set = make(map[string]struct{})
		index[key] = set
	}
	set[value] = struct{}{}
}

func removeFromStringIndex(index map[string]map[string]struct{}, key, value string) {
	set, exists := index[key]
	if !exists {
		return
	}
	delete(set, value)
	if len(set) == 0 {
		delete(index, key)
	}
}
