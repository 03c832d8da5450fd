// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package taskindex

import (
	"slices"
	"testing"
	"time"

	"github.com/bureau-foundation/liteflow/lib/schema/task"
)

// --- Test helpers ---

var epoch = time.Date(2026, 2, 12, 10, 0, 0, 0, time.UTC)

// makeTask returns a task with sensible defaults. Override fields
// after construction as needed.
func makeTask(id, title string) task.Task {
	return task.Task{
		ID:        id,
		Title:     title,
		Status:    task.StatusNew,
		Priority:  task.DefaultPriority,
		CreatedAt: epoch,
		UpdatedAt: epoch,
	}
}

// taskIDs extracts IDs from a slice of tasks, preserving order.
func taskIDs(tasks []task.Task) []string {
	ids := make([]string, len(tasks))
	for i, record := range tasks {
		ids[i] = record.ID
	}
	return ids
}

// --- NewIndex ---

func TestNewIndex(t *testing.T) {
	idx := NewIndex()
	if idx.Len() != 0 {
		t.Fatalf("new index Len() = %d, want 0", idx.Len())
	}
}

// --- Put / Get / Remove ---

func TestPutAndGet(t *testing.T) {
	idx := NewIndex()
	idx.Put(makeTask("tsk-a1", "Imprimante"))

	if idx.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", idx.Len())
	}
	got, exists := idx.Get("tsk-a1")
	if !exists {
		t.Fatal("Get returned exists=false for a task that was Put")
	}
	if got.Title != "Imprimante" {
		t.Errorf("Title = %q, want Imprimante", got.Title)
	}
	if _, exists := idx.Get("tsk-zz"); exists {
		t.Error("Get returned exists=true for a missing task")
	}
	if !idx.Has("tsk-a1") || idx.Has("tsk-zz") {
		t.Error("Has disagrees with Get")
	}
}

func TestPutReplacesSecondaryIndexes(t *testing.T) {
	idx := NewIndex()
	record := makeTask("tsk-a1", "Imprimante")
	record.AssignedTo = "Support N1"
	idx.Put(record)

	record.Status = task.StatusDone
	record.AssignedTo = "Réseau"
	idx.Put(record)

	if got := idx.List(Filter{Status: task.StatusNew}); len(got) != 0 {
		t.Errorf("List(status=Nouveau) = %v, want empty after replace", taskIDs(got))
	}
	if got := idx.List(Filter{AssignedTo: "Support N1"}); len(got) != 0 {
		t.Errorf("List(assigned=Support N1) = %v, want empty after replace", taskIDs(got))
	}
	if got := idx.List(Filter{AssignedTo: "Réseau"}); len(got) != 1 {
		t.Errorf("List(assigned=Réseau) = %v, want [tsk-a1]", taskIDs(got))
	}
}

func TestRemove(t *testing.T) {
	idx := NewIndex()
	parent := makeTask("tsk-p", "Parent")
	child := makeTask("tsk-c", "Enfant")
	child.Parent = "tsk-p"
	idx.Put(parent)
	idx.Put(child)

	idx.Remove("tsk-c")
	if idx.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", idx.Len())
	}
	if got := idx.ChildIDs("tsk-p"); len(got) != 0 {
		t.Errorf("ChildIDs after Remove = %v, want empty", got)
	}
	idx.Remove("tsk-missing")
	if idx.Len() != 1 {
		t.Errorf("Remove of missing task changed Len to %d", idx.Len())
	}
}

// --- List / Grep ---

func TestListFiltersAndSorts(t *testing.T) {
	idx := NewIndex()

	low := makeTask("tsk-1", "Basse")
	low.Priority = task.PriorityLow
	critical := makeTask("tsk-2", "Critique")
	critical.Priority = task.PriorityCritical
	older := makeTask("tsk-3", "Moyenne ancienne")
	newer := makeTask("tsk-4", "Moyenne récente")
	newer.CreatedAt = epoch.Add(time.Hour)
	legacy := makeTask("tsk-5", "Legacy")
	legacy.Status = "A faire"
	legacy.Tags = "réseau, VPN"

	for _, record := range []task.Task{low, critical, newer, older, legacy} {
		idx.Put(record)
	}

	all := taskIDs(idx.List(Filter{}))
	want := []string{"tsk-2", "tsk-3", "tsk-5", "tsk-4", "tsk-1"}
	if !slices.Equal(all, want) {
		t.Errorf("List() = %v, want %v", all, want)
	}

	todo := taskIDs(idx.List(Filter{Status: "À faire"}))
	if !slices.Equal(todo, []string{"tsk-5"}) {
		t.Errorf("List(status=À faire) = %v, want [tsk-5]", todo)
	}
	todoLegacy := taskIDs(idx.List(Filter{Status: "A faire"}))
	if !slices.Equal(todoLegacy, []string{"tsk-5"}) {
		t.Errorf("List(status=A faire) = %v, want [tsk-5]", todoLegacy)
	}

	tagged := taskIDs(idx.List(Filter{Tag: "vpn"}))
	if !slices.Equal(tagged, []string{"tsk-5"}) {
		t.Errorf("List(tag=vpn) = %v, want [tsk-5]", tagged)
	}

	combined := idx.List(Filter{Priority: task.PriorityMedium, Status: task.StatusNew})
	if !slices.Equal(taskIDs(combined), []string{"tsk-3", "tsk-4"}) {
		t.Errorf("List(priority+status) = %v, want [tsk-3 tsk-4]", taskIDs(combined))
	}

	if got := idx.List(Filter{AssignedTo: "personne"}); len(got) != 0 {
		t.Errorf("List(unknown group) = %v, want empty", taskIDs(got))
	}
}

func TestListRootsOnly(t *testing.T) {
	idx := NewIndex()
	idx.Put(makeTask("tsk-root", "Racine"))
	child := makeTask("tsk-child", "Enfant")
	child.Parent = "tsk-root"
	idx.Put(child)

	roots := taskIDs(idx.List(Filter{RootsOnly: true}))
	if !slices.Equal(roots, []string{"tsk-root"}) {
		t.Errorf("List(roots) = %v, want [tsk-root]", roots)
	}
	children := taskIDs(idx.List(Filter{Parent: "tsk-root"}))
	if !slices.Equal(children, []string{"tsk-child"}) {
		t.Errorf("List(parent) = %v, want [tsk-child]", children)
	}
}

func TestGrep(t *testing.T) {
	idx := NewIndex()
	first := makeTask("tsk-1", "Panne VPN")
	second := makeTask("tsk-2", "Écran")
	second.Description = "vpn instable"
	idx.Put(first)
	idx.Put(second)
	idx.Put(makeTask("tsk-3", "Clavier"))

	got, err := idx.Grep("(?i)vpn")
	if err != nil {
		t.Fatalf("Grep: %v", err)
	}
	if !slices.Equal(taskIDs(got), []string{"tsk-1", "tsk-2"}) {
		t.Errorf("Grep = %v, want [tsk-1 tsk-2]", taskIDs(got))
	}
	if _, err := idx.Grep("("); err == nil {
		t.Error("Grep accepted an invalid pattern")
	}
}

// --- Hierarchy ---

// buildTree creates root → {a, b}, a → {a1, a2}, a2 → {a2x}.
func buildTree(idx *Index) {
	idx.Put(makeTask("root", "root"))
	for _, edge := range [][2]string{
		{"a", "root"}, {"b", "root"}, {"a1", "a"}, {"a2", "a"}, {"a2x", "a2"},
	} {
		record := makeTask(edge[0], edge[0])
		record.Parent = edge[1]
		idx.Put(record)
	}
}

func TestChildrenAndDescendants(t *testing.T) {
	idx := NewIndex()
	buildTree(idx)

	if got := idx.ChildIDs("root"); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("ChildIDs(root) = %v, want [a b]", got)
	}
	if got := taskIDs(idx.Children("a")); !slices.Equal(got, []string{"a1", "a2"}) {
		t.Errorf("Children(a) = %v, want [a1 a2]", got)
	}
	if got := idx.ChildIDs("b"); got != nil {
		t.Errorf("ChildIDs(leaf) = %v, want nil", got)
	}
	want := []string{"a", "b", "a1", "a2", "a2x"}
	if got := idx.Descendants("root"); !slices.Equal(got, want) {
		t.Errorf("Descendants(root) = %v, want %v", got, want)
	}
}

func TestChildProgress(t *testing.T) {
	idx := NewIndex()
	buildTree(idx)
	done, _ := idx.Get("a1")
	done.Status = task.StatusDone
	idx.Put(done)

	total, finished := idx.ChildProgress("a")
	if total != 2 || finished != 1 {
		t.Errorf("ChildProgress(a) = %d/%d, want 1/2", finished, total)
	}
	total, finished = idx.ChildProgress("a2x")
	if total != 0 || finished != 0 {
		t.Errorf("ChildProgress(leaf) = %d/%d, want 0/0", finished, total)
	}
}

func TestWouldCycle(t *testing.T) {
	idx := NewIndex()
	buildTree(idx)

	tests := []struct {
		taskID, parent string
		want           bool
	}{
		{"a", "", false},
		{"a", "a", true},
		{"a", "a2x", true},
		{"root", "a1", true},
		{"b", "a2x", false},
		{"a2x", "b", false},
		{"new", "root", false},
	}
	for _, test := range tests {
		if got := idx.WouldCycle(test.taskID, test.parent); got != test.want {
			t.Errorf("WouldCycle(%s, %s) = %v, want %v", test.taskID, test.parent, got, test.want)
		}
	}
}

func TestStats(t *testing.T) {
	idx := NewIndex()
	buildTree(idx)
	record, _ := idx.Get("b")
	record.AssignedTo = "Réseau"
	record.Status = task.StatusDone
	idx.Put(record)

	stats := idx.Stats()
	if stats.Total != 6 {
		t.Errorf("Total = %d, want 6", stats.Total)
	}
	if stats.ByStatus[task.StatusDone] != 1 || stats.ByStatus[task.StatusNew] != 5 {
		t.Errorf("ByStatus = %v", stats.ByStatus)
	}
	if stats.ByAssignedTo["Réseau"] != 1 {
		t.Errorf("ByAssignedTo = %v", stats.ByAssignedTo)
	}
}
