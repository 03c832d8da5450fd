// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package taskservice

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/bureau-foundation/liteflow/lib/clock"
	"github.com/bureau-foundation/liteflow/lib/schema/rule"
	"github.com/bureau-foundation/liteflow/lib/schema/task"
	"github.com/bureau-foundation/liteflow/lib/taskindex"
	"github.com/bureau-foundation/liteflow/lib/taskstore"
	"github.com/bureau-foundation/liteflow/lib/testutil"
	"github.com/bureau-foundation/liteflow/lib/workflow"
)

var epoch = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func newService(t *testing.T, rules ...rule.Rule) (*Service, *taskstore.Memory, *clock.FakeClock) {
	t.Helper()
	store := taskstore.NewMemory()
	fake := clock.Fake(epoch)
	engine, err := workflow.New(workflow.Config{Store: store, Rules: workflow.StaticRules(rules), Clock: fake})
	if err != nil {
		t.Fatalf("workflow.New: %v", err)
	}
	service, err := New(Config{Store: store, Engine: engine, Clock: fake})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return service, store, fake
}

func ptr(value string) *string { return &value }

func create(t *testing.T, service *Service, draft Draft) task.Task {
	t.Helper()
	outcome, err := service.Create(context.Background(), draft)
	if err != nil {
		t.Fatalf("Create(%q): %v", draft.Title, err)
	}
	return outcome.Task
}

func messages(entries []task.AuditEntry) []string {
	var result []string
	for _, entry := range entries {
		result = append(result, entry.Message)
	}
	return result
}

func TestCreateDefaultsAndWorkflow(t *testing.T) {
	service, _, _ := newService(t, rule.Rule{
		Name:     "VPN",
		Triggers: []rule.Trigger{{Field: "Titre", Operator: "Contient", Value: rule.Single("vpn")}},
		Steps:    []rule.Step{rule.Update(rule.Assign(task.FieldAssignedTo, "Réseau"))},
	})

	outcome, err := service.Create(context.Background(), Draft{Title: "  Panne VPN  "})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	created := outcome.Task
	if created.Title != "Panne VPN" || created.Status != task.StatusNew || created.Priority != task.DefaultPriority {
		t.Errorf("created = %+v, want trimmed title and defaults", created)
	}
	if created.AssignedTo != "Réseau" {
		t.Errorf("AssignedTo = %q, want the workflow to have run", created.AssignedTo)
	}
	if outcome.Workflow == nil || !outcome.Workflow.Changed {
		t.Errorf("Workflow = %+v, want a committed pass", outcome.Workflow)
	}
	if !created.CreatedAt.Equal(epoch) {
		t.Errorf("CreatedAt = %v, want %v", created.CreatedAt, epoch)
	}
}

func TestCreateValidation(t *testing.T) {
	service, _, _ := newService(t)
	ctx := context.Background()

	if _, err := service.Create(ctx, Draft{Title: " "}); err == nil {
		t.Error("Create accepted an empty title")
	}
	if _, err := service.Create(ctx, Draft{Title: "x", Priority: "Urgente"}); err == nil {
		t.Error("Create accepted an unknown priority")
	}
	if _, err := service.Create(ctx, Draft{Title: "x", Parent: "tsk-none"}); !errors.Is(err, task.ErrNotFound) {
		t.Errorf("Create with missing parent error = %v, want ErrNotFound", err)
	}
	todo := create(t, service, Draft{Title: "x", Status: "A faire"})
	if todo.Status != task.StatusTodo {
		t.Errorf("Status = %q, want canonical À faire", todo.Status)
	}
}

func TestCreateSameInputsGetDistinctIDs(t *testing.T) {
	service, _, _ := newService(t)
	first := create(t, service, Draft{Title: "doublon"})
	second := create(t, service, Draft{Title: "doublon"})
	if first.ID == second.ID {
		t.Fatalf("both tasks got ID %s", first.ID)
	}
}

func TestUpdateDoneCascadesAndAudits(t *testing.T) {
	service, store, fake := newService(t)
	ctx := context.Background()
	parent := create(t, service, Draft{Title: "Migration"})
	child := create(t, service, Draft{Title: "Inventaire", Parent: parent.ID})
	grandchild := create(t, service, Draft{Title: "Postes", Parent: child.ID})

	fake.Advance(time.Minute)
	outcome, err := service.Update(ctx, parent.ID, Patch{Status: ptr(task.StatusDone)}, UpdateOptions{Admin: true})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if want := []string{child.ID, grandchild.ID}; !slices.Equal(outcome.Cascaded, want) {
		t.Errorf("Cascaded = %v, want %v", outcome.Cascaded, want)
	}
	if !outcome.Task.UpdatedAt.Equal(fake.Now()) {
		t.Errorf("UpdatedAt = %v, want %v", outcome.Task.UpdatedAt, fake.Now())
	}
	for _, id := range []string{child.ID, grandchild.ID} {
		record, _ := store.Task(ctx, id)
		if record.Status != task.StatusDone {
			t.Errorf("%s status = %q, want Terminé", id, record.Status)
		}
		entries, _ := service.Audit(ctx, id)
		if !slices.Equal(messages(entries), []string{task.CascadeCompletionMessage}) {
			t.Errorf("%s audit = %v", id, messages(entries))
		}
	}
	entries, _ := service.Audit(ctx, parent.ID)
	if !slices.Equal(messages(entries), []string{task.AdminUpdateMessage}) {
		t.Errorf("parent audit = %v, want the admin entry only", messages(entries))
	}
}

func TestUpdateSkipWorkflow(t *testing.T) {
	service, _, _ := newService(t, rule.Rule{
		Name:  "Toujours",
		Steps: []rule.Step{rule.Update(rule.Assign(task.FieldTags, "touché"))},
	})
	ctx := context.Background()
	record := create(t, service, Draft{Title: "x"})

	outcome, err := service.Update(ctx, record.ID, Patch{Tags: ptr("")}, UpdateOptions{SkipWorkflow: true})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if outcome.Workflow != nil || outcome.Task.Tags != "" {
		t.Errorf("outcome = %+v, want no workflow pass", outcome)
	}

	outcome, err = service.Update(ctx, record.ID, Patch{Title: ptr("y")}, UpdateOptions{})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if outcome.Task.Tags != "touché" || outcome.Task.Title != "y" {
		t.Errorf("task = %+v, want the workflow to have run", outcome.Task)
	}
}

func TestUpdateAcceptsRuleWrittenValuesOnOtherFields(t *testing.T) {
	service, _, _ := newService(t, rule.Rule{
		Name:     "VPN",
		Triggers: []rule.Trigger{{Field: "Titre", Operator: "Contient", Value: rule.Single("vpn")}},
		Steps: []rule.Step{rule.Update(
			rule.Assign(task.FieldStatus, "Done"),
			rule.Assign(task.FieldPriority, "Urgente"),
		)},
	})
	ctx := context.Background()
	record := create(t, service, Draft{Title: "VPN down"})
	if record.Status != "Done" || record.Priority != "Urgente" {
		t.Fatalf("created = %+v, want the rule's status and priority", record)
	}

	outcome, err := service.Update(ctx, record.ID, Patch{Tags: ptr("réseau")}, UpdateOptions{})
	if err != nil {
		t.Fatalf("Update of tags on a task with rule-written status: %v", err)
	}
	if outcome.Task.Tags != "réseau" || outcome.Task.Status != "Done" || outcome.Task.Priority != "Urgente" {
		t.Errorf("task = %+v, want tags updated and rule values kept", outcome.Task)
	}

	if _, err := service.Update(ctx, record.ID, Patch{Status: ptr("Fermé")}, UpdateOptions{}); err == nil {
		t.Error("Update accepted an unknown status from the patch")
	}
	if _, err := service.Update(ctx, record.ID, Patch{Priority: ptr("Énorme")}, UpdateOptions{}); err == nil {
		t.Error("Update accepted an unknown priority from the patch")
	}
	if _, err := service.Update(ctx, record.ID, Patch{Title: ptr("  ")}, UpdateOptions{}); err == nil {
		t.Error("Update accepted a blank title")
	}
}

func TestUpdateRejectsParentCycle(t *testing.T) {
	service, _, _ := newService(t)
	ctx := context.Background()
	root := create(t, service, Draft{Title: "racine"})
	child := create(t, service, Draft{Title: "enfant", Parent: root.ID})
	grandchild := create(t, service, Draft{Title: "petit-enfant", Parent: child.ID})

	_, err := service.Update(ctx, root.ID, Patch{Parent: ptr(grandchild.ID)}, UpdateOptions{})
	if !errors.Is(err, ErrParentCycle) {
		t.Errorf("cyclic Update error = %v, want ErrParentCycle", err)
	}
	if _, err := service.Update(ctx, root.ID, Patch{Parent: ptr("tsk-none")}, UpdateOptions{}); !errors.Is(err, task.ErrNotFound) {
		t.Errorf("Update to missing parent error = %v, want ErrNotFound", err)
	}

	outcome, err := service.Update(ctx, grandchild.ID, Patch{Parent: ptr("")}, UpdateOptions{})
	if err != nil {
		t.Fatalf("detaching Update: %v", err)
	}
	if outcome.Task.Parent != "" {
		t.Errorf("Parent = %q after detaching, want empty", outcome.Task.Parent)
	}
	children, err := service.Children(ctx, child.ID)
	if err != nil || len(children) != 0 {
		t.Errorf("Children = %v, %v; want none", children, err)
	}
}

func TestUpdateMissingTask(t *testing.T) {
	service, _, _ := newService(t)
	_, err := service.Update(context.Background(), "tsk-none", Patch{Title: ptr("x")}, UpdateOptions{})
	if !errors.Is(err, task.ErrNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	service, _, _ := newService(t)
	ctx := context.Background()
	record := create(t, service, Draft{Title: "x"})
	if _, err := service.AddAuditNote(ctx, record.ID, "appel client"); err != nil {
		t.Fatalf("AddAuditNote: %v", err)
	}

	for i, want := range []bool{true, false} {
		deleted, err := service.Delete(ctx, record.ID)
		if err != nil || deleted != want {
			t.Errorf("Delete #%d = %v, %v; want %v, nil", i+1, deleted, err, want)
		}
	}
	entries, _ := service.AllAudit(ctx, 0)
	if len(entries) != 1 || entries[0].TaskID != "" {
		t.Errorf("AllAudit = %+v, want one detached entry", entries)
	}
}

func TestListCanonicalizesStatusFilter(t *testing.T) {
	service, _, _ := newService(t)
	create(t, service, Draft{Title: "a", Status: "À faire"})
	create(t, service, Draft{Title: "b"})
	records, err := service.List(context.Background(), taskindex.Filter{Status: "A faire"})
	if err != nil || len(records) != 1 || records[0].Title != "a" {
		t.Errorf("List = %v, %v", records, err)
	}
}

func TestAuditNoteRequiresMessage(t *testing.T) {
	service, _, _ := newService(t)
	if _, err := service.AddAuditNote(context.Background(), "", "   "); err == nil {
		t.Error("AddAuditNote accepted an empty message")
	}
}

func TestGroups(t *testing.T) {
	service, _, _ := newService(t)
	ctx := context.Background()
	name := testutil.UniqueID("Support")

	if _, err := service.AddGroup(ctx, "  "+name+" "); err != nil {
		t.Fatalf("AddGroup: %v", err)
	}
	if _, err := service.AddGroup(ctx, name); !errors.Is(err, ErrGroupExists) {
		t.Errorf("duplicate AddGroup error = %v, want ErrGroupExists", err)
	}
	if _, err := service.AddGroup(ctx, ""); err == nil {
		t.Error("AddGroup accepted an empty name")
	}
	groups, _ := service.Groups(ctx)
	if len(groups) != 1 || groups[0].Name != name {
		t.Errorf("Groups = %v", groups)
	}

	removed, err := service.RemoveGroup(ctx, name)
	if err != nil || !removed {
		t.Fatalf("RemoveGroup = %v, %v", removed, err)
	}
	entries, _ := service.AllAudit(ctx, 0)
	want := []string{task.GroupDeletedMessage(name), task.GroupCreatedMessage(name)}
	if !slices.Equal(messages(entries), want) {
		t.Errorf("admin audit = %v, want %v", messages(entries), want)
	}
}

func TestSearch(t *testing.T) {
	service, _, _ := newService(t)
	ctx := context.Background()

	vpn := create(t, service, Draft{Title: "Panne VPN", Priority: task.PriorityHigh})
	create(t, service, Draft{Title: "Imprimante", Tags: "vpn-site"})
	create(t, service, Draft{Title: "Écran", Description: "rien à voir"})

	got, err := service.Search(ctx, "(?i)vpn", taskindex.Filter{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 || got[0].ID != vpn.ID {
		t.Errorf("Search = %v, want 2 tasks with the high priority one first", got)
	}

	got, err = service.Search(ctx, "(?i)vpn", taskindex.Filter{Priority: task.PriorityHigh})
	if err != nil {
		t.Fatalf("Search with filter: %v", err)
	}
	if len(got) != 1 || got[0].ID != vpn.ID {
		t.Errorf("Search with priority filter = %v, want only %s", got, vpn.ID)
	}

	if _, err := service.Search(ctx, "(", taskindex.Filter{}); err == nil {
		t.Error("Search accepted an invalid pattern")
	}
}

func TestProgressAndStats(t *testing.T) {
	service, _, _ := newService(t)
	ctx := context.Background()

	parent := create(t, service, Draft{Title: "Parent"})
	create(t, service, Draft{Title: "Enfant 1", Parent: parent.ID, Status: task.StatusDone})
	create(t, service, Draft{Title: "Enfant 2", Parent: parent.ID, AssignedTo: "Réseau"})

	total, done, err := service.Progress(ctx, parent.ID)
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if total != 2 || done != 1 {
		t.Errorf("Progress = %d/%d, want 1/2", done, total)
	}
	if _, _, err := service.Progress(ctx, "tsk-missing"); !errors.Is(err, task.ErrNotFound) {
		t.Errorf("Progress(missing) error = %v, want ErrNotFound", err)
	}

	stats, err := service.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 3 || stats.ByStatus[task.StatusDone] != 1 || stats.ByAssignedTo["Réseau"] != 1 {
		t.Errorf("Stats = %+v", stats)
	}
}
