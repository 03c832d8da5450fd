// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateIDShape(t *testing.T) {
	created := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	id := GenerateID("", created, "Installer poste", nil)
	if !strings.HasPrefix(id, "tsk-") {
		t.Fatalf("GenerateID = %q, want tsk- prefix", id)
	}
	if len(id) != len("tsk-")+4 {
		t.Errorf("GenerateID = %q, want four hex digits", id)
	}
	if again := GenerateID("", created, "Installer poste", nil); again != id {
		t.Errorf("GenerateID not deterministic: %q then %q", id, again)
	}
}

func TestGenerateIDExtendsOnCollision(t *testing.T) {
	created := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	taken := map[string]bool{}
	isTaken := func(id string) bool { return taken[id] }

	var ids []string
	for range 3 {
		id := GenerateID("tsk-root", created, "Sous-tâche", isTaken)
		if taken[id] {
			t.Fatalf("GenerateID returned taken ID %q", id)
		}
		taken[id] = true
		ids = append(ids, id)
	}
	if !strings.HasPrefix(ids[1], ids[0]) || len(ids[1]) != len(ids[0])+1 {
		t.Errorf("second ID %q should extend first %q by one digit", ids[1], ids[0])
	}
	if len(ids[2]) != len(ids[0])+2 {
		t.Errorf("third ID %q should extend first %q by two digits", ids[2], ids[0])
	}
}

func TestGenerateIDVariesWithInputs(t *testing.T) {
	created := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	first := GenerateID("", created, "A", nil)
	if GenerateID("", created, "B", nil) == first {
		t.Error("different titles produced the same ID")
	}
	if GenerateID("tsk-1", created, "A", nil) == first {
		t.Error("different parents produced the same ID")
	}
	if GenerateID("", created.Add(time.Nanosecond), "A", nil) == first {
		t.Error("different timestamps produced the same ID")
	}
}

func TestChangeSetEmpty(t *testing.T) {
	if !(ChangeSet{}).Empty() {
		t.Error("zero ChangeSet should be empty")
	}
	if (ChangeSet{Audit: []AuditEntry{{Message: CascadeCompletionMessage}}}).Empty() {
		t.Error("ChangeSet with audit should not be empty")
	}
}

func TestAdminMessages(t *testing.T) {
	if got := GroupCreatedMessage("Réseau"); got != "[ADMIN] Groupe de support créé: Réseau" {
		t.Errorf("GroupCreatedMessage = %q", got)
	}
	if got := GroupDeletedMessage("Réseau"); got != "[ADMIN] Groupe de support supprimé: Réseau" {
		t.Errorf("GroupDeletedMessage = %q", got)
	}
	if got := RuleDeletedMessage("Escalade"); got != "[ADMIN] Règle supprimée: Escalade" {
		t.Errorf("RuleDeletedMessage = %q", got)
	}
}
