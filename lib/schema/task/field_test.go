// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package task

import "testing"

func sampleTask() Task {
	return Task{
		ID:          "tsk-a3f9",
		Title:       "  Panne imprimante  ",
		Description: "Le bac 2 est bloqué",
		Status:      "A faire",
		Priority:    PriorityHigh,
		Tags:        "matériel,urgent",
		AssignedTo:  "Support N1",
	}
}

func TestParseDisplayField(t *testing.T) {
	tests := []struct {
		name string
		want Field
	}{
		{"Titre", FieldTitle},
		{"Title", FieldTitle},
		{"Description", FieldDescription},
		{"Statut", FieldStatus},
		{"Status", FieldStatus},
		{"Priorité", FieldPriority},
		{"Priority", FieldPriority},
		{"Assigné à", FieldAssignedTo},
		{"AssignedTo", FieldAssignedTo},
		{"Tags", FieldTags},
	}
	for _, test := range tests {
		got, ok := ParseDisplayField(test.name)
		if !ok || got != test.want {
			t.Errorf("ParseDisplayField(%q) = %v, %v; want %v, true", test.name, got, ok, test.want)
		}
	}

	// Technical keys are not display names.
	for _, name := range []string{"title", "status", "assigned_to", "Couleur", ""} {
		if _, ok := ParseDisplayField(name); ok {
			t.Errorf("ParseDisplayField(%q) resolved, want unmapped", name)
		}
	}
}

func TestParseStepField(t *testing.T) {
	tests := []struct {
		name string
		want Field
	}{
		{"Statut", FieldStatus},
		{"status", FieldStatus},
		{"STATUS", FieldStatus},
		{"assigned_to", FieldAssignedTo},
		{"Assigné à", FieldAssignedTo},
		{"priority", FieldPriority},
	}
	for _, test := range tests {
		got, ok := ParseStepField(test.name)
		if !ok || got != test.want {
			t.Errorf("ParseStepField(%q) = %v, %v; want %v, true", test.name, got, ok, test.want)
		}
	}
	for _, name := range []string{"id", "parent_id", "color"} {
		if _, ok := ParseStepField(name); ok {
			t.Errorf("ParseStepField(%q) resolved, want unknown", name)
		}
	}
}

func TestFieldNames(t *testing.T) {
	if FieldAssignedTo.String() != "assigned_to" {
		t.Errorf("FieldAssignedTo.String() = %q", FieldAssignedTo.String())
	}
	if FieldPriority.DisplayName() != "Priorité" {
		t.Errorf("FieldPriority.DisplayName() = %q", FieldPriority.DisplayName())
	}
	if Field(0).String() != "unknown" {
		t.Errorf("Field(0).String() = %q, want unknown", Field(0).String())
	}
	for _, field := range Fields() {
		parsed, ok := ParseStepField(field.String())
		if !ok || parsed != field {
			t.Errorf("ParseStepField(%q) = %v, %v; want %v", field.String(), parsed, ok, field)
		}
		parsed, ok = ParseDisplayField(field.DisplayName())
		if !ok || parsed != field {
			t.Errorf("ParseDisplayField(%q) = %v, %v; want %v", field.DisplayName(), parsed, ok, field)
		}
	}
}

func TestValueNormalizes(t *testing.T) {
	record := sampleTask()
	if got := Value(record, FieldTitle); got != "Panne imprimante" {
		t.Errorf("Value(title) = %q, want trimmed title", got)
	}
	if got := Value(record, FieldStatus); got != StatusTodo {
		t.Errorf("Value(status) = %q, want %q", got, StatusTodo)
	}
	if got := Value(Task{}, FieldAssignedTo); got != "" {
		t.Errorf("Value(empty assigned_to) = %q, want empty", got)
	}
	if got := Value(record, Field(99)); got != "" {
		t.Errorf("Value(unknown field) = %q, want empty", got)
	}
}

func TestDisplayValue(t *testing.T) {
	record := sampleTask()
	if got := DisplayValue(record, "Assigné à"); got != "Support N1" {
		t.Errorf("DisplayValue(Assigné à) = %q", got)
	}
	if got := DisplayValue(record, "Couleur"); got != "" {
		t.Errorf("DisplayValue(Couleur) = %q, want empty", got)
	}
}

func TestSetCanonicalizesStatus(t *testing.T) {
	record := sampleTask()
	if !record.Set(FieldStatus, "A faire") {
		t.Fatal("Set(status) = false")
	}
	if record.Status != StatusTodo {
		t.Errorf("Status = %q, want %q", record.Status, StatusTodo)
	}
	record.Set(FieldAssignedTo, "Réseau")
	if record.AssignedTo != "Réseau" {
		t.Errorf("AssignedTo = %q, want Réseau", record.AssignedTo)
	}
	before := record
	if record.Set(Field(0), "x") {
		t.Error("Set(unknown field) = true, want false")
	}
	if record != before {
		t.Error("Set(unknown field) modified the task")
	}
}

func TestValidate(t *testing.T) {
	valid := Task{ID: "tsk-0001", Title: "Installer poste", Status: StatusNew, Priority: DefaultPriority}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}

	cases := map[string]func(*Task){
		"empty title":      func(t *Task) { t.Title = "   " },
		"unknown status":   func(t *Task) { t.Status = "Fermé" },
		"unknown priority": func(t *Task) { t.Priority = "Urgente" },
		"self parent":      func(t *Task) { t.Parent = t.ID },
	}
	for name, mutate := range cases {
		record := valid
		mutate(&record)
		if err := record.Validate(); err == nil {
			t.Errorf("%s: Validate() = nil, want error", name)
		}
	}

	legacy := valid
	legacy.Status = "A faire"
	if err := legacy.Validate(); err != nil {
		t.Errorf("Validate() with legacy status = %v, want nil", err)
	}
}
