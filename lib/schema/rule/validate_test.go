// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rule

import (
	"strings"
	"testing"

	"github.com/bureau-foundation/liteflow/lib/schema/task"
)

func validRule() Rule {
	return Rule{
		Name: "Escalade",
		Triggers: []Trigger{
			{Field: "Titre", Operator: "Contient", Value: Single("VPN")},
		},
		Steps: []Step{Update(Assign(task.FieldAssignedTo, "Réseau"))},
	}
}

func TestValidateForAuthoringAccepts(t *testing.T) {
	rule := validRule()
	if err := rule.ValidateForAuthoring(); err != nil {
		t.Fatalf("ValidateForAuthoring() = %v, want nil", err)
	}
}

func TestValidateForAuthoringRejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Rule)
		wantErr string
	}{
		{"missing name", func(r *Rule) { r.Name = " " }, "name is required"},
		{"no triggers", func(r *Rule) { r.Triggers = nil }, "at least one trigger"},
		{"too many triggers", func(r *Rule) {
			r.Triggers = []Trigger{
				{Field: "Titre", Operator: "Contient", Value: Single("a")},
				{Field: "Statut", Operator: "Contient", Value: Single("b")},
				{Field: "Priorité", Operator: "Contient", Value: Single("c")},
				{Field: "Description", Operator: "Contient", Value: Single("d")},
			}
		}, "at most 3"},
		{"duplicate field", func(r *Rule) {
			r.Triggers = append(r.Triggers, Trigger{Field: "Title", Operator: "Contains", Value: Single("x")})
		}, "already used"},
		{"unknown field", func(r *Rule) { r.Triggers[0].Field = "Couleur" }, "unknown field \"Couleur\""},
		{"unknown operator", func(r *Rule) { r.Triggers[0].Operator = "Ressemble à" }, "unknown operator"},
		{"unknown action", func(r *Rule) { r.Steps[0].Action = "delete" }, "unknown action"},
		{"empty create", func(r *Rule) { r.Steps = append(r.Steps, CreateTask()) }, "needs at least one field"},
		{"ignored step field", func(r *Rule) {
			r.Steps[0].Ignored = []Assignment{{Key: "couleur", Value: "rouge"}}
		}, "unknown field \"couleur\""},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rule := validRule()
			test.mutate(&rule)
			err := rule.ValidateForAuthoring()
			if err == nil {
				t.Fatal("ValidateForAuthoring() = nil, want error")
			}
			if !strings.Contains(err.Error(), test.wantErr) {
				t.Errorf("error = %q, want substring %q", err, test.wantErr)
			}
		})
	}
}

func TestOperatorKinds(t *testing.T) {
	tests := []struct {
		operator Operator
		want     OperatorKind
	}{
		{"Contient", OperatorContains},
		{"contains", OperatorContains},
		{"Ne contient pas", OperatorNotContains},
		{"Est égal à", OperatorEquals},
		{"equals", OperatorEquals},
		{"Est parmi", OperatorEquals},
		{"Commence par", OperatorStartsWith},
		{"starts_with", OperatorStartsWith},
		{"Finit par", OperatorUnknown},
		{"", OperatorUnknown},
	}
	for _, test := range tests {
		if got := test.operator.Kind(); got != test.want {
			t.Errorf("Operator(%q).Kind() = %v, want %v", test.operator, got, test.want)
		}
	}
}
