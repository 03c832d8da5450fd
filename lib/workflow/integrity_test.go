// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"testing"

	"github.com/bureau-foundation/liteflow/lib/schema/rule"
	"github.com/bureau-foundation/liteflow/lib/schema/task"
)

func TestCheckIntegrityCleanRules(t *testing.T) {
	rules := []rule.Rule{{
		Name: "Escalade",
		Triggers: []rule.Trigger{
			{Field: "Titre", Operator: "Contient", Value: rule.Single("vpn")},
			{Field: "Statut", Operator: "Est parmi", Value: rule.List("Nouveau", "A faire")},
		},
		Steps: []rule.Step{
			rule.Update(rule.Assign(task.FieldStatus, "A faire")),
			rule.CreateTask(rule.Assign(task.FieldTitle, "Diagnostic")),
		},
	}}
	if warnings := CheckIntegrity(rules); len(warnings) != 0 {
		t.Errorf("CheckIntegrity = %v, want none", warnings)
	}
}

func TestCheckIntegrityFindings(t *testing.T) {
	withIgnored := rule.Update(rule.Assign(task.FieldPriority, task.PriorityHigh))
	withIgnored.Ignored = []rule.Assignment{{Key: "couleur", Value: "rouge"}}

	rules := []rule.Rule{
		{
			Name: "Fautes",
			Triggers: []rule.Trigger{
				{Field: "Titre", Operator: "Ressemble à", Value: rule.Single("x")},
				{Field: "Statut", Operator: "Est égal à", Value: rule.Single("Fermé")},
			},
			Steps: []rule.Step{
				{Action: "archive"},
				withIgnored,
				rule.Update(rule.Assign(task.FieldStatus, "Clos")),
			},
		},
		{
			Triggers: []rule.Trigger{{Field: "Couleur", Operator: "Contient", Value: rule.Single("bleu")}},
		},
	}

	warnings := CheckIntegrity(rules)
	want := []string{
		"Règle 'Fautes' (Condition 1) : Opérateur 'Ressemble à' inconnu, la condition ne sera jamais vraie",
		"Règle 'Fautes' (Condition 2) : Statut 'Fermé' inconnu",
		"Règle 'Fautes' (Étape 1) : Action 'archive' inconnue, étape ignorée",
		"Règle 'Fautes' (Étape 2) : Champ 'couleur' inconnu, ignoré",
		"Règle 'Fautes' (Étape 3) : Statut 'Clos' inconnu",
		"Règle 'Sans nom' (Condition 1) : Champ 'Couleur' inconnu, condition ignorée",
		"Règle 'Sans nom' : Aucune condition applicable, la règle s'applique à toutes les tâches",
	}
	if len(warnings) != len(want) {
		t.Fatalf("CheckIntegrity returned %d warnings, want %d: %v", len(warnings), len(want), warnings)
	}
	for i, warning := range warnings {
		if got := warning.String(); got != want[i] {
			t.Errorf("warning %d = %q, want %q", i, got, want[i])
		}
	}
	if warnings[5].Index != 1 {
		t.Errorf("warning 5 Index = %d, want 1", warnings[5].Index)
	}
}

func TestCheckIntegrityListOperatorNotFlagged(t *testing.T) {
	rules := []rule.Rule{{
		Name:     "Liste",
		Triggers: []rule.Trigger{{Field: "Priorité", Operator: "n'importe", Value: rule.List("Haute")}},
	}}
	if warnings := CheckIntegrity(rules); len(warnings) != 0 {
		t.Errorf("CheckIntegrity = %v, want none for a list value", warnings)
	}
}
