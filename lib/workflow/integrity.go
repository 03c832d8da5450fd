// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"fmt"

	"github.com/bureau-foundation/liteflow/lib/schema/rule"
	"github.com/bureau-foundation/liteflow/lib/schema/task"
)

// Warning is one non-blocking finding of CheckIntegrity. Step and
// Trigger are 1-based; zero means the warning concerns the rule as a
// whole.
type Warning struct {
	Rule    string `json:"rule"`
	Index   int    `json:"index"`
	Trigger int    `json:"trigger,omitempty"`
	Step    int    `json:"step,omitempty"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	switch {
	case w.Step > 0:
		return fmt.Sprintf("Règle '%s' (Étape %d) : %s", w.Rule, w.Step, w.Message)
	case w.Trigger > 0:
		return fmt.Sprintf("Règle '%s' (Condition %d) : %s", w.Rule, w.Trigger, w.Message)
	}
	return fmt.Sprintf("Règle '%s' : %s", w.Rule, w.Message)
}

// CheckIntegrity inspects rules for mistakes the engine tolerates
// silently: status values outside the vocabulary in steps, unknown
// step actions and fields, unmapped trigger fields, unknown operators,
// and rules that match every task. It never modifies the rules and
// the engine never consults it.
func CheckIntegrity(rules []rule.Rule) []Warning {
	var warnings []Warning
	for index, r := range rules {
		add := func(trigger, step int, format string, args ...any) {
			warnings = append(warnings, Warning{
				Rule:    r.DisplayName(),
				Index:   index,
				Trigger: trigger,
				Step:    step,
				Message: fmt.Sprintf(format, args...),
			})
		}

		mapped := 0
		for i, trigger := range r.Triggers {
			field, ok := trigger.ResolveField()
			if !ok {
				add(i+1, 0, "Champ '%s' inconnu, condition ignorée", trigger.Field)
				continue
			}
			mapped++
			if trigger.Operator.Kind() == rule.OperatorUnknown && !trigger.Value.IsList() {
				add(i+1, 0, "Opérateur '%s' inconnu, la condition ne sera jamais vraie", trigger.Operator)
			}
			if field == task.FieldStatus {
				for _, value := range triggerValues(trigger.Value) {
					if !task.IsKnownStatus(value) {
						add(i+1, 0, "Statut '%s' inconnu", value)
					}
				}
			}
		}
		if mapped == 0 {
			add(0, 0, "Aucune condition applicable, la règle s'applique à toutes les tâches")
		}

		for i, step := range r.Steps {
			if !step.Action.IsKnown() {
				add(0, i+1, "Action '%s' inconnue, étape ignorée", step.Action)
				continue
			}
			for _, ignored := range step.Ignored {
				add(0, i+1, "Champ '%s' inconnu, ignoré", ignored.Key)
			}
			for _, assignment := range step.Fields {
				if assignment.Field == task.FieldStatus && !task.IsKnownStatus(assignment.Value) {
					add(0, i+1, "Statut '%s' inconnu", assignment.Value)
				}
			}
		}
	}
	return warnings
}

func triggerValues(value rule.TriggerValue) []string {
	if value.IsList() {
		return value.Values()
	}
	return []string{value.Scalar()}
}
