// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/bureau-foundation/liteflow/lib/schema/rule"
	"github.com/bureau-foundation/liteflow/lib/schema/task"
)

func matcherTask() task.Task {
	return task.Task{
		ID:         "tsk-0001",
		Title:      "Panne VPN siège",
		Status:     task.StatusTodo,
		Priority:   task.PriorityHigh,
		AssignedTo: "Support N1",
	}
}

func TestMatchAllTriggersMustHold(t *testing.T) {
	r := rule.Rule{
		Name: "Escalade",
		Triggers: []rule.Trigger{
			{Field: "Titre", Operator: "Contient", Value: rule.Single("vpn")},
			{Field: "Priorité", Operator: "Est parmi", Value: rule.List("Haute", "Critique")},
		},
	}
	if !Match(r, matcherTask(), nil) {
		t.Fatal("Match = false, want true")
	}

	r.Triggers = append(r.Triggers, rule.Trigger{Field: "Assigné à", Operator: "Est égal à", Value: rule.Single("Réseau")})
	if Match(r, matcherTask(), nil) {
		t.Fatal("Match = true with a failing third trigger, want false")
	}
}

func TestMatchSkipsUnmappedTriggers(t *testing.T) {
	r := rule.Rule{
		Name: "Couleur",
		Triggers: []rule.Trigger{
			{Field: "Couleur", Operator: "Est égal à", Value: rule.Single("rouge")},
			{Field: "Titre", Operator: "Contient", Value: rule.Single("VPN")},
		},
	}
	if !Match(r, matcherTask(), nil) {
		t.Fatal("unmapped trigger should be neutral")
	}

	// Technical keys are not display names and are skipped too.
	r.Triggers[1].Field = "title"
	r.Triggers[1].Value = rule.Single("introuvable")
	if !Match(r, matcherTask(), nil) {
		t.Fatal("rule with only unmapped triggers should match vacuously")
	}
}

func TestMatchVacuousRule(t *testing.T) {
	if !Match(rule.Rule{Name: "Toujours"}, matcherTask(), nil) {
		t.Fatal("rule without triggers should match")
	}
}

func TestMatchCanonicalizesStatus(t *testing.T) {
	for _, value := range []rule.TriggerValue{rule.Single("A faire"), rule.List("Nouveau", "A faire")} {
		r := rule.Rule{Triggers: []rule.Trigger{{Field: "Statut", Operator: "Est égal à", Value: value}}}
		if !Match(r, matcherTask(), nil) {
			t.Errorf("trigger value %v should match status %q", value, task.StatusTodo)
		}
	}

	record := matcherTask()
	record.Status = "A faire"
	r := rule.Rule{Triggers: []rule.Trigger{{Field: "Statut", Operator: "Est égal à", Value: rule.Single("À faire")}}}
	if !Match(r, record, nil) {
		t.Error("stored legacy status should match the canonical trigger value")
	}
}

func TestMatchShortCircuitsAndLogs(t *testing.T) {
	var buffer bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buffer, &slog.HandlerOptions{Level: slog.LevelDebug}))

	r := rule.Rule{
		Name: "Court-circuit",
		Triggers: []rule.Trigger{
			{Field: "Titre", Operator: "Contient", Value: rule.Single("imprimante")},
			{Field: "Priorité", Operator: "Est égal à", Value: rule.Single("Haute")},
		},
	}
	if Match(r, matcherTask(), logger) {
		t.Fatal("Match = true, want false")
	}
	output := buffer.String()
	if strings.Count(output, "trigger evaluated") != 1 {
		t.Errorf("expected exactly one evaluated trigger, log:\n%s", output)
	}
	if !strings.Contains(output, "rule=Court-circuit") {
		t.Errorf("log missing rule name:\n%s", output)
	}
}
