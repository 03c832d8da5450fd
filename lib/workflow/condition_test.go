// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"testing"

	"github.com/bureau-foundation/liteflow/lib/schema/rule"
)

func TestEvaluateScalarOperators(t *testing.T) {
	tests := []struct {
		name     string
		actual   string
		operator rule.Operator
		expected string
		want     bool
	}{
		{"contains", "Panne VPN siège", "Contient", "vpn", true},
		{"contains english", "Panne VPN", "contains", "VPN", true},
		{"contains miss", "Écran noir", "Contient", "vpn", false},
		{"contains empty expected", "anything", "Contient", "", true},
		{"not contains", "Écran noir", "Ne contient pas", "vpn", true},
		{"not contains miss", "Panne VPN", "not_contains", "vpn", false},
		{"equals", "Haute", "Est égal à", "haute", true},
		{"equals english", "HAUTE", "equals", "Haute", true},
		{"equals miss", "Haute", "Est égal à", "Haut", false},
		{"among scalar is equality", "Critique", "Est parmi", "critique", true},
		{"starts with", "URGENT: serveur", "Commence par", "urgent", true},
		{"starts with miss", "serveur URGENT", "starts_with", "urgent", false},
		{"empty actual equals empty", "", "Est égal à", "", true},
		{"unknown operator", "Haute", "Ressemble à", "haute", false},
		{"blank operator", "Haute", "", "haute", false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, reason := Evaluate(test.actual, test.operator, rule.Single(test.expected))
			if got != test.want {
				t.Errorf("Evaluate(%q, %q, %q) = %v (%s), want %v",
					test.actual, test.operator, test.expected, got, reason, test.want)
			}
			if reason == "" {
				t.Error("Evaluate returned an empty reason")
			}
		})
	}
}

func TestEvaluateListIsMembership(t *testing.T) {
	options := rule.List("Haute", "Critique")

	// The operator is irrelevant once the expected value is a list.
	for _, operator := range []rule.Operator{"Est parmi", "Contient", "Commence par", "nonsense"} {
		if matched, reason := Evaluate("critique", operator, options); !matched {
			t.Errorf("Evaluate(critique, %q, list) = false (%s), want true", operator, reason)
		}
	}

	// Membership is exact, not substring.
	if matched, _ := Evaluate("Haut", "Contient", options); matched {
		t.Error("Evaluate(Haut, list) = true, want false: membership must be exact")
	}
	if matched, _ := Evaluate("Basse", "Est parmi", options); matched {
		t.Error("Evaluate(Basse, list) = true, want false")
	}
	if matched, _ := Evaluate("", "Est parmi", rule.List()); matched {
		t.Error("Evaluate against an empty list = true, want false")
	}
}

func TestEvaluateUnknownOperatorReason(t *testing.T) {
	_, reason := Evaluate("x", "Ressemble à", rule.Single("x"))
	if reason != `unknown operator "Ressemble à"` {
		t.Errorf("reason = %q", reason)
	}
}
