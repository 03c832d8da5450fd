// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rule

import (
	"fmt"
	"strings"
)

// UnnamedRule is the display name of a rule without a name.
const UnnamedRule = "Sans nom"

// MaxTriggers bounds the trigger list of rules written through the
// CLI. Decoded files may carry more; the engine evaluates them all.
const MaxTriggers = 3

// Rule is one automation rule.
type Rule struct {
	// Name labels the rule in logs and audit entries. Not unique.
	Name string `yaml:"name" json:"name"`

	// Triggers are ANDed in order.
	Triggers []Trigger `yaml:"triggers" json:"triggers"`

	// Steps run in order when every trigger matches.
	Steps []Step `yaml:"steps" json:"steps"`
}

// DisplayName returns Name, or UnnamedRule when Name is empty.
func (r *Rule) DisplayName() string {
	if r.Name == "" {
		return UnnamedRule
	}
	return r.Name
}

// Summary renders the triggers the way the rule editor lists them:
//
//	Titre Contient 'VPN' ET Statut Est parmi 'Nouveau, À faire'
func (r *Rule) Summary() string {
	if len(r.Triggers) == 0 {
		return "Aucun déclencheur"
	}
	parts := make([]string, len(r.Triggers))
	for i, trigger := range r.Triggers {
		parts[i] = fmt.Sprintf("%s %s '%s'", trigger.Field, trigger.Operator, trigger.Value.String())
	}
	return strings.Join(parts, " ET ")
}
