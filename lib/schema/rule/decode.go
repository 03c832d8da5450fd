// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rule

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// LegacyTrigger is the condition given to a rule that still uses the
// single "trigger" key. Whatever that key holds is discarded: such a
// rule only matches titles carrying the TODO_FIX marker until it is
// rewritten with "triggers".
var LegacyTrigger = Trigger{Field: "Titre", Operator: "Contient", Value: Single("TODO_FIX")}

// yamlRule mirrors Rule with the legacy keys. Decoding into it avoids
// recursing into Rule.UnmarshalYAML.
type yamlRule struct {
	Name     string    `yaml:"name"`
	Triggers []Trigger `yaml:"triggers"`
	Trigger  yaml.Node `yaml:"trigger"`
	Steps    []Step    `yaml:"steps"`
	Actions  []Step    `yaml:"actions"`
}

// UnmarshalYAML decodes a rule, folding "actions" into Steps when
// "steps" is absent or empty, and substituting LegacyTrigger when
// "triggers" is empty and a non-empty "trigger" is present.
func (r *Rule) UnmarshalYAML(node *yaml.Node) error {
	var raw yamlRule
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*r = Rule{Name: raw.Name, Triggers: raw.Triggers, Steps: raw.Steps}
	if len(r.Steps) == 0 {
		r.Steps = raw.Actions
	}
	if len(r.Triggers) == 0 && raw.Trigger.Kind != 0 {
		var value any
		if err := raw.Trigger.Decode(&value); err != nil {
			return fmt.Errorf("rule %q: trigger: %w", raw.Name, err)
		}
		if present(value) {
			r.Triggers = []Trigger{LegacyTrigger}
		}
	}
	return nil
}

type jsonRule struct {
	Name     string          `json:"name"`
	Triggers []Trigger       `json:"triggers"`
	Trigger  json.RawMessage `json:"trigger"`
	Steps    []Step          `json:"steps"`
	Actions  []Step          `json:"actions"`
}

// UnmarshalJSON is the JSON counterpart of UnmarshalYAML.
func (r *Rule) UnmarshalJSON(data []byte) error {
	var raw jsonRule
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Rule{Name: raw.Name, Triggers: raw.Triggers, Steps: raw.Steps}
	if len(r.Steps) == 0 {
		r.Steps = raw.Actions
	}
	if len(r.Triggers) == 0 && len(raw.Trigger) > 0 {
		var value any
		if err := json.Unmarshal(raw.Trigger, &value); err != nil {
			return fmt.Errorf("rule %q: trigger: %w", raw.Name, err)
		}
		if present(value) {
			r.Triggers = []Trigger{LegacyTrigger}
		}
	}
	return nil
}

// present reports whether a decoded legacy "trigger" value counts as
// set: null, false, zero, and empty strings, lists, and mappings do
// not.
func present(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case int:
		return v != 0
	case int64:
		return v != 0
	case uint64:
		return v != 0
	case float64:
		return v != 0
	case string:
		return v != ""
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	case map[any]any:
		return len(v) > 0
	}
	return true
}

// DecodeYAML parses a YAML rule file. An empty document yields no
// rules.
func DecodeYAML(data []byte) ([]Rule, error) {
	var rules []Rule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parsing rules: %w", err)
	}
	return rules, nil
}

// DecodeJSON parses a JSON rule file (comments must already be
// stripped).
func DecodeJSON(data []byte) ([]Rule, error) {
	var rules []Rule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parsing rules: %w", err)
	}
	return rules, nil
}

// EncodeYAML renders rules as a YAML rule file.
func EncodeYAML(rules []Rule) ([]byte, error) {
	if rules == nil {
		rules = []Rule{}
	}
	data, err := yaml.Marshal(rules)
	if err != nil {
		return nil, fmt.Errorf("encoding rules: %w", err)
	}
	return data, nil
}
