// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rule

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/liteflow/lib/schema/task"
)

// Trigger is one condition: the field named by Field (a display name
// such as "Titre" or "Statut") compared with Value using Operator.
type Trigger struct {
	Field    string       `yaml:"field" json:"field"`
	Operator Operator     `yaml:"operator" json:"operator"`
	Value    TriggerValue `yaml:"value" json:"value"`
}

// ResolveField maps Field through the display mapping. Triggers whose
// field does not resolve are skipped during matching.
func (t Trigger) ResolveField() (task.Field, bool) {
	return task.ParseDisplayField(t.Field)
}

// Operator is an operator as spelled in the rule file.
type Operator string

// OperatorKind is the comparison an Operator selects.
type OperatorKind int

const (
	OperatorUnknown OperatorKind = iota
	OperatorContains
	OperatorNotContains
	OperatorEquals
	OperatorStartsWith
)

// operatorSpellings lists every accepted spelling. "Est parmi" with a
// scalar value behaves as equality; with a list value every operator
// becomes membership.
var operatorSpellings = map[Operator]OperatorKind{
	"Contient":        OperatorContains,
	"contains":        OperatorContains,
	"Contains":        OperatorContains,
	"Ne contient pas": OperatorNotContains,
	"not_contains":    OperatorNotContains,
	"NotContains":     OperatorNotContains,
	"Est égal à":      OperatorEquals,
	"equals":          OperatorEquals,
	"Equals":          OperatorEquals,
	"Est parmi":       OperatorEquals,
	"among":           OperatorEquals,
	"Among":           OperatorEquals,
	"Commence par":    OperatorStartsWith,
	"starts_with":     OperatorStartsWith,
	"StartsWith":      OperatorStartsWith,
}

// Kind returns the comparison this spelling selects, or
// OperatorUnknown.
func (o Operator) Kind() OperatorKind {
	return operatorSpellings[o]
}

func (k OperatorKind) String() string {
	switch k {
	case OperatorContains:
		return "contains"
	case OperatorNotContains:
		return "not_contains"
	case OperatorEquals:
		return "equals"
	case OperatorStartsWith:
		return "starts_with"
	}
	return "unknown"
}

// TriggerValue is the expected value of a trigger: a single string or,
// for multi-select fields, a list of strings.
type TriggerValue struct {
	single string
	list   []string
	isList bool
}

// Single returns a scalar TriggerValue.
func Single(value string) TriggerValue {
	return TriggerValue{single: value}
}

// List returns a list TriggerValue.
func List(values ...string) TriggerValue {
	list := make([]string, len(values))
	copy(list, values)
	return TriggerValue{list: list, isList: true}
}

// IsList reports whether the value is a list.
func (v TriggerValue) IsList() bool { return v.isList }

// Scalar returns the scalar value ("" for lists).
func (v TriggerValue) Scalar() string { return v.single }

// Values returns the list elements (nil for scalars).
func (v TriggerValue) Values() []string { return v.list }

// String joins list values with ", " and returns scalars unchanged.
func (v TriggerValue) String() string {
	if v.isList {
		return strings.Join(v.list, ", ")
	}
	return v.single
}

// UnmarshalYAML accepts a scalar of any YAML type (stringified), a
// sequence of scalars, or null (the empty string).
func (v *TriggerValue) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*v = Single("")
			return nil
		}
		*v = Single(node.Value)
		return nil
	case yaml.SequenceNode:
		values := make([]string, 0, len(node.Content))
		for i, element := range node.Content {
			if element.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: trigger value element %d must be a scalar", element.Line, i)
			}
			values = append(values, element.Value)
		}
		*v = List(values...)
		return nil
	case yaml.AliasNode:
		return v.UnmarshalYAML(node.Alias)
	}
	return fmt.Errorf("line %d: trigger value must be a string or a list of strings", node.Line)
}

// MarshalYAML writes a scalar or a sequence.
func (v TriggerValue) MarshalYAML() (any, error) {
	if v.isList {
		return v.list, nil
	}
	return v.single, nil
}

// UnmarshalJSON accepts a string, number, boolean, null, or an array
// of those. Non-string scalars are stringified.
func (v *TriggerValue) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid trigger value: %w", err)
	}
	if array, ok := raw.([]any); ok {
		values := make([]string, 0, len(array))
		for i, element := range array {
			text, err := scalarString(element)
			if err != nil {
				return fmt.Errorf("trigger value element %d: %w", i, err)
			}
			values = append(values, text)
		}
		*v = List(values...)
		return nil
	}
	text, err := scalarString(raw)
	if err != nil {
		return fmt.Errorf("trigger value: %w", err)
	}
	*v = Single(text)
	return nil
}

// MarshalJSON writes a string or an array of strings.
func (v TriggerValue) MarshalJSON() ([]byte, error) {
	if v.isList {
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	}
	return json.Marshal(v.single)
}

// scalarString renders a JSON-decoded scalar the way a YAML scalar
// reads: numbers without a trailing ".0", booleans as true/false.
func scalarString(value any) (string, error) {
	switch typed := value.(type) {
	case nil:
		return "", nil
	case string:
		return typed, nil
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(typed), nil
	}
	return "", fmt.Errorf("must be a string, number, or boolean, got %T", value)
}
