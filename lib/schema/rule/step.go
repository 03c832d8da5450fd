// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rule

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/liteflow/lib/schema/task"
)

// Action is a step's kind as spelled in the rule file.
type Action string

const (
	// ActionUpdate assigns fields on the triggering task.
	ActionUpdate Action = "update"

	// ActionCreateTask creates a child of the triggering task.
	ActionCreateTask Action = "create_task"
)

// IsKnown reports whether the engine can execute this action.
func (a Action) IsKnown() bool {
	return a == ActionUpdate || a == ActionCreateTask
}

// Assignment is one field=value pair of a step.
type Assignment struct {
	// Key is the field name as written in the file ("Statut",
	// "assigned_to"). Empty for assignments built in code.
	Key string

	// Field is the resolved field, zero when Key is not a known
	// display name or technical key.
	Field task.Field

	// Value is the literal to assign. Non-string scalars in the file
	// are stringified; null becomes "".
	Value string
}

// Assign builds an assignment for a known field.
func Assign(field task.Field, value string) Assignment {
	return Assignment{Field: field, Value: value}
}

func (a Assignment) key() string {
	if a.Key != "" {
		return a.Key
	}
	return a.Field.String()
}

// Step is one action of a rule: an Update or a CreateTask with its
// field assignments in file order.
type Step struct {
	Action Action

	// Fields holds assignments whose key resolved to a task field.
	Fields []Assignment

	// Ignored holds assignments whose key named nothing the engine
	// can write. They are kept so re-saving a file loses nothing.
	Ignored []Assignment
}

// Update builds an update step.
func Update(fields ...Assignment) Step {
	return Step{Action: ActionUpdate, Fields: fields}
}

// CreateTask builds a create_task step.
func CreateTask(fields ...Assignment) Step {
	return Step{Action: ActionCreateTask, Fields: fields}
}

// Lookup returns the last assigned value for field, which is the one
// that wins when a step assigns a field twice.
func (s Step) Lookup(field task.Field) (string, bool) {
	value, found := "", false
	for _, assignment := range s.Fields {
		if assignment.Field == field {
			value, found = assignment.Value, true
		}
	}
	return value, found
}

func (s *Step) addAssignment(key, value string) {
	if field, ok := task.ParseStepField(key); ok {
		s.Fields = append(s.Fields, Assignment{Key: key, Field: field, Value: value})
		return
	}
	s.Ignored = append(s.Ignored, Assignment{Key: key, Value: value})
}

// UnmarshalYAML decodes {action, fields} keeping the field mapping's
// node order.
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: step must be a mapping", node.Line)
	}
	*s = Step{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]
		switch keyNode.Value {
		case "action":
			if valueNode.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: step action must be a string", valueNode.Line)
			}
			s.Action = Action(valueNode.Value)
		case "fields":
			if err := s.decodeYAMLFields(valueNode); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Step) decodeYAMLFields(node *yaml.Node) error {
	if node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	switch node.Kind {
	case yaml.MappingNode:
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil
		}
		fallthrough
	default:
		return fmt.Errorf("line %d: step fields must be a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]
		if valueNode.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: value of step field %q must be a scalar", valueNode.Line, keyNode.Value)
		}
		value := valueNode.Value
		if valueNode.Tag == "!!null" {
			value = ""
		}
		s.addAssignment(keyNode.Value, value)
	}
	return nil
}

// MarshalYAML writes {action, fields} with fields in order, resolved
// assignments first.
func (s Step) MarshalYAML() (any, error) {
	fields := &yaml.Node{Kind: yaml.MappingNode}
	for _, assignment := range append(append([]Assignment(nil), s.Fields...), s.Ignored...) {
		fields.Content = append(fields.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: assignment.key()},
			&yaml.Node{Kind: yaml.ScalarNode, Value: assignment.Value, Tag: "!!str"},
		)
	}
	return &yaml.Node{
		Kind: yaml.MappingNode,
		Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Value: "action"},
			{Kind: yaml.ScalarNode, Value: string(s.Action)},
			{Kind: yaml.ScalarNode, Value: "fields"},
			fields,
		},
	}, nil
}

// UnmarshalJSON decodes {action, fields} reading the field object as
// a token stream so key order survives.
func (s *Step) UnmarshalJSON(data []byte) error {
	var raw struct {
		Action Action          `json:"action"`
		Fields json.RawMessage `json:"fields"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid step: %w", err)
	}
	*s = Step{Action: raw.Action}
	if len(raw.Fields) == 0 || string(raw.Fields) == "null" {
		return nil
	}

	decoder := json.NewDecoder(bytes.NewReader(raw.Fields))
	decoder.UseNumber()
	token, err := decoder.Token()
	if err != nil {
		return fmt.Errorf("step fields: %w", err)
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return errors.New("step fields must be an object")
	}
	for decoder.More() {
		keyToken, err := decoder.Token()
		if err != nil {
			return fmt.Errorf("step fields: %w", err)
		}
		key := keyToken.(string)
		valueToken, err := decoder.Token()
		if err != nil {
			return fmt.Errorf("step field %q: %w", key, err)
		}
		var value string
		switch typed := valueToken.(type) {
		case nil:
		case string:
			value = typed
		case json.Number:
			value = typed.String()
		case bool:
			value = fmt.Sprint(typed)
		default:
			return fmt.Errorf("value of step field %q must be a scalar", key)
		}
		s.addAssignment(key, value)
	}
	return nil
}

// MarshalJSON writes {action, fields} with fields in order.
func (s Step) MarshalJSON() ([]byte, error) {
	var buffer bytes.Buffer
	action, err := json.Marshal(string(s.Action))
	if err != nil {
		return nil, err
	}
	buffer.WriteString(`{"action":`)
	buffer.Write(action)
	buffer.WriteString(`,"fields":{`)
	for i, assignment := range append(append([]Assignment(nil), s.Fields...), s.Ignored...) {
		if i > 0 {
			buffer.WriteByte(',')
		}
		key, err := json.Marshal(assignment.key())
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(assignment.Value)
		if err != nil {
			return nil, err
		}
		buffer.Write(key)
		buffer.WriteByte(':')
		buffer.Write(value)
	}
	buffer.WriteString("}}")
	return buffer.Bytes(), nil
}
