// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package task

import "strings"

// Field identifies one rule-addressable task attribute. The set is
// closed: rules cannot read or write ID, Parent, or timestamps.
type Field int

const (
	FieldTitle Field = iota + 1
	FieldDescription
	FieldStatus
	FieldPriority
	FieldTags
	FieldAssignedTo
)

// Fields returns every Field in declaration order.
func Fields() []Field {
	return []Field{FieldTitle, FieldDescription, FieldStatus, FieldPriority, FieldTags, FieldAssignedTo}
}

var fieldKeys = map[Field]string{
	FieldTitle:       "title",
	FieldDescription: "description",
	FieldStatus:      "status",
	FieldPriority:    "priority",
	FieldTags:        "tags",
	FieldAssignedTo:  "assigned_to",
}

var fieldDisplayNames = map[Field]string{
	FieldTitle:       "Titre",
	FieldDescription: "Description",
	FieldStatus:      "Statut",
	FieldPriority:    "Priorité",
	FieldTags:        "Tags",
	FieldAssignedTo:  "Assigné à",
}

// displayMapping resolves the human-facing names rule authors use.
// Both the French labels of the rule editor and their English
// equivalents are accepted.
var displayMapping = map[string]Field{
	"Titre":       FieldTitle,
	"Title":       FieldTitle,
	"Description": FieldDescription,
	"Statut":      FieldStatus,
	"Status":      FieldStatus,
	"Priorité":    FieldPriority,
	"Priority":    FieldPriority,
	"Assigné à":   FieldAssignedTo,
	"AssignedTo":  FieldAssignedTo,
	"Assigned to": FieldAssignedTo,
	"Tags":        FieldTags,
}

// String returns the technical key ("title", "assigned_to", ...).
func (f Field) String() string {
	if key, ok := fieldKeys[f]; ok {
		return key
	}
	return "unknown"
}

// DisplayName returns the French label shown in rule summaries.
func (f Field) DisplayName() string {
	if name, ok := fieldDisplayNames[f]; ok {
		return name
	}
	return f.String()
}

// ParseDisplayField resolves a trigger field name through the display
// mapping only. Triggers naming anything else are unmapped.
func ParseDisplayField(name string) (Field, bool) {
	field, ok := displayMapping[name]
	return field, ok
}

// ParseStepField resolves a step field key: the display mapping
// first, then the lower-cased technical key.
func ParseStepField(name string) (Field, bool) {
	if field, ok := displayMapping[name]; ok {
		return field, true
	}
	lowered := strings.ToLower(name)
	for field, key := range fieldKeys {
		if key == lowered {
			return field, true
		}
	}
	return 0, false
}

// Get returns the raw stored value of field f.
func (t *Task) Get(f Field) string {
	switch f {
	case FieldTitle:
		return t.Title
	case FieldDescription:
		return t.Description
	case FieldStatus:
		return t.Status
	case FieldPriority:
		return t.Priority
	case FieldTags:
		return t.Tags
	case FieldAssignedTo:
		return t.AssignedTo
	}
	return ""
}

// Set assigns value to field f. Status values are canonicalized.
// Returns false for an unknown field, leaving the task untouched.
func (t *Task) Set(f Field, value string) bool {
	switch f {
	case FieldTitle:
		t.Title = value
	case FieldDescription:
		t.Description = value
	case FieldStatus:
		t.Status = CanonicalStatus(value)
	case FieldPriority:
		t.Priority = value
	case FieldTags:
		t.Tags = value
	case FieldAssignedTo:
		t.AssignedTo = value
	default:
		return false
	}
	return true
}

// Value is the field accessor used for condition matching: the field
// as a trimmed string, with status canonicalized. Absent values and
// unknown fields yield "".
func Value(t Task, f Field) string {
	value := strings.TrimSpace(t.Get(f))
	if f == FieldStatus {
		value = CanonicalStatus(value)
	}
	return value
}

// DisplayValue resolves name through the display mapping and returns
// the field accessor's value, or "" when name is unmapped.
func DisplayValue(t Task, name string) string {
	field, ok := ParseDisplayField(name)
	if !ok {
		return ""
	}
	return Value(t, field)
}
