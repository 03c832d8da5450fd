// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package task

// Canonical status labels.
const (
	StatusNew        = "Nouveau"
	StatusTodo       = "À faire"
	StatusInProgress = "En cours"
	StatusDone       = "Terminé"
)

// statusTodoUnaccented is the legacy spelling of StatusTodo found in
// older rule files and form submissions.
const statusTodoUnaccented = "A faire"

// statusDoneEnglish is accepted as a Done-equivalent value when a
// rule step sets the status.
const statusDoneEnglish = "Done"

// Priority labels.
const (
	PriorityLow      = "Basse"
	PriorityMedium   = "Moyenne"
	PriorityHigh     = "Haute"
	PriorityCritical = "Critique"

	DefaultPriority = PriorityMedium
)

// Statuses returns the canonical status labels in lifecycle order.
func Statuses() []string {
	return []string{StatusNew, StatusTodo, StatusInProgress, StatusDone}
}

// Priorities returns the priority labels from lowest to highest.
func Priorities() []string {
	return []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}
}

// CanonicalStatus maps the unaccented "A faire" to "À faire" and
// returns every other string unchanged. Idempotent.
func CanonicalStatus(status string) string {
	if status == statusTodoUnaccented {
		return StatusTodo
	}
	return status
}

// IsKnownStatus reports whether status, after canonicalization, is in
// the closed status vocabulary.
func IsKnownStatus(status string) bool {
	switch CanonicalStatus(status) {
	case StatusNew, StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// IsDoneStatus reports whether status is Done-equivalent: the
// canonical "Terminé" or the English "Done".
func IsDoneStatus(status string) bool {
	return status == StatusDone || status == statusDoneEnglish
}

// IsKnownPriority reports whether priority is one of the four labels.
func IsKnownPriority(priority string) bool {
	switch priority {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}
