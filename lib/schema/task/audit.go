// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"fmt"
	"time"
)

// Fixed audit messages written by the engine and the CRUD layer. The
// bracketed prefix tells operators who acted.
const (
	CascadeCompletionMessage = "[SYSTEME] Clôture automatique (Parent terminé)"
	AdminUpdateMessage       = "[ADMIN] Mise à jour manuelle (Mode Administration)"
)

// GroupCreatedMessage is the audit message for a new support group.
func GroupCreatedMessage(name string) string {
	return fmt.Sprintf("[ADMIN] Groupe de support créé: %s", name)
}

// GroupDeletedMessage is the audit message for a removed support group.
func GroupDeletedMessage(name string) string {
	return fmt.Sprintf("[ADMIN] Groupe de support supprimé: %s", name)
}

// RuleSavedMessage is the audit message for a rule added or edited
// through the CLI.
func RuleSavedMessage(name string) string {
	return fmt.Sprintf("[ADMIN] Règle enregistrée: %s", name)
}

// RuleDeletedMessage is the audit message for a rule removed through
// the CLI.
func RuleDeletedMessage(name string) string {
	return fmt.Sprintf("[ADMIN] Règle supprimée: %s", name)
}

// AuditEntry is an append-only record of a change. Entries outlive
// their task: deleting the task clears TaskID but keeps the entry.
type AuditEntry struct {
	// ID is assigned by the store on insert. Zero before commit.
	ID int64 `json:"id,omitempty"`

	// TaskID is empty for administrative entries and for entries
	// whose task has been deleted.
	TaskID string `json:"task_id,omitempty"`

	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
