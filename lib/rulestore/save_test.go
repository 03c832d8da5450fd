// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rulestore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/liteflow/lib/schema/rule"
	"github.com/bureau-foundation/liteflow/lib/schema/task"
	"github.com/bureau-foundation/liteflow/lib/testutil"
)

func authoredRule(name string) rule.Rule {
	return rule.Rule{
		Name:     name,
		Triggers: []rule.Trigger{{Field: "Titre", Operator: "Contient", Value: rule.Single(name)}},
		Steps: []rule.Step{rule.Update(
			rule.Assign(task.FieldStatus, task.StatusInProgress),
			rule.Assign(task.FieldAssignedTo, "Réseau"),
		)},
	}
}

func names(t *testing.T, path string) []string {
	t.Helper()
	set, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	var result []string
	for _, r := range set.Rules {
		result = append(result, r.Name)
	}
	return result
}

func TestAppendReplaceDelete(t *testing.T) {
	for _, extension := range []string{".yaml", ".json"} {
		t.Run(extension, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "conf", "rules"+extension)

			for _, name := range []string{"un", "deux", "trois"} {
				if err := Append(path, authoredRule(name)); err != nil {
					t.Fatalf("Append(%s): %v", name, err)
				}
			}
			if got := strings.Join(names(t, path), ","); got != "un,deux,trois" {
				t.Fatalf("after Append: %s", got)
			}

			if err := Replace(path, 1, authoredRule("DEUX")); err != nil {
				t.Fatalf("Replace: %v", err)
			}
			removed, err := Delete(path, 0)
			if err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if removed.Name != "un" {
				t.Errorf("Delete returned %q, want un", removed.Name)
			}
			if got := strings.Join(names(t, path), ","); got != "DEUX,trois" {
				t.Errorf("after Replace and Delete: %s", got)
			}

			set, _ := Read(path)
			fields := set.Rules[0].Steps[0].Fields
			if len(fields) != 2 || fields[0].Field != task.FieldStatus {
				t.Errorf("round-tripped fields = %+v, want order preserved", fields)
			}
		})
	}
}

func TestAuthoringRejectsInvalidRule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	invalid := authoredRule("")
	if err := Append(path, invalid); err == nil {
		t.Fatal("Append accepted a rule without a name")
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("rule file written despite validation failure: %v", err)
	}
}

func TestAuthoringIndexOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := Append(path, authoredRule("seule")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := Delete(path, 1); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Delete(1) error = %v, want ErrIndexOutOfRange", err)
	}
	if err := Replace(path, -1, authoredRule("x")); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Replace(-1) error = %v, want ErrIndexOutOfRange", err)
	}
}

func TestAuthoringRefusesToOverwriteMalformedFile(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "rules.yaml", "- name: [broken\n")
	if err := Append(path, authoredRule("x")); err == nil {
		t.Fatal("Append overwrote a malformed rule file")
	}
	if got := testutil.ReadFile(t, path); got != "- name: [broken\n" {
		t.Errorf("malformed file changed to %q", got)
	}
}

func TestSaveLeavesNoTemporaryFiles(t *testing.T) {
	directory := t.TempDir()
	path := filepath.Join(directory, "rules.yaml")
	if err := Save(path, []rule.Rule{authoredRule("a")}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	entries, err := os.ReadDir(directory)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "rules.yaml" {
		var found []string
		for _, entry := range entries {
			found = append(found, entry.Name())
		}
		t.Errorf("directory contains %v, want only rules.yaml", found)
	}
}

func TestConcurrentAppendsKeepEveryRule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")

	const writers = 8
	errs := make(chan error, writers)
	for i := range writers {
		go func() {
			errs <- Append(path, authoredRule(fmt.Sprintf("rule-%d", i)))
		}()
	}
	for range writers {
		if err := testutil.RequireReceive(t, errs, 10*time.Second, "waiting for Append"); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got := names(t, path)
	if len(got) != writers {
		t.Fatalf("rule file holds %d rules after %d concurrent appends: %v", len(got), writers, got)
	}
	if _, err := os.Stat(lockPath(path)); err != nil {
		t.Errorf("lock file: %v", err)
	}
}
