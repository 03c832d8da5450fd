// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rulestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/liteflow/lib/schema/rule"
)

// Encode renders rules in the given format. JSON output is indented
// and carries no comments.
func Encode(rules []rule.Rule, format Format) ([]byte, error) {
	if format == FormatJSON {
		if rules == nil {
			rules = []rule.Rule{}
		}
		data, err := json.MarshalIndent(rules, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding rules: %w", err)
		}
		return append(data, '\n'), nil
	}
	return rule.EncodeYAML(rules)
}

// Save replaces the rule file at path with rules. The file is written
// to a temporary sibling, synced, and renamed into place, so a reader
// sees either the old or the new contents.
func Save(path string, rules []rule.Rule) error {
	data, err := Encode(rules, FormatFor(path))
	if err != nil {
		return err
	}

	directory := filepath.Dir(path)
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return fmt.Errorf("creating rule directory: %w", err)
	}
	file, err := os.CreateTemp(directory, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temporary rule file: %w", err)
	}
	temporaryPath := file.Name()

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary rule file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary rule file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary rule file: %w", err)
	}
	if err := os.Chmod(temporaryPath, 0o644); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("setting rule file mode: %w", err)
	}
	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming rule file into place: %w", err)
	}

	parentDirectory, err := os.Open(directory)
	if err == nil {
		parentDirectory.Sync()
		parentDirectory.Close()
	}
	return nil
}

// Append validates r and adds it to the end of the rule file.
func Append(path string, r rule.Rule) error {
	if err := r.ValidateForAuthoring(); err != nil {
		return err
	}
	unlock, err := lockForEdit(path)
	if err != nil {
		return err
	}
	defer unlock()
	set, err := Read(path)
	if err != nil {
		return err
	}
	return Save(path, append(set.Rules, r))
}

// Replace validates r and substitutes it for the rule at index.
func Replace(path string, index int, r rule.Rule) error {
	if err := r.ValidateForAuthoring(); err != nil {
		return err
	}
	unlock, err := lockForEdit(path)
	if err != nil {
		return err
	}
	defer unlock()
	set, err := Read(path)
	if err != nil {
		return err
	}
	if err := checkIndex(index, len(set.Rules)); err != nil {
		return err
	}
	set.Rules[index] = r
	return Save(path, set.Rules)
}

// Delete removes the rule at index and returns it so the caller can
// name it in an audit entry.
func Delete(path string, index int) (rule.Rule, error) {
	unlock, err := lockForEdit(path)
	if err != nil {
		return rule.Rule{}, err
	}
	defer unlock()
	set, err := Read(path)
	if err != nil {
		return rule.Rule{}, err
	}
	if err := checkIndex(index, len(set.Rules)); err != nil {
		return rule.Rule{}, err
	}
	removed := set.Rules[index]
	rules := append(set.Rules[:index:index], set.Rules[index+1:]...)
	if err := Save(path, rules); err != nil {
		return rule.Rule{}, err
	}
	return removed, nil
}

// ErrIndexOutOfRange is returned by Replace and Delete for an index
// that names no rule.
var ErrIndexOutOfRange = errors.New("rule index out of range")

func checkIndex(index, count int) error {
	if index < 0 || index >= count {
		return fmt.Errorf("rule %d of %d: %w", index, count, ErrIndexOutOfRange)
	}
	return nil
}
