// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package rulestore reads and writes rule files.
//
// A rule file is a YAML sequence of rules (.yaml, .yml) or a JSON array
// that may carry comments and trailing commas (.json, .jsonc). The
// workflow engine reads through [Source], which re-reads the file on
// every pass and never fails: a missing file is an empty rule set and
// a malformed one is an empty rule set plus a logged warning.
//
// Authoring goes through [Append], [Replace], and [Delete], which
// validate the rule, read the file strictly (a malformed file is an
// error rather than being silently overwritten), and rewrite it
// atomically with [Save].
//
// [Watch] reports edits to the file, debounced, so the CLI can re-run
// the integrity check while someone edits rules by hand.
package rulestore
