// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the liteflow command tree: task management,
// workflow rule authoring and checking, the audit log, support groups,
// and snapshot export and import.
//
// Every command accepts --config, --db, and --rules. The config file
// (or LITEFLOW_CONFIG, or built-in defaults) supplies the database
// path, rule file, log settings, and snapshot compression; --db and
// --rules override the paths for one invocation. --db :memory: runs
// against a throwaway in-process store.
package commands
