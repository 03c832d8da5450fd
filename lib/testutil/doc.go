// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for liteflow packages.
//
// [WriteFile] and [TempPath] place fixture files (rule files, config
// files, databases, snapshots) in a per-test temporary directory that
// is removed when the test completes.
//
// [RequireReceive] and [RequireClosed] encapsulate the timeout safety
// valve pattern (select with a timer fallback) so that individual
// tests do not need their own timers. They are only needed
// where a real goroutine reacts to a real event, such as the rule file
// watcher; everything else runs on lib/clock's fake clock.
//
// [UniqueID] generates monotonically increasing identifiers for test
// disambiguation. Use it instead of time.Now() when tests need
// distinguishable task titles or group names.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no liteflow-internal dependencies.
package testutil
