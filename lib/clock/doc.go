// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// The workflow engine stamps audit entries and created tasks with
// Clock.Now, and the rule file watcher debounces change events with
// Clock.AfterFunc. Production wiring passes Real(); tests pass a
// FakeClock that only moves when Advance or Set is called:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	engine := workflow.New(workflow.Config{Clock: c, ...})
//	c.Advance(time.Minute)
package clock
