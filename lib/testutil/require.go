// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"time"
)

// fataler is the subset of testing.TB the channel helpers need.
type fataler interface {
	Helper()
	Fatalf(format string, args ...any)
}

// RequireReceive returns the next value sent on ch, failing the test
// if ch is closed first or nothing arrives within timeout. what
// describes the wait for the failure message:
//
//	path := testutil.RequireReceive(t, changes, 5*time.Second, "waiting for rule file change")
func RequireReceive[T any](t fataler, ch <-chan T, timeout time.Duration, what ...any) T {
	t.Helper()
	deadline := time.NewTimer(timeout) //nolint:realclock bounds a hung test
	defer deadline.Stop()
	select {
	case value, ok := <-ch:
		if !ok {
			t.Fatalf("%s: channel closed before a value arrived", describe(what))
		}
		return value
	case <-deadline.C:
		t.Fatalf("%s: nothing received after %v", describe(what), timeout)
	}
	panic("unreachable")
}

// RequireClosed fails the test unless ch is closed (or yields a value)
// within timeout. Done channels of background goroutines are the usual
// argument.
func RequireClosed(t fataler, ch <-chan struct{}, timeout time.Duration, what ...any) {
	t.Helper()
	deadline := time.NewTimer(timeout) //nolint:realclock bounds a hung test
	defer deadline.Stop()
	select {
	case <-ch:
	case <-deadline.C:
		t.Fatalf("%s: not closed after %v", describe(what), timeout)
	}
}

// describe renders the optional description arguments: nothing, a
// plain value, or a format string with its operands.
func describe(what []any) string {
	switch {
	case len(what) == 0:
		return "channel wait"
	case len(what) == 1:
		return fmt.Sprint(what[0])
	}
	if format, ok := what[0].(string); ok {
		return fmt.Sprintf(format, what[1:]...)
	}
	return fmt.Sprint(what...)
}
