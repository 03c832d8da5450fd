// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bureau-foundation/liteflow/lib/schema/rule"
)

// Evaluate compares a task's field value with a trigger's expected
// value. Every comparison is case-insensitive. A list expected value
// is an exact membership test whatever the operator. The reason
// string explains the outcome for debug logs; callers must not parse
// it.
//
// An unknown operator is a clean mismatch, never an error: rule files
// are edited by hand and one bad trigger must not stop the others.
func Evaluate(actual string, operator rule.Operator, expected rule.TriggerValue) (bool, string) {
	lowered := strings.ToLower(actual)

	if expected.IsList() {
		options := make([]string, len(expected.Values()))
		for i, option := range expected.Values() {
			options[i] = strings.ToLower(option)
		}
		if slices.Contains(options, lowered) {
			return true, fmt.Sprintf("'%s' in list", lowered)
		}
		return false, fmt.Sprintf("'%s' not in list %v", lowered, options)
	}

	want := strings.ToLower(expected.Scalar())
	switch operator.Kind() {
	case rule.OperatorContains:
		matched := strings.Contains(lowered, want)
		return matched, fmt.Sprintf("'%s' in '%s'", want, lowered)
	case rule.OperatorNotContains:
		matched := !strings.Contains(lowered, want)
		return matched, fmt.Sprintf("'%s' not in '%s'", want, lowered)
	case rule.OperatorEquals:
		matched := lowered == want
		return matched, fmt.Sprintf("'%s' == '%s'", lowered, want)
	case rule.OperatorStartsWith:
		matched := strings.HasPrefix(lowered, want)
		return matched, fmt.Sprintf("'%s' starts with '%s'", lowered, want)
	}
	return false, fmt.Sprintf("unknown operator %q", string(operator))
}
