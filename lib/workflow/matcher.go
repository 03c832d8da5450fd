// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"log/slog"

	"github.com/bureau-foundation/liteflow/lib/schema/rule"
	"github.com/bureau-foundation/liteflow/lib/schema/task"
)

// Match reports whether every trigger of r holds for record. Triggers
// whose field is not in the display mapping are skipped, so a rule
// whose triggers are all unmapped (or that has none) matches every
// task. Evaluation stops at the first failing trigger. A nil logger
// discards the per-trigger debug lines.
func Match(r rule.Rule, record task.Task, logger *slog.Logger) bool {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	for i, trigger := range r.Triggers {
		field, ok := trigger.ResolveField()
		if !ok {
			logger.Debug("trigger field not mapped, skipping",
				"rule", r.DisplayName(),
				"trigger", i+1,
				"field", trigger.Field,
			)
			continue
		}
		actual := task.Value(record, field)
		matched, reason := Evaluate(actual, trigger.Operator, canonicalExpected(field, trigger.Value))
		logger.Debug("trigger evaluated",
			"rule", r.DisplayName(),
			"trigger", i+1,
			"field", field.String(),
			"operator", string(trigger.Operator),
			"matched", matched,
			"reason", reason,
		)
		if !matched {
			return false
		}
	}
	return true
}

// canonicalExpected canonicalizes status values on the rule side so a
// trigger written with "A faire" matches a task stored as "À faire".
func canonicalExpected(field task.Field, value rule.TriggerValue) rule.TriggerValue {
	if field != task.FieldStatus {
		return value
	}
	if value.IsList() {
		values := make([]string, len(value.Values()))
		for i, option := range value.Values() {
			values[i] = task.CanonicalStatus(option)
		}
		return rule.List(values...)
	}
	return rule.Single(task.CanonicalStatus(value.Scalar()))
}
