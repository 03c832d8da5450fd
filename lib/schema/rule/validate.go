// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rule

import (
	"errors"
	"fmt"
	"strings"
)

// ValidateForAuthoring checks a rule before the CLI writes it to the
// rule file. The engine never calls it; files edited by hand are
// evaluated as written and only reported by the integrity check.
func (r *Rule) ValidateForAuthoring() error {
	var errs []error
	if strings.TrimSpace(r.Name) == "" {
		errs = append(errs, errors.New("rule: name is required"))
	}
	switch {
	case len(r.Triggers) == 0:
		errs = append(errs, errors.New("rule: at least one trigger is required"))
	case len(r.Triggers) > MaxTriggers:
		errs = append(errs, fmt.Errorf("rule: at most %d triggers are allowed, got %d", MaxTriggers, len(r.Triggers)))
	}
	seen := make(map[string]int, len(r.Triggers))
	for i, trigger := range r.Triggers {
		field, ok := trigger.ResolveField()
		if !ok {
			errs = append(errs, fmt.Errorf("rule: triggers[%d]: unknown field %q", i, trigger.Field))
			continue
		}
		if previous, duplicate := seen[field.String()]; duplicate {
			errs = append(errs, fmt.Errorf("rule: triggers[%d]: field %q already used by triggers[%d]", i, trigger.Field, previous))
		}
		seen[field.String()] = i
		if trigger.Operator.Kind() == OperatorUnknown {
			errs = append(errs, fmt.Errorf("rule: triggers[%d]: unknown operator %q", i, trigger.Operator))
		}
	}
	for i, step := range r.Steps {
		if !step.Action.IsKnown() {
			errs = append(errs, fmt.Errorf("rule: steps[%d]: unknown action %q", i, step.Action))
		}
		if step.Action == ActionCreateTask && len(step.Fields) == 0 {
			errs = append(errs, fmt.Errorf("rule: steps[%d]: create_task needs at least one field", i))
		}
		for _, ignored := range step.Ignored {
			errs = append(errs, fmt.Errorf("rule: steps[%d]: unknown field %q", i, ignored.Key))
		}
	}
	return errors.Join(errs...)
}
