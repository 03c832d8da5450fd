// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Pass outcomes reported on the passes counter.
const (
	outcomeChanged   = "changed"
	outcomeUnchanged = "unchanged"
	outcomeMissing   = "missing"
	outcomeError     = "error"
)

// Metrics holds the engine's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	passes            *prometheus.CounterVec
	ruleMatches       *prometheus.CounterVec
	steps             *prometheus.CounterVec
	cascades          prometheus.Counter
	created           prometheus.Counter
	passDuration      prometheus.Histogram
	integrityWarnings prometheus.Gauge
}

// NewMetrics creates the engine collectors and registers them on
// registry. A collector that is already registered (a second engine
// in the same process) is reused.
func NewMetrics(registry prometheus.Registerer) (*Metrics, error) {
	if registry == nil {
		return nil, errors.New("workflow metrics: registry is required")
	}
	metrics := &Metrics{
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "liteflow",
			Subsystem: "workflow",
			Name:      "passes_total",
			Help:      "Workflow passes by outcome (changed, unchanged, missing, error).",
		}, []string{"outcome"}),
		ruleMatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "liteflow",
			Subsystem: "workflow",
			Name:      "rule_matches_total",
			Help:      "Rules whose triggers all matched, by rule name.",
		}, []string{"rule"}),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "liteflow",
			Subsystem: "workflow",
			Name:      "steps_total",
			Help:      "Executed rule steps by action.",
		}, []string{"action"}),
		cascades: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "liteflow",
			Subsystem: "workflow",
			Name:      "cascade_completions_total",
			Help:      "Descendant tasks closed because an ancestor was completed.",
		}),
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "liteflow",
			Subsystem: "workflow",
			Name:      "tasks_created_total",
			Help:      "Sub-tasks created by create_task steps.",
		}),
		passDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "liteflow",
			Subsystem: "workflow",
			Name:      "pass_duration_seconds",
			Help:      "Wall time of one workflow pass including the commit.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		integrityWarnings: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "liteflow",
			Subsystem: "rules",
			Name:      "integrity_warnings",
			Help:      "Warnings reported by the last rule integrity check.",
		}),
	}

	var err error
	if metrics.passes, err = register(registry, metrics.passes); err != nil {
		return nil, err
	}
	if metrics.ruleMatches, err = register(registry, metrics.ruleMatches); err != nil {
		return nil, err
	}
	if metrics.steps, err = register(registry, metrics.steps); err != nil {
		return nil, err
	}
	if metrics.cascades, err = register(registry, metrics.cascades); err != nil {
		return nil, err
	}
	if metrics.created, err = register(registry, metrics.created); err != nil {
		return nil, err
	}
	if metrics.passDuration, err = register(registry, metrics.passDuration); err != nil {
		return nil, err
	}
	if metrics.integrityWarnings, err = register(registry, metrics.integrityWarnings); err != nil {
		return nil, err
	}
	return metrics, nil
}

// register adds collector to registry, returning the collector already
// registered under the same descriptor when there is one.
func register[T prometheus.Collector](registry prometheus.Registerer, collector T) (T, error) {
	if err := registry.Register(collector); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return collector, fmt.Errorf("workflow metrics: %w", err)
	}
	return collector, nil
}

func (m *Metrics) observePass(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.passes.WithLabelValues(outcome).Inc()
	m.passDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) observeMatch(ruleName string) {
	if m == nil {
		return
	}
	m.ruleMatches.WithLabelValues(ruleName).Inc()
}

func (m *Metrics) observeStep(action string) {
	if m == nil {
		return
	}
	m.steps.WithLabelValues(action).Inc()
}

func (m *Metrics) observeCascade() {
	if m == nil {
		return
	}
	m.cascades.Inc()
}

func (m *Metrics) observeCreated() {
	if m == nil {
		return
	}
	m.created.Inc()
}

// ObserveIntegrity records the warning count of the latest integrity
// check.
func (m *Metrics) ObserveIntegrity(warnings int) {
	if m == nil {
		return
	}
	m.integrityWarnings.Set(float64(warnings))
}
