package metrics

import (
	"time"

	"mercator-hq/rulekit/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// RuleMetrics tracks metrics related to rule evaluation.
//
// Metrics:
//   - rulekit_rules_evaluations_total: Rule evaluations by rule and outcome
//   - rulekit_rules_evaluation_duration_seconds: Rule condition evaluation duration
//   - rulekit_rules_failures_total: Failed evaluations by failure kind
//   - rulekit_rules_consequences_rendered_total: Consequence templates rendered per rule
type RuleMetrics struct {
	evaluationsTotal     *prometheus.CounterVec
	evaluationDuration   *prometheus.HistogramVec
	failuresTotal        *prometheus.CounterVec
	consequencesRendered *prometheus.CounterVec
}

// NewRuleMetrics creates and registers rule metrics with the provided registry.
func NewRuleMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RuleMetrics {
	rm := &RuleMetrics{
		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evaluations_total",
				Help:      "Total number of rule evaluations",
			},
			[]string{"rule_id", "outcome"},
		),

		evaluationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evaluation_duration_seconds",
				Help:      "Duration of rule condition evaluation in seconds",
				// Condition trees are evaluated in memory
				Buckets: prometheus.ExponentialBuckets(0.000001, 2, 15), // 1µs to 16ms
			},
			[]string{"rule_id"},
		),

		failuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "failures_total",
				Help:      "Total number of failed rule evaluations by failure kind",
			},
			[]string{"kind"},
		),

		consequencesRendered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "consequences_rendered_total",
				Help:      "Total number of consequence templates rendered",
			},
			[]string{"rule_id"},
		),
	}

	registry.MustRegister(
		rm.evaluationsTotal,
		rm.evaluationDuration,
		rm.failuresTotal,
		rm.consequencesRendered,
	)

	return rm
}

// RecordEvaluation records one rule evaluation. Outcome is "matched" or
// "not_matched"; kind is the failure kind and is only counted when the
// rule did not match.
func (rm *RuleMetrics) RecordEvaluation(ruleID, outcome, kind string, duration time.Duration) {
	rm.evaluationsTotal.WithLabelValues(ruleID, outcome).Inc()
	rm.evaluationDuration.WithLabelValues(ruleID).Observe(duration.Seconds())
	if outcome != OutcomeMatched && kind != "" {
		rm.failuresTotal.WithLabelValues(kind).Inc()
	}
}

// RecordConsequences adds n rendered consequences for a rule.
func (rm *RuleMetrics) RecordConsequences(ruleID string, n int) {
	rm.consequencesRendered.WithLabelValues(ruleID).Add(float64(n))
}
