// Package metrics provides Prometheus metrics for rulekit.
//
// A Collector registers three families on its own registry:
//
//   - Rule metrics: evaluations by rule and outcome, evaluation duration,
//     failures by kind and rendered consequences
//   - Ruleset metrics: reloads by source and status, loaded rule count and
//     last reload time
//   - Audit metrics: records written and records pruned
//
// Rule IDs are used as label values up to DefaultMaxRuleCardinality distinct
// IDs; later IDs are aggregated under "other".
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.RecordRuleEvaluation("greeting", true, "", elapsed)
//	http.Handle("/metrics", collector.Handler())
package metrics
