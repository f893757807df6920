package metrics

import (
	"time"

	"mercator-hq/rulekit/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// RulesetMetrics tracks loading and reloading of rule documents.
//
// Metrics:
//   - rulekit_rules_reloads_total: Reload attempts by source and status
//   - rulekit_rules_loaded: Number of rules in the active ruleset
//   - rulekit_rules_last_reload_timestamp_seconds: Time of the last successful reload
type RulesetMetrics struct {
	reloadsTotal *prometheus.CounterVec
	rulesLoaded  prometheus.Gauge
	lastReload   prometheus.Gauge
}

// NewRulesetMetrics creates and registers ruleset metrics with the provided registry.
func NewRulesetMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RulesetMetrics {
	rm := &RulesetMetrics{
		reloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "reloads_total",
				Help:      "Total number of ruleset reloads",
			},
			[]string{"source", "status"},
		),
		rulesLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "loaded",
				Help:      "Number of rules in the active ruleset",
			},
		),
		lastReload: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "last_reload_timestamp_seconds",
				Help:      "Unix time of the last successful ruleset reload",
			},
		),
	}

	registry.MustRegister(rm.reloadsTotal, rm.rulesLoaded, rm.lastReload)

	return rm
}

// RecordReload records a reload attempt. On success the loaded rule count and
// reload timestamp are updated.
func (rm *RulesetMetrics) RecordReload(source string, rules int, err error, at time.Time) {
	if err != nil {
		rm.reloadsTotal.WithLabelValues(source, StatusError).Inc()
		return
	}
	rm.reloadsTotal.WithLabelValues(source, StatusSuccess).Inc()
	rm.rulesLoaded.Set(float64(rules))
	rm.lastReload.Set(float64(at.Unix()))
}
