package metrics

import (
	"mercator-hq/rulekit/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// AuditMetrics tracks audit record storage.
//
// Metrics:
//   - rulekit_rules_audit_records_total: Records written by status
//   - rulekit_rules_audit_pruned_total: Records removed by retention
type AuditMetrics struct {
	recordsTotal *prometheus.CounterVec
	prunedTotal  prometheus.Counter
}

// NewAuditMetrics creates and registers audit metrics with the provided registry.
func NewAuditMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *AuditMetrics {
	am := &AuditMetrics{
		recordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "audit_records_total",
				Help:      "Total number of audit records written",
			},
			[]string{"status"},
		),
		prunedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "audit_pruned_total",
				Help:      "Total number of audit records removed by retention",
			},
		),
	}

	registry.MustRegister(am.recordsTotal, am.prunedTotal)

	return am
}

// RecordWrite records the outcome of storing one audit record.
func (am *AuditMetrics) RecordWrite(err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	am.recordsTotal.WithLabelValues(status).Inc()
}

// RecordPruned adds n pruned records.
func (am *AuditMetrics) RecordPruned(n int64) {
	am.prunedTotal.Add(float64(n))
}
