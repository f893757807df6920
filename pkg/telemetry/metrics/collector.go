package metrics

import (
	"sync"
	"time"

	"mercator-hq/rulekit/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Label values shared by the metric families.
const (
	OutcomeMatched    = "matched"
	OutcomeNotMatched = "not_matched"

	StatusSuccess = "success"
	StatusError   = "error"

	// OtherRule replaces rule IDs once the cardinality limit is reached.
	OtherRule = "other"
)

// DefaultMaxRuleCardinality is the number of distinct rule IDs tracked
// before further rules are aggregated under OtherRule.
const DefaultMaxRuleCardinality = 1000

// Collector owns the Prometheus registry and every rulekit metric family.
// A nil *Collector and a collector with metrics disabled both ignore all
// recording calls.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	ruleMetrics    *RuleMetrics
	rulesetMetrics *RulesetMetrics
	auditMetrics   *AuditMetrics

	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a fresh registry is created.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}

	return &Collector{
		config:             cfg,
		registry:           registry,
		ruleMetrics:        NewRuleMetrics(cfg, registry),
		rulesetMetrics:     NewRulesetMetrics(cfg, registry),
		auditMetrics:       NewAuditMetrics(cfg, registry),
		cardinalityLimiter: NewCardinalityLimiter(DefaultMaxRuleCardinality),
	}
}

// Registry returns the registry the metrics are registered with.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// ruleLabel returns ruleID, or OtherRule when too many distinct IDs were seen.
func (c *Collector) ruleLabel(ruleID string) string {
	if !c.cardinalityLimiter.Allow(ruleID) {
		return OtherRule
	}
	return ruleID
}

// RecordRuleEvaluation records one rule evaluation.
//
// Example:
//
//	collector.RecordRuleEvaluation("greeting", true, "", 40*time.Microsecond)
//	collector.RecordRuleEvaluation("greeting", false, "condition_failed", 35*time.Microsecond)
func (c *Collector) RecordRuleEvaluation(ruleID string, matched bool, kind string, duration time.Duration) {
	if !c.enabled() {
		return
	}

	outcome := OutcomeNotMatched
	if matched {
		outcome = OutcomeMatched
	}
	c.ruleMetrics.RecordEvaluation(c.ruleLabel(ruleID), outcome, kind, duration)
}

// RecordConsequences records consequences rendered for a matched rule.
func (c *Collector) RecordConsequences(ruleID string, n int) {
	if !c.enabled() || n == 0 {
		return
	}
	c.ruleMetrics.RecordConsequences(c.ruleLabel(ruleID), n)
}

// RecordReload records a ruleset reload from source.
func (c *Collector) RecordReload(source string, rules int, err error) {
	if !c.enabled() {
		return
	}
	c.rulesetMetrics.RecordReload(source, rules, err, time.Now())
}

// RecordAuditWrite records the outcome of storing an audit record.
func (c *Collector) RecordAuditWrite(err error) {
	if !c.enabled() {
		return
	}
	c.auditMetrics.RecordWrite(err)
}

// RecordAuditPruned records audit records removed by retention.
func (c *Collector) RecordAuditPruned(n int64) {
	if !c.enabled() || n <= 0 {
		return
	}
	c.auditMetrics.RecordPruned(n)
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label values per metric.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label value is allowed. Returns true if the value
// already exists or if the cardinality limit has not been reached yet.
func (cl *CardinalityLimiter) Allow(label string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[label]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[label]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[label] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
