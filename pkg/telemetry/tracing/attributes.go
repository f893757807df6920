package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys used on rule evaluation spans.
const (
	AttrEvaluationID = "rulekit.evaluation.id"
	AttrRuleset      = "rulekit.ruleset.name"
	AttrRuleCount    = "rulekit.ruleset.rules"
	AttrMatchCount   = "rulekit.evaluation.matches"

	AttrRuleID      = "rulekit.rule.id"
	AttrRuleMatched = "rulekit.rule.matched"
	AttrFailureKind = "rulekit.rule.failure_kind"
	AttrFailureMsg  = "rulekit.rule.failure_message"

	AttrSource = "rulekit.source"

	AttrErrorMessage = "error.message"
)

// SetEvaluationAttributes sets ruleset level attributes on a span.
func SetEvaluationAttributes(span trace.Span, evaluationID, ruleset string, rules int) {
	span.SetAttributes(
		attribute.String(AttrEvaluationID, evaluationID),
		attribute.String(AttrRuleset, ruleset),
		attribute.Int(AttrRuleCount, rules),
	)
}

// SetMatchCount records how many rules matched.
func SetMatchCount(span trace.Span, matches int) {
	span.SetAttributes(attribute.Int(AttrMatchCount, matches))
}

// SetRuleAttributes sets the outcome of one rule on a span. Failure
// attributes are only set when the rule did not match.
func SetRuleAttributes(span trace.Span, ruleID string, matched bool, kind, message string) {
	attrs := []attribute.KeyValue{
		attribute.String(AttrRuleID, ruleID),
		attribute.Bool(AttrRuleMatched, matched),
	}
	if !matched {
		attrs = append(attrs,
			attribute.String(AttrFailureKind, kind),
			attribute.String(AttrFailureMsg, message),
		)
	}
	span.SetAttributes(attrs...)
}
