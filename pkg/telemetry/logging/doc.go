// Package logging builds the structured slog loggers used across rulekit.
//
// Loggers support JSON, text and console formats and the usual level
// filter. Evaluation metadata stored in a context with WithEvaluationID,
// WithRuleset or WithRuleID is attached to records logged through the
// *Context methods:
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json"})
//	ctx = logging.WithEvaluationID(ctx, id)
//	logger.InfoContext(ctx, "rule matched", "rule_id", rule.ID)
package logging
