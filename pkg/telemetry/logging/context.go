package logging

import (
	"context"
	"log/slog"
)

// Context keys for common log fields.
type contextKey string

const (
	// EvaluationIDKey is the context key for evaluation IDs.
	EvaluationIDKey contextKey = "evaluation_id"

	// RulesetKey is the context key for ruleset names.
	RulesetKey contextKey = "ruleset"

	// RuleIDKey is the context key for rule IDs.
	RuleIDKey contextKey = "rule_id"

	// TraceIDKey is the context key for trace IDs.
	TraceIDKey contextKey = "trace_id"
)

// WithEvaluationID adds an evaluation ID to the context.
func WithEvaluationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, EvaluationIDKey, id)
}

// GetEvaluationID retrieves the evaluation ID from the context.
func GetEvaluationID(ctx context.Context) string {
	if id, ok := ctx.Value(EvaluationIDKey).(string); ok {
		return id
	}
	return ""
}

// WithRuleset adds a ruleset name to the context.
func WithRuleset(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, RulesetKey, name)
}

// GetRuleset retrieves the ruleset name from the context.
func GetRuleset(ctx context.Context) string {
	if name, ok := ctx.Value(RulesetKey).(string); ok {
		return name
	}
	return ""
}

// WithRuleID adds a rule ID to the context.
func WithRuleID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RuleIDKey, id)
}

// GetRuleID retrieves the rule ID from the context.
func GetRuleID(ctx context.Context) string {
	if id, ok := ctx.Value(RuleIDKey).(string); ok {
		return id
	}
	return ""
}

// WithTraceID adds a trace ID to the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID retrieves the trace ID from the context.
func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}
	return ""
}

// contextAttrs extracts the known fields from ctx in a fixed order.
func contextAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr
	if id := GetEvaluationID(ctx); id != "" {
		attrs = append(attrs, slog.String(string(EvaluationIDKey), id))
	}
	if name := GetRuleset(ctx); name != "" {
		attrs = append(attrs, slog.String(string(RulesetKey), name))
	}
	if id := GetRuleID(ctx); id != "" {
		attrs = append(attrs, slog.String(string(RuleIDKey), id))
	}
	if id := GetTraceID(ctx); id != "" {
		attrs = append(attrs, slog.String(string(TraceIDKey), id))
	}
	return attrs
}

// FromContext returns logger with the fields stored in ctx attached. Use it
// when records are logged without a context, such as from a callback.
func FromContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	attrs := contextAttrs(ctx)
	if len(attrs) == 0 {
		return logger
	}
	args := make([]any, len(attrs))
	for i, a := range attrs {
		args[i] = a
	}
	return logger.With(args...)
}
