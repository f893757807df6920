// Package tracing provides OpenTelemetry tracing for rule evaluation.
//
// New builds a Tracer from the telemetry tracing section. When tracing is
// enabled spans are exported over OTLP gRPC; otherwise a noop tracer is
// returned and span creation costs next to nothing.
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
//	if err != nil {
//		return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "rules.evaluate")
//	tracing.SetEvaluationAttributes(span, id, ruleset.Name, len(ruleset.Rules))
//	defer span.End()
//
// Samplers are "always", "never" and "ratio", each wrapped in ParentBased.
package tracing
