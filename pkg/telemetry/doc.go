// Package telemetry groups the observability packages used by rulekit.
//
//   - logging: slog loggers built from configuration, with evaluation and
//     rule IDs carried on the context
//   - metrics: Prometheus counters and histograms for rule outcomes, reloads
//     and the audit trail
//   - tracing: OpenTelemetry spans around evaluations and rules, exported
//     over OTLP/gRPC
//   - health: liveness and readiness checks for the active ruleset and the
//     audit store
//
// Every component accepts a nil or disabled configuration and then does
// nothing, so library callers can ignore telemetry entirely:
//
//	logger, _ := logging.New(logging.FromConfig(cfg.Telemetry.Logging))
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	tracer, _ := tracing.New(&cfg.Telemetry.Tracing)
//
//	engine := ruleset.NewEngine(registry,
//		ruleset.WithLogger(logger),
//		ruleset.WithMetrics(collector),
//		ruleset.WithTracer(tracer),
//	)
package telemetry
