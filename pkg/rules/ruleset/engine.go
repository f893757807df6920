package ruleset

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"mercator-hq/rulekit/pkg/audit/recorder"
	"mercator-hq/rulekit/pkg/rules/condition"
	"mercator-hq/rulekit/pkg/rules/template"
	"mercator-hq/rulekit/pkg/telemetry/logging"
	"mercator-hq/rulekit/pkg/telemetry/metrics"
	"mercator-hq/rulekit/pkg/telemetry/tracing"
)

// Recorder receives one outcome per evaluated rule.
type Recorder interface {
	Record(ctx context.Context, outcome recorder.Outcome) error
}

// Engine evaluates the provider's current ruleset against lookups. It holds
// no per-evaluation state and is safe for concurrent use.
type Engine struct {
	provider    Provider
	transformer *template.Transformer
	logger      *slog.Logger
	metrics     *metrics.Collector
	tracer      *tracing.Tracer
	recorder    Recorder
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithTransformer sets the transform functions available to templates.
func WithTransformer(t *template.Transformer) EngineOption {
	return func(e *Engine) { e.transformer = t }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(c *metrics.Collector) EngineOption {
	return func(e *Engine) { e.metrics = c }
}

// WithTracer sets the tracer.
func WithTracer(t *tracing.Tracer) EngineOption {
	return func(e *Engine) { e.tracer = t }
}

// WithRecorder sets where rule outcomes are audited.
func WithRecorder(r Recorder) EngineOption {
	return func(e *Engine) { e.recorder = r }
}

// NewEngine creates an engine over provider.
func NewEngine(provider Provider, opts ...EngineOption) *Engine {
	e := &Engine{provider: provider}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.logger = e.logger.With("component", "ruleset.engine")
	if e.tracer == nil {
		e.tracer = tracing.Noop()
	}
	return e
}

type evaluateOptions struct {
	input []byte
	rules map[string]bool
}

// EvaluateOption configures a single evaluation.
type EvaluateOption func(*evaluateOptions)

// WithInput attaches the raw input document. Only its hash is audited.
func WithInput(data []byte) EvaluateOption {
	return func(o *evaluateOptions) { o.input = data }
}

// OnlyRules restricts evaluation to the given rule IDs.
func OnlyRules(ids ...string) EvaluateOption {
	return func(o *evaluateOptions) {
		if o.rules == nil {
			o.rules = make(map[string]bool, len(ids))
		}
		for _, id := range ids {
			o.rules[id] = true
		}
	}
}

// Evaluate evaluates every enabled rule in document order and renders the
// consequences of the rules that match. A rule that fails never stops the
// others; its Result says why. The only errors are ErrNoRuleset and a done
// context.
func (e *Engine) Evaluate(ctx context.Context, lookup template.Lookup, opts ...EvaluateOption) (*Evaluation, error) {
	var o evaluateOptions
	for _, opt := range opts {
		opt(&o)
	}

	rs := e.provider.Current()
	if rs == nil {
		return nil, ErrNoRuleset
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	eval := &Evaluation{
		ID:       uuid.NewString(),
		Ruleset:  rs.Name,
		Version:  rs.Version,
		Revision: rs.Revision,
		Results:  make([]RuleResult, 0, len(rs.Rules)),
	}

	ctx = logging.WithEvaluationID(ctx, eval.ID)
	ctx = logging.WithRuleset(ctx, rs.Name)
	ctx, span := e.tracer.Start(ctx, "ruleset.evaluate")
	defer span.End()
	if traceID := tracing.TraceID(ctx); traceID != "" {
		ctx = logging.WithTraceID(ctx, traceID)
	}
	tracing.SetEvaluationAttributes(span, eval.ID, rs.Name, len(rs.Rules))

	start := time.Now()
	for _, rule := range rs.Rules {
		if !rule.Enabled {
			continue
		}
		if o.rules != nil && !o.rules[rule.ID] {
			continue
		}
		if err := ctx.Err(); err != nil {
			tracing.SetError(span, err)
			return nil, err
		}
		eval.Results = append(eval.Results, e.evaluateRule(ctx, rs, rule, lookup, &o, eval.ID))
	}
	eval.Duration = time.Since(start)

	matched := len(eval.Matched())
	tracing.SetMatchCount(span, matched)
	e.logger.DebugContext(ctx, "ruleset evaluated",
		"rules", len(eval.Results),
		"matched", matched,
		"duration", eval.Duration,
	)
	return eval, nil
}

func (e *Engine) evaluateRule(ctx context.Context, rs *Ruleset, rule *Rule, lookup template.Lookup, o *evaluateOptions, evalID string) RuleResult {
	ctx = logging.WithRuleID(ctx, rule.ID)
	ctx, span := e.tracer.Start(ctx, "ruleset.rule")
	defer span.End()

	start := time.Now()
	cctx := &condition.Context{
		Lookup:      lookup,
		Evaluator:   rule.Evaluator,
		Transformer: e.transformer,
	}

	result := condition.Succeeded()
	if rule.Condition != nil {
		result = rule.Condition.Evaluate(cctx)
	}

	var rendered []RenderedConsequence
	if result.Success {
		rendered = make([]RenderedConsequence, 0, len(rule.Consequences))
		for _, c := range rule.Consequences {
			rendered = append(rendered, c.Render(lookup, e.transformer))
		}
	}
	duration := time.Since(start)

	kind := result.Kind.String()
	tracing.SetRuleAttributes(span, rule.ID, result.Success, kind, result.Message)
	e.metrics.RecordRuleEvaluation(rule.ID, result.Success, kind, duration)
	if len(rendered) > 0 {
		e.metrics.RecordConsequences(rule.ID, len(rendered))
	}

	e.logger.DebugContext(ctx, "rule evaluated",
		"matched", result.Success,
		"kind", kind,
		"message", result.Message,
		"consequences", len(rendered),
	)

	if e.recorder != nil {
		outcome := recorder.Outcome{
			EvaluationID: evalID,
			Ruleset:      rs.Name,
			Version:      auditVersion(rs),
			RuleID:       rule.ID,
			Success:      result.Success,
			Kind:         kind,
			Message:      result.Message,
			Consequences: auditConsequences(rendered),
			Input:        o.input,
			Duration:     duration,
			Timestamp:    start,
		}
		if err := e.recorder.Record(ctx, outcome); err != nil {
			e.logger.WarnContext(ctx, "failed to record rule outcome", "error", err)
		}
	}

	return RuleResult{
		RuleID:       rule.ID,
		Result:       result,
		Consequences: rendered,
		Duration:     duration,
	}
}

func auditVersion(rs *Ruleset) string {
	if rs.Revision != "" {
		return rs.Revision
	}
	return rs.Version
}

// auditConsequences flattens rendered consequences to consequence ID ->
// JSON encoded detail.
func auditConsequences(rendered []RenderedConsequence) map[string]string {
	if len(rendered) == 0 {
		return nil
	}
	out := make(map[string]string, len(rendered))
	for _, c := range rendered {
		data, err := json.Marshal(c.Detail)
		if err != nil {
			continue
		}
		out[c.ID] = string(data)
	}
	return out
}
