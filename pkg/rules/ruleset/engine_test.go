package ruleset

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"mercator-hq/rulekit/pkg/audit/recorder"
	"mercator-hq/rulekit/pkg/config"
	"mercator-hq/rulekit/pkg/rules/condition"
	"mercator-hq/rulekit/pkg/rules/lookup"
	"mercator-hq/rulekit/pkg/rules/transform"
	"mercator-hq/rulekit/pkg/telemetry/logging"
	"mercator-hq/rulekit/pkg/telemetry/metrics"
	"mercator-hq/rulekit/pkg/telemetry/tracing"
)

var launchContext = lookup.Map{
	"device": map[string]interface{}{"os": "Android"},
	"user":   map[string]interface{}{"id": "jane doe"},
}

type fakeRecorder struct {
	mu       sync.Mutex
	outcomes []recorder.Outcome
	err      error
}

func (f *fakeRecorder) Record(_ context.Context, o recorder.Outcome) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes = append(f.outcomes, o)
	return f.err
}

func newTestEngine(t *testing.T, doc string, opts ...EngineOption) *Engine {
	t.Helper()
	opts = append([]EngineOption{
		WithTransformer(transform.Default()),
		WithLogger(logging.Discard()),
	}, opts...)
	return NewEngine(Fixed(parse(t, doc)), opts...)
}

func TestEngine_Evaluate(t *testing.T) {
	engine := newTestEngine(t, launchRules)

	eval, err := engine.Evaluate(context.Background(), launchContext)
	require.NoError(t, err)

	assert.NotEmpty(t, eval.ID)
	assert.Equal(t, "launch-rules", eval.Ruleset)
	assert.Equal(t, "1", eval.Version)
	require.Len(t, eval.Results, 2, "disabled rules are skipped")

	assert.Equal(t, "android-user", eval.Results[0].RuleID)
	assert.True(t, eval.Results[0].Result.Success)
	assert.Equal(t, "always", eval.Results[1].RuleID)
	assert.True(t, eval.Results[1].Result.Success, "a rule without a condition always matches")

	consequences := eval.Consequences()
	require.Len(t, consequences, 1)
	assert.Equal(t, "notify", consequences[0].ID)
	assert.Equal(t, "url", consequences[0].Type)
	assert.Equal(t, "https://example.com/jane+doe", consequences[0].Detail["url"])
}

func TestEngine_FailedRuleRendersNothing(t *testing.T) {
	engine := newTestEngine(t, launchRules)

	eval, err := engine.Evaluate(context.Background(), lookup.Map{"device": map[string]interface{}{"os": "iOS"}})
	require.NoError(t, err)

	first := eval.Results[0]
	assert.False(t, first.Result.Success)
	assert.Equal(t, condition.FailureConditionFailed, first.Result.Kind)
	assert.Equal(t, condition.MessageAndFailed, first.Result.Message)
	assert.Empty(t, first.Consequences)
	assert.Len(t, eval.Matched(), 1)
}

func TestEngine_NoRuleset(t *testing.T) {
	engine := NewEngine(Fixed(nil))
	_, err := engine.Evaluate(context.Background(), launchContext)
	assert.ErrorIs(t, err, ErrNoRuleset)
}

func TestEngine_CancelledContext(t *testing.T) {
	engine := newTestEngine(t, launchRules)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Evaluate(ctx, launchContext)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_OnlyRules(t *testing.T) {
	engine := newTestEngine(t, launchRules)

	eval, err := engine.Evaluate(context.Background(), launchContext, OnlyRules("always"))
	require.NoError(t, err)
	require.Len(t, eval.Results, 1)
	assert.Equal(t, "always", eval.Results[0].RuleID)
}

func TestEngine_Audit(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("queue full")}
	engine := newTestEngine(t, launchRules, WithRecorder(rec))

	eval, err := engine.Evaluate(context.Background(), launchContext, WithInput([]byte(`{"device":{"os":"Android"}}`)))
	require.NoError(t, err, "recorder errors do not fail the evaluation")

	require.Len(t, rec.outcomes, 2)
	first := rec.outcomes[0]
	assert.Equal(t, eval.ID, first.EvaluationID)
	assert.Equal(t, "launch-rules", first.Ruleset)
	assert.Equal(t, "1", first.Version)
	assert.Equal(t, "android-user", first.RuleID)
	assert.True(t, first.Success)
	assert.Equal(t, "none", first.Kind)
	assert.NotEmpty(t, first.Input)

	var detail map[string]string
	require.NoError(t, json.Unmarshal([]byte(first.Consequences["notify"]), &detail))
	assert.Equal(t, "https://example.com/jane+doe", detail["url"])

	assert.Nil(t, rec.outcomes[1].Consequences)
}

func TestEngine_Metrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(&config.MetricsConfig{Enabled: true}, registry)
	engine := newTestEngine(t, launchRules, WithMetrics(collector))

	_, err := engine.Evaluate(context.Background(), launchContext)
	require.NoError(t, err)
	_, err = engine.Evaluate(context.Background(), lookup.Map{})
	require.NoError(t, err)

	assert.Equal(t, 1.0, counterValue(t, registry, "rulekit_rules_evaluations_total",
		map[string]string{"rule_id": "android-user", "outcome": metrics.OutcomeMatched}))
	assert.Equal(t, 1.0, counterValue(t, registry, "rulekit_rules_evaluations_total",
		map[string]string{"rule_id": "android-user", "outcome": metrics.OutcomeNotMatched}))
	assert.Equal(t, 2.0, counterValue(t, registry, "rulekit_rules_evaluations_total",
		map[string]string{"rule_id": "always", "outcome": metrics.OutcomeMatched}))
	assert.Equal(t, 1.0, counterValue(t, registry, "rulekit_rules_consequences_rendered_total",
		map[string]string{"rule_id": "android-user"}))
}

// counterValue returns the value of the counter series with exactly the
// given labels, or 0.
func counterValue(t *testing.T, registry *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := registry.Gather()
	require.NoError(t, err)

	for _, f := range families {
		if f.GetName() != name {
			continue
		}
	series:
		for _, m := range f.GetMetric() {
			if len(m.GetLabel()) != len(labels) {
				continue
			}
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue series
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestEngine_Tracing(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tracer, err := tracing.NewWithExporter(&config.TracingConfig{
		Enabled:     true,
		ServiceName: "test",
		Sampler:     tracing.SamplerAlways,
	}, exporter)
	require.NoError(t, err)
	defer tracer.Shutdown(context.Background())

	engine := newTestEngine(t, launchRules, WithTracer(tracer))
	_, err = engine.Evaluate(context.Background(), launchContext)
	require.NoError(t, err)
	require.NoError(t, tracer.ForceFlush(context.Background()))

	spans := exporter.GetSpans()
	require.Len(t, spans, 3)

	names := map[string]int{}
	for _, s := range spans {
		names[s.Name]++
	}
	assert.Equal(t, 1, names["ruleset.evaluate"])
	assert.Equal(t, 2, names["ruleset.rule"])

	root := spans[len(spans)-1]
	assert.Equal(t, "ruleset.evaluate", root.Name, "the evaluation span ends last")
	for _, s := range spans[:2] {
		assert.Equal(t, root.SpanContext.SpanID(), s.Parent.SpanID())
	}
}

func TestEngine_Concurrent(t *testing.T) {
	engine := newTestEngine(t, launchRules)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			eval, err := engine.Evaluate(context.Background(), launchContext)
			if assert.NoError(t, err) {
				assert.Len(t, eval.Matched(), 2)
			}
		}()
	}
	wg.Wait()
}
