package condition

import (
	"mercator-hq/rulekit/pkg/rules/template"
	"mercator-hq/rulekit/pkg/rules/value"
)

// Context bundles what an evaluation may read: the value lookup, the text
// comparison policy and the optional transform registry. Evaluation never
// modifies it, so one Context can serve concurrent evaluations as long as the
// lookup is safe for concurrent reads.
type Context struct {
	Lookup      template.Lookup
	Evaluator   Evaluator
	Transformer *template.Transformer
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithEvaluator sets the comparison policy.
func WithEvaluator(e Evaluator) ContextOption {
	return func(c *Context) { c.Evaluator = e }
}

// WithCaseSensitivity sets the comparison policy from a case setting.
func WithCaseSensitivity(s CaseSensitivity) ContextOption {
	return func(c *Context) { c.Evaluator = NewEvaluator(s) }
}

// WithTransformer sets the transform registry.
func WithTransformer(t *template.Transformer) ContextOption {
	return func(c *Context) { c.Transformer = t }
}

// NewContext creates a Context over lookup.
func NewContext(lookup template.Lookup, opts ...ContextOption) *Context {
	c := &Context{Lookup: lookup}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// lookup returns the Lookup, or one that always misses for a nil Context.
func (c *Context) lookup() template.Lookup {
	if c == nil || c.Lookup == nil {
		return template.LookupFunc(func(string) value.Value { return value.Absent() })
	}
	return c.Lookup
}

func (c *Context) transformer() *template.Transformer {
	if c == nil {
		return nil
	}
	return c.Transformer
}

func (c *Context) evaluator() Evaluator {
	if c == nil {
		return Evaluator{}
	}
	return c.Evaluator
}
