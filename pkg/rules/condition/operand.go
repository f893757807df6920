package condition

import (
	"fmt"

	"mercator-hq/rulekit/pkg/rules/template"
	"mercator-hq/rulekit/pkg/rules/value"
)

// Operand provides a typed value to an expression. Resolve never fails; an
// absent value means "no value".
type Operand interface {
	Resolve(ctx *Context) value.Value
}

// Literal is a constant operand.
type Literal struct {
	v value.Value
}

// NewLiteral wraps a Go scalar (or a value.Value) as a constant operand.
// Unsupported types become an absent literal.
func NewLiteral(v interface{}) Literal {
	return Literal{v: value.Of(v)}
}

// Resolve returns the constant; ctx is ignored.
func (l Literal) Resolve(*Context) value.Value {
	return l.v
}

// Value returns the constant.
func (l Literal) Value() value.Value {
	return l.v
}

func (l Literal) String() string {
	return fmt.Sprintf("%#v", l.v)
}

// TemplateToken resolves the first placeholder of a template string against
// the context. A plain {{key}} yields the raw typed lookup value and a
// {{name(key)}} call yields the transform's text output. Surrounding text and
// any later placeholders are ignored. If the resolved value does not have
// the expected type the operand is absent; it never converts.
type TemplateToken struct {
	source   string
	expected value.Type
	token    *template.Token
}

// NewTemplateToken parses source with the default delimiters.
func NewTemplateToken(source string, expected value.Type) *TemplateToken {
	return NewTemplateTokenWith(source, expected, template.DefaultDelimiters())
}

// NewTemplateTokenWith parses source with custom delimiters.
func NewTemplateTokenWith(source string, expected value.Type, delims template.Delimiters) *TemplateToken {
	tt := &TemplateToken{source: source, expected: expected}
	if tokens := template.ParseWith(source, delims).Tokens(); len(tokens) > 0 {
		tok := tokens[0].Token()
		tt.token = &tok
	}
	return tt
}

// Resolve looks up the governing placeholder and checks its type.
func (t *TemplateToken) Resolve(ctx *Context) value.Value {
	if t.token == nil {
		return value.Absent()
	}
	v := t.token.Resolve(ctx.lookup(), ctx.transformer())
	return t.expected.Check(v)
}

// Expected returns the type the operand must resolve to.
func (t *TemplateToken) Expected() value.Type {
	return t.expected
}

func (t *TemplateToken) String() string {
	return t.source
}

// FunctionBlock computes an operand value from literal arguments.
type FunctionBlock func(args ...value.Value) value.Value

// Function is an operand computed by a caller-supplied block over a fixed
// list of literal arguments. The arguments are not looked up in the context.
type Function struct {
	name     string
	expected value.Type
	block    FunctionBlock
	args     []value.Value
}

// NewFunction creates a function operand. Arguments are converted with
// value.Of once, at construction.
func NewFunction(name string, expected value.Type, block FunctionBlock, args ...interface{}) *Function {
	vals := make([]value.Value, len(args))
	for i, arg := range args {
		vals[i] = value.Of(arg)
	}
	return &Function{name: name, expected: expected, block: block, args: vals}
}

// Resolve invokes the block. A result of the wrong type, a nil block and a
// panicking block all resolve to absence.
func (f *Function) Resolve(*Context) (v value.Value) {
	if f.block == nil {
		return value.Absent()
	}
	defer func() {
		if recover() != nil {
			v = value.Absent()
		}
	}()

	args := make([]value.Value, len(f.args))
	copy(args, f.args)
	return f.expected.Check(f.block(args...))
}

func (f *Function) String() string {
	return fmt.Sprintf("%s/%d", f.name, len(f.args))
}
