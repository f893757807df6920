package condition

import (
	"fmt"
	"strings"

	"mercator-hq/rulekit/pkg/rules/value"
)

// Failure messages for logical expressions.
const (
	MessageAndFailed = "AND operation returned false."
	MessageOrFailed  = "OR operation returned false."
)

// Expression is a node of a condition tree. Trees are immutable once built
// and evaluation is a pure recursive walk over them.
type Expression interface {
	Evaluate(ctx *Context) Result
}

// Comparison applies a binary operator to two operands.
type Comparison struct {
	lhs Operand
	op  Operator
	raw string
	rhs Operand
}

// NewComparison builds a comparison from operator text. Unrecognised text
// is kept and reported as FailureUnknownOperator on evaluation.
func NewComparison(lhs Operand, op string, rhs Operand) *Comparison {
	return &Comparison{lhs: lhs, op: ParseOperator(op), raw: op, rhs: rhs}
}

// Compare builds a comparison from an Operator.
func Compare(lhs Operand, op Operator, rhs Operand) *Comparison {
	return &Comparison{lhs: lhs, op: op, raw: op.String(), rhs: rhs}
}

// Operator returns the parsed operator.
func (c *Comparison) Operator() Operator { return c.op }

// Evaluate resolves the left operand, then the right one, and applies the
// operator.
func (c *Comparison) Evaluate(ctx *Context) Result {
	l := resolve(c.lhs, ctx)
	if !l.Present() {
		return Failed(FailureMissingOperand, "Missing left operand for operator '%s'.", c.raw)
	}
	r := resolve(c.rhs, ctx)
	if !r.Present() {
		return Failed(FailureMissingOperand, "Missing right operand for operator '%s'.", c.raw)
	}

	if c.op == OperatorUnknown {
		return Failed(FailureUnknownOperator, "Unknown operator '%s'.", c.raw)
	}

	if !ctx.evaluator().compare(c.op, l, r) {
		return Failed(FailureConditionFailed, "Condition %#v %s %#v returned false.", l, c.op, r)
	}
	return Succeeded()
}

func (c *Comparison) String() string {
	return fmt.Sprintf("(%v %s %v)", c.lhs, c.raw, c.rhs)
}

// Logical joins child expressions with "and" or "or", evaluating children in
// order and stopping at the first one that decides the outcome.
type Logical struct {
	conjunction Conjunction
	raw         string
	children    []Expression
}

// NewLogical builds a logical expression from conjunction text.
// Unrecognised text is reported as FailureUnknownOperator on evaluation.
func NewLogical(conjunction string, children ...Expression) *Logical {
	return &Logical{
		conjunction: ParseConjunction(conjunction),
		raw:         conjunction,
		children:    append([]Expression(nil), children...),
	}
}

// And builds an "and" expression.
func And(children ...Expression) *Logical {
	return NewLogical("and", children...)
}

// Or builds an "or" expression.
func Or(children ...Expression) *Logical {
	return NewLogical("or", children...)
}

// Conjunction returns the parsed conjunction.
func (l *Logical) Conjunction() Conjunction { return l.conjunction }

// Evaluate evaluates the children. An "and" with no children succeeds and
// an "or" with no children fails.
func (l *Logical) Evaluate(ctx *Context) Result {
	switch l.conjunction {
	case ConjunctionAnd:
		for _, child := range l.children {
			if !evaluate(child, ctx).Success {
				return Failed(FailureConditionFailed, "%s", MessageAndFailed)
			}
		}
		return Succeeded()

	case ConjunctionOr:
		for _, child := range l.children {
			if evaluate(child, ctx).Success {
				return Succeeded()
			}
		}
		return Failed(FailureConditionFailed, "%s", MessageOrFailed)

	default:
		return Failed(FailureUnknownOperator, "Unknown conjunction '%s'.", l.raw)
	}
}

func (l *Logical) String() string {
	parts := make([]string, len(l.children))
	for i, child := range l.children {
		parts[i] = fmt.Sprint(child)
	}
	return "(" + strings.Join(parts, " "+l.raw+" ") + ")"
}

// Unary tests whether an operand resolves to a value.
type Unary struct {
	operand Operand
	op      UnaryOperator
	raw     string
}

// NewUnary builds a unary expression from operator text.
func NewUnary(operand Operand, op string) *Unary {
	return &Unary{operand: operand, op: ParseUnaryOperator(op), raw: op}
}

// Exists succeeds when operand resolves to any present value.
func Exists(operand Operand) *Unary {
	return NewUnary(operand, "exists")
}

// NotExist succeeds when operand resolves to absence.
func NotExist(operand Operand) *Unary {
	return NewUnary(operand, "notExist")
}

// Evaluate resolves the operand and tests its presence. False, zero and the
// empty string are present values.
func (u *Unary) Evaluate(ctx *Context) Result {
	switch u.op {
	case UnaryExists:
		if resolve(u.operand, ctx).Present() {
			return Succeeded()
		}
		return Failed(FailureConditionFailed, "Operand %v does not exist.", u.operand)

	case UnaryNotExist:
		if !resolve(u.operand, ctx).Present() {
			return Succeeded()
		}
		return Failed(FailureConditionFailed, "Operand %v exists.", u.operand)

	default:
		return Failed(FailureUnknownOperator, "Unknown operator '%s'.", u.raw)
	}
}

func (u *Unary) String() string {
	return fmt.Sprintf("(%s %v)", u.raw, u.operand)
}

func resolve(o Operand, ctx *Context) value.Value {
	if o == nil {
		return value.Absent()
	}
	return o.Resolve(ctx)
}

func evaluate(e Expression, ctx *Context) Result {
	if e == nil {
		return Failed(FailureMissingOperand, "Missing expression.")
	}
	return e.Evaluate(ctx)
}
