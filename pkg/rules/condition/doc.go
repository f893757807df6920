// Package condition evaluates boolean condition trees over a read-only
// runtime context.
//
// # Operands
//
// An Operand provides one typed value:
//
//   - Literal: a constant.
//   - TemplateToken: the first placeholder of a template string, resolved
//     through the context's Lookup (or a transform for name(key) calls) and
//     checked against an expected value.Type. A type mismatch is absence,
//     never a conversion.
//   - Function: a caller-supplied block invoked with fixed literal arguments.
//
// # Expressions
//
//	Comparison   lhs <operator> rhs
//	Logical      and/or over ordered children, short-circuiting
//	Unary        exists / notExist
//
// Supported comparison operators are equals, notEquals, contains,
// notContains, startsWith, endsWith, greaterThan, greaterEqual, lessThan and
// lessEqual. Equality dispatches on the kind pairing: text by the context's
// case policy, numbers after widening, booleans by value. Mismatched kinds are
// never equal. Text operators need text on both sides and ordering operators
// need numbers on both sides; anything else simply does not match.
//
// # Results
//
// Evaluation returns a Result, never an error:
//
//	ctx := condition.NewContext(lookup, condition.WithCaseSensitivity(condition.CaseInsensitive))
//	expr := condition.And(
//		condition.NewComparison(condition.NewTemplateToken("{{device.os}}", value.TypeText), "equals", condition.NewLiteral("android")),
//		condition.Exists(condition.NewTemplateToken("{{user.id}}", value.TypeAny)),
//	)
//	res := expr.Evaluate(ctx)
//	if !res.Success {
//		log.Printf("%s: %s", res.Kind, res.Message)
//	}
//
// Failure kinds are FailureConditionFailed, FailureMissingOperand and
// FailureUnknownOperator. Operator and conjunction text is parsed when the
// expression is built; unknown text is reported when it is evaluated.
package condition
