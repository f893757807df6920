package condition

import "mercator-hq/rulekit/pkg/rules/value"

// compare applies op to two present values.
func (e Evaluator) compare(op Operator, l, r value.Value) bool {
	switch op {
	case OperatorEquals:
		return e.equal(l, r)

	case OperatorNotEquals:
		return !e.equal(l, r)

	case OperatorContains:
		ls, rs, ok := bothText(l, r)
		return ok && e.Contains(ls, rs)

	case OperatorNotContains:
		ls, rs, ok := bothText(l, r)
		return ok && !e.Contains(ls, rs)

	case OperatorStartsWith:
		ls, rs, ok := bothText(l, r)
		return ok && e.HasPrefix(ls, rs)

	case OperatorEndsWith:
		ls, rs, ok := bothText(l, r)
		return ok && e.HasSuffix(ls, rs)

	case OperatorGreaterThan:
		cmp, ok := value.CompareNumbers(l, r)
		return ok && cmp > 0

	case OperatorGreaterEqual:
		cmp, ok := value.CompareNumbers(l, r)
		return ok && cmp >= 0

	case OperatorLessThan:
		cmp, ok := value.CompareNumbers(l, r)
		return ok && cmp < 0

	case OperatorLessEqual:
		cmp, ok := value.CompareNumbers(l, r)
		return ok && cmp <= 0

	default:
		return false
	}
}

// equal dispatches on the pairing of runtime kinds. Mismatched pairings are
// never equal.
func (e Evaluator) equal(l, r value.Value) bool {
	switch {
	case l.IsText() && r.IsText():
		ls, _ := l.AsText()
		rs, _ := r.AsText()
		return e.Equal(ls, rs)

	case l.IsNumber() && r.IsNumber():
		cmp, ok := value.CompareNumbers(l, r)
		return ok && cmp == 0

	case l.IsBool() && r.IsBool():
		lb, _ := l.AsBool()
		rb, _ := r.AsBool()
		return lb == rb

	default:
		return false
	}
}

func bothText(l, r value.Value) (string, string, bool) {
	ls, lok := l.AsText()
	rs, rok := r.AsText()
	return ls, rs, lok && rok
}
