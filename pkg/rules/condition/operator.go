package condition

import "strings"

// Operator is a comparison operator. Operators are parsed once, when the
// expression is built; text that names no operator becomes OperatorUnknown
// and is reported when the expression is evaluated.
type Operator uint8

const (
	OperatorUnknown Operator = iota
	OperatorEquals
	OperatorNotEquals
	OperatorContains
	OperatorNotContains
	OperatorStartsWith
	OperatorEndsWith
	OperatorGreaterThan
	OperatorGreaterEqual
	OperatorLessThan
	OperatorLessEqual
)

var operatorNames = [...]string{
	OperatorUnknown:      "unknown",
	OperatorEquals:       "equals",
	OperatorNotEquals:    "notEquals",
	OperatorContains:     "contains",
	OperatorNotContains:  "notContains",
	OperatorStartsWith:   "startsWith",
	OperatorEndsWith:     "endsWith",
	OperatorGreaterThan:  "greaterThan",
	OperatorGreaterEqual: "greaterEqual",
	OperatorLessThan:     "lessThan",
	OperatorLessEqual:    "lessEqual",
}

var operatorsByName = map[string]Operator{
	"equals":       OperatorEquals,
	"notEquals":    OperatorNotEquals,
	"contains":     OperatorContains,
	"notContains":  OperatorNotContains,
	"startsWith":   OperatorStartsWith,
	"endsWith":     OperatorEndsWith,
	"greaterThan":  OperatorGreaterThan,
	"greaterEqual": OperatorGreaterEqual,
	"lessThan":     OperatorLessThan,
	"lessEqual":    OperatorLessEqual,

	// symbolic aliases
	"==": OperatorEquals,
	"!=": OperatorNotEquals,
	">":  OperatorGreaterThan,
	">=": OperatorGreaterEqual,
	"<":  OperatorLessThan,
	"<=": OperatorLessEqual,
}

// ParseOperator maps operator text to an Operator. Names are matched
// exactly; unknown text yields OperatorUnknown.
func ParseOperator(s string) Operator {
	if op, ok := operatorsByName[strings.TrimSpace(s)]; ok {
		return op
	}
	return OperatorUnknown
}

// String returns the canonical operator name.
func (o Operator) String() string {
	if int(o) < len(operatorNames) {
		return operatorNames[o]
	}
	return "unknown"
}

// Conjunction joins the children of a logical expression.
type Conjunction uint8

const (
	ConjunctionUnknown Conjunction = iota
	ConjunctionAnd
	ConjunctionOr
)

// ParseConjunction maps "and" or "or" (any case) to a Conjunction.
func ParseConjunction(s string) Conjunction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "and":
		return ConjunctionAnd
	case "or":
		return ConjunctionOr
	default:
		return ConjunctionUnknown
	}
}

// String returns "and", "or" or "unknown".
func (c Conjunction) String() string {
	switch c {
	case ConjunctionAnd:
		return "and"
	case ConjunctionOr:
		return "or"
	default:
		return "unknown"
	}
}

// UnaryOperator tests an operand for presence.
type UnaryOperator uint8

const (
	UnaryUnknown UnaryOperator = iota
	UnaryExists
	UnaryNotExist
)

// ParseUnaryOperator maps "exists" or "notExist" to a UnaryOperator.
func ParseUnaryOperator(s string) UnaryOperator {
	switch strings.TrimSpace(s) {
	case "exists":
		return UnaryExists
	case "notExist":
		return UnaryNotExist
	default:
		return UnaryUnknown
	}
}

// String returns the operator name.
func (u UnaryOperator) String() string {
	switch u {
	case UnaryExists:
		return "exists"
	case UnaryNotExist:
		return "notExist"
	default:
		return "unknown"
	}
}
