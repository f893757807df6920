package condition

import "fmt"

// FailureKind categorises why an evaluation did not succeed.
type FailureKind uint8

const (
	// FailureNone marks a successful result.
	FailureNone FailureKind = iota

	// FailureConditionFailed means every operand was present but the
	// predicate was false.
	FailureConditionFailed

	// FailureMissingOperand means a required operand resolved to absence.
	FailureMissingOperand

	// FailureUnknownOperator means an operator or conjunction was not
	// recognised.
	FailureUnknownOperator
)

var failureKindNames = [...]string{
	FailureNone:            "none",
	FailureConditionFailed: "condition_failed",
	FailureMissingOperand:  "missing_operand",
	FailureUnknownOperator: "unknown_operator",
}

// String returns the snake_case name of the kind.
func (k FailureKind) String() string {
	if int(k) < len(failureKindNames) {
		return failureKindNames[k]
	}
	return fmt.Sprintf("failure_kind(%d)", uint8(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k FailureKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *FailureKind) UnmarshalText(text []byte) error {
	for i, name := range failureKindNames {
		if name == string(text) {
			*k = FailureKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown failure kind %q", text)
}

// Result is the outcome of evaluating an expression. Results are plain
// values built fresh by each evaluation.
type Result struct {
	Success bool        `json:"success"`
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message,omitempty"`
}

// Succeeded returns a successful result.
func Succeeded() Result {
	return Result{Success: true, Kind: FailureNone}
}

// Failed returns an unsuccessful result of the given kind.
func Failed(kind FailureKind, format string, args ...interface{}) Result {
	return Result{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (r Result) String() string {
	if r.Success {
		return "success"
	}
	return fmt.Sprintf("%s: %s", r.Kind, r.Message)
}
