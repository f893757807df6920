package condition

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// CaseSensitivity selects how text comparison operators treat letter case.
type CaseSensitivity uint8

const (
	// CaseSensitive compares text byte for byte. This is the default.
	CaseSensitive CaseSensitivity = iota

	// CaseInsensitive compares the Unicode case folding of both sides.
	CaseInsensitive
)

// String returns "sensitive" or "insensitive".
func (c CaseSensitivity) String() string {
	if c == CaseInsensitive {
		return "insensitive"
	}
	return "sensitive"
}

// ParseCaseSensitivity parses "sensitive" or "insensitive". The empty string
// is CaseSensitive.
func ParseCaseSensitivity(s string) (CaseSensitivity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sensitive", "case_sensitive":
		return CaseSensitive, nil
	case "insensitive", "case_insensitive":
		return CaseInsensitive, nil
	default:
		return CaseSensitive, fmt.Errorf("unknown case sensitivity %q", s)
	}
}

// Evaluator holds the comparison policy consulted by text operators. It is a
// plain value without state; the zero Evaluator is case-sensitive.
type Evaluator struct {
	sensitivity CaseSensitivity
}

// NewEvaluator creates an evaluator with the given case policy.
func NewEvaluator(sensitivity CaseSensitivity) Evaluator {
	return Evaluator{sensitivity: sensitivity}
}

// Sensitivity returns the case policy.
func (e Evaluator) Sensitivity() CaseSensitivity {
	return e.sensitivity
}

// normalize folds s when comparisons are case-insensitive. A new Caser is
// built per call because Casers carry state and must not be shared.
func (e Evaluator) normalize(s string) string {
	if e.sensitivity != CaseInsensitive {
		return s
	}
	return cases.Fold().String(s)
}

// Equal reports whether a and b are equal under the case policy.
func (e Evaluator) Equal(a, b string) bool {
	return e.normalize(a) == e.normalize(b)
}

// Contains reports whether substr is within s under the case policy.
func (e Evaluator) Contains(s, substr string) bool {
	return strings.Contains(e.normalize(s), e.normalize(substr))
}

// HasPrefix reports whether s begins with prefix under the case policy.
func (e Evaluator) HasPrefix(s, prefix string) bool {
	return strings.HasPrefix(e.normalize(s), e.normalize(prefix))
}

// HasSuffix reports whether s ends with suffix under the case policy.
func (e Evaluator) HasSuffix(s, suffix string) bool {
	return strings.HasSuffix(e.normalize(s), e.normalize(suffix))
}
