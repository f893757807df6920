package template

import (
	"regexp"
	"strings"

	"mercator-hq/rulekit/pkg/rules/value"
)

// funcCallPattern matches name(argKey). The argument may be a dotted key.
var funcCallPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\(\s*([A-Za-z_][A-Za-z0-9_.\-]*)\s*\)$`)

// Token is the parsed inner content of a placeholder: either a plain key
// lookup or a single-argument transform call.
type Token struct {
	// Key is the lookup key (the argument key for function calls).
	Key string

	// Function is the transform name, empty for plain lookups.
	Function string
}

// ParseToken parses the content between a pair of delimiters. Surrounding
// whitespace is ignored. Content that is not a function call is a key, so
// parsing never fails.
func ParseToken(inner string) Token {
	inner = strings.TrimSpace(inner)
	if m := funcCallPattern.FindStringSubmatch(inner); m != nil {
		return Token{Function: m[1], Key: m[2]}
	}
	return Token{Key: inner}
}

// IsFunction reports whether the token calls a transform.
func (t Token) IsFunction() bool {
	return t.Function != ""
}

// Resolve returns the typed value the token stands for. A plain key resolves
// to the raw lookup value. A function call resolves its argument through
// lookup, coerces it to text, and yields the transform output as text, or
// absence if the transform is not registered or declines the input.
func (t Token) Resolve(lookup Lookup, transformer *Transformer) value.Value {
	if !t.IsFunction() {
		if lookup == nil {
			return value.Absent()
		}
		return lookup.Lookup(t.Key)
	}

	var arg string
	if lookup != nil {
		arg = lookup.Lookup(t.Key).String()
	}
	out, ok := transformer.Transform(t.Function, arg)
	if !ok {
		return value.Absent()
	}
	return value.Text(out)
}
