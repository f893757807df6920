package template

import "mercator-hq/rulekit/pkg/rules/value"

// Lookup resolves a key to a typed value. Implementations return an absent
// value for unknown keys and must be safe for concurrent reads when templates
// are rendered from several goroutines.
type Lookup interface {
	Lookup(key string) value.Value
}

// LookupFunc adapts a function to the Lookup interface.
type LookupFunc func(key string) value.Value

// Lookup calls f(key).
func (f LookupFunc) Lookup(key string) value.Value {
	return f(key)
}

// Values is a flat Lookup backed by a map of typed values.
type Values map[string]value.Value

// Lookup returns the value stored under key.
func (v Values) Lookup(key string) value.Value {
	return v[key]
}
