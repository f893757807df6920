package lookup

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"gopkg.in/yaml.v3"

	"mercator-hq/rulekit/pkg/rules/value"
)

// Document is a Lookup whose keys are JSONPath expressions evaluated against
// a decoded document. Keys without a leading "$" are treated as paths from
// the root, so "device.os" and "$.device.os" are the same key. The first
// match wins; invalid paths and non-scalar matches are absent.
type Document struct {
	data  interface{}
	paths sync.Map // key -> jp.Expr, nil for keys that do not parse
}

// NewDocument wraps already-decoded data.
func NewDocument(data interface{}) *Document {
	return &Document{data: data}
}

// ParseJSON decodes a JSON document. Integers decode as int64 and other
// numbers as float64.
func ParseJSON(b []byte) (*Document, error) {
	data, err := oj.Parse(b)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JSON document: %w", err)
	}
	return NewDocument(data), nil
}

// ParseYAML decodes a YAML document.
func ParseYAML(b []byte) (*Document, error) {
	var data interface{}
	if err := yaml.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("failed to parse YAML document: %w", err)
	}
	return NewDocument(data), nil
}

// Parse decodes JSON when b looks like a JSON object or array and YAML
// otherwise.
func Parse(b []byte) (*Document, error) {
	trimmed := strings.TrimSpace(string(b))
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return ParseJSON(b)
	}
	return ParseYAML(b)
}

// Data returns the decoded document.
func (d *Document) Data() interface{} {
	return d.data
}

// Lookup evaluates key as a JSONPath and returns the first scalar match.
func (d *Document) Lookup(key string) value.Value {
	expr := d.expr(key)
	if expr == nil {
		return value.Absent()
	}
	results := expr.Get(d.data)
	if len(results) == 0 {
		return value.Absent()
	}
	return scalar(results[0])
}

func (d *Document) expr(key string) jp.Expr {
	if cached, ok := d.paths.Load(key); ok {
		expr, _ := cached.(jp.Expr)
		return expr
	}

	path := strings.TrimSpace(key)
	if path == "" {
		d.paths.Store(key, nil)
		return nil
	}
	if !strings.HasPrefix(path, "$") {
		path = "$." + path
	}

	expr, err := jp.ParseString(path)
	if err != nil {
		d.paths.Store(key, nil)
		return nil
	}
	d.paths.Store(key, expr)
	return expr
}
