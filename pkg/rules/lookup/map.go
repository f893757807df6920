package lookup

import (
	"encoding/json"
	"strconv"
	"strings"

	"mercator-hq/rulekit/pkg/rules/template"
	"mercator-hq/rulekit/pkg/rules/value"
)

// Map is a Lookup over nested Go maps such as decoded JSON or YAML. A key
// is first matched verbatim against the top level; failing that it is split
// on dots and walked through nested maps and slices ("device.os.version",
// "items.0.sku"). Leaves that are not scalars are absent.
type Map map[string]interface{}

// Lookup resolves key.
func (m Map) Lookup(key string) value.Value {
	if v, ok := m[key]; ok {
		return scalar(v)
	}
	if !strings.Contains(key, ".") {
		return value.Absent()
	}

	var cur interface{} = map[string]interface{}(m)
	for _, part := range strings.Split(key, ".") {
		next, ok := child(cur, part)
		if !ok {
			return value.Absent()
		}
		cur = next
	}
	return scalar(cur)
}

func child(node interface{}, part string) (interface{}, bool) {
	switch n := node.(type) {
	case map[string]interface{}:
		v, ok := n[part]
		return v, ok
	case Map:
		v, ok := n[part]
		return v, ok
	case map[interface{}]interface{}:
		v, ok := n[part]
		return v, ok
	case []interface{}:
		i, err := strconv.Atoi(part)
		if err != nil || i < 0 || i >= len(n) {
			return nil, false
		}
		return n[i], true
	default:
		return nil, false
	}
}

// scalar converts a decoded leaf into a Value.
func scalar(v interface{}) value.Value {
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return value.Int(i)
		}
		if f, err := n.Float64(); err == nil {
			return value.Float(f)
		}
		return value.Absent()
	}
	return value.Of(v)
}

// Chain consults each Lookup in order and returns the first present value.
type Chain []template.Lookup

// Lookup resolves key against every lookup in turn.
func (c Chain) Lookup(key string) value.Value {
	for _, l := range c {
		if l == nil {
			continue
		}
		if v := l.Lookup(key); v.Present() {
			return v
		}
	}
	return value.Absent()
}
