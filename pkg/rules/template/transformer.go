package template

import "sort"

// TransformFunc maps one text value to text. Returning false means "no
// transformation" and renders as absence. Implementations must not panic.
type TransformFunc func(input string) (string, bool)

// Transformer is the host-registered set of transform functions that
// placeholders can call as name(argKey).
//
// Register every function before evaluation starts. Once populated the
// registry is only read, so concurrent renders need no locking.
type Transformer struct {
	funcs map[string]TransformFunc
}

// NewTransformer creates an empty registry.
func NewTransformer() *Transformer {
	return &Transformer{funcs: make(map[string]TransformFunc)}
}

// Register adds fn under name, replacing any earlier registration. The zero
// Transformer is ready to use; on a nil *Transformer Register returns a new
// registry holding fn.
func (t *Transformer) Register(name string, fn TransformFunc) *Transformer {
	if t == nil {
		t = NewTransformer()
	}
	if t.funcs == nil {
		t.funcs = make(map[string]TransformFunc)
	}
	if fn == nil {
		delete(t.funcs, name)
		return t
	}
	t.funcs[name] = fn
	return t
}

// Transform applies the function registered under name. It reports false for
// unknown names and for a nil registry.
func (t *Transformer) Transform(name, input string) (string, bool) {
	if t == nil {
		return "", false
	}
	fn, ok := t.funcs[name]
	if !ok {
		return "", false
	}
	return fn(input)
}

// Has reports whether name is registered.
func (t *Transformer) Has(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.funcs[name]
	return ok
}

// Names returns the registered names in sorted order.
func (t *Transformer) Names() []string {
	if t == nil {
		return nil
	}
	names := make([]string, 0, len(t.funcs))
	for name := range t.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
