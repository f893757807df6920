package value

import (
	"fmt"
	"math"
	"strconv"
)

// Kind is the runtime type of a Value.
type Kind uint8

const (
	KindAbsent Kind = iota // no value
	KindText               // string
	KindInt                // int64
	KindFloat              // float64
	KindBool               // bool
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	default:
		return "absent"
	}
}

// Value is a closed variant over the scalar types the rules engine understands.
// The zero Value is absent.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
}

// Absent returns the absent value.
func Absent() Value { return Value{} }

// Text returns a text value.
func Text(s string) Value { return Value{kind: KindText, s: s} }

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a floating-point value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Of converts a Go scalar into a Value. Nil, composite types and unsigned
// integers that overflow int64 are absent. A Value passed in is returned as is.
func Of(v interface{}) Value {
	switch val := v.(type) {
	case nil:
		return Absent()
	case Value:
		return val
	case string:
		return Text(val)
	case bool:
		return Bool(val)
	case int:
		return Int(int64(val))
	case int8:
		return Int(int64(val))
	case int16:
		return Int(int64(val))
	case int32:
		return Int(int64(val))
	case int64:
		return Int(val)
	case uint:
		return ofUnsigned(uint64(val))
	case uint8:
		return Int(int64(val))
	case uint16:
		return Int(int64(val))
	case uint32:
		return Int(int64(val))
	case uint64:
		return ofUnsigned(val)
	case float32:
		return Float(float64(val))
	case float64:
		return Float(val)
	default:
		return Absent()
	}
}

func ofUnsigned(u uint64) Value {
	if u > math.MaxInt64 {
		return Float(float64(u))
	}
	return Int(int64(u))
}

// Kind returns the runtime type of v.
func (v Value) Kind() Kind { return v.kind }

// Present reports whether v holds a value.
func (v Value) Present() bool { return v.kind != KindAbsent }

// IsText reports whether v is a text value.
func (v Value) IsText() bool { return v.kind == KindText }

// IsNumber reports whether v is an int or float value.
func (v Value) IsNumber() bool { return v.kind == KindInt || v.kind == KindFloat }

// IsBool reports whether v is a boolean value.
func (v Value) IsBool() bool { return v.kind == KindBool }

// AsText returns the string held by v.
func (v Value) AsText() (string, bool) {
	if v.kind != KindText {
		return "", false
	}
	return v.s, true
}

// AsInt returns the integer held by v.
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// AsFloat returns the numeric value held by v widened to float64.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	default:
		return 0, false
	}
}

// Interface returns v as a plain Go value (nil when absent).
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindText:
		return v.s
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	default:
		return nil
	}
}

// String coerces v to text. Absent values render as the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// GoString implements fmt.GoStringer for test failure output.
func (v Value) GoString() string {
	if v.kind == KindText {
		return fmt.Sprintf("value.Text(%q)", v.s)
	}
	return fmt.Sprintf("value.%s(%s)", v.kind, v.String())
}
