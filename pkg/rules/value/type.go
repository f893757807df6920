package value

import (
	"fmt"
	"strings"
)

// Type is the value type an operand expects to resolve to.
type Type uint8

const (
	TypeAny    Type = iota // any present value
	TypeText               // text only
	TypeNumber             // int or float
	TypeInt                // int only
	TypeFloat              // float only
	TypeBool               // bool only
)

var typeNames = map[Type]string{
	TypeAny:    "any",
	TypeText:   "text",
	TypeNumber: "number",
	TypeInt:    "int",
	TypeFloat:  "float",
	TypeBool:   "bool",
}

// String returns the name used for t in rule documents.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// ParseType parses a type name. The empty string is TypeAny.
func ParseType(name string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "any":
		return TypeAny, nil
	case "text", "string":
		return TypeText, nil
	case "number", "numeric":
		return TypeNumber, nil
	case "int", "integer", "long":
		return TypeInt, nil
	case "float", "double":
		return TypeFloat, nil
	case "bool", "boolean":
		return TypeBool, nil
	default:
		return TypeAny, fmt.Errorf("unknown value type %q", name)
	}
}

// Accepts reports whether v is present and of a runtime kind t admits.
func (t Type) Accepts(v Value) bool {
	switch t {
	case TypeAny:
		return v.Present()
	case TypeText:
		return v.kind == KindText
	case TypeNumber:
		return v.IsNumber()
	case TypeInt:
		return v.kind == KindInt
	case TypeFloat:
		return v.kind == KindFloat
	case TypeBool:
		return v.kind == KindBool
	default:
		return false
	}
}

// Check returns v if t accepts it and absence otherwise. It never converts.
func (t Type) Check(v Value) Value {
	if t.Accepts(v) {
		return v
	}
	return Absent()
}
