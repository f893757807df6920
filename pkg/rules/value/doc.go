// Package value defines the closed scalar value model shared by templates,
// operands and expressions.
//
// A Value is one of text, int, float, bool or absent. Absence is the uniform
// "no value" signal: lookups that miss, operands whose type does not match and
// transforms that are not registered all produce an absent Value instead of an
// error.
//
// Numbers come in two widths. Two ints compare exactly; mixing an int with a
// float, or two floats, compares after widening to float64:
//
//	a, b := value.Int(66), value.Float(55.55)
//	cmp, _ := value.CompareNumbers(a, b) // 1
//
// Conversion from Go values goes through Of, which never coerces across kinds:
// strings stay text even when they look like numbers.
package value
