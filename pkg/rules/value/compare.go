package value

// CompareNumbers orders two numeric values. Two ints are compared exactly;
// any other pairing is widened to float64 first. ok is false when either
// value is not numeric.
func CompareNumbers(a, b Value) (cmp int, ok bool) {
	if a.kind == KindInt && b.kind == KindInt {
		switch {
		case a.i < b.i:
			return -1, true
		case a.i > b.i:
			return 1, true
		default:
			return 0, true
		}
	}

	af, aok := a.AsFloat()
	bf, bok := b.AsFloat()
	if !aok || !bok {
		return 0, false
	}

	switch {
	case af < bf:
		return -1, true
	case af > bf:
		return 1, true
	case af == bf:
		return 0, true
	default:
		// NaN on either side orders with nothing.
		return 0, false
	}
}
