package record

import (
	"cmp"
	"strings"

	"golang.org/x/text/cases"
)

// Compare returns -1, 0 or +1 ordering a before, equal to, or after b.
//
// The order is total and never fails: null coerces to the zero value of
// the other operand's kind, numbers compare across Int and Float, and
// otherwise unrelated kinds order by Kind.
func Compare(a, b Value) int {
	if a.IsNull() && b.IsNull() {
		return 0
	}
	if a.IsNull() {
		a = zeroOf(b.Kind)
	} else if b.IsNull() {
		b = zeroOf(a.Kind)
	}

	if isNumeric(a.Kind) && isNumeric(b.Kind) {
		if a.Kind == KindInt && b.Kind == KindInt {
			return cmp.Compare(a.I64, b.I64)
		}
		return cmp.Compare(toFloat(a), toFloat(b))
	}

	if a.Kind != b.Kind {
		return cmp.Compare(a.Kind, b.Kind)
	}

	switch a.Kind {
	case KindString:
		return strings.Compare(a.s.Value(), b.s.Value())
	case KindBool:
		switch {
		case a.B == b.B:
			return 0
		case !a.B:
			return -1
		default:
			return 1
		}
	case KindDate:
		return cmp.Compare(a.I64, b.I64)
	case KindArray:
		n := min(len(a.A), len(b.A))
		for i := 0; i < n; i++ {
			if c := Compare(a.A[i], b.A[i]); c != 0 {
				return c
			}
		}
		return cmp.Compare(len(a.A), len(b.A))
	}
	return 0
}

// CompareFold is Compare with Unicode case folding applied to strings.
func CompareFold(a, b Value) int {
	as, aok := foldable(a, b)
	bs, bok := foldable(b, a)
	if aok && bok {
		return strings.Compare(Fold(as), Fold(bs))
	}
	return Compare(a, b)
}

// Equal reports whether a and b compare equal under Compare.
func Equal(a, b Value) bool { return Compare(a, b) == 0 }

// Fold returns the case-folded form of s.
func Fold(s string) string {
	// A Caser carries state, so one is made per call.
	return cases.Fold().String(s)
}

func foldable(v, other Value) (string, bool) {
	if v.IsNull() && other.Kind == KindString {
		return "", true
	}
	return v.AsString()
}

func zeroOf(k Kind) Value {
	switch k {
	case KindInt:
		return Int(0)
	case KindFloat:
		return Float(0)
	case KindString:
		return String("")
	case KindBool:
		return Bool(false)
	case KindDate:
		return Value{Kind: KindDate}
	case KindArray:
		return Array(nil)
	default:
		return Null()
	}
}

func isNumeric(k Kind) bool { return k == KindInt || k == KindFloat }

func toFloat(v Value) float64 {
	if v.Kind == KindInt {
		return float64(v.I64)
	}
	return v.F64
}
