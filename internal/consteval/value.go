// Package consteval evaluates intrinsic calls whose arguments are all
// constant. The resolver never calls into this package: it only hands back
// the Function linked to the chosen overload.
package consteval

import (
	"errors"
	"strconv"
	"strings"

	"shadec/internal/types"
)

var (
	ErrOverflow     = errors.New("value is not representable in the result type")
	ErrDivideByZero = errors.New("integer division by zero")
	ErrUnsupported  = errors.New("unsupported constant operand")
)

// Value is a constant of a scalar or composite type. Integers (including u32)
// live in Int, floats in Float. Vectors, matrices (as columns) and arrays hold
// their elements in Elems.
type Value struct {
	Type  types.TypeID
	Bool  bool
	Int   int64
	Float float64
	Elems []Value
}

// Function evaluates one overload. Arguments have already been converted to the
// overload's parameter types.
type Function func(in *types.Interner, result types.TypeID, args []Value) (Value, error)

// BoolValue makes a bool constant.
func BoolValue(in *types.Interner, b bool) Value {
	return Value{Type: in.Builtins().Bool, Bool: b}
}

// IntValue makes an integer constant of type ty.
func IntValue(ty types.TypeID, v int64) Value {
	return Value{Type: ty, Int: v}
}

// FloatValue makes a floating point constant of type ty.
func FloatValue(ty types.TypeID, f float64) Value {
	return Value{Type: ty, Float: f}
}

// Composite makes a vector, matrix or array constant.
func Composite(ty types.TypeID, elems []Value) Value {
	return Value{Type: ty, Elems: elems}
}

// IsComposite reports whether v holds elements.
func (v Value) IsComposite() bool { return len(v.Elems) > 0 }

// Format renders v in WGSL-like syntax with literal suffixes.
func Format(in *types.Interner, v Value) string {
	var b strings.Builder
	writeValue(&b, in, v)
	return b.String()
}

func writeValue(b *strings.Builder, in *types.Interner, v Value) {
	if v.IsComposite() {
		b.WriteString(types.Label(in, v.Type))
		b.WriteByte('(')
		for i, el := range v.Elems {
			if i > 0 {
				b.WriteString(", ")
			}
			writeValue(b, in, el)
		}
		b.WriteByte(')')
		return
	}
	switch in.KindOf(v.Type) {
	case types.KindBool:
		b.WriteString(strconv.FormatBool(v.Bool))
	case types.KindAbstractInt:
		b.WriteString(strconv.FormatInt(v.Int, 10))
	case types.KindI32:
		b.WriteString(strconv.FormatInt(v.Int, 10))
		b.WriteByte('i')
	case types.KindU32:
		b.WriteString(strconv.FormatInt(v.Int, 10))
		b.WriteByte('u')
	case types.KindAbstractFloat:
		b.WriteString(formatFloat(v.Float))
	case types.KindF32:
		b.WriteString(formatFloat(v.Float))
		b.WriteByte('f')
	case types.KindF16:
		b.WriteString(formatFloat(v.Float))
		b.WriteByte('h')
	default:
		b.WriteByte('?')
	}
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}
