package consteval

import (
	"fmt"

	"shadec/internal/types"
)

// scalarFn computes one element of an element-wise operation. xs are the
// scalar operands at the same position, result the scalar result type.
type scalarFn func(in *types.Interner, result types.TypeID, xs []Value) (Value, error)

// elementwise applies fn across composite operands, broadcasting scalar
// operands to every position of the composite result.
func elementwise(in *types.Interner, result types.TypeID, args []Value, fn scalarFn) (Value, error) {
	rt, ok := in.Lookup(result)
	if !ok {
		return Value{}, fmt.Errorf("%w: no result type", ErrUnsupported)
	}
	switch rt.Kind {
	case types.KindVector, types.KindMatrix, types.KindArray:
	default:
		return fn(in, result, args)
	}
	width := 0
	for _, a := range args {
		if a.IsComposite() {
			width = len(a.Elems)
			break
		}
	}
	if width == 0 {
		return Value{}, fmt.Errorf("%w: composite result without composite operand", ErrUnsupported)
	}
	elems := make([]Value, width)
	xs := make([]Value, len(args))
	for i := 0; i < width; i++ {
		for j, a := range args {
			if a.IsComposite() {
				if len(a.Elems) != width {
					return Value{}, fmt.Errorf("%w: operand width mismatch", ErrUnsupported)
				}
				xs[j] = a.Elems[i]
			} else {
				xs[j] = a
			}
		}
		el, err := elementwise(in, in.ElementOf(result), append([]Value(nil), xs...), fn)
		if err != nil {
			return Value{}, err
		}
		elems[i] = el
	}
	return Composite(result, elems), nil
}

// numeric dispatches on the kind of the first operand.
func numeric(intFn func(a []int64) (int64, error), floatFn func(a []float64) (float64, error)) scalarFn {
	return func(in *types.Interner, result types.TypeID, xs []Value) (Value, error) {
		k := in.KindOf(xs[0].Type)
		switch {
		case k.IsInteger() && intFn != nil:
			ops := make([]int64, len(xs))
			for i, x := range xs {
				ops[i] = x.Int
			}
			v, err := intFn(ops)
			if err != nil {
				return Value{}, err
			}
			return checkInt(in, result, v)
		case k.IsFloat() && floatFn != nil:
			ops := make([]float64, len(xs))
			for i, x := range xs {
				ops[i] = x.Float
			}
			f, err := floatFn(ops)
			if err != nil {
				return Value{}, err
			}
			return checkFloat(in, result, f)
		}
		return Value{}, fmt.Errorf("%w: %s", ErrUnsupported, types.Label(in, xs[0].Type))
	}
}

// compare builds a bool-valued scalar function.
func compare(intCmp func(a, b int64) bool, floatCmp func(a, b float64) bool, boolCmp func(a, b bool) bool) scalarFn {
	return func(in *types.Interner, _ types.TypeID, xs []Value) (Value, error) {
		k := in.KindOf(xs[0].Type)
		switch {
		case k == types.KindBool && boolCmp != nil:
			return BoolValue(in, boolCmp(xs[0].Bool, xs[1].Bool)), nil
		case k.IsInteger():
			return BoolValue(in, intCmp(xs[0].Int, xs[1].Int)), nil
		case k.IsFloat():
			return BoolValue(in, floatCmp(xs[0].Float, xs[1].Float)), nil
		}
		return Value{}, fmt.Errorf("%w: %s", ErrUnsupported, types.Label(in, xs[0].Type))
	}
}
