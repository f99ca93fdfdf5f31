package consteval

import (
	"fmt"
	"math"
	"math/bits"
	"sort"

	"shadec/internal/types"
)

var functions = map[string]Function{
	"abs":    elementwiseFn(numeric(absInt, absFloat)),
	"min":    elementwiseFn(numeric(minInt, minFloat)),
	"max":    elementwiseFn(numeric(maxInt, maxFloat)),
	"clamp":  elementwiseFn(numeric(clampInt, clampFloat)),
	"sign":   elementwiseFn(numeric(signInt, signFloat)),
	"select": selectFn,

	"Zero":     zeroFn,
	"Identity": identityFn,
	"Conv":     convFn,
	"VecSplat": vecSplatFn,
	"VecInitS": vecInitFn,
	"VecInitM": vecInitFn,
	"MatInitV": matInitFn,

	"OpPlus":         elementwiseFn(numeric(addInt, addFloat)),
	"OpMinus":        elementwiseFn(numeric(subInt, subFloat)),
	"OpMultiply":     elementwiseFn(numeric(mulInt, mulFloat)),
	"OpDivide":       elementwiseFn(numeric(divInt, divFloat)),
	"OpModulo":       elementwiseFn(numeric(modInt, modFloat)),
	"OpUnaryMinus":   elementwiseFn(numeric(negInt, negFloat)),
	"OpNot":          elementwiseFn(notFn),
	"OpComplement":   elementwiseFn(complementFn),
	"OpAnd":          elementwiseFn(bitwise(func(a, b int64) int64 { return a & b }, func(a, b bool) bool { return a && b })),
	"OpOr":           elementwiseFn(bitwise(func(a, b int64) int64 { return a | b }, func(a, b bool) bool { return a || b })),
	"OpXor":          elementwiseFn(bitwise(func(a, b int64) int64 { return a ^ b }, nil)),
	"OpLogicalAnd":   elementwiseFn(bitwise(nil, func(a, b bool) bool { return a && b })),
	"OpLogicalOr":    elementwiseFn(bitwise(nil, func(a, b bool) bool { return a || b })),
	"OpEqual":        elementwiseFn(compare(func(a, b int64) bool { return a == b }, func(a, b float64) bool { return a == b }, func(a, b bool) bool { return a == b })),
	"OpNotEqual":     elementwiseFn(compare(func(a, b int64) bool { return a != b }, func(a, b float64) bool { return a != b }, func(a, b bool) bool { return a != b })),
	"OpLessThan":     elementwiseFn(compare(func(a, b int64) bool { return a < b }, func(a, b float64) bool { return a < b }, nil)),
	"OpGreaterThan":  elementwiseFn(compare(func(a, b int64) bool { return a > b }, func(a, b float64) bool { return a > b }, nil)),
	"OpLessEqual":    elementwiseFn(compare(func(a, b int64) bool { return a <= b }, func(a, b float64) bool { return a <= b }, nil)),
	"OpGreaterEqual": elementwiseFn(compare(func(a, b int64) bool { return a >= b }, func(a, b float64) bool { return a >= b }, nil)),
}

// Lookup returns the function registered under name.
func Lookup(name string) (Function, bool) {
	fn, ok := functions[name]
	return fn, ok
}

// Names lists every registered function in sorted order.
func Names() []string {
	names := make([]string, 0, len(functions))
	for name := range functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func elementwiseFn(fn scalarFn) Function {
	return func(in *types.Interner, result types.TypeID, args []Value) (Value, error) {
		return elementwise(in, result, args, fn)
	}
}

func absInt(a []int64) (int64, error) {
	if a[0] == math.MinInt64 {
		return 0, ErrOverflow
	}
	if a[0] < 0 {
		return -a[0], nil
	}
	return a[0], nil
}

func absFloat(a []float64) (float64, error) { return math.Abs(a[0]), nil }

func minInt(a []int64) (int64, error)       { return min(a[0], a[1]), nil }
func minFloat(a []float64) (float64, error) { return math.Min(a[0], a[1]), nil }
func maxInt(a []int64) (int64, error)       { return max(a[0], a[1]), nil }
func maxFloat(a []float64) (float64, error) { return math.Max(a[0], a[1]), nil }

func clampInt(a []int64) (int64, error) {
	return min(max(a[0], a[1]), a[2]), nil
}

func clampFloat(a []float64) (float64, error) {
	return math.Min(math.Max(a[0], a[1]), a[2]), nil
}

func signInt(a []int64) (int64, error) {
	switch {
	case a[0] > 0:
		return 1, nil
	case a[0] < 0:
		return -1, nil
	}
	return 0, nil
}

func signFloat(a []float64) (float64, error) {
	switch {
	case a[0] > 0:
		return 1, nil
	case a[0] < 0:
		return -1, nil
	}
	return 0, nil
}

func addInt(a []int64) (int64, error) {
	s := a[0] + a[1]
	if (s > a[0]) != (a[1] > 0) {
		return 0, ErrOverflow
	}
	return s, nil
}

func subInt(a []int64) (int64, error) {
	if a[1] == math.MinInt64 {
		return 0, ErrOverflow
	}
	return addInt([]int64{a[0], -a[1]})
}

func mulInt(a []int64) (int64, error) {
	x, y := a[0], a[1]
	if x == 0 || y == 0 {
		return 0, nil
	}
	neg := (x < 0) != (y < 0)
	hi, lo := bits.Mul64(absU(x), absU(y))
	if hi != 0 || (!neg && lo > math.MaxInt64) || (neg && lo > 1<<63) {
		return 0, ErrOverflow
	}
	if neg {
		return -int64(lo-1) - 1, nil
	}
	return int64(lo), nil
}

func absU(v int64) uint64 {
	if v < 0 {
		return uint64(-(v + 1)) + 1
	}
	return uint64(v)
}

func divInt(a []int64) (int64, error) {
	if a[1] == 0 {
		return 0, ErrDivideByZero
	}
	if a[0] == math.MinInt64 && a[1] == -1 {
		return 0, ErrOverflow
	}
	return a[0] / a[1], nil
}

func modInt(a []int64) (int64, error) {
	if a[1] == 0 {
		return 0, ErrDivideByZero
	}
	if a[1] == -1 {
		return 0, nil
	}
	return a[0] % a[1], nil
}

func negInt(a []int64) (int64, error) {
	if a[0] == math.MinInt64 {
		return 0, ErrOverflow
	}
	return -a[0], nil
}

func addFloat(a []float64) (float64, error) { return a[0] + a[1], nil }
func subFloat(a []float64) (float64, error) { return a[0] - a[1], nil }
func mulFloat(a []float64) (float64, error) { return a[0] * a[1], nil }
func divFloat(a []float64) (float64, error) { return a[0] / a[1], nil }
func modFloat(a []float64) (float64, error) { return math.Mod(a[0], a[1]), nil }
func negFloat(a []float64) (float64, error) { return -a[0], nil }

func notFn(in *types.Interner, _ types.TypeID, xs []Value) (Value, error) {
	if in.KindOf(xs[0].Type) != types.KindBool {
		return Value{}, fmt.Errorf("%w: !%s", ErrUnsupported, types.Label(in, xs[0].Type))
	}
	return BoolValue(in, !xs[0].Bool), nil
}

func complementFn(in *types.Interner, result types.TypeID, xs []Value) (Value, error) {
	k := in.KindOf(xs[0].Type)
	if !k.IsInteger() {
		return Value{}, fmt.Errorf("%w: ~%s", ErrUnsupported, types.Label(in, xs[0].Type))
	}
	return IntValue(result, wrapInt(k, ^xs[0].Int)), nil
}

func bitwise(intOp func(a, b int64) int64, boolOp func(a, b bool) bool) scalarFn {
	return func(in *types.Interner, result types.TypeID, xs []Value) (Value, error) {
		k := in.KindOf(xs[0].Type)
		switch {
		case k == types.KindBool && boolOp != nil:
			return BoolValue(in, boolOp(xs[0].Bool, xs[1].Bool)), nil
		case k.IsInteger() && intOp != nil:
			return IntValue(result, wrapInt(k, intOp(xs[0].Int, xs[1].Int))), nil
		}
		return Value{}, fmt.Errorf("%w: %s", ErrUnsupported, types.Label(in, xs[0].Type))
	}
}

// selectFn implements select(f, t, cond), component-wise when cond is a vector.
func selectFn(in *types.Interner, result types.TypeID, args []Value) (Value, error) {
	if len(args) != 3 {
		return Value{}, fmt.Errorf("%w: select arity", ErrUnsupported)
	}
	cond := args[2]
	if !cond.IsComposite() {
		if cond.Bool {
			return args[1], nil
		}
		return args[0], nil
	}
	return elementwise(in, result, args, func(_ *types.Interner, _ types.TypeID, xs []Value) (Value, error) {
		if xs[2].Bool {
			return xs[1], nil
		}
		return xs[0], nil
	})
}

func zeroValue(in *types.Interner, ty types.TypeID) (Value, error) {
	tt, ok := in.Lookup(ty)
	if !ok {
		return Value{}, fmt.Errorf("%w: zero of unknown type", ErrUnsupported)
	}
	switch {
	case tt.Kind == types.KindBool:
		return BoolValue(in, false), nil
	case tt.Kind.IsInteger():
		return IntValue(ty, 0), nil
	case tt.Kind.IsFloat():
		return FloatValue(ty, 0), nil
	case tt.Kind == types.KindVector || tt.Kind == types.KindMatrix ||
		(tt.Kind == types.KindArray && tt.Count != types.ArrayRuntimeLength):
		elem, err := zeroValue(in, in.ElementOf(ty))
		if err != nil {
			return Value{}, err
		}
		elems := make([]Value, tt.Count)
		for i := range elems {
			elems[i] = elem
		}
		return Composite(ty, elems), nil
	}
	return Value{}, fmt.Errorf("%w: zero of %s", ErrUnsupported, types.Label(in, ty))
}

func zeroFn(in *types.Interner, result types.TypeID, _ []Value) (Value, error) {
	return zeroValue(in, result)
}

func identityFn(_ *types.Interner, _ types.TypeID, args []Value) (Value, error) {
	return args[0], nil
}

func convFn(in *types.Interner, result types.TypeID, args []Value) (Value, error) {
	return convertValue(in, args[0], result)
}

func vecSplatFn(in *types.Interner, result types.TypeID, args []Value) (Value, error) {
	rt, ok := in.Lookup(result)
	if !ok || rt.Kind != types.KindVector {
		return Value{}, fmt.Errorf("%w: splat into %s", ErrUnsupported, types.Label(in, result))
	}
	elems := make([]Value, rt.Count)
	for i := range elems {
		elems[i] = args[0]
	}
	return Composite(result, elems), nil
}

// vecInitFn flattens scalar and vector operands into the result vector.
func vecInitFn(in *types.Interner, result types.TypeID, args []Value) (Value, error) {
	rt, ok := in.Lookup(result)
	if !ok || rt.Kind != types.KindVector {
		return Value{}, fmt.Errorf("%w: init of %s", ErrUnsupported, types.Label(in, result))
	}
	elems := make([]Value, 0, rt.Count)
	for _, a := range args {
		if a.IsComposite() {
			elems = append(elems, a.Elems...)
		} else {
			elems = append(elems, a)
		}
	}
	if uint32(len(elems)) != rt.Count {
		return Value{}, fmt.Errorf("%w: %d components for %s", ErrUnsupported, len(elems), types.Label(in, result))
	}
	return Composite(result, elems), nil
}

// matInitFn builds a matrix from its column vectors.
func matInitFn(in *types.Interner, result types.TypeID, args []Value) (Value, error) {
	rt, ok := in.Lookup(result)
	if !ok || rt.Kind != types.KindMatrix || uint32(len(args)) != rt.Count {
		return Value{}, fmt.Errorf("%w: %d columns for %s", ErrUnsupported, len(args), types.Label(in, result))
	}
	col := in.ElementOf(result)
	cols := make([]Value, len(args))
	for i, a := range args {
		v, err := Materialize(in, a, col)
		if err != nil {
			return Value{}, err
		}
		cols[i] = v
	}
	return Composite(result, cols), nil
}
