package consteval

import (
	"fmt"
	"math"

	"shadec/internal/types"
)

const (
	maxF32 = math.MaxFloat32
	maxF16 = 65504.0
)

// Materialize converts v to ty following the automatic conversion rules:
// values must be exactly representable in the target range.
func Materialize(in *types.Interner, v Value, ty types.TypeID) (Value, error) {
	return convert(in, v, ty, false)
}

// convertValue implements explicit value conversions (f32(x), vec3<i32>(v)):
// integers wrap, floats truncate toward zero and saturate.
func convertValue(in *types.Interner, v Value, ty types.TypeID) (Value, error) {
	return convert(in, v, ty, true)
}

func convert(in *types.Interner, v Value, ty types.TypeID, explicit bool) (Value, error) {
	if v.Type == ty {
		return v, nil
	}
	target, ok := in.Lookup(ty)
	if !ok {
		return Value{}, fmt.Errorf("%w: no target type", ErrUnsupported)
	}
	if v.IsComposite() {
		switch target.Kind {
		case types.KindVector, types.KindMatrix, types.KindArray:
		default:
			return Value{}, fmt.Errorf("%w: %s to %s", ErrUnsupported, types.Label(in, v.Type), types.Label(in, ty))
		}
		elems := make([]Value, len(v.Elems))
		for i, el := range v.Elems {
			cv, err := convert(in, el, in.ElementOf(ty), explicit)
			if err != nil {
				return Value{}, err
			}
			elems[i] = cv
		}
		return Composite(ty, elems), nil
	}
	from := in.KindOf(v.Type)
	switch {
	case target.Kind == types.KindBool:
		switch {
		case from == types.KindBool:
			return v, nil
		case from.IsInteger():
			return BoolValue(in, v.Int != 0), nil
		case from.IsFloat():
			return BoolValue(in, v.Float != 0), nil
		}
	case target.Kind.IsInteger():
		switch {
		case from == types.KindBool:
			return IntValue(ty, boolToInt(v.Bool)), nil
		case from.IsInteger():
			if explicit {
				return IntValue(ty, wrapInt(target.Kind, v.Int)), nil
			}
			return checkInt(in, ty, v.Int)
		case from.IsFloat():
			if !explicit {
				return Value{}, fmt.Errorf("%w: %s to %s", ErrUnsupported, types.Label(in, v.Type), types.Label(in, ty))
			}
			return IntValue(ty, saturateInt(target.Kind, v.Float)), nil
		}
	case target.Kind.IsFloat():
		switch {
		case from == types.KindBool:
			return FloatValue(ty, float64(boolToInt(v.Bool))), nil
		case from.IsInteger():
			return checkFloat(in, ty, float64(v.Int))
		case from.IsFloat():
			return checkFloat(in, ty, v.Float)
		}
	}
	return Value{}, fmt.Errorf("%w: %s to %s", ErrUnsupported, types.Label(in, v.Type), types.Label(in, ty))
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func intRange(k types.Kind) (lo, hi int64) {
	switch k {
	case types.KindI32:
		return math.MinInt32, math.MaxInt32
	case types.KindU32:
		return 0, math.MaxUint32
	}
	return math.MinInt64, math.MaxInt64
}

// checkInt validates that v fits the integer type ty.
func checkInt(in *types.Interner, ty types.TypeID, v int64) (Value, error) {
	lo, hi := intRange(in.KindOf(ty))
	if v < lo || v > hi {
		return Value{}, fmt.Errorf("%w: %d as %s", ErrOverflow, v, types.Label(in, ty))
	}
	return IntValue(ty, v), nil
}

// checkFloat validates that f is finite and within the range of ty, rounding
// to the precision of the target.
func checkFloat(in *types.Interner, ty types.TypeID, f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, fmt.Errorf("%w: %v as %s", ErrOverflow, f, types.Label(in, ty))
	}
	switch in.KindOf(ty) {
	case types.KindF32:
		if math.Abs(f) > maxF32 {
			return Value{}, fmt.Errorf("%w: %v as f32", ErrOverflow, f)
		}
		f = float64(float32(f))
	case types.KindF16:
		// f16 precision is approximated with f32 rounding; only the range is exact.
		if math.Abs(f) > maxF16 {
			return Value{}, fmt.Errorf("%w: %v as f16", ErrOverflow, f)
		}
		f = float64(float32(f))
	}
	return FloatValue(ty, f), nil
}

func wrapInt(k types.Kind, v int64) int64 {
	switch k {
	case types.KindI32:
		return int64(int32(v))
	case types.KindU32:
		return int64(uint32(v))
	}
	return v
}

func saturateInt(k types.Kind, f float64) int64 {
	lo, hi := intRange(k)
	switch {
	case math.IsNaN(f):
		return 0
	case f <= float64(lo):
		return lo
	case f >= float64(hi):
		return hi
	}
	return int64(math.Trunc(f))
}
