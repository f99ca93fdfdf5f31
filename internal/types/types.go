package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// IsValid reports whether the id refers to an interned type.
func (id TypeID) IsValid() bool { return id != NoTypeID }

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	// KindAny is a matching-only sentinel. It never appears in resolved signatures.
	KindAny
	KindVoid
	KindBool
	KindAbstractInt
	KindAbstractFloat
	KindI32
	KindU32
	KindF32
	KindF16
	KindVector
	KindMatrix
	KindArray
	KindAtomic
	KindPointer
	KindSampler
	KindComparisonSampler
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindAny:
		return "any"
	case KindVoid:
		return "void"
	case KindBool:
		return "bool"
	case KindAbstractInt:
		return "abstract-int"
	case KindAbstractFloat:
		return "abstract-float"
	case KindI32:
		return "i32"
	case KindU32:
		return "u32"
	case KindF32:
		return "f32"
	case KindF16:
		return "f16"
	case KindVector:
		return "vector"
	case KindMatrix:
		return "matrix"
	case KindArray:
		return "array"
	case KindAtomic:
		return "atomic"
	case KindPointer:
		return "ptr"
	case KindSampler:
		return "sampler"
	case KindComparisonSampler:
		return "sampler_comparison"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// IsScalar reports whether k is one of the scalar kinds (abstract ones included).
func (k Kind) IsScalar() bool {
	switch k {
	case KindBool, KindAbstractInt, KindAbstractFloat, KindI32, KindU32, KindF32, KindF16:
		return true
	}
	return false
}

// IsAbstract reports whether k is abstract-int or abstract-float.
func (k Kind) IsAbstract() bool {
	return k == KindAbstractInt || k == KindAbstractFloat
}

// IsNumeric reports whether k is a numeric scalar kind.
func (k Kind) IsNumeric() bool {
	return k.IsScalar() && k != KindBool
}

// IsInteger reports whether k is an integer scalar kind.
func (k Kind) IsInteger() bool {
	return k == KindAbstractInt || k == KindI32 || k == KindU32
}

// IsFloat reports whether k is a floating point scalar kind.
func (k Kind) IsFloat() bool {
	return k == KindAbstractFloat || k == KindF32 || k == KindF16
}

// ArrayRuntimeLength marks runtime-sized arrays (array<T>).
const ArrayRuntimeLength = ^uint32(0)

// Type is a compact descriptor for any supported type.
type Type struct {
	Kind   Kind
	Elem   TypeID
	Count  uint32 // vector width, matrix columns, array length
	Rows   uint32 // matrix rows
	Space  AddressSpace
	Access Access
}

// Descriptor helpers ---------------------------------------------------------

// MakeVector describes vecN<elem>.
func MakeVector(width uint32, elem TypeID) Type {
	return Type{Kind: KindVector, Elem: elem, Count: width}
}

// MakeMatrix describes matCxR<elem>.
func MakeMatrix(cols, rows uint32, elem TypeID) Type {
	return Type{Kind: KindMatrix, Elem: elem, Count: cols, Rows: rows}
}

// MakeArray describes a fixed-size array<elem, count>.
func MakeArray(elem TypeID, count uint32) Type {
	return Type{Kind: KindArray, Elem: elem, Count: count}
}

// MakeRuntimeArray describes a runtime-sized array<elem>.
func MakeRuntimeArray(elem TypeID) Type {
	return Type{Kind: KindArray, Elem: elem, Count: ArrayRuntimeLength}
}

// MakeAtomic describes atomic<elem>.
func MakeAtomic(elem TypeID) Type {
	return Type{Kind: KindAtomic, Elem: elem}
}

// MakePointer describes ptr<space, elem, access>.
func MakePointer(space AddressSpace, elem TypeID, access Access) Type {
	return Type{Kind: KindPointer, Elem: elem, Space: space, Access: access}
}
