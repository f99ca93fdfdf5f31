package types

import (
	"fmt"
	"sync"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs for primitive types.
type Builtins struct {
	Any               TypeID
	Void              TypeID
	Bool              TypeID
	AbstractInt       TypeID
	AbstractFloat     TypeID
	I32               TypeID
	U32               TypeID
	F32               TypeID
	F16               TypeID
	Sampler           TypeID
	ComparisonSampler TypeID
}

// Interner provides stable TypeIDs by hashing structural descriptors.
// It is safe for concurrent use: overload resolution running on several
// goroutines builds composite types through the same interner.
type Interner struct {
	mu       sync.RWMutex
	types    []Type
	index    map[Type]TypeID
	builtins Builtins
}

// NewInterner constructs an interner seeded with built-in primitives.
func NewInterner() *Interner {
	in := &Interner{
		index: make(map[Type]TypeID, 64),
	}
	in.types = append(in.types, Type{Kind: KindInvalid}) // reserve 0 as NoTypeID
	in.builtins.Any = in.Intern(Type{Kind: KindAny})
	in.builtins.Void = in.Intern(Type{Kind: KindVoid})
	in.builtins.Bool = in.Intern(Type{Kind: KindBool})
	in.builtins.AbstractInt = in.Intern(Type{Kind: KindAbstractInt})
	in.builtins.AbstractFloat = in.Intern(Type{Kind: KindAbstractFloat})
	in.builtins.I32 = in.Intern(Type{Kind: KindI32})
	in.builtins.U32 = in.Intern(Type{Kind: KindU32})
	in.builtins.F32 = in.Intern(Type{Kind: KindF32})
	in.builtins.F16 = in.Intern(Type{Kind: KindF16})
	in.builtins.Sampler = in.Intern(Type{Kind: KindSampler})
	in.builtins.ComparisonSampler = in.Intern(Type{Kind: KindComparisonSampler})
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	in.mu.RLock()
	id, ok := in.index[t]
	in.mu.RUnlock()
	if ok {
		return id
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.index[t]; ok {
		return id
	}
	n, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id = TypeID(n)
	in.types = append(in.types, t)
	in.index[t] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID {
		return Type{}, false
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	if int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// KindOf returns the kind of id, or KindInvalid.
func (in *Interner) KindOf(id TypeID) Kind {
	tt, ok := in.Lookup(id)
	if !ok {
		return KindInvalid
	}
	return tt.Kind
}

// Scalar returns the builtin id for a scalar (or nullary) kind.
func (in *Interner) Scalar(k Kind) TypeID {
	switch k {
	case KindAny:
		return in.builtins.Any
	case KindVoid:
		return in.builtins.Void
	case KindBool:
		return in.builtins.Bool
	case KindAbstractInt:
		return in.builtins.AbstractInt
	case KindAbstractFloat:
		return in.builtins.AbstractFloat
	case KindI32:
		return in.builtins.I32
	case KindU32:
		return in.builtins.U32
	case KindF32:
		return in.builtins.F32
	case KindF16:
		return in.builtins.F16
	case KindSampler:
		return in.builtins.Sampler
	case KindComparisonSampler:
		return in.builtins.ComparisonSampler
	}
	return NoTypeID
}

// Vec interns vecN<elem>.
func (in *Interner) Vec(width uint32, elem TypeID) TypeID {
	return in.Intern(MakeVector(width, elem))
}

// Mat interns matCxR<elem>.
func (in *Interner) Mat(cols, rows uint32, elem TypeID) TypeID {
	return in.Intern(MakeMatrix(cols, rows, elem))
}

// Array interns array<elem, count>.
func (in *Interner) Array(elem TypeID, count uint32) TypeID {
	return in.Intern(MakeArray(elem, count))
}

// RuntimeArray interns array<elem>.
func (in *Interner) RuntimeArray(elem TypeID) TypeID {
	return in.Intern(MakeRuntimeArray(elem))
}

// Atomic interns atomic<elem>.
func (in *Interner) Atomic(elem TypeID) TypeID {
	return in.Intern(MakeAtomic(elem))
}

// Pointer interns ptr<space, elem, access>.
func (in *Interner) Pointer(space AddressSpace, elem TypeID, access Access) TypeID {
	return in.Intern(MakePointer(space, elem, access))
}

// IsAny reports whether id is the matching-only Any sentinel.
func (in *Interner) IsAny(id TypeID) bool {
	return id != NoTypeID && id == in.builtins.Any
}

// IsAbstract reports whether id is abstract or is a composite of abstract elements.
func (in *Interner) IsAbstract(id TypeID) bool {
	tt, ok := in.Lookup(id)
	if !ok {
		return false
	}
	switch tt.Kind {
	case KindAbstractInt, KindAbstractFloat:
		return true
	case KindVector, KindMatrix, KindArray:
		return in.IsAbstract(tt.Elem)
	}
	return false
}

// DeepestElement returns the scalar at the bottom of vectors, matrices and arrays.
func (in *Interner) DeepestElement(id TypeID) TypeID {
	for {
		tt, ok := in.Lookup(id)
		if !ok {
			return NoTypeID
		}
		switch tt.Kind {
		case KindVector, KindMatrix, KindArray:
			id = tt.Elem
		default:
			return id
		}
	}
}

// Concrete returns the default materialization of id: abstract-int becomes
// i32 and abstract-float becomes f32, element-wise for composites.
func (in *Interner) Concrete(id TypeID) TypeID {
	tt, ok := in.Lookup(id)
	if !ok {
		return id
	}
	switch tt.Kind {
	case KindAbstractInt:
		return in.builtins.I32
	case KindAbstractFloat:
		return in.builtins.F32
	case KindVector, KindMatrix, KindArray:
		elem := in.Concrete(tt.Elem)
		if elem == tt.Elem {
			return id
		}
		tt.Elem = elem
		return in.Intern(tt)
	}
	return id
}

// ElementOf returns the element type of a composite: the column vector for
// matrices, the component for vectors and arrays, NoTypeID otherwise.
func (in *Interner) ElementOf(id TypeID) TypeID {
	tt, ok := in.Lookup(id)
	if !ok {
		return NoTypeID
	}
	switch tt.Kind {
	case KindMatrix:
		return in.Vec(tt.Rows, tt.Elem)
	case KindVector, KindArray, KindAtomic, KindPointer:
		return tt.Elem
	}
	return NoTypeID
}
