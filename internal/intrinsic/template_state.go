package intrinsic

import "shadec/internal/types"

// TemplateState holds the template bindings of a single match attempt.
// Slots are overload-relative and grow on demand.
type TemplateState struct {
	in      *types.Interner
	types   []types.TypeID
	numbers []Number
}

// NewTemplateState returns an empty state that unifies types through in.
func NewTemplateState(in *types.Interner) *TemplateState {
	return &TemplateState{in: in}
}

// Type binds slot idx to ty if it is unbound. A bound slot is widened to the
// common type of the binding and ty; NoTypeID is returned, and the binding
// kept, when no common type exists.
func (s *TemplateState) Type(idx int, ty types.TypeID) types.TypeID {
	if idx >= len(s.types) {
		s.types = append(s.types, make([]types.TypeID, idx+1-len(s.types))...)
	}
	bound := s.types[idx]
	if bound == types.NoTypeID {
		s.types[idx] = ty
		return ty
	}
	common := s.in.Common(bound, ty)
	if common != types.NoTypeID {
		s.types[idx] = common
	}
	return common
}

// TypeAt returns the binding of slot idx, or NoTypeID.
func (s *TemplateState) TypeAt(idx int) types.TypeID {
	if idx < 0 || idx >= len(s.types) {
		return types.NoTypeID
	}
	return s.types[idx]
}

// SetType overwrites slot idx.
func (s *TemplateState) SetType(idx int, ty types.TypeID) {
	if idx >= len(s.types) {
		s.types = append(s.types, make([]types.TypeID, idx+1-len(s.types))...)
	}
	s.types[idx] = ty
}

// Num binds slot idx to n if it is unbound and reports whether n agrees with
// the binding. New slots start out as Any.
func (s *TemplateState) Num(idx int, n Number) bool {
	s.growNumbers(idx)
	bound := s.numbers[idx]
	if n.IsAny() {
		return true
	}
	if bound.IsAny() {
		s.numbers[idx] = n
		return true
	}
	return bound.IsValue() && n.IsValue() && bound.Value() == n.Value()
}

// NumAt returns the binding of slot idx, or NumberInvalid when the slot was
// never touched.
func (s *TemplateState) NumAt(idx int) Number {
	if idx < 0 || idx >= len(s.numbers) {
		return NumberInvalid
	}
	return s.numbers[idx]
}

// SetNum overwrites slot idx.
func (s *TemplateState) SetNum(idx int, n Number) {
	s.growNumbers(idx)
	s.numbers[idx] = n
}

// Count is the number of slots touched so far.
func (s *TemplateState) Count() int {
	return len(s.types) + len(s.numbers)
}

func (s *TemplateState) growNumbers(idx int) {
	for len(s.numbers) <= idx {
		s.numbers = append(s.numbers, NumberAny)
	}
}
