package intrinsic

import (
	"slices"
	"strconv"

	"shadec/internal/styled"
	"shadec/internal/types"
)

// TypeMatcher accepts or rejects a type. Match returns the canonical type the
// input matches as, or NoTypeID. Passed Any, it returns the type it would
// build. Composite matchers consume their operands from the MatchState.
type TypeMatcher interface {
	Match(s *MatchState, ty types.TypeID) types.TypeID
	Print(s *MatchState, out *styled.Text)
}

// NumberMatcher is the Number counterpart of TypeMatcher.
type NumberMatcher interface {
	Match(s *MatchState, n Number) Number
	Print(s *MatchState, out *styled.Text)
}

// TemplateTypeMatcher binds or unifies a type template slot.
type TemplateTypeMatcher struct{ Slot int }

func (m TemplateTypeMatcher) Match(s *MatchState, ty types.TypeID) types.TypeID {
	if s.Types.IsAny(ty) {
		return s.Templates.TypeAt(m.Slot)
	}
	return s.Templates.Type(m.Slot, ty)
}

func (m TemplateTypeMatcher) Print(s *MatchState, out *styled.Text) {
	out.Type(s.TemplateName(m.Slot))
}

// TemplateNumberMatcher binds or checks a number template slot.
type TemplateNumberMatcher struct{ Slot int }

func (m TemplateNumberMatcher) Match(s *MatchState, n Number) Number {
	if n.IsAny() {
		return s.Templates.NumAt(m.Slot)
	}
	if s.Templates.Num(m.Slot, n) {
		return n
	}
	return NumberInvalid
}

func (m TemplateNumberMatcher) Print(s *MatchState, out *styled.Text) {
	out.Variable(s.TemplateName(m.Slot))
}

// ScalarMatcher matches one scalar or nullary type. Abstract arguments
// that convert to it are accepted and returned as the matcher's type.
// Abstract kinds only match calls evaluated at constant stage.
type ScalarMatcher struct{ Kind types.Kind }

func (m ScalarMatcher) Match(s *MatchState, ty types.TypeID) types.TypeID {
	if m.Kind.IsAbstract() && !s.AllowsAbstract() {
		return types.NoTypeID
	}
	target := s.Types.Scalar(m.Kind)
	switch {
	case s.Types.IsAny(ty), ty == target:
		return target
	case s.Types.KindOf(ty).IsAbstract() && s.Types.CanConvert(ty, target):
		return target
	}
	return types.NoTypeID
}

func (m ScalarMatcher) Print(_ *MatchState, out *styled.Text) {
	out.Type(m.Kind.String())
}

// kindPrecedence orders set members: the first acceptable member wins for Any.
var kindPrecedence = map[types.Kind]int{
	types.KindAbstractInt:   0,
	types.KindAbstractFloat: 1,
	types.KindI32:           2,
	types.KindU32:           3,
	types.KindF32:           4,
	types.KindF16:           5,
	types.KindBool:          6,
}

func precedence(k types.Kind) int {
	if p, ok := kindPrecedence[k]; ok {
		return p
	}
	return len(kindPrecedence) + int(k)
}

// TypeSetMatcher matches any scalar of a named set. A member equal to the
// argument wins; otherwise the member reached by the cheapest automatic
// conversion is chosen.
type TypeSetMatcher struct {
	Name    string
	Members []types.Kind
}

// NewTypeSetMatcher returns a set matcher with members in precedence order.
func NewTypeSetMatcher(name string, members ...types.Kind) *TypeSetMatcher {
	sorted := slices.Clone(members)
	slices.SortStableFunc(sorted, func(a, b types.Kind) int { return precedence(a) - precedence(b) })
	return &TypeSetMatcher{Name: name, Members: slices.Compact(sorted)}
}

func (m *TypeSetMatcher) allowed(s *MatchState, k types.Kind) bool {
	return !k.IsAbstract() || s.AllowsAbstract()
}

func (m *TypeSetMatcher) Match(s *MatchState, ty types.TypeID) types.TypeID {
	if s.Types.IsAny(ty) {
		for _, k := range m.Members {
			if m.allowed(s, k) {
				return s.Types.Scalar(k)
			}
		}
		return types.NoTypeID
	}
	kind := s.Types.KindOf(ty)
	if !kind.IsScalar() {
		return types.NoTypeID
	}
	if slices.Contains(m.Members, kind) && m.allowed(s, kind) {
		return ty
	}
	best, bestRank := types.NoTypeID, types.NoConversion
	for _, k := range m.Members {
		if !m.allowed(s, k) {
			continue
		}
		target := s.Types.Scalar(k)
		if rank, ok := s.Types.ConversionRank(ty, target); ok && rank < bestRank {
			best, bestRank = target, rank
		}
	}
	return best
}

func (m *TypeSetMatcher) Print(_ *MatchState, out *styled.Text) {
	for i, k := range m.Members {
		switch {
		case i == 0:
		case i == len(m.Members)-1:
			out.Plain(" or ")
		default:
			out.Plain(", ")
		}
		out.Type(k.String())
	}
}

func buildable(s *MatchState, n Number, el types.TypeID) bool {
	return n.IsValue() && el != types.NoTypeID && !s.Types.IsAny(el)
}

// VecMatcher matches vec<N, T>, consuming a number and a type operand.
type VecMatcher struct{}

func (VecMatcher) Match(s *MatchState, ty types.TypeID) types.TypeID {
	n, el := NumberAny, s.Types.Builtins().Any
	if !s.Types.IsAny(ty) {
		tt, ok := s.Types.Lookup(ty)
		if !ok || tt.Kind != types.KindVector {
			return types.NoTypeID
		}
		n, el = NumberOf(tt.Count), tt.Elem
	}
	if n = s.Num(n); !n.IsValid() {
		return types.NoTypeID
	}
	if el = s.Type(el); !buildable(s, n, el) {
		return types.NoTypeID
	}
	return s.Types.Vec(n.Value(), el)
}

func (VecMatcher) Print(s *MatchState, out *styled.Text) {
	out.Type("vec")
	s.PrintNum(out)
	out.Type("<")
	s.PrintType(out)
	out.Type(">")
}

// VecNMatcher matches vecWidth<T>.
type VecNMatcher struct{ Width uint32 }

func (m VecNMatcher) Match(s *MatchState, ty types.TypeID) types.TypeID {
	el := s.Types.Builtins().Any
	if !s.Types.IsAny(ty) {
		tt, ok := s.Types.Lookup(ty)
		if !ok || tt.Kind != types.KindVector || tt.Count != m.Width {
			return types.NoTypeID
		}
		el = tt.Elem
	}
	if el = s.Type(el); !buildable(s, NumberOf(m.Width), el) {
		return types.NoTypeID
	}
	return s.Types.Vec(m.Width, el)
}

func (m VecNMatcher) Print(s *MatchState, out *styled.Text) {
	out.Type("vec" + strconv.FormatUint(uint64(m.Width), 10) + "<")
	s.PrintType(out)
	out.Type(">")
}

// MatMatcher matches mat<C, R, T>, consuming two numbers and a type.
type MatMatcher struct{}

func (MatMatcher) Match(s *MatchState, ty types.TypeID) types.TypeID {
	c, r, el := NumberAny, NumberAny, s.Types.Builtins().Any
	if !s.Types.IsAny(ty) {
		tt, ok := s.Types.Lookup(ty)
		if !ok || tt.Kind != types.KindMatrix {
			return types.NoTypeID
		}
		c, r, el = NumberOf(tt.Count), NumberOf(tt.Rows), tt.Elem
	}
	if c = s.Num(c); !c.IsValid() {
		return types.NoTypeID
	}
	if r = s.Num(r); !r.IsValue() {
		return types.NoTypeID
	}
	if el = s.Type(el); !buildable(s, c, el) {
		return types.NoTypeID
	}
	return s.Types.Mat(c.Value(), r.Value(), el)
}

func (MatMatcher) Print(s *MatchState, out *styled.Text) {
	out.Type("mat")
	s.PrintNum(out)
	out.Type("x")
	s.PrintNum(out)
	out.Type("<")
	s.PrintType(out)
	out.Type(">")
}

// MatCRMatcher matches matColsxRows<T>.
type MatCRMatcher struct{ Cols, Rows uint32 }

func (m MatCRMatcher) Match(s *MatchState, ty types.TypeID) types.TypeID {
	el := s.Types.Builtins().Any
	if !s.Types.IsAny(ty) {
		tt, ok := s.Types.Lookup(ty)
		if !ok || tt.Kind != types.KindMatrix || tt.Count != m.Cols || tt.Rows != m.Rows {
			return types.NoTypeID
		}
		el = tt.Elem
	}
	if el = s.Type(el); !buildable(s, NumberOf(m.Cols), el) {
		return types.NoTypeID
	}
	return s.Types.Mat(m.Cols, m.Rows, el)
}

func (m MatCRMatcher) Print(s *MatchState, out *styled.Text) {
	out.Type("mat" + strconv.FormatUint(uint64(m.Cols), 10) + "x" + strconv.FormatUint(uint64(m.Rows), 10) + "<")
	s.PrintType(out)
	out.Type(">")
}

// ArrayMatcher matches the runtime-sized array<T>.
type ArrayMatcher struct{}

func (ArrayMatcher) Match(s *MatchState, ty types.TypeID) types.TypeID {
	el := s.Types.Builtins().Any
	if !s.Types.IsAny(ty) {
		tt, ok := s.Types.Lookup(ty)
		if !ok || tt.Kind != types.KindArray || tt.Count != types.ArrayRuntimeLength {
			return types.NoTypeID
		}
		el = tt.Elem
	}
	if el = s.Type(el); !buildable(s, NumberOf(0), el) {
		return types.NoTypeID
	}
	return s.Types.RuntimeArray(el)
}

func (ArrayMatcher) Print(s *MatchState, out *styled.Text) {
	out.Type("array<")
	s.PrintType(out)
	out.Type(">")
}

// AtomicMatcher matches atomic<T>.
type AtomicMatcher struct{}

func (AtomicMatcher) Match(s *MatchState, ty types.TypeID) types.TypeID {
	el := s.Types.Builtins().Any
	if !s.Types.IsAny(ty) {
		tt, ok := s.Types.Lookup(ty)
		if !ok || tt.Kind != types.KindAtomic {
			return types.NoTypeID
		}
		el = tt.Elem
	}
	if el = s.Type(el); !buildable(s, NumberOf(0), el) {
		return types.NoTypeID
	}
	return s.Types.Atomic(el)
}

func (AtomicMatcher) Print(s *MatchState, out *styled.Text) {
	out.Type("atomic<")
	s.PrintType(out)
	out.Type(">")
}

// PtrMatcher matches ptr<S, T, A>, consuming a number, a type and a number.
type PtrMatcher struct{}

func (PtrMatcher) Match(s *MatchState, ty types.TypeID) types.TypeID {
	space, el, access := NumberAny, s.Types.Builtins().Any, NumberAny
	if !s.Types.IsAny(ty) {
		tt, ok := s.Types.Lookup(ty)
		if !ok || tt.Kind != types.KindPointer {
			return types.NoTypeID
		}
		space, el, access = NumberOf(uint32(tt.Space)), tt.Elem, NumberOf(uint32(tt.Access))
	}
	if space = s.Num(space); !space.IsValue() {
		return types.NoTypeID
	}
	if el = s.Type(el); !buildable(s, space, el) {
		return types.NoTypeID
	}
	if access = s.Num(access); !access.IsValue() {
		return types.NoTypeID
	}
	return s.Types.Pointer(types.AddressSpace(space.Value()), el, types.Access(access.Value()))
}

func (PtrMatcher) Print(s *MatchState, out *styled.Text) {
	out.Type("ptr<")
	s.PrintNum(out)
	out.Type(", ")
	s.PrintType(out)
	out.Type(", ")
	s.PrintNum(out)
	out.Type(">")
}

// NumberValueMatcher matches one fixed number. Name is its spelling, e.g.
// "2" or "storage".
type NumberValueMatcher struct {
	Value uint32
	Name  string
}

func (m NumberValueMatcher) Match(_ *MatchState, n Number) Number {
	if n.IsAny() {
		return NumberOf(m.Value)
	}
	if n.IsValue() && n.Value() == m.Value {
		return n
	}
	return NumberInvalid
}

func (m NumberValueMatcher) Print(_ *MatchState, out *styled.Text) {
	out.Literal(m.Name)
}

// NumberSetMatcher matches any member of a named number set. Any
// resolves to the first member.
type NumberSetMatcher struct {
	Name    string
	Members []NumberValueMatcher
}

func (m *NumberSetMatcher) Match(s *MatchState, n Number) Number {
	if len(m.Members) == 0 {
		return NumberInvalid
	}
	if n.IsAny() {
		return NumberOf(m.Members[0].Value)
	}
	for _, v := range m.Members {
		if got := v.Match(s, n); got.IsValid() {
			return got
		}
	}
	return NumberInvalid
}

func (m *NumberSetMatcher) Print(_ *MatchState, out *styled.Text) {
	for i, v := range m.Members {
		switch {
		case i == 0:
		case i == len(m.Members)-1:
			out.Plain(" or ")
		default:
			out.Plain(", ")
		}
		out.Literal(v.Name)
	}
}
