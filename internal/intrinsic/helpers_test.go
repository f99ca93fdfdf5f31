package intrinsic

import (
	"testing"

	"shadec/internal/consteval"
	"shadec/internal/types"
)

// tableBuilder assembles TableData by hand so tests can plug in mock matchers.
type tableBuilder struct {
	d *TableData
}

func newTableBuilder() *tableBuilder {
	return &tableBuilder{d: &TableData{Name: "test", Usages: []string{""}}}
}

func (b *tableBuilder) typ(m TypeMatcher) MatcherIndex {
	b.d.TypeMatchers = append(b.d.TypeMatchers, m)
	return MatcherIndex(len(b.d.TypeMatchers) - 1)
}

func (b *tableBuilder) num(m NumberMatcher) MatcherIndex {
	b.d.NumberMatchers = append(b.d.NumberMatchers, m)
	return MatcherIndex(len(b.d.NumberMatchers) - 1)
}

func (b *tableBuilder) run(ms ...MatcherIndex) MatcherIndicesIndex {
	start := MatcherIndicesIndex(len(b.d.MatcherIndices))
	b.d.MatcherIndices = append(b.d.MatcherIndices, ms...)
	return start
}

func (b *tableBuilder) usage(name string) UsageIndex {
	for i, u := range b.d.Usages {
		if u == name {
			return UsageIndex(i)
		}
	}
	b.d.Usages = append(b.d.Usages, name)
	return UsageIndex(len(b.d.Usages) - 1)
}

type tmplSpec struct {
	name       string
	kind       TemplateKind
	constraint MatcherIndicesIndex
}

type paramSpec struct {
	usage string
	run   MatcherIndicesIndex
}

type overloadSpec struct {
	templates []tmplSpec
	explicit  int
	params    []paramSpec
	ret       *MatcherIndicesIndex // nil: void
	constEval consteval.Function
	flags     OverloadFlags
}

// ty is an unconstrained type template, constrained when a run is given.
func ty(name string, constraint ...MatcherIndicesIndex) tmplSpec {
	t := tmplSpec{name: name, kind: TemplateType, constraint: InvalidMatcherIndices}
	if len(constraint) > 0 {
		t.constraint = constraint[0]
	}
	return t
}

// returns marks run as an overload's return type.
func returns(run MatcherIndicesIndex) *MatcherIndicesIndex { return &run }

func num(name string) tmplSpec {
	return tmplSpec{name: name, kind: TemplateNumber, constraint: InvalidMatcherIndices}
}

func (b *tableBuilder) overload(cs overloadSpec) OverloadInfo {
	o := OverloadInfo{
		Flags:                cs.flags,
		NumParameters:        uint8(len(cs.params)),
		NumExplicitTemplates: uint8(cs.explicit),
		NumTemplates:         uint8(len(cs.templates)),
		Templates:            InvalidTemplate,
		Parameters:           InvalidParameter,
		ReturnMatcherIndices: InvalidMatcherIndices,
		ConstEvalFunction:    InvalidConstEvalFunction,
	}
	if cs.ret != nil {
		o.ReturnMatcherIndices = *cs.ret
	}
	if len(cs.templates) > 0 {
		o.Templates = TemplateIndex(len(b.d.Templates))
		for _, t := range cs.templates {
			b.d.Templates = append(b.d.Templates, TemplateInfo{Name: t.name, Kind: t.kind, MatcherIndices: t.constraint})
		}
	}
	if len(cs.params) > 0 {
		o.Parameters = ParameterIndex(len(b.d.Parameters))
		for _, p := range cs.params {
			u := NoUsage
			if p.usage != "" {
				u = b.usage(p.usage)
			}
			b.d.Parameters = append(b.d.Parameters, ParameterInfo{Usage: u, MatcherIndices: p.run})
		}
	}
	if cs.constEval != nil {
		o.ConstEvalFunction = ConstEvalFunctionIndex(len(b.d.ConstEvalFunctions))
		b.d.ConstEvalFunctions = append(b.d.ConstEvalFunctions, cs.constEval)
		b.d.ConstEvalNames = append(b.d.ConstEvalNames, "")
	}
	return o
}

func (b *tableBuilder) intrinsic(kind Kind, name string, specs ...overloadSpec) {
	info := IntrinsicInfo{Name: name, Kind: kind, NumOverloads: uint32(len(specs)), Overloads: OverloadIndex(len(b.d.Overloads))}
	overloads := make([]OverloadInfo, len(specs))
	for i, s := range specs {
		overloads[i] = b.overload(s)
	}
	b.d.Overloads = append(b.d.Overloads, overloads...)
	b.d.Intrinsics = append(b.d.Intrinsics, info)
}

func (b *tableBuilder) table(t *testing.T) *Table {
	t.Helper()
	table, err := NewTable(b.d)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return table
}

// stdMatchers registers the matchers most tests share.
type stdMatchers struct {
	T, U      MatcherIndex // type template slots 0 and 1
	N         MatcherIndex // number template slot 0
	N1        MatcherIndex // number template slot 1
	ia, fa    MatcherIndex
	i32, u32  MatcherIndex
	f32, f16  MatcherIndex
	boolean   MatcherIndex
	fiu32     MatcherIndex
	fiaf16    MatcherIndex
	vec, vec2 MatcherIndex
	two       MatcherIndex
}

func registerStd(b *tableBuilder) stdMatchers {
	var m stdMatchers
	m.T = b.typ(TemplateTypeMatcher{Slot: 0})
	m.U = b.typ(TemplateTypeMatcher{Slot: 1})
	m.ia = b.typ(ScalarMatcher{Kind: types.KindAbstractInt})
	m.fa = b.typ(ScalarMatcher{Kind: types.KindAbstractFloat})
	m.i32 = b.typ(ScalarMatcher{Kind: types.KindI32})
	m.u32 = b.typ(ScalarMatcher{Kind: types.KindU32})
	m.f32 = b.typ(ScalarMatcher{Kind: types.KindF32})
	m.f16 = b.typ(ScalarMatcher{Kind: types.KindF16})
	m.boolean = b.typ(ScalarMatcher{Kind: types.KindBool})
	m.fiu32 = b.typ(NewTypeSetMatcher("fiu32", types.KindF32, types.KindI32, types.KindU32))
	m.fiaf16 = b.typ(NewTypeSetMatcher("fia_fiu32_f16",
		types.KindAbstractFloat, types.KindAbstractInt, types.KindF32, types.KindI32, types.KindU32, types.KindF16))
	m.vec = b.typ(VecMatcher{})
	m.vec2 = b.typ(VecNMatcher{Width: 2})

	m.N = b.num(TemplateNumberMatcher{Slot: 0})
	m.N1 = b.num(TemplateNumberMatcher{Slot: 1})
	m.two = b.num(NumberValueMatcher{Value: 2, Name: "2"})
	return m
}

func params(runs ...MatcherIndicesIndex) []paramSpec {
	out := make([]paramSpec, len(runs))
	for i, r := range runs {
		out[i] = paramSpec{run: r}
	}
	return out
}

func constFn(in *types.Interner, result types.TypeID, args []consteval.Value) (consteval.Value, error) {
	return consteval.Value{Type: result}, nil
}
