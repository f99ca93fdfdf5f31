package intrinsic

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"shadec/internal/styled"
	"shadec/internal/types"
)

func TestAbstractIntPrefersI32OverF32(t *testing.T) {
	in := types.NewInterner()
	b := newTableBuilder()
	m := registerStd(b)
	b.intrinsic(KindBuiltin, "abs",
		overloadSpec{params: params(b.run(m.f32)), ret: returns(b.run(m.f32)), constEval: constFn},
		overloadSpec{params: params(b.run(m.i32)), ret: returns(b.run(m.i32)), constEval: constFn},
	)
	table := b.table(t)
	bi := in.Builtins()

	got, err := table.Lookup(in, KindBuiltin, "abs", Call{Args: ArgsOf(bi.AbstractInt), Stage: EvalConstant})
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.ReturnType != bi.I32 || got.Index != 1 {
		t.Fatalf("resolved %s (overload %d), want i32 (overload 1)", types.Label(in, got.ReturnType), got.Index)
	}
	if got.Ranks[0] != 3 {
		t.Fatalf("rank = %d, want 3", got.Ranks[0])
	}
	if got.ConstEval == nil {
		t.Fatal("const-eval function lost")
	}
}

func clampTable(t *testing.T) (*Table, stdMatchers) {
	b := newTableBuilder()
	m := registerStd(b)
	tr := b.run(m.T)
	b.intrinsic(KindBuiltin, "clamp", overloadSpec{
		templates: []tmplSpec{ty("T", b.run(m.fiaf16))},
		params:    []paramSpec{{"e", tr}, {"low", tr}, {"high", tr}},
		ret:       returns(tr),
		constEval: constFn,
	})
	return b.table(t), m
}

func TestClampUnifiesAbstractArgumentsWithF32(t *testing.T) {
	in := types.NewInterner()
	bi := in.Builtins()
	table, _ := clampTable(t)

	got, err := table.Lookup(in, KindBuiltin, "clamp", Call{
		Args:  ArgsOf(bi.AbstractInt, bi.F32, bi.AbstractInt),
		Stage: EvalConstant,
	})
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	for i, p := range got.Parameters {
		if p.Type != bi.F32 {
			t.Fatalf("parameter %d = %s, want f32", i, types.Label(in, p.Type))
		}
	}
	if got.ReturnType != bi.F32 {
		t.Fatalf("return = %s, want f32", types.Label(in, got.ReturnType))
	}
	if got.Parameters[1].Usage != "low" {
		t.Fatalf("usage = %q, want low", got.Parameters[1].Usage)
	}
}

func TestClampRejectsMixedConcreteArguments(t *testing.T) {
	in := types.NewInterner()
	bi := in.Builtins()
	table, _ := clampTable(t)

	_, err := table.Lookup(in, KindBuiltin, "clamp", Call{
		Args:  ArgsOf(bi.I32, bi.F32, bi.I32),
		Stage: EvalConstant,
	})
	if !errors.Is(err, ErrNoMatchingOverload) {
		t.Fatalf("err = %v, want no matching overload", err)
	}
	var nm *NoMatchError
	if !errors.As(err, &nm) {
		t.Fatalf("err is %T", err)
	}
	if len(nm.Candidates) != 1 {
		t.Fatalf("candidates = %d, want 1", len(nm.Candidates))
	}
	c := nm.Candidates[0]
	if c.Reason != RejectParameter || c.Index != 1 {
		t.Fatalf("candidate rejected by %s at %d, want parameter 1", c.Reason, c.Index)
	}
	msg := err.Error()
	for _, want := range []string{
		"no matching call for clamp(i32, f32, i32)",
		"clamp(e: T, low: T, high: T) -> T  where: T is abstract-int, abstract-float, i32, u32, f32 or f16",
		"argument 1 (f32) does not match T",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message lacks %q:\n%s", want, msg)
		}
	}
}

// countingMatcher records how often it is asked to match.
type countingMatcher struct {
	inner TypeMatcher
	calls *int
}

func (c countingMatcher) Match(s *MatchState, ty types.TypeID) types.TypeID {
	*c.calls++
	return c.inner.Match(s, ty)
}

func (c countingMatcher) Print(s *MatchState, out *styled.Text) { c.inner.Print(s, out) }

func TestVec2ConstructorAndArityPrefilter(t *testing.T) {
	in := types.NewInterner()
	bi := in.Builtins()
	b := newTableBuilder()
	m := registerStd(b)
	calls := 0
	counted := b.typ(countingMatcher{inner: TemplateTypeMatcher{Slot: 0}, calls: &calls})
	tr := b.run(counted)
	b.intrinsic(KindCtorConv, "vec2", overloadSpec{
		templates: []tmplSpec{ty("T")},
		explicit:  1,
		params:    []paramSpec{{"x", tr}, {"y", tr}},
		ret:       returns(b.run(m.vec, m.two, counted)),
		flags:     FlagIsConstructor,
	})
	table := b.table(t)

	got, err := table.Lookup(in, KindCtorConv, "vec2", Call{Args: ArgsOf(bi.Bool, bi.Bool), Stage: EvalRuntime})
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if want := in.Vec(2, bi.Bool); got.ReturnType != want {
		t.Fatalf("return = %s, want vec2<bool>", types.Label(in, got.ReturnType))
	}
	if !got.Flags().Has(FlagIsConstructor) {
		t.Fatalf("flags = %s", got.Flags())
	}

	calls = 0
	_, err = table.Lookup(in, KindCtorConv, "vec2", Call{Args: ArgsOf(bi.Bool, bi.Bool, bi.Bool), Stage: EvalRuntime})
	var nm *NoMatchError
	if !errors.As(err, &nm) || nm.Candidates[0].Reason != RejectParameterCount {
		t.Fatalf("err = %v, want parameter-count rejection", err)
	}
	if calls != 0 {
		t.Fatalf("matcher ran %d times on an arity-filtered overload", calls)
	}

	_, err = table.Lookup(in, KindCtorConv, "vec2", Call{Args: ArgsOf(bi.Bool, bi.Bool), TemplateArgs: []types.TypeID{bi.F32, bi.F32}})
	if !errors.As(err, &nm) || nm.Candidates[0].Reason != RejectTemplateCount {
		t.Fatalf("err = %v, want template-count rejection", err)
	}
	if calls != 0 {
		t.Fatalf("matcher ran %d times on a template-count-filtered overload", calls)
	}
}

func TestArityPrefilterSkipsOtherParameterCounts(t *testing.T) {
	in := types.NewInterner()
	bi := in.Builtins()
	b := newTableBuilder()
	registerStd(b)
	var calls [3]int
	runs := make([]MatcherIndicesIndex, len(calls))
	for i := range calls {
		runs[i] = b.run(b.typ(countingMatcher{inner: ScalarMatcher{Kind: types.KindF32}, calls: &calls[i]}))
	}
	b.intrinsic(KindBuiltin, "mix",
		overloadSpec{params: params(runs[0])},
		overloadSpec{params: params(runs[1], runs[1])},
		overloadSpec{params: params(runs[2], runs[2], runs[2])},
	)
	table := b.table(t)

	got, err := table.Lookup(in, KindBuiltin, "mix", Call{Args: ArgsOf(bi.F32, bi.F32), Stage: EvalRuntime})
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.Index != 1 {
		t.Fatalf("picked overload %d, want 1", got.Index)
	}
	if calls[0] != 0 || calls[2] != 0 {
		t.Fatalf("matcher calls = %v, want only the two-parameter overload matched", calls)
	}
	if calls[1] == 0 {
		t.Fatalf("two-parameter overload was never matched")
	}
}

func TestExplicitTemplateArgumentConvertsAbstracts(t *testing.T) {
	in := types.NewInterner()
	bi := in.Builtins()
	b := newTableBuilder()
	m := registerStd(b)
	tr := b.run(m.T)
	b.intrinsic(KindCtorConv, "vec2", overloadSpec{
		templates: []tmplSpec{ty("T")},
		explicit:  1,
		params:    []paramSpec{{"x", tr}, {"y", tr}},
		ret:       returns(b.run(m.vec2, m.T)),
	})
	table := b.table(t)

	got, err := table.Lookup(in, KindCtorConv, "vec2", Call{
		Args:         ArgsOf(bi.AbstractInt, bi.AbstractFloat),
		TemplateArgs: []types.TypeID{bi.F32},
		Stage:        EvalRuntime,
	})
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if want := in.Vec(2, bi.F32); got.ReturnType != want {
		t.Fatalf("return = %s, want vec2<f32>", types.Label(in, got.ReturnType))
	}
	if got.Ranks[0] != 6 || got.Ranks[1] != 1 {
		t.Fatalf("ranks = %v, want [6 1]", got.Ranks)
	}

	_, err = table.Lookup(in, KindCtorConv, "vec2", Call{
		Args:         ArgsOf(bi.I32, bi.I32),
		TemplateArgs: []types.TypeID{bi.F32},
		Stage:        EvalRuntime,
	})
	if !errors.Is(err, ErrNoMatchingOverload) {
		t.Fatalf("err = %v, want no match for concrete i32 into f32", err)
	}
}

func TestAmbiguousWhenConversionCostsTie(t *testing.T) {
	in := types.NewInterner()
	bi := in.Builtins()
	b := newTableBuilder()
	m := registerStd(b)
	b.intrinsic(KindBuiltin, "f",
		overloadSpec{params: params(b.run(m.i32), b.run(m.f32)), constEval: constFn},
		overloadSpec{params: params(b.run(m.f32), b.run(m.i32)), constEval: constFn},
		overloadSpec{params: params(b.run(m.f32), b.run(m.f32)), constEval: constFn},
	)
	table := b.table(t)

	_, err := table.Lookup(in, KindBuiltin, "f", Call{Args: ArgsOf(bi.AbstractInt, bi.AbstractInt), Stage: EvalConstant})
	if !errors.Is(err, ErrAmbiguousOverload) {
		t.Fatalf("err = %v, want ambiguous", err)
	}
	var amb *AmbiguousError
	if !errors.As(err, &amb) {
		t.Fatalf("err is %T", err)
	}
	// f(f32, f32) ranks [6 6]: same conversion count, higher rank sum.
	if len(amb.Candidates) != 2 || amb.Candidates[0].Overload != 0 || amb.Candidates[1].Overload != 1 {
		t.Fatalf("tied candidates = %+v", amb.Candidates)
	}
	if !strings.Contains(err.Error(), "conversion ranks [3 6]") {
		t.Fatalf("message lacks ranks:\n%s", err.Error())
	}
	for _, c := range amb.Candidates {
		if sig := c.Signature.String(); strings.Contains(sig, "->") {
			t.Fatalf("void overload printed with a return type: %s", sig)
		}
	}
}

func TestFewestConversionsWins(t *testing.T) {
	in := types.NewInterner()
	bi := in.Builtins()
	b := newTableBuilder()
	m := registerStd(b)
	b.intrinsic(KindBuiltin, "f",
		overloadSpec{params: params(b.run(m.ia), b.run(m.f32)), constEval: constFn},
		overloadSpec{params: params(b.run(m.i32), b.run(m.i32)), constEval: constFn},
	)
	table := b.table(t)

	// [0 6] converts one argument, [3 3] converts two.
	got, err := table.Lookup(in, KindBuiltin, "f", Call{Args: ArgsOf(bi.AbstractInt, bi.AbstractInt), Stage: EvalConstant})
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.Index != 0 {
		t.Fatalf("picked overload %d (ranks %v), want 0", got.Index, got.Ranks)
	}
	if got.Ranks[0] != 0 || got.Ranks[1] != 6 {
		t.Fatalf("ranks = %v, want [0 6]", got.Ranks)
	}
}

func TestVoidReturnIsDefault(t *testing.T) {
	b := newTableBuilder()
	m := registerStd(b)
	b.intrinsic(KindBuiltin, "store", overloadSpec{params: params(b.run(m.f32))})
	table := b.table(t)

	sigs, err := table.Signatures(KindBuiltin, "store")
	if err != nil {
		t.Fatalf("signatures: %v", err)
	}
	if len(sigs) != 1 || strings.Contains(sigs[0], "->") {
		t.Fatalf("signatures = %q, want a void overload", sigs)
	}
	if o := table.Data().Overloads[0]; o.ReturnMatcherIndices.IsValid() {
		t.Fatalf("return run = %d, want none", o.ReturnMatcherIndices)
	}
}

func TestAmbiguousWhenOverloadsAreIdentical(t *testing.T) {
	in := types.NewInterner()
	bi := in.Builtins()
	b := newTableBuilder()
	m := registerStd(b)
	b.intrinsic(KindBuiltin, "g",
		overloadSpec{params: params(b.run(m.i32))},
		overloadSpec{params: params(b.run(m.i32))},
	)
	table := b.table(t)
	_, err := table.Lookup(in, KindBuiltin, "g", Call{Args: ArgsOf(bi.I32), Stage: EvalRuntime})
	if !errors.Is(err, ErrAmbiguousOverload) {
		t.Fatalf("err = %v, want ambiguous", err)
	}
}

func TestVoidReturn(t *testing.T) {
	in := types.NewInterner()
	bi := in.Builtins()
	b := newTableBuilder()
	registerStd(b)
	b.intrinsic(KindBuiltin, "barrier", overloadSpec{})
	table := b.table(t)
	got, err := table.Lookup(in, KindBuiltin, "barrier", Call{Stage: EvalRuntime})
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.ReturnType != bi.Void {
		t.Fatalf("return = %s, want void", types.Label(in, got.ReturnType))
	}
}

func TestAttemptsDoNotShareTemplateState(t *testing.T) {
	in := types.NewInterner()
	bi := in.Builtins()
	b := newTableBuilder()
	m := registerStd(b)
	tr := b.run(m.T)
	b.intrinsic(KindBuiltin, "f",
		// binds T to f32, then fails on the second argument
		overloadSpec{templates: []tmplSpec{ty("T")}, params: params(tr, b.run(m.boolean)), ret: returns(tr)},
		// binds T to i32 from the second argument
		overloadSpec{templates: []tmplSpec{ty("T")}, params: params(b.run(m.f32), tr), ret: returns(tr)},
	)
	table := b.table(t)
	got, err := table.Lookup(in, KindBuiltin, "f", Call{Args: ArgsOf(bi.F32, bi.I32), Stage: EvalRuntime})
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.ReturnType != bi.I32 || got.Index != 1 {
		t.Fatalf("resolved overload %d returning %s", got.Index, types.Label(in, got.ReturnType))
	}
}

func TestNumberTemplateMustAgree(t *testing.T) {
	in := types.NewInterner()
	bi := in.Builtins()
	b := newTableBuilder()
	m := registerStd(b)
	vr := b.run(m.vec, m.N, m.f32)
	b.intrinsic(KindBuiltin, "dot", overloadSpec{
		templates: []tmplSpec{num("N")},
		params:    params(vr, vr),
		ret:       returns(b.run(m.f32)),
	})
	table := b.table(t)

	if _, err := table.Lookup(in, KindBuiltin, "dot", Call{Args: ArgsOf(in.Vec(3, bi.F32), in.Vec(3, bi.F32)), Stage: EvalRuntime}); err != nil {
		t.Fatalf("lookup: %v", err)
	}
	_, err := table.Lookup(in, KindBuiltin, "dot", Call{Args: ArgsOf(in.Vec(2, bi.F32), in.Vec(3, bi.F32)), Stage: EvalRuntime})
	var nm *NoMatchError
	if !errors.As(err, &nm) || nm.Candidates[0].Index != 1 {
		t.Fatalf("err = %v, want rejection at parameter 1", err)
	}
	if sig := nm.Candidates[0].Signature.String(); sig != "dot(vecN<f32>, vecN<f32>) -> f32" {
		t.Fatalf("signature = %q", sig)
	}
}

func TestStageGating(t *testing.T) {
	in := types.NewInterner()
	bi := in.Builtins()
	b := newTableBuilder()
	m := registerStd(b)
	b.intrinsic(KindBuiltin, "rt", overloadSpec{params: params(b.run(m.f32)), ret: returns(b.run(m.f32))})
	b.intrinsic(KindBuiltin, "abstract", overloadSpec{params: params(b.run(m.ia)), ret: returns(b.run(m.ia)), constEval: constFn})
	table := b.table(t)

	_, err := table.Lookup(in, KindBuiltin, "rt", Call{Args: ArgsOf(bi.F32), Stage: EvalConstant})
	var nm *NoMatchError
	if !errors.As(err, &nm) || nm.Candidates[0].Reason != RejectStage {
		t.Fatalf("err = %v, want stage rejection", err)
	}
	if _, err := table.Lookup(in, KindBuiltin, "rt", Call{Args: ArgsOf(bi.F32), Stage: EvalOverride}); err == nil {
		t.Fatal("runtime-only overload must not serve an override-stage call")
	}
	if _, err := table.Lookup(in, KindBuiltin, "rt", Call{Args: ArgsOf(bi.F32), Stage: EvalRuntime}); err != nil {
		t.Fatalf("runtime call: %v", err)
	}

	if _, err := table.Lookup(in, KindBuiltin, "abstract", Call{Args: ArgsOf(bi.AbstractInt), Stage: EvalConstant}); err != nil {
		t.Fatalf("constant call: %v", err)
	}
	_, err = table.Lookup(in, KindBuiltin, "abstract", Call{Args: ArgsOf(bi.AbstractInt), Stage: EvalRuntime})
	if !errors.As(err, &nm) || nm.Candidates[0].Reason != RejectParameter {
		t.Fatalf("err = %v, want abstract parameter rejected at runtime", err)
	}
}

func TestUnknownIntrinsic(t *testing.T) {
	table, _ := clampTable(t)
	_, err := table.Lookup(types.NewInterner(), KindBuiltin, "nope", Call{})
	if !errors.Is(err, ErrUnknownIntrinsic) {
		t.Fatalf("err = %v, want unknown intrinsic", err)
	}
	if _, err := table.Lookup(types.NewInterner(), KindBinaryOperator, "clamp", Call{}); !errors.Is(err, ErrUnknownIntrinsic) {
		t.Fatalf("namespaces must be separate, got %v", err)
	}
}

func TestLookupIsDeterministicAndConcurrent(t *testing.T) {
	in := types.NewInterner()
	bi := in.Builtins()
	table, _ := clampTable(t)
	call := Call{Args: ArgsOf(bi.AbstractFloat, bi.AbstractInt, bi.F16), Stage: EvalConstant}

	first, err := table.Lookup(in, KindBuiltin, "clamp", call)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := table.Lookup(in, KindBuiltin, "clamp", call)
			if err != nil || got.ReturnType != first.ReturnType || got.Index != first.Index {
				errs <- types.Label(in, got.ReturnType)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Fatalf("concurrent lookup diverged: %s", e)
	}
	if first.ReturnType != bi.F16 {
		t.Fatalf("return = %s, want f16", types.Label(in, first.ReturnType))
	}
}

func TestNamesAndSignatures(t *testing.T) {
	table, _ := clampTable(t)
	if names := table.Names(KindBuiltin); len(names) != 1 || names[0] != "clamp" {
		t.Fatalf("names = %v", names)
	}
	sigs, err := table.Signatures(KindBuiltin, "clamp")
	if err != nil || len(sigs) != 1 {
		t.Fatalf("signatures = %v, %v", sigs, err)
	}
}
