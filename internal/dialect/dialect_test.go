package dialect

import (
	"errors"
	"sync"
	"testing"

	"shadec/internal/consteval"
	"shadec/internal/intrinsic"
	"shadec/internal/types"
)

func mustParse(t *testing.T, in *types.Interner, text string) types.TypeID {
	t.Helper()
	id, err := types.Parse(in, text)
	if err != nil {
		t.Fatalf("parse %q: %v", text, err)
	}
	return id
}

func lookup(t *testing.T, in *types.Interner, k Kind, kind intrinsic.Kind, name string, call intrinsic.Call) intrinsic.Overload {
	t.Helper()
	o, err := MustLoad(k).Lookup(in, kind, name, call)
	if err != nil {
		t.Fatalf("%s %s: %v", k, name, err)
	}
	return o
}

func args(t *testing.T, in *types.Interner, names ...string) []intrinsic.Arg {
	t.Helper()
	out := make([]intrinsic.Arg, len(names))
	for i, n := range names {
		out[i] = intrinsic.Arg{Type: mustParse(t, in, n)}
	}
	return out
}

func wantType(t *testing.T, in *types.Interner, got types.TypeID, want string) {
	t.Helper()
	if got != mustParse(t, in, want) {
		t.Fatalf("type = %s, want %s", types.Label(in, got), want)
	}
}

func TestEmbeddedTablesBuild(t *testing.T) {
	for _, k := range Kinds() {
		tbl, err := Load(k)
		if err != nil {
			t.Fatalf("load %s: %v", k, err)
		}
		if tbl.Name() != k.String() {
			t.Fatalf("table name = %q, want %q", tbl.Name(), k)
		}
		if len(tbl.Names(intrinsic.KindBuiltin)) == 0 {
			t.Fatalf("%s: no builtins", k)
		}
		if err := tbl.Data().Validate(); err != nil {
			t.Fatalf("%s: %v", k, err)
		}
	}
}

func TestLoadIsShared(t *testing.T) {
	first := MustLoad(HLSL)
	var wg sync.WaitGroup
	got := make([]*intrinsic.Table, 16)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = MustLoad(HLSL)
		}(i)
	}
	wg.Wait()
	for i, tbl := range got {
		if tbl != first {
			t.Fatalf("caller %d got a different table", i)
		}
	}
}

func TestLoadUnknownKind(t *testing.T) {
	if _, err := Load(kindCount); !errors.Is(err, ErrUnknownDialect) {
		t.Fatalf("err = %v, want ErrUnknownDialect", err)
	}
	if _, err := ParseKind("glsl"); !errors.Is(err, ErrUnknownDialect) {
		t.Fatalf("ParseKind(glsl) err = %v", err)
	}
	for _, tc := range []struct {
		in   string
		want Kind
	}{{"core", Core}, {"WGSL", Core}, {" hlsl ", HLSL}} {
		got, err := ParseKind(tc.in)
		if err != nil || got != tc.want {
			t.Fatalf("ParseKind(%q) = %v, %v", tc.in, got, err)
		}
	}
}

func TestDocumentsChain(t *testing.T) {
	docs, err := Documents("hlsl")
	if err != nil {
		t.Fatalf("documents: %v", err)
	}
	if len(docs) != 2 || docs[0].Dialect != "core" || docs[1].Dialect != "hlsl" {
		t.Fatalf("chain = %d docs", len(docs))
	}
	if _, err := Documents("metal"); err == nil {
		t.Fatalf("expected error for a missing table")
	}
}

func TestCoreAbsStages(t *testing.T) {
	in := types.NewInterner()
	c := lookup(t, in, Core, intrinsic.KindBuiltin, "abs", intrinsic.Call{
		Args:  args(t, in, "abstract-int"),
		Stage: intrinsic.EvalConstant,
	})
	wantType(t, in, c.ReturnType, "abstract-int")
	if c.ConstEval == nil || c.ConstEvalName != "abs" {
		t.Fatalf("const fn = %q", c.ConstEvalName)
	}
	if !c.Flags().Has(intrinsic.FlagMustUse) {
		t.Fatalf("abs should be must_use, flags %s", c.Flags())
	}

	r := lookup(t, in, Core, intrinsic.KindBuiltin, "abs", intrinsic.Call{
		Args:  args(t, in, "abstract-int"),
		Stage: intrinsic.EvalRuntime,
	})
	wantType(t, in, r.ReturnType, "i32")
}

func TestCoreClampConstEval(t *testing.T) {
	in := types.NewInterner()
	ai := in.Builtins().AbstractInt
	o := lookup(t, in, Core, intrinsic.KindBuiltin, "clamp", intrinsic.Call{
		Args:  intrinsic.ArgsOf(ai, ai, ai),
		Stage: intrinsic.EvalConstant,
	})
	v, err := o.ConstEval(in, o.ReturnType, []consteval.Value{
		consteval.IntValue(ai, 5), consteval.IntValue(ai, 0), consteval.IntValue(ai, 3),
	})
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if v.Int != 3 {
		t.Fatalf("clamp(5, 0, 3) = %d", v.Int)
	}
}

func TestCoreConstructors(t *testing.T) {
	in := types.NewInterner()
	f32 := in.Builtins().F32

	o := lookup(t, in, Core, intrinsic.KindCtorConv, "vec3", intrinsic.Call{
		Args:         args(t, in, "f32", "f32", "f32"),
		TemplateArgs: []types.TypeID{f32},
		Stage:        intrinsic.EvalRuntime,
	})
	wantType(t, in, o.ReturnType, "vec3<f32>")
	if o.ConstEvalName != "VecInitS" {
		t.Fatalf("vec3<f32>(x, y, z) const fn = %q", o.ConstEvalName)
	}

	o = lookup(t, in, Core, intrinsic.KindCtorConv, "vec3", intrinsic.Call{
		Args:  args(t, in, "vec2<f32>", "f32"),
		Stage: intrinsic.EvalRuntime,
	})
	wantType(t, in, o.ReturnType, "vec3<f32>")
	if o.ConstEvalName != "VecInitM" || o.Parameters[0].Usage != "xy" {
		t.Fatalf("vec3(xy, z) resolved to %q %+v", o.ConstEvalName, o.Parameters)
	}

	o = lookup(t, in, Core, intrinsic.KindCtorConv, "vec2", intrinsic.Call{
		TemplateArgs: []types.TypeID{f32},
		Stage:        intrinsic.EvalConstant,
	})
	if o.ConstEvalName != "Zero" {
		t.Fatalf("vec2<f32>() const fn = %q", o.ConstEvalName)
	}

	o = lookup(t, in, Core, intrinsic.KindCtorConv, "u32", intrinsic.Call{
		Args:  args(t, in, "f32"),
		Stage: intrinsic.EvalRuntime,
	})
	if !o.Flags().Has(intrinsic.FlagIsConverter) {
		t.Fatalf("u32(f32) should be a conversion, flags %s", o.Flags())
	}
	wantType(t, in, o.ReturnType, "u32")
}

func TestCoreZeroNeedsTemplate(t *testing.T) {
	in := types.NewInterner()
	_, err := MustLoad(Core).Lookup(in, intrinsic.KindCtorConv, "vec2", intrinsic.Call{Stage: intrinsic.EvalConstant})
	if !errors.Is(err, intrinsic.ErrNoMatchingOverload) {
		t.Fatalf("vec2() err = %v", err)
	}
}

func TestCoreMatrixOperators(t *testing.T) {
	in := types.NewInterner()
	o := lookup(t, in, Core, intrinsic.KindBinaryOperator, "*", intrinsic.Call{
		Args:  args(t, in, "mat4x4<f32>", "vec4<f32>"),
		Stage: intrinsic.EvalRuntime,
	})
	wantType(t, in, o.ReturnType, "vec4<f32>")
	if o.ConstEval != nil {
		t.Fatalf("matrix-vector product must not const-evaluate")
	}

	o = lookup(t, in, Core, intrinsic.KindBinaryOperator, "*", intrinsic.Call{
		Args:  args(t, in, "mat2x3<f32>", "mat4x2<f32>"),
		Stage: intrinsic.EvalRuntime,
	})
	wantType(t, in, o.ReturnType, "mat4x3<f32>")

	o = lookup(t, in, Core, intrinsic.KindUnaryOperator, "-", intrinsic.Call{
		Args:  args(t, in, "vec2<i32>"),
		Stage: intrinsic.EvalRuntime,
	})
	wantType(t, in, o.ReturnType, "vec2<i32>")
}

func TestCoreAtomicsAndStages(t *testing.T) {
	in := types.NewInterner()
	o := lookup(t, in, Core, intrinsic.KindBuiltin, "atomicLoad", intrinsic.Call{
		Args:  args(t, in, "ptr<workgroup, atomic<u32>, read_write>"),
		Stage: intrinsic.EvalRuntime,
	})
	wantType(t, in, o.ReturnType, "u32")

	_, err := MustLoad(Core).Lookup(in, intrinsic.KindBuiltin, "atomicLoad", intrinsic.Call{
		Args:  args(t, in, "ptr<private, atomic<u32>, read_write>"),
		Stage: intrinsic.EvalRuntime,
	})
	if !errors.Is(err, intrinsic.ErrNoMatchingOverload) {
		t.Fatalf("private atomic err = %v", err)
	}

	o = lookup(t, in, Core, intrinsic.KindBuiltin, "workgroupBarrier", intrinsic.Call{Stage: intrinsic.EvalRuntime})
	if o.ReturnType.IsValid() && o.ReturnType != in.Builtins().Void {
		t.Fatalf("workgroupBarrier returns %s", types.Label(in, o.ReturnType))
	}
	if f := o.Flags(); !f.Has(intrinsic.FlagSupportsComputePipeline) || f.Has(intrinsic.FlagSupportsFragmentPipeline) {
		t.Fatalf("workgroupBarrier flags %s", f)
	}
}

func TestHLSLExtendsCore(t *testing.T) {
	in := types.NewInterner()
	if _, err := MustLoad(Core).Lookup(in, intrinsic.KindBuiltin, "asint", intrinsic.Call{
		Args:  args(t, in, "f32"),
		Stage: intrinsic.EvalRuntime,
	}); !errors.Is(err, intrinsic.ErrUnknownIntrinsic) {
		t.Fatalf("core asint err = %v", err)
	}

	o := lookup(t, in, HLSL, intrinsic.KindBuiltin, "asint", intrinsic.Call{
		Args:  args(t, in, "vec3<f32>"),
		Stage: intrinsic.EvalRuntime,
	})
	wantType(t, in, o.ReturnType, "vec3<i32>")

	o = lookup(t, in, HLSL, intrinsic.KindBuiltin, "mul", intrinsic.Call{
		Args:  args(t, in, "mat3x3<f32>", "vec3<f32>"),
		Stage: intrinsic.EvalRuntime,
	})
	wantType(t, in, o.ReturnType, "vec3<f32>")

	o = lookup(t, in, HLSL, intrinsic.KindBuiltin, "abs", intrinsic.Call{
		Args:  args(t, in, "f32"),
		Stage: intrinsic.EvalRuntime,
	})
	wantType(t, in, o.ReturnType, "f32")
}

func TestHLSLMemberFunctions(t *testing.T) {
	in := types.NewInterner()
	o := lookup(t, in, HLSL, intrinsic.KindBuiltin, "Load", intrinsic.Call{
		Args:  args(t, in, "ptr<storage, array<u32>, read>", "u32"),
		Stage: intrinsic.EvalRuntime,
	})
	if !o.Flags().Has(intrinsic.FlagMemberFunction) {
		t.Fatalf("Load flags %s", o.Flags())
	}
	wantType(t, in, o.ReturnType, "u32")

	_, err := MustLoad(HLSL).Lookup(in, intrinsic.KindBuiltin, "Store", intrinsic.Call{
		Args:  args(t, in, "ptr<storage, array<u32>, read>", "u32", "u32"),
		Stage: intrinsic.EvalRuntime,
	})
	if !errors.Is(err, intrinsic.ErrNoMatchingOverload) {
		t.Fatalf("Store into a read-only buffer err = %v", err)
	}

	o = lookup(t, in, HLSL, intrinsic.KindBuiltin, "InterlockedAdd", intrinsic.Call{
		Args:  args(t, in, "ptr<storage, atomic<i32>, read_write>", "i32"),
		Stage: intrinsic.EvalRuntime,
	})
	if !o.Flags().Has(intrinsic.FlagIsDeprecated) {
		t.Fatalf("InterlockedAdd flags %s", o.Flags())
	}
}

func TestClassifier(t *testing.T) {
	var c Classifier
	if got := c.Classify(nil); got.Kind != Core {
		t.Fatalf("empty evidence -> %s", got.Kind)
	}

	ev := NewEvidence()
	for i, name := range []string{"abs", "asint", "mul", "clamp"} {
		if err := ev.Observe(i, intrinsic.KindBuiltin, name); err != nil {
			t.Fatalf("observe %s: %v", name, err)
		}
	}
	if n := len(ev.Hints()); n != 2 {
		t.Fatalf("hints = %d, want 2", n)
	}
	got := c.Classify(ev)
	if got.Kind != HLSL || got.Score != 2 || got.Conflicting {
		t.Fatalf("classification = %+v", got)
	}
}
