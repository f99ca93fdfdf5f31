package types

import (
	"sync"
	"testing"
)

func TestInternerBuiltinsAreStable(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if got := in.Intern(Type{Kind: KindF32}); got != b.F32 {
		t.Fatalf("f32 interned as %d, want builtin %d", got, b.F32)
	}
	if in.Scalar(KindAbstractInt) != b.AbstractInt {
		t.Fatalf("Scalar(abstract-int) mismatch")
	}
	if in.Intern(Type{Kind: KindInvalid}) != NoTypeID {
		t.Fatalf("invalid kind must intern to NoTypeID")
	}
}

func TestInternerDedupesComposites(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	a := in.Vec(3, b.F32)
	c := in.Vec(3, b.F32)
	if a != c {
		t.Fatalf("vec3<f32> interned twice: %d vs %d", a, c)
	}
	if in.Vec(2, b.F32) == a {
		t.Fatalf("vec2<f32> must differ from vec3<f32>")
	}
	if _, ok := in.Lookup(TypeID(9999)); ok {
		t.Fatalf("lookup of unknown id succeeded")
	}
}

func TestInternerConcurrentIntern(t *testing.T) {
	in := NewInterner()
	elem := in.Builtins().U32
	var wg sync.WaitGroup
	ids := make([]TypeID, 16)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = in.Array(elem, 8)
		}(i)
	}
	wg.Wait()
	for i := range ids {
		if ids[i] != ids[0] {
			t.Fatalf("goroutine %d got %d, want %d", i, ids[i], ids[0])
		}
	}
}

func TestConcreteMaterializesAbstracts(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if got := in.Concrete(in.Vec(2, b.AbstractFloat)); got != in.Vec(2, b.F32) {
		t.Fatalf("Concrete(vec2<abstract-float>) = %s", Label(in, got))
	}
	if got := in.Concrete(b.AbstractInt); got != b.I32 {
		t.Fatalf("Concrete(abstract-int) = %s", Label(in, got))
	}
	if got := in.Concrete(b.U32); got != b.U32 {
		t.Fatalf("Concrete(u32) changed the type")
	}
}
