package types

import (
	"errors"
	"testing"
)

func TestParseLabelRoundTrip(t *testing.T) {
	in := NewInterner()
	for _, src := range []string{
		"bool",
		"abstract-int",
		"abstract-float",
		"vec3<f32>",
		"mat2x4<f16>",
		"array<u32>",
		"array<vec4<i32>, 8>",
		"atomic<u32>",
		"ptr<storage, array<u32>, read_write>",
		"ptr<function, f32, read_write>",
		"sampler_comparison",
	} {
		id, err := Parse(in, src)
		if err != nil {
			t.Fatalf("Parse(%q): %v", src, err)
		}
		if got := Label(in, id); got != src {
			t.Fatalf("Label(Parse(%q)) = %q", src, got)
		}
	}
}

func TestParseShorthands(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	cases := map[string]TypeID{
		"vec2f":             in.Vec(2, b.F32),
		"vec4u":             in.Vec(4, b.U32),
		"vec3h":             in.Vec(3, b.F16),
		"mat3x3f":           in.Mat(3, 3, b.F32),
		"ptr<uniform, i32>": in.Pointer(AddressSpaceUniform, b.I32, AccessRead),
	}
	for src, want := range cases {
		got, err := Parse(in, src)
		if err != nil {
			t.Fatalf("Parse(%q): %v", src, err)
		}
		if got != want {
			t.Fatalf("Parse(%q) = %s, want %s", src, Label(in, got), Label(in, want))
		}
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	in := NewInterner()
	for _, src := range []string{"", "vec5<f32>", "vec2<f32", "mat2<f32>", "ptr<heap, f32>", "array<f32, 0>", "f64", "i32 i32"} {
		if _, err := Parse(in, src); !errors.Is(err, ErrMalformedType) {
			t.Fatalf("Parse(%q) error = %v, want ErrMalformedType", src, err)
		}
	}
}
