package styled

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTextMergesAdjacentStyles(t *testing.T) {
	var txt Text
	txt.Code("abs").Plain("(").Plain("x").Type("f32").Type(">").Plain(")")
	want := []Span{
		{Style: Code, Text: "abs"},
		{Style: Plain, Text: "(x"},
		{Style: Type, Text: "f32>"},
		{Style: Plain, Text: ")"},
	}
	if diff := cmp.Diff(want, txt.Spans()); diff != "" {
		t.Fatalf("spans mismatch (-want +got):\n%s", diff)
	}
	if got := txt.String(); got != "abs(xf32>)" {
		t.Fatalf("String() = %q", got)
	}
}

func TestTextAppendAndEmpty(t *testing.T) {
	var a, b Text
	a.Plain("")
	if a.Len() != 0 {
		t.Fatalf("empty write produced a span")
	}
	b.Variable("T").Plain(" is ")
	a.Plain("where ").Append(&b)
	if got := a.String(); got != "where T is " {
		t.Fatalf("String() = %q", got)
	}
	var nilText *Text
	if nilText.String() != "" || nilText.Len() != 0 {
		t.Fatalf("nil Text must behave as empty")
	}
}
