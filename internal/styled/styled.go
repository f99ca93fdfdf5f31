// Package styled holds text fragments tagged with a presentation style.
//
// Matchers render their constraints into a Text while building diagnostics;
// internal/diagfmt decides how each style looks on a terminal.
package styled

import "strings"

// Style classifies a fragment of text.
type Style uint8

const (
	Plain Style = iota
	Code
	Type
	Variable
	Literal
	Bullet
)

func (s Style) String() string {
	switch s {
	case Plain:
		return "plain"
	case Code:
		return "code"
	case Type:
		return "type"
	case Variable:
		return "variable"
	case Literal:
		return "literal"
	case Bullet:
		return "bullet"
	}
	return "unknown"
}

// Span is a run of text sharing one style.
type Span struct {
	Style Style  `json:"style" msgpack:"style"`
	Text  string `json:"text" msgpack:"text"`
}

// Text is an append-only sequence of styled spans. The zero value is ready to use.
type Text struct {
	spans []Span
}

// Write appends s with the given style, merging with the previous span when
// the styles match.
func (t *Text) Write(style Style, s string) *Text {
	if s == "" {
		return t
	}
	if n := len(t.spans); n > 0 && t.spans[n-1].Style == style {
		t.spans[n-1].Text += s
		return t
	}
	t.spans = append(t.spans, Span{Style: style, Text: s})
	return t
}

func (t *Text) Plain(s string) *Text    { return t.Write(Plain, s) }
func (t *Text) Code(s string) *Text     { return t.Write(Code, s) }
func (t *Text) Type(s string) *Text     { return t.Write(Type, s) }
func (t *Text) Variable(s string) *Text { return t.Write(Variable, s) }
func (t *Text) Literal(s string) *Text  { return t.Write(Literal, s) }
func (t *Text) Bullet(s string) *Text   { return t.Write(Bullet, s) }

// Append copies the spans of other onto t.
func (t *Text) Append(other *Text) *Text {
	if other == nil {
		return t
	}
	for _, sp := range other.spans {
		t.Write(sp.Style, sp.Text)
	}
	return t
}

// Spans returns the underlying spans. Callers must not modify the result.
func (t *Text) Spans() []Span {
	if t == nil {
		return nil
	}
	return t.spans
}

// Len returns the number of spans.
func (t *Text) Len() int {
	if t == nil {
		return 0
	}
	return len(t.spans)
}

// String returns the text without styling.
func (t *Text) String() string {
	if t == nil {
		return ""
	}
	var b strings.Builder
	for _, sp := range t.spans {
		b.WriteString(sp.Text)
	}
	return b.String()
}
