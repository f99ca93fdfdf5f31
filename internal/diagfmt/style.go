package diagfmt

import (
	"strings"

	"github.com/fatih/color"

	"shadec/internal/diag"
	"shadec/internal/styled"
)

// palette holds the colours of one output. Each colour is forced on or off
// so output does not depend on the package-level color.NoColor.
type palette struct {
	err, warn, info *color.Color
	code, path      *color.Color
	note, dim       *color.Color
	ok              *color.Color

	typ, variable, literal, bullet *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		err:      mk(color.FgRed, color.Bold),
		warn:     mk(color.FgYellow, color.Bold),
		info:     mk(color.FgBlue, color.Bold),
		code:     mk(color.Bold),
		path:     mk(color.FgWhite, color.Bold),
		note:     mk(color.FgCyan),
		dim:      mk(color.Faint),
		ok:       mk(color.FgGreen),
		typ:      mk(color.FgCyan),
		variable: mk(color.FgYellow),
		literal:  mk(color.FgMagenta),
		bullet:   mk(color.Faint),
	}
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	}
	return p.info
}

func (p palette) span(s styled.Style) *color.Color {
	switch s {
	case styled.Code:
		return p.code
	case styled.Type:
		return p.typ
	case styled.Variable:
		return p.variable
	case styled.Literal:
		return p.literal
	case styled.Bullet:
		return p.bullet
	}
	return nil
}

// RenderStyled renders t for a terminal, colouring each span by its style.
func RenderStyled(t *styled.Text, colored bool) string {
	if t == nil {
		return ""
	}
	if !colored {
		return t.String()
	}
	p := newPalette(true)
	var b strings.Builder
	for _, sp := range t.Spans() {
		if c := p.span(sp.Style); c != nil {
			b.WriteString(c.Sprint(sp.Text))
		} else {
			b.WriteString(sp.Text)
		}
	}
	return b.String()
}
