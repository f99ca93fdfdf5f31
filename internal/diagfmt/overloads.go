package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"shadec/internal/intrinsic"
)

// OverloadFilter selects what OverloadTable prints. Empty fields match
// everything.
type OverloadFilter struct {
	Kinds []intrinsic.Kind
	// Name keeps intrinsics whose name contains it.
	Name string
	// Flag keeps overloads carrying every bit of it.
	Flag intrinsic.OverloadFlags
}

func (f OverloadFilter) kinds() []intrinsic.Kind {
	if len(f.Kinds) > 0 {
		return f.Kinds
	}
	return []intrinsic.Kind{intrinsic.KindBuiltin, intrinsic.KindUnaryOperator, intrinsic.KindBinaryOperator, intrinsic.KindCtorConv}
}

// OverloadTable prints the overloads of t grouped by namespace and name,
// with each overload's flags in a trailing column. It returns the number of
// overloads printed.
func OverloadTable(w io.Writer, t *intrinsic.Table, filter OverloadFilter, opts PrettyOpts) int {
	p := newPalette(opts.Color)
	d := t.Data()
	printed := 0
	for _, kind := range filter.kinds() {
		type row struct{ sig, plain, flags string }
		var section []string
		var rows [][]row
		for _, name := range t.Names(kind) {
			if filter.Name != "" && !strings.Contains(name, filter.Name) {
				continue
			}
			info, _ := t.Find(kind, name)
			var rs []row
			for _, oi := range d.OverloadsOf(info) {
				o := d.Overload(oi)
				if filter.Flag != 0 && !o.Flags.Has(filter.Flag) {
					continue
				}
				text := intrinsic.PrintOverload(d, o, name)
				rs = append(rs, row{
					sig:   RenderStyled(text, opts.Color),
					plain: text.String(),
					flags: o.Flags.String(),
				})
			}
			if len(rs) > 0 {
				section = append(section, name)
				rows = append(rows, rs)
			}
		}
		if len(section) == 0 {
			continue
		}

		width := 0
		for _, rs := range rows {
			for _, r := range rs {
				width = max(width, runewidth.StringWidth(r.plain))
			}
		}
		if opts.Width > 0 {
			width = min(width, opts.Width)
		}

		fmt.Fprintf(w, "%s\n", p.path.Sprintf("%s (%d)", kind, len(section)))
		for i, name := range section {
			fmt.Fprintf(w, "  %s\n", p.code.Sprint(name))
			for _, r := range rows[i] {
				pad := max(width-runewidth.StringWidth(r.plain), 0)
				fmt.Fprintf(w, "    %s%s  %s\n", r.sig, strings.Repeat(" ", pad), p.dim.Sprint(r.flags))
				printed++
			}
		}
	}
	return printed
}
