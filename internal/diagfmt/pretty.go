package diagfmt

import (
	"fmt"
	"io"

	"shadec/internal/diag"
)

// Pretty форматирует диагностики в человекочитаемый вид.
// Ожидается, что diags уже отсортированы (bag.Sort()).
// Для каждой диагностики печатает:
//
//	<path>:<line>:<col>: <SEV> <CODE>: <Message>
//
// затем заметки с отступом, если включён ShowNotes.
func Pretty(w io.Writer, diags []diag.Diagnostic, opts PrettyOpts) {
	p := newPalette(opts.Color)
	for _, d := range diags {
		loc := formatLocation(d.Primary, opts.PathMode, opts.BaseDir)
		if loc != "" {
			fmt.Fprintf(w, "%s: ", p.path.Sprint(loc))
		}
		fmt.Fprintf(w, "%s %s: %s\n",
			p.severity(d.Severity).Sprint(d.Severity.String()),
			p.code.Sprint(d.Code.ID()),
			d.Message,
		)
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			prefix := p.note.Sprint("note")
			if n.Loc.IsValid() && n.Loc != d.Primary {
				prefix = p.path.Sprint(formatLocation(n.Loc, opts.PathMode, opts.BaseDir)) + ": " + prefix
			}
			fmt.Fprintf(w, "  %s: %s\n", prefix, n.Msg)
		}
	}
}

// Summary prints the error and warning totals of diags, plus the number of
// diagnostics the bag dropped.
func Summary(w io.Writer, diags []diag.Diagnostic, dropped int, opts PrettyOpts) {
	p := newPalette(opts.Color)
	var errs, warns int
	for _, d := range diags {
		switch d.Severity {
		case diag.SevError:
			errs++
		case diag.SevWarning:
			warns++
		}
	}
	switch {
	case errs > 0:
		fmt.Fprint(w, p.err.Sprintf("%d %s", errs, plural(errs, "error")))
	case warns > 0:
		fmt.Fprint(w, p.warn.Sprint("0 errors"))
	default:
		fmt.Fprint(w, p.ok.Sprint("0 errors"))
	}
	fmt.Fprintf(w, ", %d %s", warns, plural(warns, "warning"))
	if dropped > 0 {
		fmt.Fprintf(w, " (%d more dropped)", dropped)
	}
	fmt.Fprintln(w)
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
