package diag

import (
	"cmp"
	"path/filepath"
	"slices"
	"strings"
)

type shortLine struct {
	loc   Location
	label string
	code  string
	msg   string
}

func (l shortLine) String() string {
	return l.label + " " + l.code + " " + l.loc.String() + " " + l.msg
}

// FormatShortDiagnostics renders one line per diagnostic, plus one per note
// when includeNotes is set:
//
//	error SEM3001 calls.yaml:3:5 no matching call for abs(bool)
//
// Lines are sorted by location, label, code and message, so the output is
// stable across runs. There is no trailing newline.
func FormatShortDiagnostics(diags []Diagnostic, includeNotes bool) string {
	lines := make([]shortLine, 0, len(diags))
	for _, d := range diags {
		lines = append(lines, shortLine{normalizeLocation(d.Primary), d.Severity.Label(), d.Code.ID(), flatten(d.Message)})
		if !includeNotes {
			continue
		}
		for _, n := range d.Notes {
			loc := n.Loc
			if !loc.IsValid() {
				loc = d.Primary
			}
			lines = append(lines, shortLine{normalizeLocation(loc), "note", d.Code.ID(), flatten(n.Msg)})
		}
	}
	slices.SortStableFunc(lines, func(a, b shortLine) int {
		if a.loc != b.loc {
			if a.loc.Before(b.loc) {
				return -1
			}
			return 1
		}
		return cmp.Or(
			cmp.Compare(a.label, b.label),
			cmp.Compare(a.code, b.code),
			cmp.Compare(a.msg, b.msg),
		)
	})

	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.String()
	}
	return strings.Join(out, "\n")
}

// normalizeLocation uses forward slashes and drops leading "./".
func normalizeLocation(loc Location) Location {
	p := filepath.ToSlash(loc.File)
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	loc.File = p
	return loc
}

// flatten folds a multi-line message onto one line.
func flatten(msg string) string {
	return strings.TrimSpace(strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ").Replace(msg))
}
