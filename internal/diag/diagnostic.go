package diag

import (
	"fmt"
	"strconv"
)

// Severity orders diagnostics; larger is more severe.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

var severityNames = [...]struct{ upper, lower string }{
	SevInfo:    {"INFO", "info"},
	SevWarning: {"WARNING", "warning"},
	SevError:   {"ERROR", "error"},
}

// String is the upper-case name used in pretty output headers.
func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s].upper
	}
	return "UNKNOWN"
}

// Label is the lower-case word used in short output.
func (s Severity) Label() string {
	if int(s) < len(severityNames) {
		return severityNames[s].lower
	}
	return "unknown"
}

// Location points into an input file. Line and Column are 1-based; a zero
// Line means the position is unknown.
type Location struct {
	File   string `json:"file,omitempty" msgpack:"file,omitempty"`
	Line   uint32 `json:"line,omitempty" msgpack:"line,omitempty"`
	Column uint32 `json:"column,omitempty" msgpack:"column,omitempty"`
}

func (l Location) IsValid() bool { return l.File != "" || l.Line != 0 }

func (l Location) String() string {
	if l.Line == 0 {
		return l.File
	}
	s := l.File + ":" + strconv.FormatUint(uint64(l.Line), 10)
	if l.Column != 0 {
		s += ":" + strconv.FormatUint(uint64(l.Column), 10)
	}
	return s
}

// Before orders locations by file, line and column.
func (l Location) Before(o Location) bool {
	if l.File != o.File {
		return l.File < o.File
	}
	if l.Line != o.Line {
		return l.Line < o.Line
	}
	return l.Column < o.Column
}

type Note struct {
	Loc Location
	Msg string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  Location
	Notes    []Note
}

func New(sev Severity, code Code, primary Location, msg string) Diagnostic {
	return Diagnostic{Severity: sev, Code: code, Primary: primary, Message: msg}
}

// Errorf builds an error diagnostic with a formatted message.
func Errorf(code Code, primary Location, format string, args ...any) Diagnostic {
	return New(SevError, code, primary, fmt.Sprintf(format, args...))
}

// WithNote returns a copy of d with one more note.
func (d Diagnostic) WithNote(loc Location, msg string) Diagnostic {
	d.Notes = append(d.Notes[:len(d.Notes):len(d.Notes)], Note{Loc: loc, Msg: msg})
	return d
}
