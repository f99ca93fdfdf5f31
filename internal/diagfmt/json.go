package diagfmt

import (
	"encoding/json"
	"io"

	"shadec/internal/diag"
	"shadec/internal/driver"
	"shadec/internal/observ"
)

// LocationJSON представляет местоположение в файле для JSON
type LocationJSON struct {
	File   string `json:"file"`
	Line   uint32 `json:"line,omitempty"`
	Column uint32 `json:"column,omitempty"`
}

// NoteJSON представляет дополнительную заметку для JSON
type NoteJSON struct {
	Message  string        `json:"message"`
	Location *LocationJSON `json:"location,omitempty"`
}

// DiagnosticJSON представляет диагностику в JSON формате
type DiagnosticJSON struct {
	Severity string       `json:"severity"`
	Code     string       `json:"code"`
	Title    string       `json:"title,omitempty"`
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
	Notes    []NoteJSON   `json:"notes,omitempty"`
}

// DiagnosticsOutput представляет корневую структуру JSON вывода
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
	Dropped     int              `json:"dropped,omitempty"`
}

// ReportOutput is the JSON shape of a checked manifest.
type ReportOutput struct {
	Manifest    string              `json:"manifest"`
	Dialect     string              `json:"dialect"`
	Cached      bool                `json:"cached,omitempty"`
	Results     []driver.CallResult `json:"results"`
	Diagnostics DiagnosticsOutput   `json:"diagnostics"`
	Timings     *observ.Report      `json:"timings,omitempty"`
}

func makeLocation(loc diag.Location, opts JSONOpts) LocationJSON {
	return LocationJSON{
		File:   FormatPath(loc.File, opts.PathMode, opts.BaseDir),
		Line:   loc.Line,
		Column: loc.Column,
	}
}

// BuildDiagnosticsOutput формирует структуру JSON-вывода без сериализации.
func BuildDiagnosticsOutput(diags []diag.Diagnostic, dropped int, opts JSONOpts) DiagnosticsOutput {
	n := len(diags)
	if opts.Max > 0 && opts.Max < n {
		dropped += n - opts.Max
		n = opts.Max
	}
	out := make([]DiagnosticJSON, 0, n)
	for _, d := range diags[:n] {
		dj := DiagnosticJSON{
			Severity: d.Severity.String(),
			Code:     d.Code.ID(),
			Title:    d.Code.Title(),
			Message:  d.Message,
			Location: makeLocation(d.Primary, opts),
		}
		if opts.IncludeNotes && len(d.Notes) > 0 {
			dj.Notes = make([]NoteJSON, len(d.Notes))
			for j, note := range d.Notes {
				dj.Notes[j] = NoteJSON{Message: note.Msg}
				if note.Loc.IsValid() {
					loc := makeLocation(note.Loc, opts)
					dj.Notes[j].Location = &loc
				}
			}
		}
		out = append(out, dj)
	}
	return DiagnosticsOutput{Diagnostics: out, Count: len(out), Dropped: dropped}
}

// BuildReportOutput converts a report into its JSON shape.
func BuildReportOutput(r *driver.Report, opts JSONOpts, withTimings bool) ReportOutput {
	results := make([]driver.CallResult, len(r.Results))
	for i, res := range r.Results {
		res.Location.File = FormatPath(res.Location.File, opts.PathMode, opts.BaseDir)
		results[i] = res
	}
	out := ReportOutput{
		Manifest:    FormatPath(r.Manifest, opts.PathMode, opts.BaseDir),
		Dialect:     r.Dialect,
		Cached:      r.Cached,
		Results:     results,
		Diagnostics: BuildDiagnosticsOutput(r.Diagnostics, r.Dropped, opts),
	}
	if withTimings && len(r.Timings.Phases) > 0 {
		t := r.Timings
		out.Timings = &t
	}
	return out
}

// JSON форматирует диагностики в JSON формат.
func JSON(w io.Writer, diags []diag.Diagnostic, opts JSONOpts) error {
	return encodeJSON(w, BuildDiagnosticsOutput(diags, 0, opts))
}

// ReportJSON writes the reports as a JSON array.
func ReportJSON(w io.Writer, reports []*driver.Report, opts JSONOpts, withTimings bool) error {
	out := make([]ReportOutput, 0, len(reports))
	for _, r := range reports {
		out = append(out, BuildReportOutput(r, opts, withTimings))
	}
	return encodeJSON(w, out)
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
