package diagfmt

import (
	"fmt"
	"io"
	"strconv"

	"github.com/mattn/go-runewidth"

	"shadec/internal/diag"
	"shadec/internal/driver"
)

// PrettyReport prints one row per call of r, aligned into columns, followed
// by the diagnostics and a summary line.
//
//	calls.yaml [core]
//	  3:5  ok        clamp(i32, i32, i32)  -> i32
//	  6:5  no_match  clamp(i32, f32, i32)
func PrettyReport(w io.Writer, r *driver.Report, opts PrettyOpts) {
	p := newPalette(opts.Color)
	header := FormatPath(r.Manifest, opts.PathMode, opts.BaseDir)
	header += " [" + r.Dialect + "]"
	if r.Cached {
		header += " (cached)"
	}
	fmt.Fprintln(w, p.path.Sprint(header))

	posW, statusW, callW := 0, 0, 0
	calls := make([]string, len(r.Results))
	for i, res := range r.Results {
		calls[i] = res.Call
		if calls[i] == "" {
			calls[i] = res.Name
		}
		if opts.Width > 0 && runewidth.StringWidth(calls[i]) > opts.Width {
			calls[i] = runewidth.Truncate(calls[i], opts.Width, "...")
		}
		posW = max(posW, len(position(res.Location)))
		statusW = max(statusW, len(res.Status.String()))
		callW = max(callW, runewidth.StringWidth(calls[i]))
	}

	for i, res := range r.Results {
		status := runewidth.FillRight(res.Status.String(), statusW)
		if res.Status == driver.StatusOK {
			status = p.ok.Sprint(status)
		} else {
			status = p.err.Sprint(status)
		}
		fmt.Fprintf(w, "  %s  %s  ", p.dim.Sprint(runewidth.FillLeft(position(res.Location), posW)), status)
		if res.Status != driver.StatusOK {
			fmt.Fprintln(w, calls[i])
			continue
		}
		fmt.Fprintf(w, "%s  -> %s", runewidth.FillRight(calls[i], callW), p.typ.Sprint(res.ReturnType))
		if res.Value != "" {
			fmt.Fprintf(w, " = %s", p.literal.Sprint(res.Value))
		}
		fmt.Fprintln(w)
		if opts.ShowSignatures && res.Signature != "" {
			fmt.Fprintf(w, "  %s  %s  %s\n", runewidth.FillLeft("", posW), runewidth.FillLeft("", statusW), p.dim.Sprint(res.Signature))
		}
	}

	if len(r.Diagnostics) > 0 {
		fmt.Fprintln(w)
		Pretty(w, r.Diagnostics, opts)
	}
	fmt.Fprintf(w, "%d %s, %d ok; ", len(r.Results), plural(len(r.Results), "call"), r.Count(driver.StatusOK))
	Summary(w, r.Diagnostics, r.Dropped, opts)
}

// Short prints r in the one-line-per-diagnostic golden format.
func Short(w io.Writer, r *driver.Report, includeNotes bool) error {
	out := diag.FormatShortDiagnostics(r.Diagnostics, includeNotes)
	if out == "" {
		return nil
	}
	_, err := io.WriteString(w, out+"\n")
	return err
}

func position(loc diag.Location) string {
	if loc.Line == 0 {
		return "-"
	}
	s := strconv.FormatUint(uint64(loc.Line), 10)
	if loc.Column != 0 {
		s += ":" + strconv.FormatUint(uint64(loc.Column), 10)
	}
	return s
}
