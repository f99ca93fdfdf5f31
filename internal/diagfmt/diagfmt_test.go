package diagfmt

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"shadec/internal/diag"
	"shadec/internal/dialect"
	"shadec/internal/driver"
	"shadec/internal/intrinsic"
	"shadec/internal/observ"
	"shadec/internal/styled"
)

func sampleReport() *driver.Report {
	file := filepath.Join("testdata", "calls.yaml")
	return &driver.Report{
		Manifest: file,
		Dialect:  "core",
		Results: []driver.CallResult{
			{
				Index: 0, Location: diag.Location{File: file, Line: 3, Column: 5},
				Kind: "builtin", Name: "clamp", Call: "clamp(abstract-int, abstract-int, abstract-int)",
				Status: driver.StatusOK, Stage: "constant", ReturnType: "abstract-int", Value: "3",
				Signature: "clamp(e: T, low: T, high: T) -> T", Parameters: []string{"e: abstract-int"},
			},
			{
				Index: 1, Location: diag.Location{File: file, Line: 6, Column: 5},
				Kind: "builtin", Name: "clamp", Call: "clamp(i32, f32, i32)",
				Status: driver.StatusNoMatch, Stage: "runtime", Error: "no matching builtin",
			},
		},
		Diagnostics: []diag.Diagnostic{{
			Severity: diag.SevError,
			Code:     diag.SemaNoOverload,
			Message:  "no matching builtin for clamp(i32, f32, i32)",
			Primary:  diag.Location{File: file, Line: 6, Column: 5},
			Notes: []diag.Note{
				{Msg: "clamp(e: T, low: T, high: T) -> T: argument 2 is f32"},
				{Loc: diag.Location{File: file, Line: 1, Column: 1}, Msg: "dialect set here"},
			},
		}},
		Timings: observ.Report{TotalMS: 1, Phases: []observ.PhaseReport{{Name: "resolve", DurationMS: 1}}},
	}
}

func TestPrettyDiagnostics(t *testing.T) {
	r := sampleReport()
	var buf bytes.Buffer
	Pretty(&buf, r.Diagnostics, PrettyOpts{PathMode: PathModeBasename})
	want := "calls.yaml:6:5: ERROR SEM3001: no matching builtin for clamp(i32, f32, i32)\n"
	if got := buf.String(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	buf.Reset()
	Pretty(&buf, r.Diagnostics, PrettyOpts{PathMode: PathModeBasename, ShowNotes: true})
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	wantLines := []string{
		"calls.yaml:6:5: ERROR SEM3001: no matching builtin for clamp(i32, f32, i32)",
		"  note: clamp(e: T, low: T, high: T) -> T: argument 2 is f32",
		"  calls.yaml:1:1: note: dialect set here",
	}
	if diff := cmp.Diff(wantLines, lines); diff != "" {
		t.Fatalf("lines (-want +got):\n%s", diff)
	}
}

func TestPrettyColor(t *testing.T) {
	var plain, colored bytes.Buffer
	Pretty(&plain, sampleReport().Diagnostics, PrettyOpts{})
	Pretty(&colored, sampleReport().Diagnostics, PrettyOpts{Color: true})
	if strings.Contains(plain.String(), "\x1b[") {
		t.Fatalf("plain output has escapes: %q", plain.String())
	}
	if !strings.Contains(colored.String(), "\x1b[") {
		t.Fatalf("colored output has no escapes: %q", colored.String())
	}
}

func TestFormatPath(t *testing.T) {
	base := t.TempDir()
	inside := filepath.Join(base, "sub", "calls.yaml")
	outside := filepath.Join(filepath.Dir(base), "elsewhere.yaml")

	if got := FormatPath(inside, PathModeRelative, base); got != filepath.Join("sub", "calls.yaml") {
		t.Fatalf("relative = %q", got)
	}
	if got := FormatPath(inside, PathModeBasename, base); got != "calls.yaml" {
		t.Fatalf("basename = %q", got)
	}
	if got := FormatPath(inside, PathModeAbsolute, base); got != inside {
		t.Fatalf("absolute = %q", got)
	}
	if got := FormatPath(inside, PathModeAuto, base); got != filepath.Join("sub", "calls.yaml") {
		t.Fatalf("auto inside = %q", got)
	}
	if got := FormatPath(outside, PathModeAuto, base); got != outside {
		t.Fatalf("auto outside = %q", got)
	}
	if got := FormatPath("", PathModeAbsolute, base); got != "" {
		t.Fatalf("empty = %q", got)
	}
}

func TestParsePathMode(t *testing.T) {
	for in, want := range map[string]PathMode{"": PathModeAuto, "abs": PathModeAbsolute, "relative": PathModeRelative, "base": PathModeBasename} {
		if got, ok := ParsePathMode(in); !ok || got != want {
			t.Errorf("ParsePathMode(%q) = %v, %v", in, got, ok)
		}
	}
	if _, ok := ParsePathMode("tilde"); ok {
		t.Error("tilde should not parse")
	}
}

func TestPrettyReport(t *testing.T) {
	r := sampleReport()
	r.Cached = true
	var buf bytes.Buffer
	PrettyReport(&buf, r, PrettyOpts{PathMode: PathModeBasename, ShowSignatures: true})
	out := buf.String()
	for _, want := range []string{
		"calls.yaml [core] (cached)\n",
		"  3:5  ok        clamp(abstract-int, abstract-int, abstract-int)  -> abstract-int = 3\n",
		"  6:5  no_match  clamp(i32, f32, i32)\n",
		"clamp(e: T, low: T, high: T) -> T\n",
		"calls.yaml:6:5: ERROR SEM3001",
		"2 calls, 1 ok; 1 error, 0 warnings\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
}

func TestPrettyReportTruncatesCalls(t *testing.T) {
	var buf bytes.Buffer
	PrettyReport(&buf, sampleReport(), PrettyOpts{PathMode: PathModeBasename, Width: 12})
	if !strings.Contains(buf.String(), "clamp(abs...") {
		t.Fatalf("call column not truncated:\n%s", buf.String())
	}
}

func TestShort(t *testing.T) {
	var buf bytes.Buffer
	if err := Short(&buf, sampleReport(), false); err != nil {
		t.Fatal(err)
	}
	want := "error SEM3001 testdata/calls.yaml:6:5 no matching builtin for clamp(i32, f32, i32)\n"
	if got := buf.String(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	buf.Reset()
	if err := Short(&buf, &driver.Report{}, true); err != nil || buf.Len() != 0 {
		t.Fatalf("empty report printed %q, %v", buf.String(), err)
	}
}

func TestReportJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := ReportJSON(&buf, []*driver.Report{sampleReport()}, JSONOpts{PathMode: PathModeBasename, IncludeNotes: true}, true); err != nil {
		t.Fatalf("ReportJSON: %v", err)
	}

	var raw []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	results := raw[0]["results"].([]any)
	if status := results[1].(map[string]any)["status"]; status != "no_match" {
		t.Fatalf("status = %v", status)
	}

	var out []ReportOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	got := out[0]
	if got.Manifest != "calls.yaml" || got.Results[0].Location.File != "calls.yaml" || got.Results[0].Value != "3" {
		t.Fatalf("report = %+v", got)
	}
	if got.Timings == nil || got.Timings.Phases[0].Name != "resolve" {
		t.Fatalf("timings = %+v", got.Timings)
	}
	d := got.Diagnostics.Diagnostics[0]
	if d.Code != "SEM3001" || d.Severity != "ERROR" || d.Location.Line != 6 || len(d.Notes) != 2 {
		t.Fatalf("diagnostic = %+v", d)
	}
	if d.Notes[0].Location != nil || d.Notes[1].Location == nil {
		t.Fatalf("note locations = %+v", d.Notes)
	}
}

func TestJSONMax(t *testing.T) {
	diags := sampleReport().Diagnostics
	diags = append(diags, diags[0], diags[0])
	out := BuildDiagnosticsOutput(diags, 1, JSONOpts{Max: 1})
	if out.Count != 1 || out.Dropped != 3 || out.Diagnostics[0].Notes != nil {
		t.Fatalf("output = %+v", out)
	}
	var buf bytes.Buffer
	if err := JSON(&buf, diags, JSONOpts{}); err != nil || !strings.Contains(buf.String(), `"count": 3`) {
		t.Fatalf("JSON = %s, %v", buf.String(), err)
	}
}

func TestSarif(t *testing.T) {
	diags := sampleReport().Diagnostics
	diags = append(diags, diag.Diagnostic{Severity: diag.SevWarning, Code: diag.SemaDeprecated, Message: "old", Primary: diag.Location{File: "a.yaml"}})
	var buf bytes.Buffer
	err := Sarif(&buf, diags, SarifRunMeta{ToolName: "shadec", ToolVersion: "1.0", InvocationArgs: []string{"check", "a.yaml"}})
	if err != nil {
		t.Fatalf("Sarif: %v", err)
	}
	var log sarifLog
	if err := json.Unmarshal(buf.Bytes(), &log); err != nil {
		t.Fatalf("invalid SARIF: %v", err)
	}
	if log.Version != "2.1.0" || len(log.Runs) != 1 {
		t.Fatalf("log = %+v", log)
	}
	run := log.Runs[0]
	ids := []string{run.Tool.Driver.Rules[0].ID, run.Tool.Driver.Rules[1].ID}
	if diff := cmp.Diff([]string{"SEM3001", "SEM3006"}, ids); diff != "" {
		t.Fatalf("rules (-want +got):\n%s", diff)
	}
	first := run.Results[0]
	if first.Level != "error" || first.Locations[0].PhysicalLocation.Region.StartLine != 6 || len(first.RelatedLocations) != 2 {
		t.Fatalf("first result = %+v", first)
	}
	if second := run.Results[1]; second.Level != "warning" || second.Locations[0].PhysicalLocation.Region != nil {
		t.Fatalf("second result = %+v", second)
	}
	if run.Invocations[0].ExecutionSuccessful {
		t.Fatal("run with errors reported as successful")
	}
}

func TestMsgpackRoundTrip(t *testing.T) {
	in := []*driver.Report{sampleReport()}
	var buf bytes.Buffer
	if err := WriteMsgpack(&buf, in); err != nil {
		t.Fatal(err)
	}
	out, err := ReadMsgpack(&buf)
	if err != nil {
		t.Fatal(err)
	}
	opts := []cmp.Option{cmpopts.EquateEmpty(), cmpopts.IgnoreFields(driver.Report{}, "Timings", "Cached")}
	if diff := cmp.Diff(in, out, opts...); diff != "" {
		t.Fatalf("round trip (-want +got):\n%s", diff)
	}
	if _, err := ReadMsgpack(strings.NewReader("\xc1")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestOverloadTable(t *testing.T) {
	var buf bytes.Buffer
	n := OverloadTable(&buf, dialect.MustLoad(dialect.Core), OverloadFilter{
		Kinds: []intrinsic.Kind{intrinsic.KindBuiltin},
		Name:  "clamp",
	}, PrettyOpts{})
	if n != 2 {
		t.Fatalf("printed %d overloads:\n%s", n, buf.String())
	}
	out := buf.String()
	for _, want := range []string{"builtin (1)\n", "  clamp\n", "    clamp(e: T, low: T, high: T) -> T", "must_use"} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if n := OverloadTable(&buf, dialect.MustLoad(dialect.Core), OverloadFilter{Flag: intrinsic.FlagIsDeprecated}, PrettyOpts{}); n != 0 || buf.Len() != 0 {
		t.Fatalf("core deprecated overloads = %d:\n%s", n, buf.String())
	}
	if n := OverloadTable(&buf, dialect.MustLoad(dialect.HLSL), OverloadFilter{Flag: intrinsic.FlagIsDeprecated}, PrettyOpts{}); n != 1 {
		t.Fatalf("hlsl deprecated overloads = %d:\n%s", n, buf.String())
	}
}

func TestRenderStyled(t *testing.T) {
	text := (&styled.Text{}).Code("abs").Code("(").Type("f32").Code(")")
	if got := RenderStyled(text, false); got != "abs(f32)" {
		t.Fatalf("plain = %q", got)
	}
	colored := RenderStyled(text, true)
	if !strings.Contains(colored, "\x1b[") || !strings.Contains(colored, "f32") {
		t.Fatalf("colored = %q", colored)
	}
	if got := RenderStyled(nil, true); got != "" {
		t.Fatalf("nil text = %q", got)
	}
}
