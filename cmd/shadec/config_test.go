package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"shadec/internal/intrinsic"
)

func writeConfig(t *testing.T, dir, data string) string {
	t.Helper()
	path := filepath.Join(dir, configFileName)
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write %s: %v", configFileName, err)
	}
	return path
}

func TestFindConfigWalksUp(t *testing.T) {
	root := t.TempDir()
	want := writeConfig(t, root, "[check]\njobs = 2\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	got, ok, err := findConfig(nested)
	if err != nil {
		t.Fatalf("findConfig: %v", err)
	}
	if !ok {
		t.Fatalf("expected config to be found")
	}
	wantAbs, _ := filepath.Abs(want)
	if got != wantAbs {
		t.Fatalf("findConfig = %q, want %q", got, wantAbs)
	}
}

func TestLoadProjectConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `# shadec settings
[check]
dialect = "hlsl"
jobs = 4
max_diagnostics = 10
stage = "override"
const_eval = true

[output]
color = "off"
format = "json"
paths = "basename"
`)
	cfg, err := loadProjectConfig(path)
	if err != nil {
		t.Fatalf("loadProjectConfig: %v", err)
	}
	if cfg.Check.Dialect != "hlsl" || cfg.Check.Jobs != 4 || cfg.Check.MaxDiagnostics != 10 {
		t.Fatalf("unexpected check section: %+v", cfg.Check)
	}
	if !cfg.Check.ConstEval || cfg.Check.Cache {
		t.Fatalf("unexpected bools: %+v", cfg.Check)
	}
	if cfg.Output.Format != "json" || cfg.Output.Paths != "basename" {
		t.Fatalf("unexpected output section: %+v", cfg.Output)
	}
}

func TestLoadProjectConfigRejects(t *testing.T) {
	cases := []struct {
		name string
		data string
		want string
	}{
		{"unknown key", "[check]\ndialet = \"hlsl\"\n", "unknown keys: check.dialet"},
		{"bad dialect", "[check]\ndialect = \"glsl\"\n", "[check].dialect"},
		{"bad stage", "[check]\nstage = \"later\"\n", "[check].stage"},
		{"negative jobs", "[check]\njobs = -1\n", "[check].jobs"},
		{"bad color", "[output]\ncolor = \"purple\"\n", "[output].color"},
		{"bad format", "[output]\nformat = \"xml\"\n", "[output].format"},
		{"broken toml", "[check\n", "failed to parse TOML"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tc.data)
			_, err := loadProjectConfig(path)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestLoadProjectConfigAutoValues(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "[check]\ndialect = \"auto\"\nstage = \"auto\"\n")
	if _, err := loadProjectConfig(path); err != nil {
		t.Fatalf("auto values should be accepted: %v", err)
	}
}

func TestReadColorMode(t *testing.T) {
	cases := map[string]colorMode{
		"":       colorAuto,
		"auto":   colorAuto,
		"ON":     colorOn,
		"always": colorOn,
		" off ":  colorOff,
		"never":  colorOff,
	}
	for in, want := range cases {
		got, err := readColorMode(in)
		if err != nil {
			t.Fatalf("readColorMode(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("readColorMode(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := readColorMode("sometimes"); err == nil {
		t.Fatalf("expected error for invalid color mode")
	}
}

func TestReadUIMode(t *testing.T) {
	for in, want := range map[string]uiMode{"": uiModeAuto, "on": uiModeOn, "OFF": uiModeOff} {
		got, err := readUIMode(in)
		if err != nil || got != want {
			t.Fatalf("readUIMode(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := readUIMode("maybe"); err == nil {
		t.Fatalf("expected error for invalid ui mode")
	}
	if !shouldUseTUI(uiModeOn) || shouldUseTUI(uiModeOff) {
		t.Fatalf("explicit ui modes must win over terminal detection")
	}
}

func TestParseFlagName(t *testing.T) {
	got, err := parseFlagName("must_use")
	if err != nil {
		t.Fatalf("parseFlagName: %v", err)
	}
	if got != intrinsic.FlagMustUse {
		t.Fatalf("parseFlagName(must_use) = %v", got)
	}
	if got, err := parseFlagName(""); err != nil || got != 0 {
		t.Fatalf("empty flag name = %v, %v", got, err)
	}
	if _, err := parseFlagName("pure"); err == nil {
		t.Fatalf("expected error for unknown flag")
	}
}

// newSettingsCommand builds a detached root/child pair carrying the flags
// resolveSettings reads.
func newSettingsCommand(configPath string) (*cobra.Command, *cobra.Command) {
	root := &cobra.Command{Use: "shadec"}
	pf := root.PersistentFlags()
	pf.String("config", configPath, "")
	pf.String("color", "auto", "")
	pf.Int("max-diagnostics", 100, "")
	pf.Bool("quiet", false, "")
	pf.Bool("timings", false, "")

	child := &cobra.Command{Use: "check", RunE: func(*cobra.Command, []string) error { return nil }}
	f := child.Flags()
	f.String("dialect", "", "")
	f.String("stage", "", "")
	f.String("format", "pretty", "")
	f.String("paths", "auto", "")
	f.Int("jobs", 0, "")
	f.Bool("const-eval", false, "")
	f.Bool("cache", false, "")
	root.AddCommand(child)
	return root, child
}

func TestResolveSettingsPrecedence(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `[check]
dialect = "hlsl"
jobs = 3
const_eval = true

[output]
format = "short"
color = "on"
`)
	root, child := newSettingsCommand(path)
	if err := root.PersistentFlags().Set("max-diagnostics", "7"); err != nil {
		t.Fatalf("set max-diagnostics: %v", err)
	}
	if err := child.Flags().Set("dialect", "core"); err != nil {
		t.Fatalf("set dialect: %v", err)
	}
	if err := child.Flags().Set("const-eval", "false"); err != nil {
		t.Fatalf("set const-eval: %v", err)
	}

	s, err := resolveSettings(child)
	if err != nil {
		t.Fatalf("resolveSettings: %v", err)
	}
	if s.Dialect != "core" {
		t.Fatalf("flag should override config dialect, got %q", s.Dialect)
	}
	if s.ConstEval {
		t.Fatalf("flag should override config const_eval")
	}
	if s.Jobs != 3 {
		t.Fatalf("config jobs should apply, got %d", s.Jobs)
	}
	if s.Format != "short" {
		t.Fatalf("config format should apply, got %q", s.Format)
	}
	if s.Color != colorOn {
		t.Fatalf("config color should apply, got %q", s.Color)
	}
	if s.MaxDiagnostics != 7 {
		t.Fatalf("max-diagnostics = %d, want 7", s.MaxDiagnostics)
	}
	if s.ConfigPath != path {
		t.Fatalf("ConfigPath = %q, want %q", s.ConfigPath, path)
	}
}

func TestVersionRendering(t *testing.T) {
	info := versionInfo{Version: "1.2.3", GitCommit: "abc123"}

	var buf bytes.Buffer
	renderVersionPretty(&buf, info, versionOptions{showHash: true, showDate: true})
	out := buf.String()
	for _, want := range []string{"shadec 1.2.3", "core", "hlsl", "commit: abc123", "built:  unknown"} {
		if !strings.Contains(out, want) {
			t.Fatalf("pretty output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := renderVersionJSON(&buf, info, versionOptions{showHash: true}); err != nil {
		t.Fatalf("renderVersionJSON: %v", err)
	}
	var payload versionPayload
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Tool != "shadec" || payload.Version != "1.2.3" || payload.GitCommit != "abc123" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if payload.BuildDate != "" {
		t.Fatalf("build date should be omitted without --date")
	}
}
