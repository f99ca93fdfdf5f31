package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"shadec/internal/dialect"
	"shadec/internal/intrinsic"
)

const configFileName = "shadec.toml"

// projectConfig mirrors shadec.toml.
//
//	[check]
//	dialect = "hlsl"
//	jobs = 4
//	max_diagnostics = 50
//	stage = "runtime"
//	const_eval = true
//	cache = true
//
//	[output]
//	color = "auto"
//	format = "pretty"
//	paths = "relative"
type projectConfig struct {
	Check  checkConfig  `toml:"check"`
	Output outputConfig `toml:"output"`
}

type checkConfig struct {
	Dialect        string `toml:"dialect"`
	Jobs           int    `toml:"jobs"`
	MaxDiagnostics int    `toml:"max_diagnostics"`
	Stage          string `toml:"stage"`
	ConstEval      bool   `toml:"const_eval"`
	Cache          bool   `toml:"cache"`
}

type outputConfig struct {
	Color  string `toml:"color"`
	Format string `toml:"format"`
	Paths  string `toml:"paths"`
}

var checkFormats = []string{"pretty", "short", "json", "sarif", "msgpack"}

// findConfig walks up from startDir looking for shadec.toml.
func findConfig(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, configFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// loadProjectConfig decodes and validates a config file. Unknown keys are
// errors so typos do not silently fall back to defaults.
func loadProjectConfig(path string) (projectConfig, error) {
	var cfg projectConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return projectConfig{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return projectConfig{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("check", "dialect") && cfg.Check.Dialect != "auto" {
		if _, err := dialect.ParseKind(cfg.Check.Dialect); err != nil {
			return projectConfig{}, fmt.Errorf("%s: [check].dialect: %w", path, err)
		}
	}
	if meta.IsDefined("check", "stage") && cfg.Check.Stage != "auto" {
		if _, ok := intrinsic.ParseEvaluationStage(cfg.Check.Stage); !ok || cfg.Check.Stage == "" {
			return projectConfig{}, fmt.Errorf("%s: [check].stage: unknown stage %q", path, cfg.Check.Stage)
		}
	}
	if cfg.Check.Jobs < 0 {
		return projectConfig{}, fmt.Errorf("%s: [check].jobs must not be negative", path)
	}
	if cfg.Check.MaxDiagnostics < 0 {
		return projectConfig{}, fmt.Errorf("%s: [check].max_diagnostics must not be negative", path)
	}
	if meta.IsDefined("output", "color") {
		if _, err := readColorMode(cfg.Output.Color); err != nil {
			return projectConfig{}, fmt.Errorf("%s: [output].color: %w", path, err)
		}
	}
	if meta.IsDefined("output", "format") && !validFormat(cfg.Output.Format) {
		return projectConfig{}, fmt.Errorf("%s: [output].format: unknown format %q", path, cfg.Output.Format)
	}
	return cfg, nil
}

func validFormat(f string) bool {
	for _, ok := range checkFormats {
		if f == ok {
			return true
		}
	}
	return false
}

// loadConfigFor returns the config named by --config, or the nearest
// shadec.toml above the working directory. A missing file yields the zero
// config.
func loadConfigFor(cmd *cobra.Command) (projectConfig, string, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return projectConfig{}, "", fmt.Errorf("failed to get config flag: %w", err)
	}
	if path == "" {
		found, ok, err := findConfig(".")
		if err != nil || !ok {
			return projectConfig{}, "", err
		}
		path = found
	}
	cfg, err := loadProjectConfig(path)
	if err != nil {
		return projectConfig{}, "", err
	}
	return cfg, path, nil
}

type colorMode string

const (
	colorAuto colorMode = "auto"
	colorOn   colorMode = "on"
	colorOff  colorMode = "off"
)

func readColorMode(value string) (colorMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return colorAuto, nil
	case "on", "always":
		return colorOn, nil
	case "off", "never":
		return colorOff, nil
	}
	return "", fmt.Errorf("invalid color value %q (expected auto|on|off)", value)
}

func useColor(mode colorMode, out *os.File) bool {
	switch mode {
	case colorOn:
		return true
	case colorOff:
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isTerminal(out)
}

type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

func readUIMode(value string) (uiMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return uiModeAuto, nil
	case "on":
		return uiModeOn, nil
	case "off":
		return uiModeOff, nil
	}
	return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
}

func shouldUseTUI(mode uiMode) bool {
	switch mode {
	case uiModeOn:
		return true
	case uiModeOff:
		return false
	}
	return isTerminal(os.Stdout)
}

// settings are the effective options of a command: defaults, overridden by
// shadec.toml, overridden by explicitly set flags.
type settings struct {
	Dialect        string
	Stage          string
	Jobs           int
	MaxDiagnostics int
	ConstEval      bool
	Cache          bool
	Color          colorMode
	Format         string
	Paths          string
	Quiet          bool
	Timings        bool
	ConfigPath     string
}

func resolveSettings(cmd *cobra.Command) (settings, error) {
	cfg, path, err := loadConfigFor(cmd)
	if err != nil {
		return settings{}, err
	}
	s := settings{
		Dialect:        cfg.Check.Dialect,
		Stage:          cfg.Check.Stage,
		Jobs:           cfg.Check.Jobs,
		MaxDiagnostics: 100,
		ConstEval:      cfg.Check.ConstEval,
		Cache:          cfg.Check.Cache,
		Format:         "pretty",
		Paths:          cfg.Output.Paths,
		ConfigPath:     path,
	}
	if cfg.Check.MaxDiagnostics > 0 {
		s.MaxDiagnostics = cfg.Check.MaxDiagnostics
	}
	if cfg.Output.Format != "" {
		s.Format = cfg.Output.Format
	}
	if s.Color, err = readColorMode(cfg.Output.Color); err != nil {
		return settings{}, err
	}

	root := cmd.Root().PersistentFlags()
	if root.Changed("color") {
		v, _ := root.GetString("color")
		if s.Color, err = readColorMode(v); err != nil {
			return settings{}, err
		}
	}
	if root.Changed("max-diagnostics") {
		s.MaxDiagnostics, _ = root.GetInt("max-diagnostics")
	}
	s.Quiet, _ = root.GetBool("quiet")
	s.Timings, _ = root.GetBool("timings")

	local := cmd.Flags()
	overrideString := func(name string, dst *string) {
		if f := local.Lookup(name); f != nil && f.Changed {
			*dst = f.Value.String()
		}
	}
	overrideString("dialect", &s.Dialect)
	overrideString("stage", &s.Stage)
	overrideString("format", &s.Format)
	overrideString("paths", &s.Paths)
	if f := local.Lookup("jobs"); f != nil && f.Changed {
		s.Jobs, _ = local.GetInt("jobs")
	}
	if f := local.Lookup("const-eval"); f != nil && f.Changed {
		s.ConstEval, _ = local.GetBool("const-eval")
	}
	if f := local.Lookup("cache"); f != nil && f.Changed {
		s.Cache, _ = local.GetBool("cache")
	}
	return s, nil
}
