package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"shadec/internal/diagfmt"
	"shadec/internal/driver"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [flags] <name> [arg...]",
	Short: "Resolve a single call",
	Long: `Resolve one call and print the selected overload.

Arguments are type names (f32, vec3<f32>, ptr<storage, array<u32>, read>)
or literals (1, 1.5, 2i, 3u, 1.0f, 0.5h, true). Put -- before negative
literals.`,
	Example: `  shadec resolve clamp i32 1 2i
  shadec resolve --template f32 vec3 1 2 3
  shadec resolve --dialect hlsl asint f32
  shadec resolve --const-eval -- - -3`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().String("dialect", "", "dialect (core|hlsl|auto)")
	resolveCmd.Flags().String("kind", "", "namespace (builtin|unary|binary|ctor_conv); inferred when empty")
	resolveCmd.Flags().StringSlice("template", nil, "explicit template arguments, e.g. --template f32")
	resolveCmd.Flags().String("stage", "", "evaluation stage (constant|override|runtime|auto)")
	resolveCmd.Flags().String("pipeline", "", "pipeline stage (vertex|fragment|compute)")
	resolveCmd.Flags().Bool("const-eval", false, "fold the call when it is constant")
	resolveCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

func runResolve(cmd *cobra.Command, args []string) error {
	cleanupLog, err := setupLogging(cmd)
	if err != nil {
		return err
	}
	defer cleanupLog()
	cleanupTrace, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanupTrace()

	s, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	cs, err := callFromArgs(cmd, args)
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	m := &driver.Manifest{Path: "<command line>", Calls: []driver.CallSpec{cs}}
	report, err := driver.Check(cmd.Context(), m, driver.Options{
		Dialect:        firstSet(s.Dialect, "auto"),
		Stage:          s.Stage,
		Jobs:           1,
		ConstEval:      s.ConstEval,
		MaxDiagnostics: s.MaxDiagnostics,
	})
	if err != nil {
		return err
	}

	switch format {
	case "json":
		if err := diagfmt.ReportJSON(cmd.OutOrStdout(), []*driver.Report{report}, diagfmt.JSONOpts{IncludeNotes: true}, s.Timings); err != nil {
			return err
		}
	case "pretty":
		printResolution(cmd.OutOrStdout(), report, useColor(s.Color, os.Stdout))
		if s.Timings {
			printTimings(cmd.OutOrStdout(), report.Timings)
		}
	default:
		return fmt.Errorf("unknown format %q (expected pretty|json)", format)
	}
	if report.HasErrors() {
		return exitError{code: 1}
	}
	return nil
}

func callFromArgs(cmd *cobra.Command, args []string) (driver.CallSpec, error) {
	kind, err := cmd.Flags().GetString("kind")
	if err != nil {
		return driver.CallSpec{}, fmt.Errorf("failed to get kind flag: %w", err)
	}
	tmpl, err := cmd.Flags().GetStringSlice("template")
	if err != nil {
		return driver.CallSpec{}, fmt.Errorf("failed to get template flag: %w", err)
	}
	pipeline, err := cmd.Flags().GetString("pipeline")
	if err != nil {
		return driver.CallSpec{}, fmt.Errorf("failed to get pipeline flag: %w", err)
	}
	return driver.CallSpec{
		Name:         strings.TrimSpace(args[0]),
		Kind:         kind,
		Args:         args[1:],
		TemplateArgs: tmpl,
		Pipeline:     pipeline,
	}, nil
}

func firstSet(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func printResolution(w io.Writer, r *driver.Report, colored bool) {
	label := color.New(color.Faint)
	head := color.New(color.Bold)
	if colored {
		label.EnableColor()
		head.EnableColor()
	} else {
		label.DisableColor()
		head.DisableColor()
	}

	for _, res := range r.Results {
		fmt.Fprintf(w, "%s  [%s, %s]\n", head.Sprint(firstSet(res.Call, res.Name)), r.Dialect, res.Status)
		row := func(name, value string) {
			if value != "" {
				fmt.Fprintf(w, "  %s %s\n", label.Sprintf("%-9s", name), value)
			}
		}
		if res.Status == driver.StatusOK {
			row("overload", res.Signature)
			row("returns", res.ReturnType)
		}
		row("kind", res.Kind)
		row("stage", res.Stage)
		if res.Status == driver.StatusOK {
			row("flags", res.Flags)
			row("const", res.ConstEval)
			row("value", res.Value)
		}
	}
	if len(r.Diagnostics) > 0 {
		fmt.Fprintln(w)
		diagfmt.Pretty(w, r.Diagnostics, diagfmt.PrettyOpts{Color: colored, ShowNotes: true})
	}
}
