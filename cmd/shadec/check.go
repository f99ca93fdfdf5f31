package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"shadec/internal/diag"
	"shadec/internal/diagfmt"
	"shadec/internal/driver"
	"shadec/internal/observ"
	"shadec/internal/ui"
	"shadec/internal/version"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <manifest.yaml>...",
	Short: "Resolve every call of one or more call manifests",
	Long: `Resolve the calls listed in YAML call manifests and report the selected
overloads, return types and diagnostics. The exit status is 1 when any
manifest produced an error.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("format", "pretty", "output format (pretty|short|json|sarif|msgpack)")
	checkCmd.Flags().String("dialect", "", "dialect override (core|hlsl|auto)")
	checkCmd.Flags().String("stage", "", "default evaluation stage (constant|override|runtime|auto)")
	checkCmd.Flags().Int("jobs", 0, "max parallel resolutions per manifest (0=auto)")
	checkCmd.Flags().Bool("const-eval", false, "fold constant calls through their const-eval functions")
	checkCmd.Flags().Bool("cache", false, "reuse reports from the disk cache")
	checkCmd.Flags().Bool("with-notes", false, "include candidate notes in output")
	checkCmd.Flags().Bool("signatures", false, "show the selected overload under each call")
	checkCmd.Flags().String("paths", "auto", "path display (auto|absolute|relative|basename)")
	checkCmd.Flags().String("ui", "auto", "progress UI for several manifests (auto|on|off)")
	checkCmd.Flags().StringP("output", "o", "", "write output to a file instead of stdout")
	checkCmd.Flags().Int("width", 0, "truncate the call column to this width (0=no limit)")
}

func runCheck(cmd *cobra.Command, args []string) error {
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
	if !validFormat(s.Format) {
		return fmt.Errorf("unknown format %q (expected %s)", s.Format, strings.Join(checkFormats, "|"))
	}
	pathMode, ok := diagfmt.ParsePathMode(s.Paths)
	if !ok {
		return fmt.Errorf("invalid --paths value %q", s.Paths)
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	signatures, err := cmd.Flags().GetBool("signatures")
	if err != nil {
		return fmt.Errorf("failed to get signatures flag: %w", err)
	}
	width, err := cmd.Flags().GetInt("width")
	if err != nil {
		return fmt.Errorf("failed to get width flag: %w", err)
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}
	outPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}

	opts := driver.Options{
		Dialect:        s.Dialect,
		Stage:          s.Stage,
		Jobs:           s.Jobs,
		ConstEval:      s.ConstEval,
		MaxDiagnostics: s.MaxDiagnostics,
	}
	if s.Cache {
		cache, err := driver.OpenDiskCache("shadec")
		if err != nil {
			driver.Logger().Sugar().Warnf("disk cache unavailable: %v", err)
		} else {
			opts.Cache = cache
		}
	}

	var results []driver.FileResult
	useUI := s.Format == "pretty" && outPath == "" && !s.Quiet && len(args) > 1 && shouldUseTUI(mode)
	if useUI {
		results, err = runCheckWithUI(cmd.Context(), "shadec check", args, opts)
	} else {
		results, err = driver.CheckFiles(cmd.Context(), args, opts, nil)
	}
	if err != nil {
		return err
	}

	out := io.Writer(os.Stdout)
	outFile := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("failed to create %q: %w", outPath, err)
		}
		defer f.Close()
		outFile = f
		out = f
	}
	bw := bufio.NewWriter(out)

	var reports []*driver.Report
	failed := false
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", r.Path, r.Err)
			failed = true
			continue
		}
		reports = append(reports, r.Report)
		if r.Report.HasErrors() {
			failed = true
		}
	}

	prettyOpts := diagfmt.PrettyOpts{
		Color:          useColor(s.Color, outFile),
		PathMode:       pathMode,
		Width:          width,
		ShowNotes:      withNotes,
		ShowSignatures: signatures,
	}
	jsonOpts := diagfmt.JSONOpts{PathMode: pathMode, IncludeNotes: withNotes}

	switch s.Format {
	case "pretty":
		for i, r := range reports {
			if s.Quiet {
				diagfmt.Pretty(bw, r.Diagnostics, prettyOpts)
				continue
			}
			if i > 0 {
				fmt.Fprintln(bw)
			}
			diagfmt.PrettyReport(bw, r, prettyOpts)
			if s.Timings {
				printTimings(bw, r.Timings)
			}
		}
	case "short":
		for _, r := range reports {
			if err := diagfmt.Short(bw, r, withNotes); err != nil {
				return err
			}
		}
	case "json":
		err = diagfmt.ReportJSON(bw, reports, jsonOpts, s.Timings)
	case "sarif":
		var all []diag.Diagnostic
		for _, r := range reports {
			all = append(all, r.Diagnostics...)
		}
		err = diagfmt.Sarif(bw, all, diagfmt.SarifRunMeta{
			ToolName:       "shadec",
			ToolVersion:    version.Version,
			InvocationArgs: os.Args[1:],
		})
	case "msgpack":
		err = diagfmt.WriteMsgpack(bw, reports)
	}
	if err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if failed {
		return exitError{code: 1}
	}
	return nil
}

func printTimings(w io.Writer, r observ.Report) {
	if len(r.Phases) == 0 {
		return
	}
	for _, p := range r.Phases {
		fmt.Fprintf(w, "  %-8s %.2f ms", p.Name, p.DurationMS)
		if p.Note != "" {
			fmt.Fprintf(w, " (%s)", p.Note)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "  %-8s %.2f ms\n", "total", r.TotalMS)
}

type checkOutcome struct {
	results []driver.FileResult
	err     error
}

func runCheckWithUI(ctx context.Context, title string, files []string, opts driver.Options) ([]driver.FileResult, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan checkOutcome, 1)

	go func() {
		res, err := driver.CheckFiles(ctx, files, opts, driver.ChannelSink{Ch: events})
		outcomeCh <- checkOutcome{results: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	// окно могли закрыть раньше, не даём CheckFiles заблокироваться на канале
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
