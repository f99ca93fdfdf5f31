package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"shadec/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "shadec",
	Short: "Shader intrinsic overload resolver",
	Long: `shadec resolves calls to shader builtins, operators and constructors
against the core WGSL intrinsic table or a backend dialect extending it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// exitError carries a process exit code without a message; the command has
// already printed what went wrong.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// main registers subcommands and persistent flags, then executes the root
// command. Command errors exit with status 1.
func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(overloadsCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to keep per manifest")
	rootCmd.PersistentFlags().String("config", "", "path to shadec.toml (default: search upward from the working directory)")
	rootCmd.PersistentFlags().String("log-level", "off", "operator log level (off|debug|info|warn|error)")
	rootCmd.PersistentFlags().String("trace", "", "trace output file (- for stderr)")
	rootCmd.PersistentFlags().String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	rootCmd.PersistentFlags().String("trace-mode", "stream", "trace storage mode (stream|ring|both)")
	rootCmd.PersistentFlags().String("trace-format", "auto", "trace format (auto|text|ndjson|chrome)")
	rootCmd.PersistentFlags().Int("trace-ring-size", 4096, "ring buffer capacity for ring/both trace modes")

	if err := rootCmd.Execute(); err != nil {
		var ee exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintf(os.Stderr, "shadec: %v\n", err)
		os.Exit(1)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
