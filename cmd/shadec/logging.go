package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"shadec/internal/driver"
)

// setupLogging installs the operator logger selected by --log-level. "off"
// keeps the Nop logger.
func setupLogging(cmd *cobra.Command) (func(), error) {
	levelStr, err := cmd.Root().PersistentFlags().GetString("log-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get log-level flag: %w", err)
	}
	levelStr = strings.ToLower(strings.TrimSpace(levelStr))
	if levelStr == "" || levelStr == "off" {
		driver.SetLogger(nil)
		return func() {}, nil
	}
	level, err := zapcore.ParseLevel(levelStr)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q (expected off|debug|info|warn|error)", levelStr)
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.DisableStacktrace = true
	cfg.DisableCaller = true
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	driver.SetLogger(logger.Named("shadec"))
	return func() {
		_ = logger.Sync()
		driver.SetLogger(nil)
	}, nil
}
