package cmd

import (
	"fmt"
	"os"

	"spoolsync/core/engine"
	"spoolsync/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "spoolsync",
	Short: "Spoolman to slicer config synchronizer",
	Long: `Spoolsync fetches filament data from a Spoolman inventory service and
keeps slicer filament configuration files in sync with it, either as a
one-shot run or continuously via Spoolman's push notifications.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       engine.Version,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Use the application's standard logger for error reporting.
		// Console format to match user expectations (CLI tool).
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			// Absolute fallback if logger creation fails (rare)
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
