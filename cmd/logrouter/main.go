// Package main implements the logrouter CLI for emitting records through a
// configured router and exercising its sinks.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// version information
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// rootFlags are shared by every subcommand. Flags override environment
// variables, which override defaults.
type rootFlags struct {
	level      string
	categories []string
	filePath   string
	noConsole  bool
	color      string
	watch      bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "logrouter",
		Short: "Route categorized log records to console, debugger and rotating files",
		Long: `logrouter drives a log router built from LOGROUTER_* environment variables
and flags. Use it to emit records from scripts, inspect effective thresholds,
or stress the sinks from many goroutines.

Environment:
  LOGROUTER_LEVEL                 global threshold (trace..fatal)
  LOGROUTER_CATEGORIES            overrides, e.g. "Net=warning,Render=debug"
  LOGROUTER_CONSOLE_ENABLED       console sink on/off
  LOGROUTER_CONSOLE_COLOR         auto, always or never
  LOGROUTER_DEBUGGER_ENABLED      debugger channel sink on/off
  LOGROUTER_FILE_ENABLED          rotating file sink on/off
  LOGROUTER_FILE_PATH             live log file path
  LOGROUTER_FILE_MAX_SIZE         rotation threshold, e.g. 10MiB
  LOGROUTER_FILE_MAX_GENERATIONS  files kept, live file included
  LOGROUTER_WATCH_ENABLED         reopen the log file when it is moved
  LOGROUTER_WATCH_DEBOUNCE        delay before reopening, e.g. 100ms`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.level, "level", "", "global threshold (overrides LOGROUTER_LEVEL)")
	pf.StringSliceVar(&flags.categories, "category-level", nil, "category override as name=level (repeatable)")
	pf.StringVar(&flags.filePath, "file", "", "enable the file sink at this path")
	pf.BoolVar(&flags.noConsole, "no-console", false, "disable the console sink")
	pf.StringVar(&flags.color, "color", "", "console color: auto, always or never")
	pf.BoolVar(&flags.watch, "watch", false, "reopen the log file when it is moved or deleted")

	rootCmd.AddCommand(newEmitCmd(flags))
	rootCmd.AddCommand(newStressCmd(flags))
	rootCmd.AddCommand(newLevelsCmd(flags))
	return rootCmd
}
