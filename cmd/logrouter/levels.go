package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/fyrsmithlabs/logrouter/internal/logging"
	"github.com/spf13/cobra"
)

func newLevelsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "levels",
		Short: "Show effective thresholds and sinks",
		Long: `Show the global threshold, every category override and each sink's
gate, as resolved from defaults, environment and flags.

Examples:
  LOGROUTER_CATEGORIES=Net=warning logrouter levels --file logs/app.log`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setupApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer a.close()

			printLevels(cmd.OutOrStdout(), a.router, a.cfg.Categories)
			return nil
		},
	}
}

func printLevels(w io.Writer, r *logging.Router, categories logging.CategoryLevels) {
	fmt.Fprintf(w, "global: %s\n", r.GlobalMinLevel())

	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "category %s: %s\n", name, r.CategoryLevel(name))
	}

	for _, s := range r.Sinks() {
		state := "enabled"
		if !s.Enabled() {
			state = "disabled"
		}
		switch sink := s.(type) {
		case *logging.RotatingFileSink:
			fmt.Fprintf(w, "sink file: %s min=%s path=%s max_size=%s generations=%d\n",
				state, sink.MinLevel(), sink.Path(),
				humanize.IBytes(uint64(sink.MaxFileSize())), sink.MaxGenerations())
		case *logging.ConsoleSink:
			fmt.Fprintf(w, "sink console: %s min=%s color=%t\n", state, sink.MinLevel(), sink.ColorEnabled())
		case *logging.DebugChannelSink:
			fmt.Fprintf(w, "sink debugger: %s min=%s available=%t\n", state, sink.MinLevel(), sink.Available())
		default:
			fmt.Fprintf(w, "sink %T: %s min=%s\n", s, state, s.MinLevel())
		}
	}
}
