package main

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/logrouter/internal/logging"
	"github.com/spf13/cobra"
)

func newEmitCmd(flags *rootFlags) *cobra.Command {
	var (
		levelName string
		category  string
		count     int
	)

	cmd := &cobra.Command{
		Use:   "emit [message...]",
		Short: "Emit one record through the configured router",
		Long: `Emit a record at the given level and category through the router built
from the environment and flags.

Examples:
  # Emit an info record on the console
  logrouter emit "service started"

  # Emit a warning in the Net category to a rotating file
  logrouter emit --level warning --category Net --file logs/app.log "socket closed"

  # Check the Net override drops debug records
  logrouter emit --category-level Net=warning --level debug --category Net "dropped"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := logging.ParseLevel(levelName)
			if err != nil {
				return err
			}
			if count < 1 {
				return fmt.Errorf("--count must be >= 1, got %d", count)
			}

			a, err := setupApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer a.close()

			message := strings.Join(args, " ")
			for i := 0; i < count; i++ {
				a.router.Log(level, category, message, logging.Origin{})
			}
			a.router.Flush()
			return nil
		},
	}

	cmd.Flags().StringVar(&levelName, "level", "info", "record level: trace, debug, info, warning, error or fatal")
	cmd.Flags().StringVar(&category, "category", "CLI", "record category (empty for none)")
	cmd.Flags().IntVar(&count, "count", 1, "number of times to emit the record")
	return cmd
}
