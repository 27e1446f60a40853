package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fyrsmithlabs/logrouter/internal/logging"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"golang.org/x/sync/errgroup"
)

func newStressCmd(flags *rootFlags) *cobra.Command {
	var (
		goroutines int
		records    int
		levelName  string
	)

	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Log from many goroutines at once and report throughput",
		Long: `Log records concurrently from several goroutines, each with its own
category, then print throughput and the router's own counters.

Examples:
  # 8 goroutines x 10k records into a small rotating file
  LOGROUTER_FILE_MAX_SIZE=64KiB logrouter stress --no-console --file logs/stress.log \
    --goroutines 8 --records 10000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := logging.ParseLevel(levelName)
			if err != nil {
				return err
			}
			if goroutines < 1 || records < 1 {
				return fmt.Errorf("--goroutines and --records must be >= 1")
			}

			a, err := setupApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer a.close()

			a.router.Info("Sys", "stress run "+a.runID+" started")
			elapsed, err := runStress(cmd.Context(), a.router, level, goroutines, records)
			if err != nil {
				return err
			}
			a.router.Flush()

			return printSummary(cmd.OutOrStdout(), a, goroutines*records, elapsed)
		},
	}

	cmd.Flags().IntVar(&goroutines, "goroutines", 4, "number of concurrent writers")
	cmd.Flags().IntVar(&records, "records", 1000, "records per writer")
	cmd.Flags().StringVar(&levelName, "level", "info", "level of every record")
	return cmd
}

// runStress logs records from each of goroutines writers, stopping early if
// ctx is cancelled.
func runStress(ctx context.Context, r *logging.Router, level logging.Level, goroutines, records int) (time.Duration, error) {
	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < goroutines; w++ {
		category := fmt.Sprintf("worker-%d", w)
		g.Go(func() error {
			for i := 0; i < records; i++ {
				if i%256 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				r.Log(level, category, fmt.Sprintf("record %d", i), logging.Origin{})
			}
			return nil
		})
	}
	err := g.Wait()
	return time.Since(start), err
}

func printSummary(w io.Writer, a *app, total int, elapsed time.Duration) error {
	var rm metricdata.ResourceMetrics
	if err := a.reader.Collect(context.Background(), &rm); err != nil {
		return fmt.Errorf("collecting metrics: %w", err)
	}

	rate := float64(total) / max(elapsed.Seconds(), 1e-9)
	fmt.Fprintf(w, "run: %s\n", a.runID)
	fmt.Fprintf(w, "records: %s in %s (%s/s)\n",
		humanize.Comma(int64(total)), elapsed.Round(time.Millisecond), humanize.Comma(int64(rate)))
	fmt.Fprintf(w, "accepted: %s\n", humanize.Comma(sumCounter(rm, "logrouter.records.accepted_total")))
	fmt.Fprintf(w, "rotations: %d\n", sumCounter(rm, "logrouter.file.rotations_total"))
	fmt.Fprintf(w, "sink panics: %d\n", sumCounter(rm, "logrouter.sink.panics_total"))

	for _, f := range a.fileSinks() {
		fmt.Fprintf(w, "file %s: %s live\n", f.Path(), humanize.IBytes(uint64(f.Size())))
	}
	return nil
}

func sumCounter(rm metricdata.ResourceMetrics, name string) int64 {
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
			}
		}
	}
	return total
}
