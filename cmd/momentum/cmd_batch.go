package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/momentumscore/internal/algo/momentum"
	"github.com/sawpanic/momentumscore/internal/application/batch"
	"github.com/sawpanic/momentumscore/internal/report"
)

func newBatchCmd(opts *options) *cobra.Command {
	var (
		concurrency int
		failFast    bool
		schedule    string
	)

	cmd := &cobra.Command{
		Use:   "batch <prices-dir>",
		Short: "Score every price file in a directory",
		Long: `Score every .csv and .json price file in a directory concurrently and print
the final bar of each series. With --schedule the batch re-runs on a cron
spec (for example "@every 5m") until interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := opts.outputFormat()
			if err != nil {
				return err
			}
			cfg, err := opts.engineConfig()
			if err != nil {
				return err
			}
			core, err := momentum.NewCore(cfg)
			if err != nil {
				return err
			}
			runner := batch.NewRunner(core, opts.metrics, batch.Config{
				Concurrency: concurrency,
				FailFast:    failFast,
			})

			runOnce := func(ctx context.Context) error {
				jobs, err := batch.JobsFromDir(args[0])
				if err != nil {
					return err
				}
				if len(jobs) == 0 {
					return fmt.Errorf("no price files in %s", args[0])
				}
				summary, runErr := runner.Run(ctx, jobs)
				if err := writeSummary(cmd.OutOrStdout(), format, summary); err != nil {
					return err
				}
				return runErr
			}

			if schedule == "" {
				return runOnce(cmd.Context())
			}
			return batch.Schedule(cmd.Context(), schedule, func(ctx context.Context) {
				if err := runOnce(ctx); err != nil {
					log.Error().Err(err).Msg("Scheduled batch failed")
				}
			})
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Parallel jobs (0 for GOMAXPROCS)")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "Stop at the first failing series")
	cmd.Flags().StringVar(&schedule, "schedule", "", "Cron spec to re-run the batch on")
	return cmd
}

func writeSummary(w io.Writer, format report.Format, s *batch.Summary) error {
	if format == report.FormatJSON {
		return report.WriteJSON(w, s)
	}
	report.WriteSummary(w, s)
	return nil
}
