package main

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/momentumscore/internal/algo/momentum"
	"github.com/sawpanic/momentumscore/internal/data"
	"github.com/sawpanic/momentumscore/internal/report"
)

func newScoreCmd(opts *options) *cobra.Command {
	var last int

	cmd := &cobra.Command{
		Use:   "score <prices-file>",
		Short: "Score one price series",
		Long: `Score one closing price series read from a CSV (close column or single
column) or JSON array file and print the last bars.`,
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
			prices, err := data.LoadPrices(args[0])
			if err != nil {
				return err
			}

			start := time.Now()
			series, err := momentum.Compute(prices, cfg)
			elapsed := time.Since(start)
			opts.metrics.ObserveCompute(elapsed, len(prices), series, err)
			if err != nil {
				return err
			}
			log.Info().Str("file", args[0]).Int("bars", len(prices)).
				Str("ml_gate", series.ML.Gate.String()).Dur("elapsed", elapsed).
				Msg("Scored series")

			bars := report.LastBars(prices, series, last)
			if format == report.FormatJSON {
				return report.WriteJSON(cmd.OutOrStdout(), struct {
					Symbol string                    `json:"symbol"`
					Bars   []report.Bar              `json:"bars"`
					Series *momentum.IndicatorSeries `json:"series"`
				}{data.SymbolOf(args[0]), bars, series})
			}
			report.WriteBars(cmd.OutOrStdout(), data.SymbolOf(args[0]), series, bars)
			return nil
		},
	}
	cmd.Flags().IntVar(&last, "last", 10, "Number of trailing bars to print (0 for all)")
	return cmd
}
