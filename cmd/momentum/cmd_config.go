package main

import (
	"github.com/spf13/cobra"

	"github.com/sawpanic/momentumscore/internal/config"
	"github.com/sawpanic/momentumscore/internal/report"
)

func newConfigCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective engine configuration",
		Long:  "Merge --config and --ml onto the defaults and print the result as YAML (or JSON with --format json).",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := opts.outputFormat()
			if err != nil {
				return err
			}
			cfg, err := opts.engineConfig()
			if err != nil {
				return err
			}
			if format == report.FormatJSON {
				return report.WriteJSON(cmd.OutOrStdout(), cfg)
			}
			out, err := config.MarshalConfig(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
