package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sawpanic/momentumscore/internal/algo/momentum"
	"github.com/sawpanic/momentumscore/internal/config"
	"github.com/sawpanic/momentumscore/internal/metrics"
	"github.com/sawpanic/momentumscore/internal/report"
)

const (
	appName = "momentum"
	version = "v0.4.0"
)

// options are the persistent flags shared by every command.
type options struct {
	logLevel   string
	configPath string
	bundlePath string
	format     string
	metricsOut string

	metrics *metrics.Registry
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{metrics: metrics.NewRegistry()}

	root := &cobra.Command{
		Use:     appName,
		Short:   "Multi-horizon momentum scoring",
		Version: version,
		Long: `Scores closing price series with band, oscillator and impulse indicators
blended across several horizons into a composite momentum signal in [-100,100].

Examples:
  momentum score prices/BTC.csv --last 10
  momentum batch prices/ --concurrency 8 --format json
  momentum config --config momentum.yaml --ml bundle.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(opts.logLevel, cmd.ErrOrStderr())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.metricsOut == "" {
				return nil
			}
			if err := opts.metrics.WriteTextfile(opts.metricsOut); err != nil {
				return err
			}
			log.Debug().Str("path", opts.metricsOut).Msg("Wrote metrics textfile")
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.logLevel, "log-level", "info", "Log level (trace|debug|info|warn|error)")
	pf.StringVar(&opts.configPath, "config", "", "Engine override file (.yaml or .toml)")
	pf.StringVar(&opts.bundlePath, "ml", "", "ML weight bundle (.json or .yaml)")
	pf.StringVar(&opts.format, "format", "table", "Output format: table, json")
	pf.StringVar(&opts.metricsOut, "metrics-out", "", "Write Prometheus metrics to this textfile after the run")

	root.AddCommand(newScoreCmd(opts), newBatchCmd(opts), newConfigCmd(opts))
	return root
}

// setupLogging configures the global logger. Terminals get the console
// writer, anything else gets JSON lines.
func setupLogging(level string, out io.Writer) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen})
	} else {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
	}
	return nil
}

func (o *options) engineConfig() (momentum.Config, error) {
	return config.Load(o.configPath, o.bundlePath)
}

func (o *options) outputFormat() (report.Format, error) {
	return report.ParseFormat(o.format)
}
