package batch

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/sawpanic/momentumscore/internal/algo/momentum"
	"github.com/sawpanic/momentumscore/internal/data"
	"github.com/sawpanic/momentumscore/internal/metrics"
)

// Job is one series to score. When Prices is nil the runner loads Path.
type Job struct {
	Symbol string
	Path   string
	Prices []float64
}

// Result is the outcome of one job.
type Result struct {
	Symbol     string        `json:"symbol"`
	Path       string        `json:"path,omitempty"`
	Length     int           `json:"length"`
	Momentum   float64       `json:"momentum"`
	Band       float64       `json:"band"`
	Oscillator float64       `json:"oscillator"`
	Impulse    float64       `json:"impulse"`
	Gate       string        `json:"ml_gate"`
	Duration   time.Duration `json:"duration_ns"`
	Error      string        `json:"error,omitempty"`

	Series *momentum.IndicatorSeries `json:"-"`
	Err    error                     `json:"-"`
}

// Summary collects every result of one run in job order.
type Summary struct {
	RunID    string        `json:"run_id"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration_ns"`
	Results  []Result      `json:"results"`
	Failed   int           `json:"failed"`
}

// Config controls the runner.
type Config struct {
	// Concurrency bounds parallel jobs. Zero means GOMAXPROCS.
	Concurrency int
	// FailFast cancels outstanding jobs after the first failure.
	FailFast bool
}

// Runner scores many series concurrently with one engine configuration.
type Runner struct {
	core    *momentum.Core
	metrics *metrics.Registry
	config  Config
}

// NewRunner creates a runner. reg may be nil.
func NewRunner(core *momentum.Core, reg *metrics.Registry, cfg Config) *Runner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = runtime.GOMAXPROCS(0)
	}
	return &Runner{core: core, metrics: reg, config: cfg}
}

// JobsFromDir builds one job per price file in dir.
func JobsFromDir(dir string) ([]Job, error) {
	files, err := data.PriceFiles(dir)
	if err != nil {
		return nil, err
	}
	jobs := make([]Job, 0, len(files))
	for _, f := range files {
		jobs = append(jobs, Job{Symbol: data.SymbolOf(f), Path: f})
	}
	return jobs, nil
}

// Run scores every job. Per-job failures are recorded in the results; the
// returned error is set only when ctx is cancelled or, with FailFast, for the
// first failing job.
func (r *Runner) Run(ctx context.Context, jobs []Job) (*Summary, error) {
	summary := &Summary{
		RunID:   uuid.New().String(),
		Started: time.Now().UTC(),
		Results: make([]Result, len(jobs)),
	}
	logger := log.With().Str("run_id", summary.RunID).Logger()
	logger.Info().Int("jobs", len(jobs)).Int("concurrency", r.config.Concurrency).Msg("Batch scoring started")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.Concurrency)

	for i := range jobs {
		i := i
		job := jobs[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				summary.Results[i] = Result{Symbol: job.Symbol, Path: job.Path, Err: err, Error: err.Error()}
				return err
			}
			res := r.score(job, logger)
			summary.Results[i] = res
			if res.Err != nil && r.config.FailFast {
				return fmt.Errorf("job %s: %w", job.Symbol, res.Err)
			}
			return nil
		})
	}
	err := g.Wait()

	for _, res := range summary.Results {
		if res.Err != nil {
			summary.Failed++
		}
	}
	summary.Duration = time.Since(summary.Started)

	ev := logger.Info()
	if err != nil {
		ev = logger.Warn().Err(err)
	}
	ev.Int("jobs", len(jobs)).Int("failed", summary.Failed).Dur("duration", summary.Duration).Msg("Batch scoring finished")

	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	return summary, err
}

func (r *Runner) score(job Job, logger zerolog.Logger) Result {
	res := Result{Symbol: job.Symbol, Path: job.Path}

	prices := job.Prices
	if prices == nil && job.Path != "" {
		loaded, err := data.LoadPrices(job.Path)
		if err != nil {
			return r.fail(res, err, logger)
		}
		prices = loaded
	}

	start := time.Now()
	series, err := r.core.Score(prices)
	res.Duration = time.Since(start)
	if r.metrics != nil {
		r.metrics.ObserveCompute(res.Duration, len(prices), series, err)
	}
	if err != nil {
		return r.fail(res, err, logger)
	}

	last := len(prices) - 1
	res.Length = len(prices)
	res.Series = series
	res.Momentum = momentum.At(series.ScoreMomentum, last, 0)
	res.Band = momentum.At(series.ScoreBand, last, 0)
	res.Oscillator = momentum.At(series.ScoreOscillator, last, 0)
	res.Impulse = momentum.At(series.ScoreImpulse, last, 0)
	res.Gate = series.ML.Gate.String()

	if r.metrics != nil {
		r.metrics.ObserveJob("ok")
	}
	logger.Debug().Str("symbol", job.Symbol).Int("length", res.Length).
		Float64("momentum", res.Momentum).Dur("elapsed", res.Duration).Msg("Scored series")
	return res
}

func (r *Runner) fail(res Result, err error, logger zerolog.Logger) Result {
	res.Err = err
	res.Error = err.Error()
	if r.metrics != nil {
		result := "error"
		if errors.Is(err, momentum.ErrNonFiniteInput) {
			result = "rejected"
		}
		r.metrics.ObserveJob(result)
	}
	logger.Warn().Err(err).Str("symbol", res.Symbol).Msg("Scoring failed")
	return res
}
