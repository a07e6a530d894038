package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/sawpanic/momentumscore/internal/algo/momentum"
)

// Registry holds the Prometheus metrics recorded while scoring. It owns its
// own prometheus.Registry so tests and batch runs never collide on the
// default one.
type Registry struct {
	reg *prometheus.Registry

	ComputeDuration *prometheus.HistogramVec
	SeriesLength    prometheus.Histogram
	MLGate          *prometheus.CounterVec
	Resolutions     *prometheus.CounterVec
	Buckets         *prometheus.CounterVec
	Jobs            *prometheus.CounterVec
}

// NewRegistry creates and registers every momentum metric.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		ComputeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "momentum_compute_duration_seconds",
				Help:    "Duration of one Compute call in seconds",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1.0},
			},
			[]string{"result"},
		),

		SeriesLength: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "momentum_series_length",
				Help:    "Number of price samples per scored series",
				Buckets: prometheus.ExponentialBuckets(16, 2, 10),
			},
		),

		MLGate: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "momentum_ml_gate_total",
				Help: "ML bundle gate outcomes per scored series",
			},
			[]string{"gate"},
		),

		Resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "momentum_bucket_resolutions_total",
				Help: "Bars by weight table resolution outcome",
			},
			[]string{"resolution"},
		),

		Buckets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "momentum_regime_buckets_total",
				Help: "Bars by classified regime bucket",
			},
			[]string{"bucket"},
		),

		Jobs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "momentum_batch_jobs_total",
				Help: "Batch scoring jobs by result",
			},
			[]string{"result"},
		),
	}

	r.reg.MustRegister(
		r.ComputeDuration,
		r.SeriesLength,
		r.MLGate,
		r.Resolutions,
		r.Buckets,
		r.Jobs,
	)
	return r
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// ObserveCompute records one Compute call. res may be nil when err is set.
func (r *Registry) ObserveCompute(elapsed time.Duration, n int, res *momentum.IndicatorSeries, err error) {
	if err != nil {
		r.ComputeDuration.WithLabelValues("error").Observe(elapsed.Seconds())
		return
	}
	r.ComputeDuration.WithLabelValues("ok").Observe(elapsed.Seconds())
	r.SeriesLength.Observe(float64(n))
	if res == nil {
		return
	}

	r.MLGate.WithLabelValues(res.ML.Gate.String()).Inc()
	for resolution, count := range res.ML.ResolutionCounts {
		r.Resolutions.WithLabelValues(resolution.String()).Add(float64(count))
	}
	for b, count := range res.ML.BucketCounts {
		r.Buckets.WithLabelValues(b.String()).Add(float64(count))
	}
}

// ObserveJob counts one batch job outcome.
func (r *Registry) ObserveJob(result string) {
	r.Jobs.WithLabelValues(result).Inc()
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func (r *Registry) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

// CounterValues returns the current value of every series of a counter
// family keyed by the value of label. Missing families yield an empty map.
func (r *Registry) CounterValues(family, label string) (map[string]float64, error) {
	mfs, err := r.reg.Gather()
	if err != nil {
		return nil, fmt.Errorf("failed to gather metrics: %w", err)
	}
	out := make(map[string]float64)
	for _, mf := range mfs {
		if mf.GetName() != family || mf.GetType() != dto.MetricType_COUNTER {
			continue
		}
		for _, m := range mf.GetMetric() {
			out[labelValue(m, label)] = m.GetCounter().GetValue()
		}
	}
	return out, nil
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}
