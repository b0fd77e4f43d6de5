package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetchesTotal     *prometheus.CounterVec
	predictionsTotal *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	latency          *prometheus.HistogramVec
}

// New creates a Prometheus metrics recorder registered on reg.
// A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		fetchesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crashradar_indicator_fetches_total",
				Help: "Indicator history fetches by feature and outcome",
			},
			[]string{"feature", "outcome"},
		),
		predictionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crashradar_predictions_total",
				Help: "Model predictions by label",
			},
			[]string{"label"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crashradar_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crashradar_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordFetch records the outcome of one indicator fetch (ok, empty, no_close, error, skipped).
func (r *Recorder) RecordFetch(feature, outcome string) {
	r.fetchesTotal.WithLabelValues(feature, outcome).Inc()
}

// RecordPrediction records a served prediction.
func (r *Recorder) RecordPrediction(label int) {
	r.predictionsTotal.WithLabelValues(strconv.Itoa(label)).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards all measurements.
type Nop struct{}

func (Nop) RecordFetch(string, string)    {}
func (Nop) RecordPrediction(int)          {}
func (Nop) RecordError(string)            {}
func (Nop) RecordLatency(string, float64) {}
