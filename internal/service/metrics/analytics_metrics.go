package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	EndpointLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crashradar",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of forecast and market-data endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	EndpointErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crashradar",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Errors by endpoint and status",
		},
		[]string{"endpoint", "status"},
	)

	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crashradar",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Response cache lookups by scope and result",
		},
		[]string{"scope", "result"},
	)

	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "crashradar",
			Subsystem: "provider",
			Name:      "breaker_state",
			Help:      "Provider circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(EndpointLatency, EndpointErrors, CacheLookups, BreakerState)
	})
}
