package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordFetch("VIX", "ok")
	r.RecordFetch("VIX", "ok")
	r.RecordFetch("CRY", "empty")
	r.RecordPrediction(1)
	r.RecordError("forecast")
	r.RecordLatency("forecast", 0.2)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.fetchesTotal.WithLabelValues("VIX", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fetchesTotal.WithLabelValues("CRY", "empty")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.predictionsTotal.WithLabelValues("1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("forecast")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.latency))
}
