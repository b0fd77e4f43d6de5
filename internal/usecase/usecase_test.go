package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"CrashRadar/internal/domain/models"
	"CrashRadar/internal/services/features"

	"github.com/guregu/null/v6"
)

type stubProvider struct {
	mu      sync.Mutex
	frames  map[string]*models.Frame
	errs    map[string]error
	calls   []string
	periods []models.Period
}

func newStubProvider() *stubProvider {
	return &stubProvider{frames: map[string]*models.Frame{}, errs: map[string]error{}}
}

func (s *stubProvider) get(symbol string) (*models.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, symbol)
	if err := s.errs[symbol]; err != nil {
		return nil, err
	}
	if f, ok := s.frames[symbol]; ok {
		return f, nil
	}
	return &models.Frame{}, nil
}

func (s *stubProvider) History(_ context.Context, symbol string, _, _ time.Time) (*models.Frame, error) {
	return s.get(symbol)
}

func (s *stubProvider) Period(_ context.Context, symbol string, period models.Period) (*models.Frame, error) {
	s.mu.Lock()
	s.periods = append(s.periods, period)
	s.mu.Unlock()
	return s.get(symbol)
}

func (s *stubProvider) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

var errUpstream = errors.New("upstream unavailable")

var day0 = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

// closesFrame builds a grouped frame of consecutive daily closes starting at day0.
func closesFrame(symbol string, closes ...float64) *models.Frame {
	f := &models.Frame{}
	vals := make([]null.Float, len(closes))
	for i, c := range closes {
		f.Dates = append(f.Dates, day0.AddDate(0, 0, i))
		vals[i] = null.FloatFrom(c)
	}
	f.Columns = []models.FrameColumn{
		{Field: "Open", Ticker: symbol, Values: vals},
		{Field: "Close", Ticker: symbol, Values: vals},
	}
	return f
}

type recordingMetrics struct {
	mu          sync.Mutex
	fetches     map[string]string
	predictions []int
	errors      []string
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{fetches: map[string]string{}}
}

func (m *recordingMetrics) RecordFetch(feature, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches[feature] = outcome
}

func (m *recordingMetrics) RecordPrediction(label int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions = append(m.predictions, label)
}

func (m *recordingMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, kind)
}

func (m *recordingMetrics) RecordLatency(string, float64) {}

type fixedClassifier struct {
	label int
	rows  [][]float64
}

func (c *fixedClassifier) Predict(_ context.Context, row []float64) (int, error) {
	c.rows = append(c.rows, append([]float64(nil), row...))
	return c.label, nil
}

func (c *fixedClassifier) FeatureNames() []string { return features.DefaultContract.FeatureNames() }
func (c *fixedClassifier) Kind() string           { return "fixed" }

type capturePublisher struct {
	events []*models.PredictionEvent
}

func (p *capturePublisher) PublishPrediction(_ context.Context, ev *models.PredictionEvent) error {
	p.events = append(p.events, ev)
	return nil
}

func (p *capturePublisher) Close() error { return nil }
