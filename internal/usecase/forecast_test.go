package usecase

import (
	"context"
	"testing"
	"time"

	"CrashRadar/internal/domain/models"
	"CrashRadar/internal/services/analytics"
	"CrashRadar/internal/services/features"
	applogger "CrashRadar/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newForecast(t *testing.T, p *stubProvider, symbols features.SymbolMap, clf *fixedClassifier, events *capturePublisher) (*ForecastUseCase, *recordingMetrics) {
	t.Helper()
	contract := features.DefaultContract
	predictor, err := analytics.NewPredictor(clf, contract)
	require.NoError(t, err)

	m := newRecordingMetrics()
	logger := applogger.NewNop()
	uc := NewForecastUseCase(
		NewSeriesFetcher(p, m, logger, 4),
		symbols,
		features.NewFormatter(contract, logger),
		predictor,
		events,
		m,
		logger,
		ForecastConfig{LookbackDays: 10, Timeout: time.Second},
	)
	uc.now = func() time.Time { return day0.AddDate(0, 0, 4).Add(15 * time.Hour) }
	return uc, m
}

func TestForecastWithMissingFeature(t *testing.T) {
	p := newStubProvider()
	p.frames["^VIX"] = closesFrame("^VIX", 18, 19, 20, 21)
	p.frames["GC=F"] = closesFrame("GC=F", 2000, 2010, 2005, 2020)
	symbols := features.SymbolMap{
		{Feature: "VIX", Symbol: "^VIX"},
		{Feature: "XAU BGNL", Symbol: "GC=F"},
		{Feature: "DXY", Symbol: "DX-Y.NYB"},
	}
	clf := &fixedClassifier{label: 1}
	events := &capturePublisher{}
	uc, m := newForecast(t, p, symbols, clf, events)

	res, err := uc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Prediction)
	assert.Nil(t, res.Probability)
	assert.Equal(t, features.DefaultContract.Width(), res.Features.Len())
	assert.Equal(t, 14, res.Features.Len())

	dxy, ok := res.Features.Get("DXY")
	require.True(t, ok)
	assert.Equal(t, 0.0, dxy)
	vix, _ := res.Features.Get("VIX")
	assert.Equal(t, 21.0, vix)
	ma, _ := res.Features.Get(features.ColumnMA7VIX)
	assert.InDelta(t, 19.5, ma, 1e-9)

	_, hasCRY := res.Features.Get("CRY")
	assert.False(t, hasCRY)
	_, hasDummy := res.Features.Get(features.ColumnDummy)
	assert.False(t, hasDummy)

	require.Len(t, clf.rows, 1)
	assert.Equal(t, res.Features.Values, clf.rows[0])
	assert.Equal(t, []int{1}, m.predictions)
	assert.Equal(t, OutcomeEmpty, m.fetches["DXY"])

	require.Len(t, events.events, 1)
	ev := events.events[0]
	assert.Equal(t, "v1", ev.ContractVersion)
	assert.Equal(t, "2024-03-07", ev.AsOf)
	assert.Contains(t, ev.MissingFeatures, "DXY")
	assert.NotContains(t, ev.MissingFeatures, "VIX")
}

func TestForecastNothingFetched(t *testing.T) {
	p := newStubProvider()
	p.errs["^VIX"] = errUpstream
	uc, m := newForecast(t, p, features.SymbolMap{
		{Feature: "VIX", Symbol: "^VIX"},
		{Feature: "DXY", Symbol: "DX-Y.NYB"},
	}, &fixedClassifier{}, &capturePublisher{})

	_, err := uc.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "no data fetched")
	assert.Equal(t, []string{"forecast"}, m.errors)
	assert.Empty(t, m.predictions)
}

func TestForecastWithoutEvents(t *testing.T) {
	p := newStubProvider()
	p.frames["^VIX"] = closesFrame("^VIX", 18)
	uc, _ := newForecast(t, p, features.SymbolMap{{Feature: "VIX", Symbol: "^VIX"}}, &fixedClassifier{}, nil)
	uc.events = nil

	res, err := uc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Prediction)
	assert.Equal(t, day0, res.Features.Date)
}
