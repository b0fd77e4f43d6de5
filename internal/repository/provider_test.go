package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"CrashRadar/internal/domain/models"
	"CrashRadar/internal/service/cache"
	applogger "CrashRadar/pkg/logger"

	"github.com/guregu/null/v6"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	calls int
	err   error
}

func (s *stubProvider) frame(symbol string) *models.Frame {
	return &models.Frame{
		Dates: []time.Time{time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)},
		Columns: []models.FrameColumn{
			{Field: "Close", Ticker: symbol, Values: []null.Float{null.FloatFrom(101.5)}},
		},
	}
}

func (s *stubProvider) History(_ context.Context, symbol string, _, _ time.Time) (*models.Frame, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.frame(symbol), nil
}

func (s *stubProvider) Period(_ context.Context, symbol string, _ models.Period) (*models.Frame, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.frame(symbol), nil
}

func testConfig() ProviderConfig {
	return ProviderConfig{
		Name:                "test",
		Timeout:             time.Second,
		CacheTTL:            time.Minute,
		BreakerTimeout:      time.Minute,
		ConsecutiveFailures: 2,
	}
}

func TestResilientProviderCaches(t *testing.T) {
	next := &stubProvider{}
	p := NewResilientProvider(next, cache.NewTTLCache(), testConfig(), applogger.NewNop())

	ctx := context.Background()
	f1, err := p.Period(ctx, "AAPL", models.Period1Month)
	require.NoError(t, err)
	f2, err := p.Period(ctx, "AAPL", models.Period1Month)
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls)
	obs, ok := f2.Observations("Close_AAPL")
	require.True(t, ok)
	assert.Equal(t, 101.5, obs[0].Value)
	assert.True(t, f1.Dates[0].Equal(f2.Dates[0]))

	_, err = p.Period(ctx, "MSFT", models.Period1Month)
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls, "different key misses")
}

func TestResilientProviderWithoutCache(t *testing.T) {
	next := &stubProvider{}
	p := NewResilientProvider(next, nil, testConfig(), applogger.NewNop())

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		_, err := p.History(context.Background(), "^VIX", start, start.AddDate(0, 0, 10))
		require.NoError(t, err)
	}
	assert.Equal(t, 2, next.calls)
}

func TestResilientProviderBreakerOpens(t *testing.T) {
	boom := errors.New("upstream 503")
	next := &stubProvider{err: boom}
	p := NewResilientProvider(next, nil, testConfig(), applogger.NewNop())

	ctx := context.Background()
	_, err := p.Period(ctx, "AAPL", models.Period1Day)
	assert.ErrorIs(t, err, boom)
	_, err = p.Period(ctx, "AAPL", models.Period1Day)
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, gobreaker.StateOpen, p.State("AAPL"))
	_, err = p.Period(ctx, "AAPL", models.Period1Day)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, next.calls, "open breaker short-circuits")
}

func TestResilientProviderCancelDoesNotTrip(t *testing.T) {
	next := &stubProvider{err: context.Canceled}
	p := NewResilientProvider(next, nil, testConfig(), applogger.NewNop())

	for i := 0; i < 3; i++ {
		_, err := p.Period(context.Background(), "AAPL", models.Period1Day)
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, p.State("AAPL"))
}

type symbolStub struct {
	stubProvider
	failing map[string]bool
	served  map[string]int
}

func (s *symbolStub) Period(ctx context.Context, symbol string, period models.Period) (*models.Frame, error) {
	s.served[symbol]++
	if s.failing[symbol] {
		return nil, errors.New("upstream 503")
	}
	return s.frame(symbol), nil
}

func TestResilientProviderBreakerIsPerSymbol(t *testing.T) {
	next := &symbolStub{failing: map[string]bool{"BAD1": true, "BAD2": true, "BAD3": true}, served: map[string]int{}}
	p := NewResilientProvider(next, nil, testConfig(), applogger.NewNop())
	ctx := context.Background()

	for _, sym := range []string{"BAD1", "BAD2", "BAD3", "BAD1", "BAD2", "BAD3"} {
		_, err := p.Period(ctx, sym, models.Period1Day)
		require.Error(t, err)
	}
	for _, sym := range []string{"BAD1", "BAD2", "BAD3"} {
		assert.Equal(t, gobreaker.StateOpen, p.State(sym), sym)
	}

	f, err := p.Period(ctx, "^VIX", models.Period1Day)
	require.NoError(t, err)
	assert.False(t, f.Empty())
	assert.Equal(t, 1, next.served["^VIX"])
	assert.Equal(t, gobreaker.StateClosed, p.State("^VIX"))

	_, err = p.Period(ctx, "BAD1", models.Period1Day)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, next.served["BAD1"])
}

func TestResilientProviderDropsIdleBreakers(t *testing.T) {
	now := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	next := &symbolStub{failing: map[string]bool{"BAD": true}, served: map[string]int{}}
	p := NewResilientProvider(next, nil, testConfig(), applogger.NewNop())
	p.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, _ = p.Period(ctx, "BAD", models.Period1Day)
	}
	_, err := p.Period(ctx, "AAPL", models.Period1Day)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Tracked())

	now = now.Add(20 * time.Minute)
	_, err = p.Period(ctx, "MSFT", models.Period1Day)
	require.NoError(t, err)

	// the idle closed breaker goes, the open one stays
	assert.Equal(t, 2, p.Tracked())
	assert.Equal(t, gobreaker.StateOpen, p.State("BAD"))
	assert.Equal(t, gobreaker.StateClosed, p.State("AAPL"))
}
