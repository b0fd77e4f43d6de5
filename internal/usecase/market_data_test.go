package usecase

import (
	"context"
	"testing"
	"time"

	"CrashRadar/internal/domain/models"
	"CrashRadar/internal/service/cache"
	applogger "CrashRadar/pkg/logger"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMarketData(p *stubProvider, c cache.BytesCache) *MarketDataUseCase {
	return NewMarketDataUseCase(p, c, time.Minute, newRecordingMetrics(), applogger.NewNop())
}

func TestRecentCloses(t *testing.T) {
	p := newStubProvider()
	p.frames["AAPL"] = closesFrame("AAPL", 100, 101, 99, 102, 103)

	md, err := newMarketData(p, nil).Recent(context.Background(), "AAPL", 5)
	require.NoError(t, err)

	assert.Equal(t, "AAPL", md.Symbol)
	assert.Equal(t, 5, md.Days)
	assert.Equal(t, []float64{100, 101, 99, 102, 103}, md.ActualPrices)
	assert.Equal(t, []float64{105.06}, md.Predictions)
	assert.Equal(t, []string{"2024-03-04", "2024-03-05", "2024-03-06", "2024-03-07", "2024-03-08"}, md.Labels)
	assert.Equal(t, []models.Period{models.Period1Month}, p.periods)
}

func TestRecentTailAndRounding(t *testing.T) {
	p := newStubProvider()
	p.frames["MSFT"] = closesFrame("MSFT", 1, 2, 3, 410.456, 411.004)

	md, err := newMarketData(p, nil).Recent(context.Background(), "MSFT", 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{410.46, 411}, md.ActualPrices)
	assert.Equal(t, []string{"2024-03-07", "2024-03-08"}, md.Labels)
	assert.Equal(t, []float64{419.22}, md.Predictions)
	assert.Equal(t, []models.Period{models.Period1Day}, p.periods)
}

func TestRecentRoundsTiesToEven(t *testing.T) {
	p := newStubProvider()
	p.frames["KO"] = closesFrame("KO", 60.125, 60.375, 60.625)

	md, err := newMarketData(p, nil).Recent(context.Background(), "KO", 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{60.12, 60.38, 60.62}, md.ActualPrices)
	// 60.62 * 1.02 = 61.8324
	assert.Equal(t, []float64{61.83}, md.Predictions)
}

func TestRecentFewerRowsThanDays(t *testing.T) {
	p := newStubProvider()
	p.frames["IBM"] = closesFrame("IBM", 150, 151)

	md, err := newMarketData(p, nil).Recent(context.Background(), "IBM", 200)
	require.NoError(t, err)
	assert.Len(t, md.ActualPrices, 2)
	assert.Equal(t, []models.Period{models.Period1Year}, p.periods)
}

func TestRecentDropsNullCloses(t *testing.T) {
	p := newStubProvider()
	p.frames["IBM"] = &models.Frame{
		Dates: []time.Time{day0, day0.AddDate(0, 0, 1)},
		Columns: []models.FrameColumn{
			{Field: "Close", Ticker: "IBM", Values: []null.Float{null.FloatFrom(150), {}}},
		},
	}
	md, err := newMarketData(p, nil).Recent(context.Background(), "IBM", 10)
	require.NoError(t, err)
	assert.Equal(t, []float64{150}, md.ActualPrices)
	assert.Equal(t, []float64{153}, md.Predictions)
}

func TestRecentErrors(t *testing.T) {
	p := newStubProvider()
	p.frames["NOCLOSE"] = &models.Frame{
		Dates:   []time.Time{day0},
		Columns: []models.FrameColumn{{Field: "Open", Ticker: "NOCLOSE", Values: []null.Float{null.FloatFrom(1)}}},
	}
	p.frames["ALLNULL"] = &models.Frame{
		Dates:   []time.Time{day0},
		Columns: []models.FrameColumn{{Field: "Close", Ticker: "ALLNULL", Values: []null.Float{{}}}},
	}
	p.errs["DOWN"] = errUpstream
	uc := newMarketData(p, nil)

	_, err := uc.Recent(context.Background(), "EMPTY", 10)
	assert.ErrorIs(t, err, models.ErrNoData)

	_, err = uc.Recent(context.Background(), "NOCLOSE", 10)
	assert.ErrorIs(t, err, models.ErrNoCloseColumn)

	_, err = uc.Recent(context.Background(), "ALLNULL", 10)
	assert.ErrorIs(t, err, models.ErrNoData)

	_, err = uc.Recent(context.Background(), "DOWN", 10)
	assert.ErrorIs(t, err, errUpstream)
}

func TestRecentIsCached(t *testing.T) {
	p := newStubProvider()
	p.frames["AAPL"] = closesFrame("AAPL", 100, 101)
	uc := newMarketData(p, cache.NewTTLCache())

	first, err := uc.Recent(context.Background(), "AAPL", 2)
	require.NoError(t, err)
	second, err := uc.Recent(context.Background(), "AAPL", 2)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, p.callCount())
}
