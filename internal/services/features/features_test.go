package features

import (
	"math/rand"
	"testing"
	"time"

	"CrashRadar/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func series(feature string, points map[int]float64) models.TimeSeries {
	s := models.TimeSeries{Feature: feature}
	for d, v := range points {
		s.Points = append(s.Points, models.Observation{Date: day(d), Value: v})
	}
	return s
}

func TestMergeOuterJoinsOnDate(t *testing.T) {
	in := map[string]models.TimeSeries{
		"VIX":  series("VIX", map[int]float64{1: 15, 3: 17}),
		"DXY":  series("DXY", map[int]float64{2: 104, 3: 105}),
		"ZETA": series("ZETA", map[int]float64{4: 1}),
	}

	tbl := Merge(in, []string{"DXY", "VIX"})

	require.Equal(t, []time.Time{day(1), day(2), day(3), day(4)}, tbl.Dates)
	assert.Equal(t, []string{"DXY", "VIX", "ZETA"}, tbl.Names())

	vix, ok := tbl.Column("VIX")
	require.True(t, ok)
	assert.Equal(t, []Cell{Present(15), Missing, Present(17), Missing}, vix)

	dxy, _ := tbl.Column("DXY")
	assert.Equal(t, []Cell{Missing, Present(104), Present(105), Missing}, dxy)
}

func TestMergeNormalizesIntradayTimestamps(t *testing.T) {
	in := map[string]models.TimeSeries{
		"VIX": {Feature: "VIX", Points: []models.Observation{{Date: day(1).Add(20 * time.Hour), Value: 1}}},
		"DXY": {Feature: "DXY", Points: []models.Observation{{Date: day(1), Value: 2}}},
	}
	tbl := Merge(in, nil)
	assert.Equal(t, 1, tbl.Len())
}

func TestMergeEmpty(t *testing.T) {
	tbl := Merge(nil, DefaultSymbolMap().Features())
	assert.Equal(t, 0, tbl.Len())
	assert.Equal(t, 0, tbl.Width())
}

func TestFormatWidthIsIndependentOfInputColumns(t *testing.T) {
	f := NewFormatter(DefaultContract, nil)
	want := DefaultContract.Columns()
	rnd := rand.New(rand.NewSource(7))

	for trial := 0; trial < 50; trial++ {
		in := map[string]models.TimeSeries{}
		for _, name := range DefaultContract.Schema {
			if rnd.Intn(2) == 0 {
				in[name] = series(name, map[int]float64{1: rnd.Float64(), 2: rnd.Float64()})
			}
		}
		out := f.Format(Merge(in, DefaultContract.Schema))
		assert.Equal(t, want, out.Names(), "trial %d", trial)
		assert.Len(t, want, len(DefaultContract.Schema)+len(DefaultContract.Engineered))
	}
}

func TestFormatFillsAbsentSchemaColumns(t *testing.T) {
	in := map[string]models.TimeSeries{
		"VIX": series("VIX", map[int]float64{1: 10, 2: 20}),
	}
	out := NewFormatter(DefaultContract, nil).Format(Merge(in, nil))

	bdiy, ok := out.Column("BDIY")
	require.True(t, ok)
	assert.Equal(t, []Cell{Missing, Missing}, bdiy)

	ma, ok := out.Column(ColumnMA7VIX)
	require.True(t, ok)
	assert.Equal(t, []Cell{Present(10), Present(15)}, ma)

	vol, ok := out.Column(ColumnXAUVol)
	require.True(t, ok)
	assert.Equal(t, []Cell{Missing, Missing}, vol)

	dummy, _ := out.Column(ColumnDummy)
	assert.Equal(t, []Cell{Present(1), Present(1)}, dummy)
}

func TestFormatIsIdempotent(t *testing.T) {
	in := map[string]models.TimeSeries{
		"VIX":      series("VIX", map[int]float64{1: 10, 2: 12, 4: 11}),
		"XAU BGNL": series("XAU BGNL", map[int]float64{1: 2000, 2: 2020, 3: 2010, 4: 2050}),
		"EXTRA":    series("EXTRA", map[int]float64{1: 1}),
	}
	f := NewFormatter(DefaultContract, nil)
	once := f.Format(Merge(in, nil))
	twice := f.Format(once)

	require.Equal(t, once.Names(), twice.Names())
	require.Equal(t, once.Dates, twice.Dates)
	for _, name := range once.Names() {
		a, _ := once.Column(name)
		b, _ := twice.Column(name)
		assert.Equal(t, a, b, name)
	}
	assert.False(t, once.Has("EXTRA"))
}

func TestFormatSkipsEngineeredColumnWithoutSource(t *testing.T) {
	c := Contract{
		Version:    "test",
		Schema:     []string{"A"},
		Engineered: []Engineered{{Name: "MA_B", Kind: KindRollingMean, Source: "B", Window: 3}},
	}
	out := NewFormatter(c, nil).Format(NewTable([]time.Time{day(1)}))
	assert.Equal(t, []string{"A"}, out.Names())
}

func TestFormatDayOfWeek(t *testing.T) {
	c := Contract{
		Version:    "test",
		Schema:     []string{"A"},
		Engineered: []Engineered{{Name: ColumnDayOfWeek, Kind: KindDayOfWeek}},
	}
	// 2024-03-04 is a Monday, 2024-03-10 a Sunday.
	out := NewFormatter(c, nil).Format(NewTable([]time.Time{day(4), day(10)}))
	dow, ok := out.Column(ColumnDayOfWeek)
	require.True(t, ok)
	assert.Equal(t, []Cell{Present(0), Present(6)}, dow)
}

func TestRollingMean(t *testing.T) {
	got := RollingMean([]Cell{Present(1), Present(2), Missing, Present(4), Missing}, 2)
	assert.Equal(t, []Cell{Present(1), Present(1.5), Present(2), Present(4), Present(4)}, got)

	assert.Equal(t, []Cell{Missing, Missing}, RollingMean([]Cell{Missing, Missing}, 7))
}

func TestRollingStdDevNeedsTwoObservations(t *testing.T) {
	got := RollingStdDev([]Cell{Present(1), Present(2), Present(3)}, 3)
	require.Len(t, got, 3)
	assert.False(t, got[0].Valid)
	assert.InDelta(t, 0.70710678, got[1].Float64, 1e-8)
	assert.InDelta(t, 1.0, got[2].Float64, 1e-12)
}

func TestPctChangeSkipsMissingWithoutFilling(t *testing.T) {
	got := PctChange([]Cell{Present(100), Missing, Present(110), Present(99), Present(0), Present(5)})
	require.Len(t, got, 6)
	assert.False(t, got[0].Valid)
	assert.False(t, got[1].Valid)
	assert.InDelta(t, 0.1, got[2].Float64, 1e-12)
	assert.InDelta(t, -0.1, got[3].Float64, 1e-12)
	assert.InDelta(t, -1.0, got[4].Float64, 1e-12)
	assert.False(t, got[5].Valid)
}

func TestExtractLatestReplacesMissingWithZero(t *testing.T) {
	tbl := NewTable([]time.Time{day(1), day(2)})
	require.NoError(t, tbl.AddColumn("A", []Cell{Present(1), Missing}))
	require.NoError(t, tbl.AddColumn("B", []Cell{Present(2), Present(3)}))
	require.NoError(t, tbl.AddColumn("C", []Cell{Present(9), Present(9)}))

	v, err := ExtractLatest(tbl, []string{"C"})
	require.NoError(t, err)
	assert.Equal(t, day(2), v.Date)
	assert.Equal(t, []string{"A", "B"}, v.Names)
	assert.Equal(t, []float64{0, 3}, v.Values)
	assert.Equal(t, []string{"A"}, MissingAt(tbl, []string{"C"}))
}

func TestExtractLatestFailsOnAbsentExclusion(t *testing.T) {
	tbl := NewTable([]time.Time{day(1)})
	require.NoError(t, tbl.AddColumn("A", []Cell{Present(1)}))

	_, err := ExtractLatest(tbl, []string{"dummy_feature"})
	assert.ErrorIs(t, err, ErrSchemaExclusion)
}

func TestExtractLatestEmptyTable(t *testing.T) {
	_, err := ExtractLatest(NewTable(nil), nil)
	assert.ErrorIs(t, err, ErrEmptyTable)
}

func TestDefaultContract(t *testing.T) {
	require.NoError(t, DefaultContract.Validate())
	assert.Equal(t, 14, DefaultContract.Width())
	names := DefaultContract.FeatureNames()
	assert.NotContains(t, names, "CRY")
	assert.NotContains(t, names, ColumnDummy)
	assert.Equal(t, "XAU BGNL", names[0])
	assert.Equal(t, ColumnXAUVol, names[len(names)-1])
}

func TestContractWithWindow(t *testing.T) {
	c := DefaultContract.WithWindow(3)
	assert.Equal(t, 3, c.Engineered[0].Window)
	assert.Equal(t, DefaultWindow, DefaultContract.Engineered[0].Window)
}

func TestContractValidateRejectsUnknownExclusion(t *testing.T) {
	c := Contract{Version: "x", Schema: []string{"A"}, Exclude: []string{"B"}}
	assert.Error(t, c.Validate())
}

func TestFeatureVectorJSONKeepsOrder(t *testing.T) {
	v := models.FeatureVector{Names: []string{"Z", "A"}, Values: []float64{1.5, 0}}
	b, err := v.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"Z":1.5,"A":0}`, string(b))
}

func TestAddColumnRejectsLengthMismatch(t *testing.T) {
	tbl := NewTable([]time.Time{day(1), day(2)})
	assert.Error(t, tbl.AddColumn("A", []Cell{Present(1)}))
	assert.Equal(t, 0, tbl.Width())

	assert.Panics(t, func() { tbl.mustAddColumn("A", []Cell{Present(1)}) })
	assert.NotPanics(t, func() { tbl.mustAddColumn("A", []Cell{Present(1), Missing}) })
	assert.Equal(t, []string{"A"}, tbl.Names())
}

func TestMissingColumnsListsUnobservedFeatures(t *testing.T) {
	in := map[string]models.TimeSeries{
		"VIX": series("VIX", map[int]float64{1: 10, 2: 20}),
	}
	out := NewFormatter(DefaultContract, nil).Format(Merge(in, nil))

	unobserved := out.MissingColumns()
	assert.Contains(t, unobserved, "BDIY")
	assert.Contains(t, unobserved, ColumnXAUVol)
	assert.NotContains(t, unobserved, "VIX")
	assert.NotContains(t, unobserved, ColumnMA7VIX)
	assert.NotContains(t, unobserved, ColumnDummy)
}
