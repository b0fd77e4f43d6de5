package models

import (
	"time"

	"github.com/guregu/null/v6"
)

// Observation is one dated value of a daily series.
type Observation struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// TimeSeries is the daily close history of one feature.
// Dates are unique but not necessarily ordered.
type TimeSeries struct {
	Feature string        `json:"feature"`
	Symbol  string        `json:"symbol"`
	Points  []Observation `json:"points"`
}

// Len returns the number of observations.
func (s TimeSeries) Len() int { return len(s.Points) }

// FrameColumn is one provider column. Grouped layouts carry the ticker next to
// the field name, the way a multi-ticker download does.
type FrameColumn struct {
	Field  string       `json:"field"`
	Ticker string       `json:"ticker,omitempty"`
	Values []null.Float `json:"values"`
}

// Name is the flattened column name: "Close_AAPL" for grouped columns, "Close" otherwise.
func (c FrameColumn) Name() string {
	if c.Ticker == "" {
		return c.Field
	}
	return c.Field + "_" + c.Ticker
}

// Frame is a provider result: one row per trading day, any number of columns.
type Frame struct {
	Dates   []time.Time   `json:"dates"`
	Columns []FrameColumn `json:"columns"`
}

// Empty reports whether the frame has no rows.
func (f *Frame) Empty() bool {
	return f == nil || len(f.Dates) == 0
}

// Grouped reports whether any column carries a ticker level.
func (f *Frame) Grouped() bool {
	if f == nil {
		return false
	}
	for _, c := range f.Columns {
		if c.Ticker != "" {
			return true
		}
	}
	return false
}

// Flatten joins the field and ticker levels into single column names.
// Flat frames are returned as-is.
func (f *Frame) Flatten() *Frame {
	if !f.Grouped() {
		return f
	}
	out := &Frame{Dates: f.Dates, Columns: make([]FrameColumn, len(f.Columns))}
	for i, c := range f.Columns {
		out.Columns[i] = FrameColumn{Field: c.Name(), Values: c.Values}
	}
	return out
}

// Column returns the column whose flattened name equals name.
func (f *Frame) Column(name string) (FrameColumn, bool) {
	if f == nil {
		return FrameColumn{}, false
	}
	for _, c := range f.Columns {
		if c.Name() == name {
			return c, true
		}
	}
	return FrameColumn{}, false
}

// Observations returns the present values of the named column with their dates.
func (f *Frame) Observations(name string) ([]Observation, bool) {
	col, ok := f.Column(name)
	if !ok {
		return nil, false
	}
	out := make([]Observation, 0, len(col.Values))
	for i, v := range col.Values {
		if i >= len(f.Dates) || !v.Valid {
			continue
		}
		out = append(out, Observation{Date: f.Dates[i], Value: v.Float64})
	}
	return out, true
}

// Period is a provider lookback range such as "1mo".
type Period string

const (
	Period1Day    Period = "1d"
	Period1Month  Period = "1mo"
	Period3Months Period = "3mo"
	Period1Year   Period = "1y"
)

// PeriodForDays picks the smallest lookback range that covers the requested number of trading days.
func PeriodForDays(days int) Period {
	switch {
	case days <= 2:
		return Period1Day
	case days <= 30:
		return Period1Month
	case days <= 90:
		return Period3Months
	default:
		return Period1Year
	}
}
