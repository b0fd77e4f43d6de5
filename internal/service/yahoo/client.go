package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"CrashRadar/internal/domain/models"
	drepo "CrashRadar/internal/domain/repository"
	xhttp "CrashRadar/pkg/http"
	"CrashRadar/pkg/util"

	"github.com/guregu/null/v6"
)

const (
	FieldOpen     = "Open"
	FieldHigh     = "High"
	FieldLow      = "Low"
	FieldClose    = "Close"
	FieldAdjClose = "Adj Close"
	FieldVolume   = "Volume"
)

// Client implements MarketDataProvider on top of the Yahoo Finance v8 chart API.
type Client struct {
	baseURL  string
	http     *xhttp.Client
	adjusted bool
}

type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *xhttp.Client) Option {
	return func(y *Client) { y.http = c }
}

// WithAdjustedClose reports split/dividend adjusted prices in the OHLC columns
// instead of exposing a separate "Adj Close" column.
func WithAdjustedClose(adjusted bool) Option {
	return func(y *Client) { y.adjusted = adjusted }
}

// New creates a Yahoo chart client.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{baseURL: baseURL, adjusted: true}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = xhttp.NewClient(xhttp.WithTimeout(10 * time.Second))
	}
	return c
}

// History returns daily bars from start's calendar date up to, not including, end.
// A bar dated today is kept when end is later than today's midnight.
func (c *Client) History(ctx context.Context, symbol string, start, end time.Time) (*models.Frame, error) {
	q := url.Values{
		"period1":  {strconv.FormatInt(start.Unix(), 10)},
		"period2":  {strconv.FormatInt(end.Unix(), 10)},
		"interval": {"1d"},
		"events":   {"history"},
	}
	frame, err := c.chart(ctx, symbol, q)
	if err != nil {
		return nil, err
	}
	return clip(frame, util.Day(start), end), nil
}

// Period returns daily bars for a trailing range such as "1mo".
func (c *Client) Period(ctx context.Context, symbol string, period models.Period) (*models.Frame, error) {
	q := url.Values{
		"range":    {string(period)},
		"interval": {"1d"},
		"events":   {"history"},
	}
	return c.chart(ctx, symbol, q)
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Symbol    string `json:"symbol"`
		Currency  string `json:"currency"`
		GMTOffset int64  `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []null.Float `json:"open"`
			High   []null.Float `json:"high"`
			Low    []null.Float `json:"low"`
			Close  []null.Float `json:"close"`
			Volume []null.Float `json:"volume"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []null.Float `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

func (c *Client) chart(ctx context.Context, symbol string, q url.Values) (*models.Frame, error) {
	resp, err := c.http.SendRequest(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + "/v8/finance/chart/" + url.PathEscape(symbol),
		Query:       q,
		Headers:     map[string]string{"Accept": "application/json"},
	})
	if err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo chart %s: read body: %w", symbol, err)
	}

	var cr chartResponse
	decodeErr := json.Unmarshal(body, &cr)

	if resp.StatusCode == http.StatusNotFound && decodeErr == nil && cr.Chart.Error != nil {
		// unknown or delisted ticker
		return &models.Frame{}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, &xhttp.StatusError{StatusCode: resp.StatusCode, Body: truncate(body, 512)})
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("yahoo chart %s: decode json: %w", symbol, decodeErr)
	}
	if cr.Chart.Error != nil {
		if cr.Chart.Error.Code == "Not Found" {
			return &models.Frame{}, nil
		}
		return nil, fmt.Errorf("yahoo chart %s: %s: %s", symbol, cr.Chart.Error.Code, cr.Chart.Error.Description)
	}
	if len(cr.Chart.Result) == 0 {
		return &models.Frame{}, nil
	}
	return c.toFrame(symbol, cr.Chart.Result[0]), nil
}

// toFrame lays the result out grouped by (field, ticker). Rows without any price
// are dropped; a repeated date keeps its last bar.
func (c *Client) toFrame(symbol string, r chartResult) *models.Frame {
	if len(r.Timestamp) == 0 || len(r.Indicators.Quote) == 0 {
		return &models.Frame{}
	}
	quote := r.Indicators.Quote[0]
	var adj []null.Float
	if len(r.Indicators.AdjClose) > 0 {
		adj = r.Indicators.AdjClose[0].AdjClose
	}

	fields := []string{FieldOpen, FieldHigh, FieldLow, FieldClose}
	if !c.adjusted {
		fields = append(fields, FieldAdjClose)
	}
	fields = append(fields, FieldVolume)

	rowIndex := make(map[time.Time]int)
	var dates []time.Time
	values := make(map[string][]null.Float, len(fields))

	for i, ts := range r.Timestamp {
		open, high, low, closeV := at(quote.Open, i), at(quote.High, i), at(quote.Low, i), at(quote.Close, i)
		if !open.Valid && !high.Valid && !low.Valid && !closeV.Valid {
			continue
		}
		adjV := at(adj, i)
		if c.adjusted && adjV.Valid && closeV.Valid && closeV.Float64 != 0 {
			ratio := adjV.Float64 / closeV.Float64
			open, high, low = scale(open, ratio), scale(high, ratio), scale(low, ratio)
			closeV = adjV
		}
		row := map[string]null.Float{
			FieldOpen:     open,
			FieldHigh:     high,
			FieldLow:      low,
			FieldClose:    closeV,
			FieldAdjClose: adjV,
			FieldVolume:   at(quote.Volume, i),
		}

		d := util.ExchangeDay(ts, r.Meta.GMTOffset)
		idx, seen := rowIndex[d]
		if !seen {
			idx = len(dates)
			rowIndex[d] = idx
			dates = append(dates, d)
			for _, f := range fields {
				values[f] = append(values[f], null.Float{})
			}
		}
		for _, f := range fields {
			values[f][idx] = row[f]
		}
	}

	frame := &models.Frame{Dates: dates}
	for _, f := range fields {
		frame.Columns = append(frame.Columns, models.FrameColumn{Field: f, Ticker: symbol, Values: values[f]})
	}
	return frame
}

func clip(f *models.Frame, start, end time.Time) *models.Frame {
	if f.Empty() {
		return f
	}
	out := &models.Frame{}
	keep := make([]int, 0, len(f.Dates))
	for i, d := range f.Dates {
		if !d.Before(start) && d.Before(end) {
			keep = append(keep, i)
			out.Dates = append(out.Dates, d)
		}
	}
	for _, col := range f.Columns {
		vals := make([]null.Float, len(keep))
		for j, i := range keep {
			vals[j] = col.Values[i]
		}
		out.Columns = append(out.Columns, models.FrameColumn{Field: col.Field, Ticker: col.Ticker, Values: vals})
	}
	return out
}

func at(vals []null.Float, i int) null.Float {
	if i < len(vals) {
		return vals[i]
	}
	return null.Float{}
}

func scale(v null.Float, ratio float64) null.Float {
	if !v.Valid {
		return v
	}
	return null.FloatFrom(v.Float64 * ratio)
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}

var _ drepo.MarketDataProvider = (*Client)(nil)
