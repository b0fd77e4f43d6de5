package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quoteRequest struct {
	Symbol string `query:"symbol" default:"AAPL" validate:"required,alphanum" message:"Invalid symbol format."`
	Days   int    `query:"days" default:"10" validate:"gte=1,lte=365" message:"Days must be between 1 and 365."`
}

func (r *quoteRequest) Normalize() { r.Symbol = strings.ToUpper(r.Symbol) }

func bindQuery(t *testing.T, query string) (*quoteRequest, *AppError) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/quote?"+query, nil)
	c := e.NewContext(req, httptest.NewRecorder())
	out := &quoteRequest{}
	return out, ReadAndValidateRequest(c, out)
}

func TestReadAndValidateRequestDefaults(t *testing.T) {
	req, err := bindQuery(t, "")
	require.Nil(t, err)
	assert.Equal(t, "AAPL", req.Symbol)
	assert.Equal(t, 10, req.Days)
}

func TestReadAndValidateRequestNormalizes(t *testing.T) {
	req, err := bindQuery(t, "symbol=msft&days=3")
	require.Nil(t, err)
	assert.Equal(t, "MSFT", req.Symbol)
	assert.Equal(t, 3, req.Days)
}

func TestReadAndValidateRequestErrors(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		message string
	}{
		{"explicit zero days", "days=0", "Days must be between 1 and 365."},
		{"too many days", "days=400", "Days must be between 1 and 365."},
		{"non alphanumeric symbol", "symbol=BRK.B", "Invalid symbol format."},
		{"empty symbol", "symbol=", "Invalid symbol format."},
		{"non numeric days", "days=ten", InvalidRequestMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := bindQuery(t, tt.query)
			require.NotNil(t, err)
			assert.Equal(t, http.StatusBadRequest, err.Status)
			assert.Equal(t, tt.message, err.Message)
			assert.NotEmpty(t, err.Details)
		})
	}
}

func TestAppErrorResponseShape(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	require.NoError(t, AppErrorResponse(c, NotFoundErrorf("No data found for symbol '%s'.", "ZZZZ")))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"No data found for symbol 'ZZZZ'."}`, rec.Body.String())
}

func TestValidateRequestWithoutBinding(t *testing.T) {
	req := &quoteRequest{Symbol: "brk.b", Days: 5}
	err := ValidateRequest(context.Background(), req)
	require.NotNil(t, err)
	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.Equal(t, "Invalid symbol format.", err.Message)

	ok := &quoteRequest{Symbol: "nvda", Days: 365}
	require.Nil(t, ValidateRequest(context.Background(), ok))
	assert.Equal(t, "NVDA", ok.Symbol)
}
