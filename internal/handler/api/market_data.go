package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"CrashRadar/internal/domain/models"
	"CrashRadar/internal/service/metrics"
	xhttp "CrashRadar/pkg/http"
	"CrashRadar/pkg/http/middleware"
	xlogger "CrashRadar/pkg/logger"

	"github.com/labstack/echo/v4"
)

// MarketDataReader returns recent closes of a ticker.
type MarketDataReader interface {
	Recent(ctx context.Context, symbol string, days int) (*models.MarketData, error)
}

// MarketDataHandler serves recent closes with a naive next-day projection.
type MarketDataHandler struct {
	logger  *xlogger.Logger
	uc      MarketDataReader
	limiter middleware.Allower
}

// NewMarketDataHandler creates the handler. A nil limiter disables per-client throttling.
func NewMarketDataHandler(logger *xlogger.Logger, uc MarketDataReader, limiter middleware.Allower) *MarketDataHandler {
	metrics.Register()
	return &MarketDataHandler{logger: logger, uc: uc, limiter: limiter}
}

func (h *MarketDataHandler) RegisterRoutes(e *echo.Echo) {
	var mw []echo.MiddlewareFunc
	if h.limiter != nil {
		mw = append(mw, middleware.RateLimit(h.limiter))
	}
	e.GET("/api/market-data", h.MarketData, mw...)
}

// MarketData handles GET /api/market-data?symbol=AAPL&days=10.
func (h *MarketDataHandler) MarketData(c echo.Context) error {
	const endpoint = "market_data"
	start := time.Now()
	defer func() { metrics.EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.MarketDataRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.EndpointErrors.WithLabelValues(endpoint, strconv.Itoa(verr.Status)).Inc()
		return xhttp.AppErrorResponse(c, verr)
	}

	res, err := h.uc.Recent(c.Request().Context(), req.Symbol, req.Days)
	if err != nil {
		appErr := marketDataError(req.Symbol, err)
		if appErr.Status >= http.StatusInternalServerError {
			h.logger.Error("market data failed", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		} else {
			h.logger.Info("market data not found", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		}
		metrics.EndpointErrors.WithLabelValues(endpoint, strconv.Itoa(appErr.Status)).Inc()
		return xhttp.AppErrorResponse(c, appErr)
	}
	return xhttp.SuccessResponse(c, res)
}

func marketDataError(symbol string, err error) *xhttp.AppError {
	switch {
	case errors.Is(err, models.ErrNoData):
		return xhttp.NotFoundErrorf("No data found for symbol '%s'.", symbol).WithError(err)
	case errors.Is(err, models.ErrNoCloseColumn):
		return xhttp.NotFoundErrorf("No valid 'Close' prices found for symbol '%s'.", symbol).WithError(err)
	default:
		return xhttp.InternalError(xhttp.UnexpectedErrorMessage).WithError(err)
	}
}
