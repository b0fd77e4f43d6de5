package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"CrashRadar/internal/domain/models"
	"CrashRadar/internal/service/metrics"
	xhttp "CrashRadar/pkg/http"
	xlogger "CrashRadar/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ForecastFailedMessage is the error message of a failed forecast.
const ForecastFailedMessage = "An unexpected error occurred during forecasting."

// Forecaster runs the forecast pipeline.
type Forecaster interface {
	Run(ctx context.Context) (*models.ForecastResult, error)
}

// ModelDescriber reports the served model.
type ModelDescriber interface {
	Info() models.ModelInfo
}

// ForecastHandler serves the crash forecast and the model description.
type ForecastHandler struct {
	logger *xlogger.Logger
	uc     Forecaster
	model  ModelDescriber
}

func NewForecastHandler(logger *xlogger.Logger, uc Forecaster, model ModelDescriber) *ForecastHandler {
	metrics.Register()
	return &ForecastHandler{logger: logger, uc: uc, model: model}
}

func (h *ForecastHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/forecast", h.Forecast)
	g.GET("/model", h.Model)
}

// Forecast handles GET /api/forecast.
func (h *ForecastHandler) Forecast(c echo.Context) error {
	const endpoint = "forecast"
	start := time.Now()
	defer func() { metrics.EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	res, err := h.uc.Run(c.Request().Context())
	if err != nil {
		h.logger.Error("forecast failed", xlogger.Error(err))
		metrics.EndpointErrors.WithLabelValues(endpoint, strconv.Itoa(http.StatusInternalServerError)).Inc()
		return xhttp.AppErrorResponse(c, xhttp.InternalError(ForecastFailedMessage).WithError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return xhttp.SuccessResponse(c, res)
}

// Model handles GET /api/model.
func (h *ForecastHandler) Model(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.model.Info())
}
