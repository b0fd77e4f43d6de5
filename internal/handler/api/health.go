package api

import (
	"context"
	"net/http"
	"time"

	xhttp "CrashRadar/pkg/http"

	"github.com/labstack/echo/v4"
)

// Check is a named readiness probe.
type Check struct {
	Name string
	Fn   func(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	checks  []Check
	timeout time.Duration
}

func NewHealthHandler(checks ...Check) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 2 * time.Second}
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Live)
	e.GET("/readyz", h.Ready)
}

// Live reports that the process is serving.
func (h *HealthHandler) Live(c echo.Context) error {
	return xhttp.SuccessResponse(c, xhttp.HealthResponse{Status: "ok"})
}

// Ready runs every check; any failure yields 503.
func (h *HealthHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	res := xhttp.HealthResponse{Status: "ok", Checks: make(map[string]string, len(h.checks))}
	status := http.StatusOK
	for _, chk := range h.checks {
		if err := chk.Fn(ctx); err != nil {
			res.Checks[chk.Name] = err.Error()
			res.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		res.Checks[chk.Name] = "ok"
	}
	return xhttp.DataResponse(c, status, res)
}
