package middleware

import (
	"time"

	applogger "CrashRadar/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogging logs every request at debug level, tagged with its request id.
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			req, res := c.Request(), c.Response()
			l.Debug("http request",
				applogger.String("request_id", res.Header().Get(echo.HeaderXRequestID)),
				applogger.String("method", req.Method),
				applogger.String("route", c.Path()),
				applogger.String("query", req.URL.RawQuery),
				applogger.String("remote", c.RealIP()),
				applogger.Int("status", res.Status),
				applogger.Duration("latency_ms", time.Since(start)),
			)
			return err
		}
	}
}
