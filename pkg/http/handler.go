package http

import "github.com/labstack/echo/v4"

// Handler registers one group of routes on the server.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}
