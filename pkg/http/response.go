package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// DataResponse writes data as the bare JSON body with the given status.
func DataResponse(c echo.Context, statusCode int, data interface{}) error {
	return c.JSON(statusCode, data)
}

// SuccessResponse writes data with 200.
func SuccessResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusOK, data)
}

// AppErrorResponse writes err with its own status. Any other error becomes a
// 500 whose details carry err's text.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = InternalError(UnexpectedErrorMessage).WithError(err)
	}
	return DataResponse(c, appErr.Status, appErr)
}
