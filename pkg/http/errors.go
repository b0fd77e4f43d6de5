package http

import (
	"fmt"
	"net/http"
)

// UnexpectedErrorMessage is the public message for failures that carry no safer text.
const UnexpectedErrorMessage = "An unexpected error occurred."

// AppError is an error with an HTTP status. It serializes as {"error", "details"}.
type AppError struct {
	Message string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
	Status  int         `json:"-"`
	Err     error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func NewAppError(message string, status int) *AppError {
	return &AppError{Message: message, Status: status}
}

// WithDetails sets the details payload.
func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// WithError wraps err and, unless details were already set, exposes its text as details.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	if err != nil && e.Details == nil {
		e.Details = err.Error()
	}
	return e
}

func BadRequestError(message string) *AppError {
	return NewAppError(message, http.StatusBadRequest)
}

func NotFoundError(message string) *AppError {
	return NewAppError(message, http.StatusNotFound)
}

func NotFoundErrorf(format string, a ...interface{}) *AppError {
	return NotFoundError(fmt.Sprintf(format, a...))
}

func InternalError(message string) *AppError {
	return NewAppError(message, http.StatusInternalServerError)
}
