package http

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// InvalidRequestMessage is the message used when a request cannot be bound or
// when a failing field does not declare its own message.
const InvalidRequestMessage = "Invalid request parameters."

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("query"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
}

// Normalizer is implemented by requests that canonicalize bound values before validation.
type Normalizer interface {
	Normalize()
}

// ReadAndValidateRequest fills defaults, binds the request, normalizes and validates it.
// Defaults are applied before binding so explicit zero values still reach the validator.
// A failing field's `message` struct tag, when present, becomes the error message.
func ReadAndValidateRequest(c echo.Context, req interface{}) *AppError {
	if err := defaults.Set(req); err != nil {
		return BadRequestError(InvalidRequestMessage).WithDetails(validatorDefaultRules(err))
	}

	if err := c.Bind(req); err != nil {
		return BadRequestError(InvalidRequestMessage).WithDetails(validatorDefaultRules(err))
	}

	return ValidateRequest(c.Request().Context(), req)
}

// ValidateRequest normalizes and validates an already populated request.
func ValidateRequest(ctx context.Context, req interface{}) *AppError {
	if n, ok := req.(Normalizer); ok {
		n.Normalize()
	}

	if err := validate.StructCtx(ctx, req); err != nil {
		return BadRequestError(requestMessage(req, err)).WithDetails(validatorDefaultRules(err))
	}

	return nil
}

func requestMessage(req interface{}, err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return InvalidRequestMessage
	}
	t := reflect.TypeOf(req)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return InvalidRequestMessage
	}
	if f, ok := t.FieldByName(validationErrors[0].StructField()); ok {
		if msg := f.Tag.Get("message"); msg != "" {
			return msg
		}
	}
	return InvalidRequestMessage
}

func validatorDefaultRules(err error) []ValidationError {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		errs := make([]ValidationError, 0, len(validationErrors))
		for _, e := range validationErrors {
			code := "ERR_" + strings.ToUpper(e.Tag())
			errs = append(errs, ValidationError{
				Code:    code,
				Field:   e.Field(),
				Message: getErrorMessage(e),
				Params:  getErrorParams(e),
			})
		}
		return errs
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := fmt.Sprintf("%v", he.Message)
		if he.Internal != nil {
			msg = he.Internal.Error()
		}
		return []ValidationError{{
			Code:    "ERR_BIND",
			Message: msg,
		}}
	}

	return []ValidationError{{
		Code:    "ERR_UNKNOWN",
		Message: err.Error(),
	}}
}

func getErrorMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "alphanum":
		return fmt.Sprintf("%s must contain only letters and digits", field)
	case "min":
		if fe.Type().Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Type().Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}

func getErrorParams(fe validator.FieldError) map[string]interface{} {
	params := make(map[string]interface{})

	switch fe.Tag() {
	case "min", "gte":
		params["min"] = fe.Param()
	case "max", "lte":
		params["max"] = fe.Param()
	case "oneof":
		params["options"] = strings.Split(fe.Param(), " ")
	}

	return params
}
