// Package httpx holds the echo plumbing shared by the HTTP services: error
// mapping, request validation, authentication, rate limiting and request
// logging.
package httpx

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/reviewhub/internal/common"
	"github.com/dmitrijs2005/reviewhub/internal/logging"
	"github.com/labstack/echo/v4"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Field   string   `json:"field,omitempty"`
	Values  []string `json:"values,omitempty"`
}

// Status maps an error to its HTTP status and error code. Order matters:
// ErrTokenExpired is also ErrExpired and ErrRateLimited is also ErrConflict.
func Status(err error) (int, string) {
	var he *echo.HTTPError
	switch {
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest, "validation_failed"
	case errors.Is(err, common.ErrAuthentication):
		return http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, common.ErrUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, common.ErrRateLimited):
		return http.StatusTooManyRequests, "too_many_requests"
	case errors.Is(err, common.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, common.ErrExpired):
		return http.StatusGone, "expired"
	case errors.Is(err, common.ErrDelivery):
		return http.StatusBadGateway, "delivery_failed"
	case errors.As(err, &he):
		return he.Code, http.StatusText(he.Code)
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// Fixed messages for 401 answers. The underlying reason is only logged.
const (
	MsgInvalidCredentials = "invalid credentials"
	MsgAccessDenied       = "access denied"
)

// ErrorHandler renders errors returned by handlers. Server errors are logged
// and answered with a generic body, 401 answers carry a fixed message.
func ErrorHandler(log logging.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, code := Status(err)
		body := ErrorBody{Error: code, Message: err.Error()}

		var he *echo.HTTPError
		var ve *common.ValidationError
		switch {
		case status >= http.StatusInternalServerError:
			log.Error(c.Request().Context(), "request failed",
				"method", c.Request().Method, "path", c.Path(), "error", err)
			body.Message = http.StatusText(status)
		case status == http.StatusUnauthorized:
			log.Info(c.Request().Context(), "access denied",
				"method", c.Request().Method, "path", c.Path(), "reason", err)
			body.Message = MsgAccessDenied
			if code == "invalid_credentials" {
				body.Message = MsgInvalidCredentials
			}
		case errors.As(err, &ve):
			body.Field = ve.Field
			body.Values = ve.Values
		case errors.As(err, &he):
			if m, ok := he.Message.(string); ok {
				body.Message = m
			}
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, body)
		}
		if werr != nil {
			log.Error(c.Request().Context(), "write error response", "error", werr)
		}
	}
}
