package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/campus-facility-reservation/internal/apperror"
	"github.com/iliyamo/campus-facility-reservation/internal/repository"
	"github.com/iliyamo/campus-facility-reservation/internal/response"
	"github.com/iliyamo/campus-facility-reservation/internal/validation"
)

// ErrorHandler renders every error returned by a handler or middleware as
// the JSON envelope. 5xx causes are logged and never shown to clients.
func ErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code, msg := Classify(err)

		ev := log.Warn()
		if code >= http.StatusInternalServerError {
			ev = log.Error().Err(err)
		}
		ev.Str("method", c.Request().Method).
			Str("path", c.Request().URL.Path).
			Int("status", code).
			Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
			Msg(msg)

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = response.Fail(c, code, msg)
	}
}

// Classify maps an error onto a status code and client-facing message.
func Classify(err error) (int, string) {
	var (
		verr *validation.Errors
		herr *echo.HTTPError
	)
	if ae, ok := apperror.As(err); ok {
		if ae.Status >= http.StatusInternalServerError {
			return ae.Status, "Internal Server Error"
		}
		return ae.Status, ae.Message
	}
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error()
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "Resource not found"
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict, "Resource conflict"
	case errors.Is(err, repository.ErrForbidden):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, repository.ErrEmptyRecord):
		return http.StatusBadRequest, "No data provided"
	case repository.IsDuplicate(err):
		return http.StatusConflict, "Duplicate entry"
	case repository.IsForeignKey(err):
		return http.StatusBadRequest, "Referenced record does not exist or is still in use"
	case errors.As(err, &herr):
		msg := http.StatusText(herr.Code)
		if s, ok := herr.Message.(string); ok && s != "" {
			msg = s
		}
		if herr.Code >= http.StatusInternalServerError {
			msg = "Internal Server Error"
		}
		return herr.Code, msg
	}
	return http.StatusInternalServerError, "Internal Server Error"
}
