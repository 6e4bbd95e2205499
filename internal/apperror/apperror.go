// Package apperror carries an HTTP status alongside an error so handlers
// can return operational failures and let the central error handler pick
// the response code.
package apperror

import (
	"errors"
	"net/http"
)

// AppError is an expected failure with a client-facing message.
type AppError struct {
	Status  int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// New returns an AppError with the given status.
func New(status int, msg string) *AppError { return &AppError{Status: status, Message: msg} }

// Wrap attaches a status and message to an underlying cause.
func Wrap(status int, msg string, err error) *AppError {
	return &AppError{Status: status, Message: msg, Err: err}
}

func BadRequest(msg string) *AppError   { return New(http.StatusBadRequest, msg) }
func Unauthorized(msg string) *AppError { return New(http.StatusUnauthorized, msg) }
func Forbidden(msg string) *AppError    { return New(http.StatusForbidden, msg) }
func NotFound(msg string) *AppError     { return New(http.StatusNotFound, msg) }
func Conflict(msg string) *AppError     { return New(http.StatusConflict, msg) }

// Internal hides the cause from clients but keeps it for logging.
func Internal(err error) *AppError {
	return Wrap(http.StatusInternalServerError, "Internal Server Error", err)
}

// As extracts an *AppError from err's chain.
func As(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
