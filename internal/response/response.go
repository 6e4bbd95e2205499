// Package response writes the uniform JSON envelope used by every endpoint.
package response

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Status values carried in the envelope.
const (
	StatusSuccess = "success"
	StatusFail    = "fail"  // client error (4xx)
	StatusError   = "error" // server error (5xx)
)

// Envelope is the body shape of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OK writes 200 with data.
func OK(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Status: StatusSuccess, Data: data})
}

// OKMessage writes 200 with data and a message.
func OKMessage(c echo.Context, data any, msg string) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Status: StatusSuccess, Data: data, Message: msg})
}

// Created writes 201 with data and an optional message.
func Created(c echo.Context, data any, msg string) error {
	return c.JSON(http.StatusCreated, Envelope{Success: true, Status: StatusSuccess, Data: data, Message: msg})
}

// Fail writes an error envelope. Status 5xx are tagged "error", the rest "fail".
func Fail(c echo.Context, code int, msg string) error {
	status := StatusFail
	if code >= http.StatusInternalServerError {
		status = StatusError
	}
	return c.JSON(code, Envelope{Success: false, Status: status, Error: msg})
}
