package handler

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-facility-reservation/internal/apperror"
	"github.com/iliyamo/campus-facility-reservation/internal/middleware"
	"github.com/iliyamo/campus-facility-reservation/internal/repository"
)

// requestTimeout bounds the database work of one request.
const requestTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// getUserID returns the authenticated user's id.
func getUserID(c echo.Context) (int64, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return 0, apperror.Unauthorized("Authentication required")
	}
	return id, nil
}

// paramID parses a positive numeric path parameter.
func paramID(c echo.Context, name string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || v <= 0 {
		return 0, apperror.BadRequest("Invalid " + name)
	}
	return v, nil
}

// notFound maps a repository not-found error onto a 404 with msg and
// passes other errors through.
func notFound(err error, msg string) error {
	if isNotFoundErr(err) {
		return apperror.NotFound(msg)
	}
	return err
}

func isNotFoundErr(err error) bool { return errors.Is(err, repository.ErrNotFound) }

// absoluteURL turns a server-relative path into an absolute URL using base
// or, when base is empty, the request's scheme and host.
func absoluteURL(c echo.Context, base, path string) string {
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		return path
	}
	if base == "" {
		base = c.Scheme() + "://" + c.Request().Host
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

func strPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
