package handler

import (
	"database/sql"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/campus-facility-reservation/internal/config"
	"github.com/iliyamo/campus-facility-reservation/internal/middleware"
)

const testSecret = "test-secret-0123456789"

var (
	userCols = []string{
		"user_id", "username", "email", "password_hash", "full_name", "role", "department",
		"profile_picture_url", "is_suspended", "created_at", "last_login_at",
	}
	facilityCols = []string{
		"facility_id", "type_id", "building_id", "name", "room_number", "capacity", "floor",
		"description", "layout_description", "photo_url", "is_active", "maintenance_until",
		"maintenance_reason", "created_at", "updated_at",
	}
	reservationCols = []string{
		"reservation_id", "requester_id", "facility_id", "status", "purpose", "attendees",
		"start_at", "end_at", "proposal_url", "created_at", "updated_at",
	}
)

// fixedNow is the clock of every handler under test.
var fixedNow = time.Date(2030, 5, 1, 8, 0, 0, 0, time.UTC)

func testConfig() config.Config {
	return config.Config{
		Env:            "test",
		JWTSecret:      testSecret,
		JWTTTL:         time.Hour,
		BcryptCost:     4,
		Location:       time.UTC,
		UploadMaxBytes: 1 << 20,
	}
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler(zerolog.Nop())
	return e
}

// as stands in for JWTAuth by stamping the caller's identity.
func as(id int64, role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(middleware.CtxUserID, id)
			c.Set(middleware.CtxRole, role)
			return next(c)
		}
	}
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func facilityRow(id int64, capacity any, active bool) *sqlmock.Rows {
	return sqlmock.NewRows(facilityCols).AddRow(
		id, 1, 1, "Aula Utama", nil, capacity, nil,
		nil, nil, nil, active, nil,
		nil, fixedNow, fixedNow,
	)
}

func failBody(msg string) string {
	return `{"success":false,"status":"fail","error":` + quote(msg) + `}`
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
