package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/campus-facility-reservation/internal/repository"
	"github.com/iliyamo/campus-facility-reservation/internal/utils"
)

func newAuthEcho(t *testing.T) (*AuthHandler, sqlmock.Sqlmock, func(method, path, body string) (int, string)) {
	t.Helper()
	db, mock := newMockDB(t)
	h := NewAuthHandler(testConfig(), repository.NewUserRepo(db), repository.NewTokenRepo(db))
	h.Now = func() time.Time { return fixedNow }
	e := newEcho()
	e.POST("/api/auth/register", h.Register)
	e.POST("/api/auth/login", h.Login)
	return h, mock, func(method, path, body string) (int, string) {
		rec := doJSON(e, method, path, body)
		return rec.Code, rec.Body.String()
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	_, mock, do := newAuthEcho(t)
	mock.ExpectQuery("SELECT .* FROM `users`").WillReturnRows(sqlmock.NewRows(userCols))

	code, body := do(http.MethodPost, "/api/auth/login", `{"username":"ghost","password":"secret1"}`)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.JSONEq(t, failBody("Invalid username or password"), body)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin_Success(t *testing.T) {
	_, mock, do := newAuthEcho(t)
	hash, err := utils.HashPassword("secret1", 4)
	require.NoError(t, err)
	mock.ExpectQuery("SELECT .* FROM `users`").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(5, "john_user", nil, hash, "John Doe", "user", nil, nil, false, fixedNow, nil))
	mock.ExpectExec("UPDATE users SET last_login_at").
		WithArgs(fixedNow, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	code, body := do(http.MethodPost, "/api/auth/login", `{"username":"john_user","password":"secret1"}`)
	require.Equal(t, http.StatusOK, code, body)
	assert.Contains(t, body, `"token":"`)
	assert.Contains(t, body, `"username":"john_user"`)
	assert.NotContains(t, body, "password_hash")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin_WrongPasswordAndSuspended(t *testing.T) {
	hash, err := utils.HashPassword("secret1", 4)
	require.NoError(t, err)

	t.Run("wrong password", func(t *testing.T) {
		_, mock, do := newAuthEcho(t)
		mock.ExpectQuery("SELECT .* FROM `users`").
			WillReturnRows(sqlmock.NewRows(userCols).AddRow(5, "john_user", nil, hash, "John Doe", "user", nil, nil, false, fixedNow, nil))
		code, _ := do(http.MethodPost, "/api/auth/login", `{"username":"john_user","password":"nope-nope"}`)
		assert.Equal(t, http.StatusUnauthorized, code)
	})
	t.Run("suspended", func(t *testing.T) {
		_, mock, do := newAuthEcho(t)
		mock.ExpectQuery("SELECT .* FROM `users`").
			WillReturnRows(sqlmock.NewRows(userCols).AddRow(5, "john_user", nil, hash, "John Doe", "user", nil, nil, true, fixedNow, nil))
		code, body := do(http.MethodPost, "/api/auth/login", `{"username":"john_user","password":"secret1"}`)
		assert.Equal(t, http.StatusForbidden, code)
		assert.JSONEq(t, failBody("Your account has been suspended"), body)
	})
}

func TestRegister_Validation(t *testing.T) {
	_, mock, do := newAuthEcho(t)

	code, body := do(http.MethodPost, "/api/auth/register",
		`{"name":"Jane","username":"jane","password":"secret1","confirmPassword":"secret2"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body, "confirmPassword: Passwords do not match")

	code, body = do(http.MethodPost, "/api/auth/register",
		`{"name":"Jane","username":"jane","password":"secret1","confirmPassword":"secret1","role":"admin"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body, "admin_token")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_InvalidAdminToken(t *testing.T) {
	_, mock, do := newAuthEcho(t)
	mock.ExpectQuery("SELECT `value` FROM system_tokens").
		WithArgs("ADMIN_REG_TOKEN").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("ADM-SECRET-TOKEN-1234"))

	code, body := do(http.MethodPost, "/api/auth/register",
		`{"name":"Jane","username":"jane","password":"secret1","confirmPassword":"secret1","role":"admin","admin_token":"wrong"}`)
	assert.Equal(t, http.StatusForbidden, code)
	assert.JSONEq(t, failBody("Invalid admin token"), body)
	assert.NoError(t, mock.ExpectationsWereMet())
}
