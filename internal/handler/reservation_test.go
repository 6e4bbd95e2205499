package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/campus-facility-reservation/internal/model"
	"github.com/iliyamo/campus-facility-reservation/internal/queue"
	"github.com/iliyamo/campus-facility-reservation/internal/repository"
)

type recordingNotifier struct{ events []queue.ReservationEvent }

func (n *recordingNotifier) Notify(_ context.Context, ev queue.ReservationEvent) {
	n.events = append(n.events, ev)
}

var detailCols = append(append([]string{}, reservationCols...),
	"full_name", "username", "facility_name", "capacity", "building_name")

func detailRow(id, requester int64, status string, start time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(detailCols).AddRow(
		id, requester, 1, status, "Himpunan meeting", 12,
		start, start.Add(90*time.Minute), nil, fixedNow, fixedNow,
		"John Doe", "john_user", "Aula Utama", 10, "GSG",
	)
}

func newReservationEcho(t *testing.T, uid int64, role string) (sqlmock.Sqlmock, *recordingNotifier, *echo.Echo) {
	t.Helper()
	db, mock := newMockDB(t)
	n := &recordingNotifier{}
	h := NewReservationHandler(repository.NewReservationRepo(db, time.UTC), repository.NewFacilityRepo(db), n)
	h.Now = func() time.Time { return fixedNow }

	e := newEcho()
	g := e.Group("/api", as(uid, role))
	g.POST("/reservations", h.Create)
	g.GET("/reservations/availability/:facilityId", h.Availability)
	g.PUT("/reservations/cancel/:id", h.Cancel)
	g.PUT("/reservations/:id", h.Update)
	g.GET("/admin/reservations", h.AdminList)
	g.PUT("/admin/reservations/:id/status", h.UpdateStatus)
	return mock, n, e
}

func TestCreateReservation_Rules(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		capacity any
		active   bool
		want     string
	}{
		{
			name:     "past start",
			body:     `{"facilityId":1,"date":"2030-04-30","startTime":"10:00","endTime":"11:00","purpose":"Rapat himpunan","participants":5}`,
			capacity: 10, active: true,
			want: "startTime: Reservation cannot start in the past",
		},
		{
			name:     "over capacity",
			body:     `{"facilityId":"1","date":"2030-05-02","startTime":"10:00","endTime":"11:00","purpose":"Rapat himpunan","participants":"20"}`,
			capacity: 10, active: true,
			want: "participants: exceeds facility capacity (10)",
		},
		{
			name:     "inactive facility",
			body:     `{"facilityId":1,"date":"2030-05-02","startTime":"10:00","endTime":"11:00","purpose":"Rapat himpunan","participants":5}`,
			capacity: nil, active: false,
			want: "Facility is not available for booking",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mock, n, e := newReservationEcho(t, 5, model.RoleUser)
			mock.ExpectQuery("SELECT .* FROM `facilities`").WillReturnRows(facilityRow(1, tc.capacity, tc.active))

			rec := doJSON(e, http.MethodPost, "/api/reservations", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.want)
			assert.Empty(t, n.events)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCreateReservation_InvalidBody(t *testing.T) {
	mock, _, e := newReservationEcho(t, 5, model.RoleUser)

	rec := doJSON(e, http.MethodPost, "/api/reservations",
		`{"facilityId":1,"date":"02-05-2030","startTime":"10:00","endTime":"09:00","purpose":"x","participants":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "date: Invalid date format YYYY-MM-DD")
	assert.Contains(t, body, "purpose: must contain at least 5 character(s)")
	assert.Contains(t, body, "participants: Required")

	rec = doJSON(e, http.MethodPost, "/api/reservations",
		`{"facilityId":1,"date":"2030-05-02","startTime":"10:00","endTime":"09:00","purpose":"Rapat himpunan","participants":3}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "endTime: must be after startTime")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReservation_Conflict(t *testing.T) {
	mock, n, e := newReservationEcho(t, 5, model.RoleUser)
	mock.ExpectQuery("SELECT .* FROM `facilities`").WillReturnRows(facilityRow(1, 10, true))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT facility_id FROM facilities WHERE facility_id = \? FOR UPDATE`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"facility_id"}).AddRow(1))
	mock.ExpectQuery("SELECT reservation_id FROM reservations").
		WillReturnRows(sqlmock.NewRows([]string{"reservation_id"}).AddRow(7))
	mock.ExpectRollback()

	rec := doJSON(e, http.MethodPost, "/api/reservations",
		`{"facilityId":1,"date":"2030-05-02","startTime":"10:00","endTime":"11:30","purpose":"Rapat himpunan","participants":5}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, failBody("The facility is already booked for the selected time"), rec.Body.String())
	assert.Empty(t, n.events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReservation_Success(t *testing.T) {
	mock, n, e := newReservationEcho(t, 5, model.RoleUser)
	start := time.Date(2030, 5, 2, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT .* FROM `facilities`").WillReturnRows(facilityRow(1, 10, true))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT facility_id FROM facilities WHERE facility_id = \? FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"facility_id"}).AddRow(1))
	mock.ExpectQuery("SELECT reservation_id FROM reservations").
		WillReturnRows(sqlmock.NewRows([]string{"reservation_id"}))
	mock.ExpectExec("INSERT INTO reservations").
		WithArgs(int64(5), int64(1), model.StatusPending, "Rapat himpunan", 5, start, start.Add(90*time.Minute), nil).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec("INSERT INTO approval_logs").
		WithArgs(int64(11), sqlmock.AnyArg(), model.StatusPending, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT .* FROM `reservations`").
		WillReturnRows(sqlmock.NewRows(reservationCols).AddRow(
			11, 5, 1, model.StatusPending, "Rapat himpunan", 5, start, start.Add(90*time.Minute), nil, fixedNow, fixedNow))
	mock.ExpectQuery(`FROM reservations r`).WithArgs(int64(11)).
		WillReturnRows(detailRow(11, 5, model.StatusPending, start))

	rec := doJSON(e, http.MethodPost, "/api/reservations",
		`{"facilityId":1,"date":"2030-05-02","startTime":"10:00","endTime":"11:30","purpose":" Rapat himpunan ","participants":5}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := rec.Body.String()
	assert.Contains(t, body, `"message":"Reservation created and awaiting approval"`)
	assert.Contains(t, body, `"date":"2030-05-02"`)
	assert.Contains(t, body, `"start_time":"10:00"`)

	require.Len(t, n.events, 1)
	assert.Equal(t, queue.EventReservationCreated, n.events[0].Type)
	assert.Equal(t, int64(5), n.events[0].UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailability(t *testing.T) {
	mock, _, e := newReservationEcho(t, 5, model.RoleUser)

	rec := doJSON(e, http.MethodGet, "/api/reservations/availability/1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "date: Required")

	rec = doJSON(e, http.MethodGet, "/api/reservations/availability/abc?date=2030-05-02", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, failBody("Invalid facilityId"), rec.Body.String())

	mock.ExpectQuery("SELECT .* FROM `facilities`").WillReturnRows(sqlmock.NewRows(facilityCols))
	rec = doJSON(e, http.MethodGet, "/api/reservations/availability/9?date=2030-05-02", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, failBody("Facility not found"), rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancel(t *testing.T) {
	start := time.Date(2030, 5, 2, 10, 0, 0, 0, time.UTC)

	t.Run("already canceled", func(t *testing.T) {
		mock, _, e := newReservationEcho(t, 5, model.RoleUser)
		mock.ExpectQuery(`FROM reservations r`).WillReturnRows(detailRow(3, 5, model.StatusCanceled, start))
		rec := doJSON(e, http.MethodPut, "/api/reservations/cancel/3", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, failBody("This reservation has already been canceled"), rec.Body.String())
	})
	t.Run("someone else's", func(t *testing.T) {
		mock, _, e := newReservationEcho(t, 6, model.RoleUser)
		mock.ExpectQuery(`FROM reservations r`).WillReturnRows(detailRow(3, 5, model.StatusPending, start))
		rec := doJSON(e, http.MethodPut, "/api/reservations/cancel/3", "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
	t.Run("missing", func(t *testing.T) {
		mock, _, e := newReservationEcho(t, 5, model.RoleUser)
		mock.ExpectQuery(`FROM reservations r`).WillReturnRows(sqlmock.NewRows(detailCols))
		rec := doJSON(e, http.MethodPut, "/api/reservations/cancel/3", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, failBody("Reservation not found"), rec.Body.String())
	})
}

func TestUpdateStatus_RejectsUnknownStatus(t *testing.T) {
	mock, n, e := newReservationEcho(t, 1, model.RoleAdmin)
	rec := doJSON(e, http.MethodPut, "/api/admin/reservations/3/status", `{"status":"archived"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "status: must be one of approved, rejected, cancelled, canceled, ongoing, completed")
	assert.Empty(t, n.events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateReservation(t *testing.T) {
	start := time.Date(2030, 5, 2, 10, 0, 0, 0, time.UTC)

	t.Run("only pending", func(t *testing.T) {
		mock, _, e := newReservationEcho(t, 5, model.RoleUser)
		mock.ExpectQuery(`FROM reservations r`).WithArgs(int64(3)).
			WillReturnRows(detailRow(3, 5, model.StatusApproved, start))
		rec := doJSON(e, http.MethodPut, "/api/reservations/3", `{"purpose":"Rapat evaluasi"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, failBody("Only pending reservations can be edited"), rec.Body.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("moved onto a taken slot", func(t *testing.T) {
		mock, _, e := newReservationEcho(t, 5, model.RoleUser)
		mock.ExpectQuery(`FROM reservations r`).WithArgs(int64(3)).
			WillReturnRows(detailRow(3, 5, model.StatusPending, start))
		mock.ExpectQuery("SELECT .* FROM `facilities`").WillReturnRows(facilityRow(1, 20, true))
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT .* FROM reservations WHERE reservation_id = \? FOR UPDATE`).
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows(reservationCols).AddRow(
				3, 5, 1, model.StatusPending, "Himpunan meeting", 12, start, start.Add(90*time.Minute), nil, fixedNow, fixedNow))
		mock.ExpectQuery(`SELECT facility_id FROM facilities WHERE facility_id = \? FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows([]string{"facility_id"}).AddRow(1))
		mock.ExpectQuery("SELECT reservation_id FROM reservations").
			WithArgs(int64(1), model.StatusPending, model.StatusApproved, start.Add(2*time.Hour), start.Add(time.Hour), int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"reservation_id"}).AddRow(7))
		mock.ExpectRollback()

		rec := doJSON(e, http.MethodPut, "/api/reservations/3", `{"startTime":"11:00","endTime":"12:00"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.JSONEq(t, failBody("The facility is already booked for the selected time"), rec.Body.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("purpose only", func(t *testing.T) {
		mock, _, e := newReservationEcho(t, 5, model.RoleUser)
		mock.ExpectQuery(`FROM reservations r`).WithArgs(int64(3)).
			WillReturnRows(detailRow(3, 5, model.StatusPending, start))
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT .* FROM reservations WHERE reservation_id = \? FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows(reservationCols).AddRow(
				3, 5, 1, model.StatusPending, "Himpunan meeting", 12, start, start.Add(90*time.Minute), nil, fixedNow, fixedNow))
		mock.ExpectExec("UPDATE `reservations` SET `purpose`=\\?").
			WithArgs("Rapat evaluasi", int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
		mock.ExpectQuery("SELECT .* FROM `reservations`").
			WillReturnRows(sqlmock.NewRows(reservationCols).AddRow(
				3, 5, 1, model.StatusPending, "Rapat evaluasi", 12, start, start.Add(90*time.Minute), nil, fixedNow, fixedNow))
		mock.ExpectQuery(`FROM reservations r`).WithArgs(int64(3)).
			WillReturnRows(detailRow(3, 5, model.StatusPending, start))

		rec := doJSON(e, http.MethodPut, "/api/reservations/3", `{"purpose":" Rapat evaluasi "}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), `"message":"Reservation updated"`)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAdminList(t *testing.T) {
	mock, _, e := newReservationEcho(t, 1, model.RoleAdminVerificator)
	start := time.Date(2030, 5, 2, 10, 0, 0, 0, time.UTC)

	rec := doJSON(e, http.MethodGet, "/api/admin/reservations?status=archived", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "status: must be one of")

	mock.ExpectQuery(`FROM reservations r .* WHERE r.status = \? ORDER BY`).WithArgs(model.StatusPending).
		WillReturnRows(detailRow(3, 5, model.StatusPending, start))
	rec = doJSON(e, http.MethodGet, "/api/admin/reservations?status=pending", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"reservation_id":3`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_ReapprovalConflict(t *testing.T) {
	mock, n, e := newReservationEcho(t, 1, model.RoleAdmin)
	start := time.Date(2030, 5, 2, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM reservations WHERE reservation_id = \? FOR UPDATE`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(reservationCols).AddRow(
			3, 5, 1, model.StatusRejected, "Himpunan meeting", 12, start, start.Add(90*time.Minute), nil, fixedNow, fixedNow))
	mock.ExpectQuery(`SELECT facility_id FROM facilities WHERE facility_id = \? FOR UPDATE`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"facility_id"}).AddRow(1))
	mock.ExpectQuery("SELECT reservation_id FROM reservations").
		WillReturnRows(sqlmock.NewRows([]string{"reservation_id"}).AddRow(8))
	mock.ExpectRollback()

	rec := doJSON(e, http.MethodPut, "/api/admin/reservations/3/status", `{"status":"approved"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, failBody("Another reservation already holds this slot"), rec.Body.String())
	assert.Empty(t, n.events)
	assert.NoError(t, mock.ExpectationsWereMet())
}
