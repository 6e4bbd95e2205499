package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/iliyamo/campus-facility-reservation/internal/model"
)

var reservationColumns = []string{
	"reservation_id", "requester_id", "facility_id", "status", "purpose", "attendees",
	"start_at", "end_at", "proposal_url", "created_at", "updated_at",
}

func reservationFields(r *model.Reservation) []any {
	return []any{
		&r.ID, &r.RequesterID, &r.FacilityID, &r.Status, &r.Purpose, &r.Attendees,
		&r.StartAt, &r.EndAt, &r.ProposalURL, &r.CreatedAt, &r.UpdatedAt,
	}
}

var reservationTable = Table[model.Reservation]{
	Name:       "reservations",
	PrimaryKey: "reservation_id",
	Columns:    reservationColumns,
	Scan: func(s Scanner) (model.Reservation, error) {
		var r model.Reservation
		err := s.Scan(reservationFields(&r)...)
		return r, err
	},
}

const reservationDetailSelect = `SELECT
		r.reservation_id, r.requester_id, r.facility_id, r.status, r.purpose, r.attendees,
		r.start_at, r.end_at, r.proposal_url, r.created_at, r.updated_at,
		u.full_name, u.username, f.name, f.capacity, b.name
	FROM reservations r
	JOIN users u ON u.user_id = r.requester_id
	LEFT JOIN facilities f ON f.facility_id = r.facility_id
	LEFT JOIN buildings b ON b.building_id = f.building_id`

// ReservationRepo stores reservations and their approval log. All slot
// times are UTC in the database; detail rows are localized to the campus
// time zone for display.
type ReservationRepo struct {
	Base[model.Reservation]
	loc *time.Location
}

// NewReservationRepo returns a repository rendering dates in loc.
func NewReservationRepo(db *sql.DB, loc *time.Location) *ReservationRepo {
	if loc == nil {
		loc = time.UTC
	}
	return &ReservationRepo{Base: NewBase(db, reservationTable), loc: loc}
}

// Location is the time zone reservation dates are interpreted in.
func (r *ReservationRepo) Location() *time.Location { return r.loc }

// NewReservation carries the fields of a booking request.
type NewReservation struct {
	RequesterID int64
	FacilityID  int64
	Purpose     string
	Attendees   int
	StartAt     time.Time
	EndAt       time.Time
	ProposalURL *string
}

// ReservationChanges lists the editable fields; nil means unchanged.
type ReservationChanges struct {
	Purpose     *string
	Attendees   *int
	StartAt     *time.Time
	EndAt       *time.Time
	ProposalURL *string
}

type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CreateWithLog inserts a PENDING reservation and its first approval-log
// entry in one transaction. The facility row is locked while the overlap
// check runs so two concurrent requests cannot both take the same slot;
// an overlap yields ErrConflict.
func (r *ReservationRepo) CreateWithLog(ctx context.Context, in NewReservation) (model.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Reservation{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := lockFacility(ctx, tx, in.FacilityID); err != nil {
		return model.Reservation{}, err
	}
	conflicts, err := findConflicts(ctx, tx, in.FacilityID, in.StartAt, in.EndAt, 0)
	if err != nil {
		return model.Reservation{}, err
	}
	if len(conflicts) > 0 {
		return model.Reservation{}, ErrConflict
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO reservations
		(requester_id, facility_id, status, purpose, attendees, start_at, end_at, proposal_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		in.RequesterID, in.FacilityID, model.StatusPending, in.Purpose, in.Attendees,
		in.StartAt.UTC(), in.EndAt.UTC(), in.ProposalURL)
	if err != nil {
		return model.Reservation{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Reservation{}, err
	}
	if err := insertLog(ctx, tx, id, &in.RequesterID, model.StatusPending, "Submitted by requester."); err != nil {
		return model.Reservation{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Reservation{}, err
	}
	committed = true
	return r.FindByID(ctx, id)
}

// UpdateDetails applies changes to a reservation. When the slot moves the
// overlap check is repeated under the facility lock, ignoring the
// reservation itself.
func (r *ReservationRepo) UpdateDetails(ctx context.Context, id int64, ch ReservationChanges) (model.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Reservation{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	cur, err := lockReservation(ctx, tx, id)
	if err != nil {
		return model.Reservation{}, err
	}

	rec := goqu.Record{}
	if ch.Purpose != nil {
		rec["purpose"] = *ch.Purpose
	}
	if ch.Attendees != nil {
		rec["attendees"] = *ch.Attendees
	}
	if ch.ProposalURL != nil {
		rec["proposal_url"] = *ch.ProposalURL
	}
	if ch.StartAt != nil || ch.EndAt != nil {
		start, end := cur.StartAt, cur.EndAt
		if ch.StartAt != nil {
			start = *ch.StartAt
		}
		if ch.EndAt != nil {
			end = *ch.EndAt
		}
		if err := lockFacility(ctx, tx, cur.FacilityID); err != nil {
			return model.Reservation{}, err
		}
		conflicts, err := findConflicts(ctx, tx, cur.FacilityID, start, end, id)
		if err != nil {
			return model.Reservation{}, err
		}
		if len(conflicts) > 0 {
			return model.Reservation{}, ErrConflict
		}
		rec["start_at"] = start.UTC()
		rec["end_at"] = end.UTC()
	}

	if len(rec) > 0 {
		q, args, err := dialect.Update("reservations").Set(rec).
			Where(goqu.Ex{"reservation_id": id}).Prepared(true).ToSQL()
		if err != nil {
			return model.Reservation{}, err
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return model.Reservation{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return model.Reservation{}, err
	}
	committed = true
	return r.FindByID(ctx, id)
}

// UpdateStatus moves a reservation to status and records who did it.
// Approving a reservation that is not yet APPROVED re-runs the overlap
// check under the facility lock, so a slot taken meanwhile yields
// ErrConflict.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id int64, status string, actor *int64, comment string) (model.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Reservation{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	cur, err := lockReservation(ctx, tx, id)
	if err != nil {
		return model.Reservation{}, err
	}
	if status == model.StatusApproved && cur.Status != model.StatusApproved {
		if err := lockFacility(ctx, tx, cur.FacilityID); err != nil {
			return model.Reservation{}, err
		}
		conflicts, err := findConflicts(ctx, tx, cur.FacilityID, cur.StartAt, cur.EndAt, id)
		if err != nil {
			return model.Reservation{}, err
		}
		if len(conflicts) > 0 {
			return model.Reservation{}, ErrConflict
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE reservations SET status = ? WHERE reservation_id = ?`, status, id); err != nil {
		return model.Reservation{}, err
	}
	if err := insertLog(ctx, tx, id, actor, status, comment); err != nil {
		return model.Reservation{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Reservation{}, err
	}
	committed = true
	return r.FindByID(ctx, id)
}

func findConflicts(ctx context.Context, q execQuerier, facilityID int64, start, end time.Time, excludeID int64) ([]int64, error) {
	query := `SELECT reservation_id FROM reservations
		WHERE facility_id = ? AND status IN (?, ?) AND start_at < ? AND end_at > ?`
	args := []any{facilityID, model.StatusPending, model.StatusApproved, end.UTC(), start.UTC()}
	if excludeID > 0 {
		query += ` AND reservation_id <> ?`
		args = append(args, excludeID)
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func lockReservation(ctx context.Context, q execQuerier, id int64) (model.Reservation, error) {
	cur, err := reservationTable.Scan(q.QueryRowContext(ctx,
		"SELECT "+strings.Join(reservationColumns, ", ")+" FROM reservations WHERE reservation_id = ? FOR UPDATE", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Reservation{}, fmt.Errorf("reservations: %w", ErrNotFound)
	}
	return cur, err
}

func lockFacility(ctx context.Context, q execQuerier, facilityID int64) error {
	var id int64
	err := q.QueryRowContext(ctx, `SELECT facility_id FROM facilities WHERE facility_id = ? FOR UPDATE`, facilityID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("facilities: %w", ErrNotFound)
	}
	return err
}

func insertLog(ctx context.Context, q execQuerier, reservationID int64, actor *int64, action, comment string) error {
	var c *string
	if comment != "" {
		c = &comment
	}
	_, err := q.ExecContext(ctx,
		"INSERT INTO approval_logs (reservation_id, acted_by, `action`, `comment`) VALUES (?, ?, ?, ?)",
		reservationID, actor, action, c)
	return err
}

func (r *ReservationRepo) scanDetail(s Scanner) (model.ReservationDetail, error) {
	var d model.ReservationDetail
	dest := append(reservationFields(&d.Reservation),
		&d.UserName, &d.UserUsername, &d.FacilityName, &d.FacilityCapacity, &d.BuildingName)
	if err := s.Scan(dest...); err != nil {
		return d, err
	}
	d.Localize(r.loc)
	return d, nil
}

// FindDetail returns one reservation joined with requester and facility.
func (r *ReservationRepo) FindDetail(ctx context.Context, id int64) (model.ReservationDetail, error) {
	d, err := r.scanDetail(r.db.QueryRowContext(ctx, reservationDetailSelect+` WHERE r.reservation_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return d, fmt.Errorf("reservations: %w", ErrNotFound)
	}
	return d, err
}

// FindAllDetails lists every reservation, pending ones first, optionally
// restricted to one status.
func (r *ReservationRepo) FindAllDetails(ctx context.Context, status string) ([]model.ReservationDetail, error) {
	q := reservationDetailSelect
	var args []any
	if status != "" {
		q += ` WHERE r.status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY (r.status = 'PENDING') DESC, r.created_at DESC`
	return r.details(ctx, q, args...)
}

// FindByUserID lists a requester's reservations, newest first.
func (r *ReservationRepo) FindByUserID(ctx context.Context, userID int64) ([]model.ReservationDetail, error) {
	return r.details(ctx, reservationDetailSelect+` WHERE r.requester_id = ? ORDER BY r.created_at DESC`, userID)
}

func (r *ReservationRepo) details(ctx context.Context, q string, args ...any) ([]model.ReservationDetail, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAll(rows, r.scanDetail)
}

// BusySlots returns the PENDING/APPROVED windows of a facility starting in
// [from, to), ordered by start.
func (r *ReservationRepo) BusySlots(ctx context.Context, facilityID int64, from, to time.Time) ([]model.BusySlot, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT reservation_id, status, start_at, end_at FROM reservations
		WHERE facility_id = ? AND status IN (?, ?) AND start_at < ? AND end_at > ?
		ORDER BY start_at ASC`,
		facilityID, model.StatusPending, model.StatusApproved, to.UTC(), from.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.BusySlot, 0)
	for rows.Next() {
		var s model.BusySlot
		if err := rows.Scan(&s.ReservationID, &s.Status, &s.StartAt, &s.EndAt); err != nil {
			return nil, err
		}
		s.StartTime = s.StartAt.In(r.loc).Format("15:04")
		s.EndTime = s.EndAt.In(r.loc).Format("15:04")
		out = append(out, s)
	}
	return out, rows.Err()
}

// CompleteFinished marks APPROVED and ONGOING reservations whose slot ended
// at or before now as COMPLETED and returns them.
func (r *ReservationRepo) CompleteFinished(ctx context.Context, now time.Time) ([]model.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	rows, err := tx.QueryContext(ctx,
		"SELECT "+strings.Join(reservationColumns, ", ")+` FROM reservations
		WHERE status IN (?, ?) AND end_at <= ? FOR UPDATE`,
		model.StatusApproved, model.StatusOngoing, now.UTC())
	if err != nil {
		return nil, err
	}
	done, err := scanAll(rows, reservationTable.Scan)
	rows.Close()
	if err != nil {
		return nil, err
	}
	for i := range done {
		if _, err := tx.ExecContext(ctx, `UPDATE reservations SET status = ? WHERE reservation_id = ?`,
			model.StatusCompleted, done[i].ID); err != nil {
			return nil, err
		}
		if err := insertLog(ctx, tx, done[i].ID, nil, model.StatusCompleted, "Completed automatically after the slot ended."); err != nil {
			return nil, err
		}
		done[i].Status = model.StatusCompleted
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return done, nil
}

// ReservationStats summarises reservation counts for the dashboard.
type ReservationStats struct {
	Total   int `json:"totalReservations"`
	Pending int `json:"pendingReservations"`
}

// Stats counts all and pending reservations.
func (r *ReservationRepo) Stats(ctx context.Context) (ReservationStats, error) {
	var s ReservationStats
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN status = 'PENDING' THEN 1 ELSE 0 END), 0) FROM reservations`).
		Scan(&s.Total, &s.Pending)
	return s, err
}

// Activity is one dashboard feed entry.
type Activity struct {
	ID     int64     `json:"id"`
	User   string    `json:"user"`
	Action string    `json:"action"`
	Time   time.Time `json:"time"`
}

// RecentActivity returns the latest reservation submissions.
func (r *ReservationRepo) RecentActivity(ctx context.Context, limit int) ([]Activity, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT r.reservation_id, u.full_name, r.created_at
		FROM reservations r JOIN users u ON u.user_id = r.requester_id
		ORDER BY r.created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Activity, 0, limit)
	for rows.Next() {
		a := Activity{Action: "Created reservation"}
		if err := rows.Scan(&a.ID, &a.User, &a.Time); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// FindLogs returns the approval history of a reservation, oldest first.
func (r *ReservationRepo) FindLogs(ctx context.Context, reservationID int64) ([]model.ApprovalLog, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT log_id, reservation_id, acted_by, `action`, `comment`, created_at FROM approval_logs WHERE reservation_id = ? ORDER BY created_at, log_id",
		reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAll(rows, func(s Scanner) (model.ApprovalLog, error) {
		var l model.ApprovalLog
		err := s.Scan(&l.ID, &l.ReservationID, &l.ActedBy, &l.Action, &l.Comment, &l.CreatedAt)
		return l, err
	})
}
