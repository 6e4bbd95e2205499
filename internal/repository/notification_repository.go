package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/iliyamo/campus-facility-reservation/internal/model"
)

var notificationTable = Table[model.Notification]{
	Name:       "notifications",
	PrimaryKey: "notification_id",
	Columns:    []string{"notification_id", "user_id", "reservation_id", "title", "message", "is_read", "created_at"},
	Scan: func(s Scanner) (model.Notification, error) {
		var n model.Notification
		err := s.Scan(&n.ID, &n.UserID, &n.ReservationID, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt)
		return n, err
	},
}

// NotificationRepo stores in-app notifications. Every mutating call is
// scoped to the owning user; a row belonging to someone else is reported
// as ErrNotFound.
type NotificationRepo struct {
	Base[model.Notification]
}

func NewNotificationRepo(db *sql.DB) *NotificationRepo {
	return &NotificationRepo{Base: NewBase(db, notificationTable)}
}

// FindByUserID lists a user's notifications, newest first.
func (r *NotificationRepo) FindByUserID(ctx context.Context, userID int64) ([]model.Notification, error) {
	return r.FindWhere(ctx, goqu.Ex{"user_id": userID},
		goqu.I("created_at").Desc(), goqu.I("notification_id").Desc())
}

// CreateNotification inserts an unread notification.
func (r *NotificationRepo) CreateNotification(ctx context.Context, userID int64, reservationID *int64, title, message string) (model.Notification, error) {
	rec := goqu.Record{"user_id": userID, "title": title, "message": message, "is_read": false}
	if reservationID != nil {
		rec["reservation_id"] = *reservationID
	}
	return r.Create(ctx, rec)
}

// MarkRead flags one notification as read.
func (r *NotificationRepo) MarkRead(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE notification_id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	return r.ensureOwned(ctx, res, userID, id)
}

// MarkAllRead flags every unread notification of the user and returns how
// many changed.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = ? AND is_read = FALSE`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteForUser removes one of the user's notifications.
func (r *NotificationRepo) DeleteForUser(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE notification_id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("notifications: %w", ErrNotFound)
	}
	return nil
}

// UnreadCount counts the user's unread notifications.
func (r *NotificationRepo) UnreadCount(ctx context.Context, userID int64) (int, error) {
	return r.Count(ctx, goqu.Ex{"user_id": userID, "is_read": false})
}

// an already-read row reports zero affected rows, so ownership is checked
// with a count before giving up.
func (r *NotificationRepo) ensureOwned(ctx context.Context, res sql.Result, userID, id int64) error {
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	n, err := r.Count(ctx, goqu.Ex{"notification_id": id, "user_id": userID})
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("notifications: %w", ErrNotFound)
	}
	return nil
}
