package model

import "time"

// Notification is an in-app message for one user, usually about one of
// their reservations.
type Notification struct {
	ID            int64     `json:"notification_id"` // notifications.notification_id
	UserID        int64     `json:"user_id"`         // notifications.user_id
	ReservationID *int64    `json:"reservation_id"`  // notifications.reservation_id
	Title         string    `json:"title"`           // notifications.title
	Message       string    `json:"message"`         // notifications.message
	IsRead        bool      `json:"is_read"`         // notifications.is_read
	CreatedAt     time.Time `json:"created_at"`      // notifications.created_at
}
