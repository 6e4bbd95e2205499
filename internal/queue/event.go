// Package queue carries reservation events over RabbitMQ and turns them
// into in-app notifications.
package queue

import (
	"context"
	"fmt"
	"strings"

	"github.com/iliyamo/campus-facility-reservation/internal/model"
)

// QueueName is the durable queue reservation events are published to.
const QueueName = "reservation.events"

// Event types.
const (
	EventReservationCreated       = "reservation.created"
	EventReservationStatusChanged = "reservation.status_changed"
)

// ReservationEvent describes a change to one reservation. It carries
// enough context to build the requester's notification without querying
// the reservation again.
type ReservationEvent struct {
	Type          string `json:"type"`
	ReservationID int64  `json:"reservation_id"`
	UserID        int64  `json:"user_id"`
	FacilityID    int64  `json:"facility_id"`
	FacilityName  string `json:"facility_name"`
	Status        string `json:"status"`
	Comment       string `json:"comment,omitempty"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	OccurredAt    string `json:"occurred_at"`
}

// NewReservationEvent builds an event from a localized reservation.
func NewReservationEvent(typ string, d model.ReservationDetail, comment, occurredAt string) ReservationEvent {
	ev := ReservationEvent{
		Type:          typ,
		ReservationID: d.ID,
		UserID:        d.RequesterID,
		FacilityID:    d.FacilityID,
		Status:        d.Status,
		Comment:       comment,
		Date:          d.Date,
		StartTime:     d.StartTime,
		EndTime:       d.EndTime,
		OccurredAt:    occurredAt,
	}
	if d.FacilityName != nil {
		ev.FacilityName = *d.FacilityName
	}
	return ev
}

// Notification renders the title and message shown to the requester.
func (ev ReservationEvent) Notification() (title, message string) {
	facility := ev.FacilityName
	if facility == "" {
		facility = fmt.Sprintf("facility #%d", ev.FacilityID)
	}
	slot := fmt.Sprintf("%s on %s %s-%s", facility, ev.Date, ev.StartTime, ev.EndTime)

	switch {
	case ev.Type == EventReservationCreated:
		title = "Reservation submitted"
		message = "Your reservation for " + slot + " is waiting for approval."
	case ev.Status == model.StatusApproved:
		title = "Reservation approved"
		message = "Your reservation for " + slot + " has been approved."
	case ev.Status == model.StatusRejected:
		title = "Reservation rejected"
		message = "Your reservation for " + slot + " has been rejected."
	case ev.Status == model.StatusCanceled:
		title = "Reservation canceled"
		message = "Your reservation for " + slot + " has been canceled."
	case ev.Status == model.StatusCompleted:
		title = "Reservation completed"
		message = "Your reservation for " + slot + " is complete. You can now rate the facility."
	default:
		title = "Reservation updated"
		message = "Your reservation for " + slot + " is now " + strings.ToLower(ev.Status) + "."
	}
	if ev.Comment != "" {
		message += " Note: " + ev.Comment
	}
	return title, message
}

// NotificationWriter stores notifications.
type NotificationWriter interface {
	CreateNotification(ctx context.Context, userID int64, reservationID *int64, title, message string) (model.Notification, error)
}

// Deliver writes the requester's notification for ev.
func Deliver(ctx context.Context, w NotificationWriter, ev ReservationEvent) error {
	if ev.UserID <= 0 {
		return fmt.Errorf("event %s for reservation %d has no recipient", ev.Type, ev.ReservationID)
	}
	title, msg := ev.Notification()
	var rid *int64
	if ev.ReservationID > 0 {
		id := ev.ReservationID
		rid = &id
	}
	_, err := w.CreateNotification(ctx, ev.UserID, rid, title, msg)
	return err
}
