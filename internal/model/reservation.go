package model

import (
	"strings"
	"time"
)

// Reservation statuses. PENDING and APPROVED reservations hold their slot.
const (
	StatusPending   = "PENDING"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"
	StatusCanceled  = "CANCELED"
	StatusOngoing   = "ONGOING"
	StatusCompleted = "COMPLETED"
)

// BlockingStatuses are the statuses that make a slot unavailable.
var BlockingStatuses = []string{StatusPending, StatusApproved}

// StatusFromAction maps the lower-case verbs accepted by the admin endpoint
// to stored statuses. The second result is false for unknown verbs.
func StatusFromAction(action string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "approved":
		return StatusApproved, true
	case "rejected":
		return StatusRejected, true
	case "cancelled", "canceled":
		return StatusCanceled, true
	case "ongoing":
		return StatusOngoing, true
	case "completed":
		return StatusCompleted, true
	}
	return "", false
}

// Reservation records a user's booking of a facility for a time range.
//
// Fields:
//  ID          – primary key identifier.
//  RequesterID – user who made the reservation.
//  FacilityID  – facility being reserved.
//  Status      – one of the Status* constants.
//  Attendees   – expected participants.
//  StartAt     – UTC start of the slot.
//  EndAt       – UTC end of the slot (exclusive).
//  ProposalURL – optional uploaded proposal document.
type Reservation struct {
	ID          int64     `json:"reservation_id"` // reservations.reservation_id
	RequesterID int64     `json:"user_id"`        // reservations.requester_id
	FacilityID  int64     `json:"facility_id"`    // reservations.facility_id
	Status      string    `json:"status"`         // reservations.status
	Purpose     string    `json:"purpose"`        // reservations.purpose
	Attendees   int       `json:"attendees"`      // reservations.attendees
	StartAt     time.Time `json:"start_at"`       // reservations.start_at
	EndAt       time.Time `json:"end_at"`         // reservations.end_at
	ProposalURL *string   `json:"proposal_url"`   // reservations.proposal_url
	CreatedAt   time.Time `json:"created_at"`     // reservations.created_at
	UpdatedAt   time.Time `json:"updated_at"`     // reservations.updated_at
}

// ReservationDetail is a reservation joined with its requester and facility,
// with the slot rendered in the campus time zone.
type ReservationDetail struct {
	Reservation
	UserName         string  `json:"user_name"`
	UserUsername     string  `json:"user_username"`
	FacilityName     *string `json:"facility_name"`
	FacilityCapacity *int    `json:"facility_capacity,omitempty"`
	BuildingName     *string `json:"building_name,omitempty"`
	Date             string  `json:"date"`
	StartTime        string  `json:"start_time"`
	EndTime          string  `json:"end_time"`
}

// Localize fills Date/StartTime/EndTime from the UTC slot.
func (d *ReservationDetail) Localize(loc *time.Location) {
	s, e := d.StartAt.In(loc), d.EndAt.In(loc)
	d.Date = s.Format("2006-01-02")
	d.StartTime = s.Format("15:04")
	d.EndTime = e.Format("15:04")
}

// BusySlot is an occupied window returned by the availability endpoint.
type BusySlot struct {
	ReservationID int64     `json:"reservation_id"`
	Status        string    `json:"status"`
	StartAt       time.Time `json:"start_datetime"`
	EndAt         time.Time `json:"end_datetime"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
}

// ApprovalLog is an audit row written on every status change.
type ApprovalLog struct {
	ID            int64     `json:"log_id"`
	ReservationID int64     `json:"reservation_id"`
	ActedBy       *int64    `json:"acted_by"`
	Action        string    `json:"action"`
	Comment       *string   `json:"comment"`
	CreatedAt     time.Time `json:"created_at"`
}
