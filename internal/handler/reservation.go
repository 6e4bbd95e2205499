package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-facility-reservation/internal/apperror"
	"github.com/iliyamo/campus-facility-reservation/internal/middleware"
	"github.com/iliyamo/campus-facility-reservation/internal/model"
	"github.com/iliyamo/campus-facility-reservation/internal/queue"
	"github.com/iliyamo/campus-facility-reservation/internal/repository"
	"github.com/iliyamo/campus-facility-reservation/internal/response"
	"github.com/iliyamo/campus-facility-reservation/internal/validation"
)

// EventNotifier delivers reservation events to requesters.
type EventNotifier interface {
	Notify(ctx context.Context, ev queue.ReservationEvent)
}

// ReservationHandler serves requester and verifier reservation endpoints.
type ReservationHandler struct {
	Reservations *repository.ReservationRepo
	Facilities   *repository.FacilityRepo
	Notifier     EventNotifier
	Loc          *time.Location
	Now          func() time.Time
}

func NewReservationHandler(r *repository.ReservationRepo, f *repository.FacilityRepo, n EventNotifier) *ReservationHandler {
	if r == nil || f == nil {
		panic("nil repository passed to NewReservationHandler")
	}
	return &ReservationHandler{Reservations: r, Facilities: f, Notifier: n, Loc: r.Location(), Now: time.Now}
}

var errSlotTaken = apperror.Conflict("The facility is already booked for the selected time")

type createReservationReq struct {
	FacilityID   validation.FlexInt `json:"facilityId" validate:"required,gt=0"`
	Date         string             `json:"date" validate:"required,ymd"`
	StartTime    string             `json:"startTime" validate:"required,hhmm"`
	EndTime      string             `json:"endTime" validate:"required,hhmm"`
	Purpose      string             `json:"purpose" validate:"required,min=5"`
	Participants validation.FlexInt `json:"participants" validate:"required,gt=0"`
	ProposalURL  *string            `json:"proposal_url"`
}

type updateReservationReq struct {
	Purpose      *string             `json:"purpose" validate:"omitempty,min=5"`
	Participants *validation.FlexInt `json:"participants" validate:"omitempty,gt=0"`
	Date         *string             `json:"date" validate:"omitempty,ymd"`
	StartTime    *string             `json:"startTime" validate:"omitempty,hhmm"`
	EndTime      *string             `json:"endTime" validate:"omitempty,hhmm"`
	ProposalURL  *string             `json:"proposal_url"`
}

type reservationView struct {
	model.ReservationDetail
	Logs []model.ApprovalLog `json:"logs"`
}

// checkBookable enforces the facility rules shared by create and update.
func (h *ReservationHandler) checkBookable(f model.Facility, start time.Time, participants int) error {
	if start.Before(h.Now()) {
		return validation.Fieldf("startTime", "Reservation cannot start in the past")
	}
	if !f.IsActive {
		return apperror.BadRequest("Facility is not available for booking")
	}
	if f.MaintenanceUntil != nil && f.MaintenanceUntil.After(start) {
		return apperror.BadRequest(fmt.Sprintf("Facility is under maintenance until %s",
			f.MaintenanceUntil.In(h.Loc).Format("2006-01-02 15:04")))
	}
	if f.Capacity != nil && participants > *f.Capacity {
		return validation.Fieldf("participants", "exceeds facility capacity (%d)", *f.Capacity)
	}
	return nil
}

// Create books a facility. The reservation starts PENDING.
func (h *ReservationHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	var req createReservationReq
	if err := validation.Bind(c, &req); err != nil {
		return err
	}
	start, end, err := parseSlot(req.Date, req.StartTime, req.EndTime, h.Loc)
	if err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	f, err := h.Facilities.FindByID(ctx, req.FacilityID.Int64())
	if err != nil {
		return notFound(err, "Facility not found")
	}
	if err := h.checkBookable(f, start, int(req.Participants)); err != nil {
		return err
	}

	r, err := h.Reservations.CreateWithLog(ctx, repository.NewReservation{
		RequesterID: uid,
		FacilityID:  f.ID,
		Purpose:     strings.TrimSpace(req.Purpose),
		Attendees:   int(req.Participants),
		StartAt:     start,
		EndAt:       end,
		ProposalURL: req.ProposalURL,
	})
	if errors.Is(err, repository.ErrConflict) {
		return errSlotTaken
	}
	if err != nil {
		return notFound(err, "Facility not found")
	}

	d, err := h.Reservations.FindDetail(ctx, r.ID)
	if err != nil {
		return err
	}
	h.notify(ctx, queue.EventReservationCreated, d, "")
	return response.Created(c, d, "Reservation created and awaiting approval")
}

// MyHistory lists the caller's reservations.
func (h *ReservationHandler) MyHistory(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Reservations.FindByUserID(ctx, uid)
	if err != nil {
		return err
	}
	return response.OK(c, list)
}

// Get returns one reservation with its approval history to its requester
// or to a verifier.
func (h *ReservationHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	d, err := h.Reservations.FindDetail(ctx, id)
	if err != nil {
		return notFound(err, "Reservation not found")
	}
	if d.RequesterID != uid && !model.CanVerify(middleware.Role(c)) {
		return apperror.Forbidden("You do not have access to this reservation")
	}
	logs, err := h.Reservations.FindLogs(ctx, id)
	if err != nil {
		return err
	}
	return response.OK(c, reservationView{ReservationDetail: d, Logs: logs})
}

// own loads a reservation and checks the caller owns it.
func (h *ReservationHandler) own(ctx context.Context, uid, id int64) (model.ReservationDetail, error) {
	d, err := h.Reservations.FindDetail(ctx, id)
	if err != nil {
		return d, notFound(err, "Reservation not found")
	}
	if d.RequesterID != uid {
		return d, apperror.Forbidden("You do not have permission to modify this reservation")
	}
	return d, nil
}

// Update edits a PENDING reservation of the caller. A moved slot is
// re-checked for overlaps.
func (h *ReservationHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req updateReservationReq
	if err := validation.Bind(c, &req); err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	cur, err := h.own(ctx, uid, id)
	if err != nil {
		return err
	}
	if cur.Status != model.StatusPending {
		return apperror.BadRequest("Only pending reservations can be edited")
	}

	ch := repository.ReservationChanges{ProposalURL: req.ProposalURL}
	if req.Purpose != nil {
		p := strings.TrimSpace(*req.Purpose)
		ch.Purpose = &p
	}
	participants := cur.Attendees
	if req.Participants != nil {
		participants = int(*req.Participants)
		ch.Attendees = &participants
	}
	start := cur.StartAt
	if req.Date != nil || req.StartTime != nil || req.EndTime != nil {
		date, st, et := cur.Date, cur.StartTime, cur.EndTime
		if req.Date != nil {
			date = *req.Date
		}
		if req.StartTime != nil {
			st = *req.StartTime
		}
		if req.EndTime != nil {
			et = *req.EndTime
		}
		s, e, err := parseSlot(date, st, et, h.Loc)
		if err != nil {
			return err
		}
		start = s
		ch.StartAt, ch.EndAt = &s, &e
	}
	if ch.StartAt != nil || ch.Attendees != nil {
		f, err := h.Facilities.FindByID(ctx, cur.FacilityID)
		if err != nil {
			return notFound(err, "Facility not found")
		}
		if err := h.checkBookable(f, start, participants); err != nil {
			return err
		}
	}

	if _, err := h.Reservations.UpdateDetails(ctx, id, ch); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return errSlotTaken
		}
		return notFound(err, "Reservation not found")
	}
	d, err := h.Reservations.FindDetail(ctx, id)
	if err != nil {
		return err
	}
	return response.OKMessage(c, d, "Reservation updated")
}

// Cancel lets a requester withdraw a reservation that has not finished.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	cur, err := h.own(ctx, uid, id)
	if err != nil {
		return err
	}
	switch cur.Status {
	case model.StatusCanceled:
		return apperror.BadRequest("This reservation has already been canceled")
	case model.StatusRejected, model.StatusCompleted:
		return apperror.BadRequest("A " + strings.ToLower(cur.Status) + " reservation cannot be canceled")
	}

	if _, err := h.Reservations.UpdateStatus(ctx, id, model.StatusCanceled, &uid, "Canceled by requester."); err != nil {
		return notFound(err, "Reservation not found")
	}
	d, err := h.Reservations.FindDetail(ctx, id)
	if err != nil {
		return err
	}
	return response.OKMessage(c, d, fmt.Sprintf("Reservation #%d has been canceled", id))
}

type availabilityQuery struct {
	Date string `query:"date" validate:"required,ymd"`
}

// Availability lists the busy slots of a facility on one local day.
func (h *ReservationHandler) Availability(c echo.Context) error {
	fid, err := paramID(c, "facilityId")
	if err != nil {
		return err
	}
	var q availabilityQuery
	if err := validation.Bind(c, &q); err != nil {
		return err
	}
	from, to, err := dayBounds(q.Date, h.Loc)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Facilities.FindByID(ctx, fid); err != nil {
		return notFound(err, "Facility not found")
	}
	slots, err := h.Reservations.BusySlots(ctx, fid, from, to)
	if err != nil {
		return err
	}
	return response.OK(c, slots)
}

func (h *ReservationHandler) notify(ctx context.Context, typ string, d model.ReservationDetail, comment string) {
	if h.Notifier == nil {
		return
	}
	h.Notifier.Notify(ctx, queue.NewReservationEvent(typ, d, comment, h.Now().UTC().Format(time.RFC3339)))
}
