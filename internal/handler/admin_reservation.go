package handler

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-facility-reservation/internal/apperror"
	"github.com/iliyamo/campus-facility-reservation/internal/model"
	"github.com/iliyamo/campus-facility-reservation/internal/queue"
	"github.com/iliyamo/campus-facility-reservation/internal/repository"
	"github.com/iliyamo/campus-facility-reservation/internal/response"
	"github.com/iliyamo/campus-facility-reservation/internal/validation"
)

type adminListQuery struct {
	Status string `query:"status" validate:"omitempty,oneof=PENDING APPROVED REJECTED CANCELED ONGOING COMPLETED"`
}

// AdminList returns every reservation, pending ones first.
func (h *ReservationHandler) AdminList(c echo.Context) error {
	var q adminListQuery
	if err := c.Bind(&q); err != nil {
		return validation.Fieldf("status", "invalid")
	}
	q.Status = strings.ToUpper(strings.TrimSpace(q.Status))
	if err := validation.Struct(&q); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Reservations.FindAllDetails(ctx, q.Status)
	if err != nil {
		return err
	}
	return response.OK(c, list)
}

var errApproveConflict = apperror.Conflict("Another reservation already holds this slot")

type statusReq struct {
	Status  string `json:"status" validate:"required,oneof=approved rejected cancelled canceled ongoing completed"`
	Comment string `json:"comment" validate:"max=1000"`
}

// UpdateStatus records a verifier's decision and notifies the requester.
func (h *ReservationHandler) UpdateStatus(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req statusReq
	if err := c.Bind(&req); err != nil {
		return validation.Fieldf("body", "invalid request body")
	}
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	if err := validation.Struct(&req); err != nil {
		return err
	}
	status, _ := model.StatusFromAction(req.Status)

	ctx, cancel := reqCtx(c)
	defer cancel()

	comment := strings.TrimSpace(req.Comment)
	_, err = h.Reservations.UpdateStatus(ctx, id, status, &uid, comment)
	if errors.Is(err, repository.ErrConflict) {
		return errApproveConflict
	}
	if err != nil {
		return notFound(err, "Reservation not found")
	}
	d, err := h.Reservations.FindDetail(ctx, id)
	if err != nil {
		return err
	}
	h.notify(ctx, queue.EventReservationStatusChanged, d, comment)
	return response.OKMessage(c, d, "Reservation status updated to "+status)
}
