package handler

import (
	"github.com/doug-martin/goqu/v9"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-facility-reservation/internal/apperror"
	"github.com/iliyamo/campus-facility-reservation/internal/middleware"
	"github.com/iliyamo/campus-facility-reservation/internal/model"
	"github.com/iliyamo/campus-facility-reservation/internal/repository"
	"github.com/iliyamo/campus-facility-reservation/internal/response"
	"github.com/iliyamo/campus-facility-reservation/internal/validation"
)

// RatingHandler serves facility ratings.
type RatingHandler struct {
	Ratings      *repository.RatingRepo
	Reservations *repository.ReservationRepo
}

func NewRatingHandler(r *repository.RatingRepo, res *repository.ReservationRepo) *RatingHandler {
	if r == nil || res == nil {
		panic("nil repository passed to NewRatingHandler")
	}
	return &RatingHandler{Ratings: r, Reservations: res}
}

type createRatingReq struct {
	ReservationID validation.FlexInt `json:"reservationId" validate:"required,gt=0"`
	FacilityID    validation.FlexInt `json:"facilityId" validate:"required,gt=0"`
	Rating        int                `json:"rating" validate:"required,min=1,max=5"`
	Review        *string            `json:"review" validate:"omitempty,max=2000"`
}

const errAlreadyRated = "You have already rated this reservation"

// Create stores the caller's rating of one of their approved or completed
// reservations.
func (h *RatingHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	var req createRatingReq
	if err := validation.Bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	rid := req.ReservationID.Int64()
	if _, err := h.Ratings.FindByUserAndReservation(ctx, uid, rid); err == nil {
		return apperror.BadRequest(errAlreadyRated)
	} else if !isNotFoundErr(err) {
		return err
	}

	res, err := h.Reservations.FindByID(ctx, rid)
	if err != nil {
		return notFound(err, "Reservation not found")
	}
	if res.RequesterID != uid {
		return apperror.Forbidden("You can only rate your own reservations")
	}
	if res.Status != model.StatusApproved && res.Status != model.StatusCompleted {
		return apperror.BadRequest("Only approved or completed reservations can be rated")
	}
	if res.FacilityID != req.FacilityID.Int64() {
		return validation.Fieldf("facilityId", "does not match the reservation")
	}

	rec := goqu.Record{
		"user_id":        uid,
		"facility_id":    res.FacilityID,
		"reservation_id": rid,
		"rating":         req.Rating,
	}
	if req.Review != nil {
		rec["review"] = strPtr(*req.Review)
	}
	rt, err := h.Ratings.Create(ctx, rec)
	if repository.IsDuplicate(err) {
		return apperror.BadRequest(errAlreadyRated)
	}
	if err != nil {
		return err
	}
	return response.Created(c, rt, "Rating submitted")
}

// ByFacility lists a facility's ratings.
func (h *RatingHandler) ByFacility(c echo.Context) error {
	fid, err := paramID(c, "facilityId")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Ratings.FindByFacilityID(ctx, fid)
	if err != nil {
		return err
	}
	return response.OK(c, list)
}

// Average returns {averageRating, totalRatings} for a facility.
func (h *RatingHandler) Average(c echo.Context) error {
	fid, err := paramID(c, "facilityId")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	sum, err := h.Ratings.AverageForFacility(ctx, fid)
	if err != nil {
		return err
	}
	return response.OK(c, sum)
}

// ForReservation returns the caller's rating of a reservation, or null.
// Verifiers receive every rating left for it instead.
func (h *RatingHandler) ForReservation(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	rid, err := paramID(c, "reservationId")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if model.CanVerify(middleware.Role(c)) {
		list, err := h.Ratings.FindByReservationID(ctx, rid)
		if err != nil {
			return err
		}
		return response.OK(c, list)
	}
	rt, err := h.Ratings.FindByUserAndReservation(ctx, uid, rid)
	if isNotFoundErr(err) {
		return response.OK(c, nil)
	}
	if err != nil {
		return err
	}
	return response.OK(c, rt)
}
