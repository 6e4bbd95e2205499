package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-facility-reservation/internal/model"
	"github.com/iliyamo/campus-facility-reservation/internal/repository"
	"github.com/iliyamo/campus-facility-reservation/internal/response"
)

const recentActivityLimit = 5

// DashboardHandler serves admin overview data.
type DashboardHandler struct {
	Users        *repository.UserRepo
	Facilities   *repository.FacilityRepo
	Reservations *repository.ReservationRepo
	SystemTokens *repository.TokenRepo
}

func NewDashboardHandler(u *repository.UserRepo, f *repository.FacilityRepo, r *repository.ReservationRepo, t *repository.TokenRepo) *DashboardHandler {
	if u == nil || f == nil || r == nil || t == nil {
		panic("nil repository passed to NewDashboardHandler")
	}
	return &DashboardHandler{Users: u, Facilities: f, Reservations: r, SystemTokens: t}
}

type dashboardStats struct {
	TotalUsers      int `json:"totalUsers"`
	TotalFacilities int `json:"totalFacilities"`
	repository.ReservationStats
	RecentActivities []repository.Activity `json:"recentActivities"`
}

func (h *DashboardHandler) Stats(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	var (
		out dashboardStats
		err error
	)
	if out.TotalUsers, err = h.Users.CountByRole(ctx, model.RoleUser); err != nil {
		return err
	}
	if out.TotalFacilities, err = h.Facilities.Active(ctx); err != nil {
		return err
	}
	if out.ReservationStats, err = h.Reservations.Stats(ctx); err != nil {
		return err
	}
	if out.RecentActivities, err = h.Reservations.RecentActivity(ctx, recentActivityLimit); err != nil {
		return err
	}
	return response.OK(c, out)
}

// Tokens returns the current admin registration and password reset
// tokens.
func (h *DashboardHandler) Tokens(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	toks, err := h.SystemTokens.List(ctx, model.TokenAdminRegistration, model.TokenPasswordReset)
	if err != nil {
		return err
	}
	return response.OK(c, toks)
}
