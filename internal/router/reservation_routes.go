package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-facility-reservation/internal/middleware"
	"github.com/iliyamo/campus-facility-reservation/internal/model"
)

// registerReservations mounts requester and verifier reservation routes.
// Every write that changes a slot bumps the facility listing, whose
// date filter depends on reservation state.
func registerReservations(api *echo.Group, d Deps, cache *middleware.ResponseCache) {
	h := d.Reservations
	bump := cache.Invalidate(nsFacilities)

	r := api.Group("/reservations", authed(d)...)
	r.POST("", h.Create, bump)
	r.GET("/my-history", h.MyHistory)
	r.GET("/availability/:facilityId", h.Availability)
	r.PUT("/cancel/:id", h.Cancel, bump)
	r.GET("/:id", h.Get)
	r.PUT("/:id", h.Update, bump)

	a := api.Group("/admin/reservations", authed(d, model.RoleAdmin, model.RoleAdminVerificator)...)
	a.GET("", h.AdminList)
	a.PUT("/:id/status", h.UpdateStatus, bump)
}
