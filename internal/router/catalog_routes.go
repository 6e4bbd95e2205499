package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-facility-reservation/internal/middleware"
	"github.com/iliyamo/campus-facility-reservation/internal/model"
)

// registerCatalog mounts buildings, facility types and facilities. Reads
// are public and cached; writes are admin-only and invalidate the
// listings they affect.
func registerCatalog(api *echo.Group, d Deps, cache *middleware.ResponseCache) {
	admin := authed(d, model.RoleAdmin)
	withInvalidate := func(nss ...string) []echo.MiddlewareFunc {
		return append(append([]echo.MiddlewareFunc{}, admin...), cache.Invalidate(nss...))
	}

	b := api.Group("/buildings")
	b.GET("", d.Catalog.ListBuildings, cache.Cache(nsBuildings))
	b.GET("/:id", d.Catalog.GetBuilding, cache.Cache(nsBuildings))
	b.POST("", d.Catalog.CreateBuilding, withInvalidate(nsBuildings, nsFacilities)...)
	b.PUT("/:id", d.Catalog.UpdateBuilding, withInvalidate(nsBuildings, nsFacilities)...)
	b.DELETE("/:id", d.Catalog.DeleteBuilding, withInvalidate(nsBuildings, nsFacilities)...)

	t := api.Group("/facility-types")
	t.GET("", d.Catalog.ListTypes, cache.Cache(nsFacilityTypes))
	t.GET("/:id", d.Catalog.GetType, cache.Cache(nsFacilityTypes))
	t.POST("", d.Catalog.CreateType, withInvalidate(nsFacilityTypes, nsFacilities)...)
	t.PUT("/:id", d.Catalog.UpdateType, withInvalidate(nsFacilityTypes, nsFacilities)...)
	t.DELETE("/:id", d.Catalog.DeleteType, withInvalidate(nsFacilityTypes, nsFacilities)...)

	// Admins may list inactive facilities, so the listing reads the token
	// when present and the cache key carries the role.
	f := api.Group("/facilities")
	optional := middleware.OptionalJWT(d.Cfg.JWTSecret)
	f.GET("", d.Facilities.List, optional, cache.Cache(nsFacilities))
	f.GET("/:slug", d.Facilities.Get, optional, cache.Cache(nsFacilities))
	f.POST("", d.Facilities.Create, withInvalidate(nsFacilities)...)
	f.PUT("/:id", d.Facilities.Update, withInvalidate(nsFacilities)...)
	f.DELETE("/:id", d.Facilities.Delete, withInvalidate(nsFacilities)...)
}
