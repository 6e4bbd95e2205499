// Package router wires handlers and middleware onto the Echo instance.
package router

import (
	"database/sql"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/campus-facility-reservation/internal/config"
	"github.com/iliyamo/campus-facility-reservation/internal/handler"
	"github.com/iliyamo/campus-facility-reservation/internal/middleware"
	"github.com/iliyamo/campus-facility-reservation/internal/model"
)

// Cache namespaces bumped by admin writes.
const (
	nsBuildings     = "buildings"
	nsFacilityTypes = "facility-types"
	nsFacilities    = "facilities"
)

// Deps bundles everything the routes need.
type Deps struct {
	Cfg           config.Config
	DB            *sql.DB
	Redis         *redis.Client // nil disables rate limiting and caching
	Auth          *handler.AuthHandler
	Catalog       *handler.CatalogHandler
	Facilities    *handler.FacilityHandler
	Reservations  *handler.ReservationHandler
	Ratings       *handler.RatingHandler
	Notifications *handler.NotificationHandler
	Users         *handler.UserHandler
	Uploads       *handler.UploadHandler
	Dashboard     *handler.DashboardHandler
}

// Register mounts /healthz, the static upload directory and every /api
// route.
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health(d.DB))
	e.Static("/uploads", d.Cfg.UploadDir)

	api := e.Group("/api", middleware.NewTokenBucket(config.LoadRateLimitConfig(), d.Redis))
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), d.Redis)

	registerAuth(api, d)
	registerCatalog(api, d, cache)
	registerReservations(api, d, cache)
	registerAccount(api, d)
}

func registerAuth(api *echo.Group, d Deps) {
	g := api.Group("/auth")
	g.POST("/register", d.Auth.Register)
	g.POST("/login", d.Auth.Login, middleware.NewTokenBucket(config.LoadLoginRateLimitConfig(), d.Redis))
	g.POST("/reset-password", d.Auth.ResetPassword)
	g.GET("/me", d.Auth.Me, middleware.JWTAuth(d.Cfg.JWTSecret))
}

// authed returns the middleware chain for signed-in callers, optionally
// restricted to roles.
func authed(d Deps, roles ...string) []echo.MiddlewareFunc {
	mw := []echo.MiddlewareFunc{middleware.JWTAuth(d.Cfg.JWTSecret)}
	if len(roles) > 0 {
		mw = append(mw, middleware.RequireRole(roles...))
	}
	return mw
}

func adminRole() echo.MiddlewareFunc { return middleware.RequireRole(model.RoleAdmin) }

func verifierRole() echo.MiddlewareFunc {
	return middleware.RequireRole(model.RoleAdmin, model.RoleAdminVerificator)
}
