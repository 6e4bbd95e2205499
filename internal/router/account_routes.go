package router

import "github.com/labstack/echo/v4"

// registerAccount mounts ratings, notifications, users, uploads and the
// admin dashboard.
func registerAccount(api *echo.Group, d Deps) {
	rt := api.Group("/ratings")
	rt.GET("/facility/:facilityId", d.Ratings.ByFacility)
	rt.GET("/facility/:facilityId/average", d.Ratings.Average)
	rt.POST("", d.Ratings.Create, authed(d)...)
	rt.GET("/reservation/:reservationId", d.Ratings.ForReservation, authed(d)...)

	n := api.Group("/notifications", authed(d)...)
	n.GET("", d.Notifications.List)
	n.GET("/unread-count", d.Notifications.UnreadCount)
	n.PUT("/read", d.Notifications.MarkRead)
	n.PUT("/read-all", d.Notifications.MarkAllRead)
	n.PUT("/:id/read", d.Notifications.MarkRead)
	n.DELETE("/:id", d.Notifications.Delete)

	api.POST("/upload", d.Uploads.Upload, authed(d)...)

	u := api.Group("/users", authed(d)...)
	u.GET("/profile", d.Users.Profile)
	u.PUT("/profile", d.Users.UpdateProfile)
	u.PUT("/profile/avatar", d.Users.UpdateAvatar)
	u.DELETE("/profile/avatar", d.Users.DeleteAvatar)

	adminOnly := []echo.MiddlewareFunc{adminRole()}
	u.GET("", d.Users.List, adminOnly...)
	u.POST("", d.Users.Create, adminOnly...)
	u.GET("/:id", d.Users.Get, adminOnly...)
	u.PUT("/:id", d.Users.Update, adminOnly...)
	u.DELETE("/:id", d.Users.Delete, adminOnly...)
	u.PUT("/:id/promote", d.Users.Promote, adminOnly...)
	u.PUT("/:id/demote", d.Users.Demote, adminOnly...)
	u.PUT("/:id/suspend", d.Users.Suspend, adminOnly...)
	u.PUT("/:id/unsuspend", d.Users.Unsuspend, adminOnly...)

	dash := api.Group("/dashboard", authed(d)...)
	dash.GET("/stats", d.Dashboard.Stats, verifierRole())
	dash.GET("/tokens", d.Dashboard.Tokens, adminRole())
}
