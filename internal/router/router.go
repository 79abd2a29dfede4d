// Package router wires handlers, middleware and route groups onto the
// Echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/campusarrival/arrival-portal/internal/config"
	"github.com/campusarrival/arrival-portal/internal/handler"
	"github.com/campusarrival/arrival-portal/internal/middleware"
	"github.com/campusarrival/arrival-portal/internal/model"
	"github.com/campusarrival/arrival-portal/internal/monitoring"
	"github.com/campusarrival/arrival-portal/internal/ws"
)

// Deps carries everything route registration needs.
type Deps struct {
	Cfg       config.Config
	Redis     *redis.Client
	CacheCfg  config.CacheConfig
	LimitCfg  config.RateLimitConfig
	Auth      *handler.AuthHandler
	Student   *handler.StudentHandler
	Content   *handler.ContentHandler
	Volunteer *handler.VolunteerHandler
	Admin     *handler.AdminHandler
	Hub       *ws.Hub
}

// Register mounts every route group on e.
func Register(e *echo.Echo, d Deps) {
	e.Use(monitoring.RequestDuration())

	cache := middleware.NewRedisCache(d.CacheCfg, d.Redis)
	limit := middleware.NewTokenBucket(d.LimitCfg, d.Redis)
	jwtAuth := middleware.JWTAuth(d.Cfg.JWTSecret)

	e.GET("/healthz", handler.Health)
	e.GET("/metrics", monitoring.Handler())

	// Public content tabs, cached.
	e.GET("/v1/faqs", d.Content.FAQs, cache)
	e.GET("/v1/announcements", d.Content.Announcements, cache)
	e.GET("/v1/locations", d.Content.Locations, cache)

	// Auth.
	auth := e.Group("/v1/auth")
	auth.POST("/login", d.Auth.Login, limit)
	auth.POST("/refresh", d.Auth.Refresh, limit)
	auth.POST("/logout", d.Auth.Logout)

	protected := e.Group("/v1", jwtAuth)
	protected.GET("/me", d.Auth.Me)
	// Revoke-all logout for clients that still hold an access token.
	protected.POST("/logout", d.Auth.Logout)
	protected.GET("/ws", d.Hub.ServeWS)

	// Student views.
	student := protected.Group("/student", middleware.RequireRole(model.RoleStudent))
	student.GET("/profile", d.Student.Profile)
	student.GET("/token", d.Student.Token)

	// Volunteer dashboard. Admins can do everything a volunteer can.
	staff := protected.Group("", middleware.RequireRole(model.RoleVolunteer, model.RoleAdmin))
	staff.GET("/queue", d.Volunteer.Queue)
	staff.POST("/queue/tokens", d.Volunteer.Issue, limit)
	staff.POST("/queue/claim", d.Volunteer.Claim, limit)
	staff.POST("/queue/complete", d.Volunteer.Complete, limit)
	staff.POST("/queue/skip", d.Volunteer.Skip, limit)
	staff.PATCH("/volunteer/availability", d.Volunteer.Availability)
	staff.PATCH("/students/:roll/steps", d.Volunteer.UpdateStep, limit)
	staff.GET("/students", d.Volunteer.StudentsIndex)
	staff.GET("/stats", d.Volunteer.Stats)

	// Admin management surface.
	admin := protected.Group("/admin", middleware.RequireRole(model.RoleAdmin))
	admin.GET("/volunteers", d.Admin.ListVolunteers)
	admin.POST("/volunteers", d.Admin.CreateVolunteer)
	admin.PUT("/volunteers/:id", d.Admin.UpdateVolunteer)
	admin.DELETE("/volunteers/:id", d.Admin.DeleteVolunteer)
	admin.POST("/students", d.Admin.CreateStudent)
	admin.POST("/students/import", d.Admin.ImportStudents)
	admin.POST("/faqs", d.Admin.CreateFAQ)
	admin.DELETE("/faqs/:id", d.Admin.DeleteFAQ)
	admin.POST("/announcements", d.Admin.CreateAnnouncement)
	admin.DELETE("/announcements/:id", d.Admin.DeleteAnnouncement)
	admin.POST("/locations", d.Admin.CreateLocation)
	admin.DELETE("/locations/:id", d.Admin.DeleteLocation)
	admin.GET("/settings", d.Admin.GetSettings)
	admin.PUT("/settings", d.Admin.UpdateSettings)
}
