package router // package router wires handlers and middleware onto echo

import (
	"database/sql"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/agfi/registro-backend/internal/config"
	"github.com/agfi/registro-backend/internal/handler"
	"github.com/agfi/registro-backend/internal/middleware"
	"github.com/agfi/registro-backend/internal/model"
)

// Setup installs the error handler, validator and the global middleware
// chain. It must run before any route is registered.
func Setup(e *echo.Echo, corsOrigins []string) {
	e.HideBanner = true
	e.HTTPErrorHandler = handler.ErrorHandler
	e.Validator = handler.NewValidator()

	e.Use(echomw.RequestID())
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: corsOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
}

// RegisterRoutes registers the unauthenticated probes: /healthz and the
// Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, db *sql.DB) {
	e.GET("/healthz", handler.Health(db))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth registers /auth. Login is throttled per client when Redis is
// available; logout needs a valid token so the audit entry has an actor.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, rl config.RateLimitConfig, rdb *redis.Client) {
	g := e.Group("/auth")
	g.POST("/login", a.Login, middleware.NewTokenBucket(rl, rdb))
	g.POST("/logout", a.Logout, middleware.JWTAuth(jwtSecret))
}

// RegisterManagement mounts the same handler set under /admin and /staff.
// Both prefixes accept admin and staff tokens.
func RegisterManagement(e *echo.Echo, m *handler.ManageHandler, jwtSecret string) {
	for _, prefix := range []string{"/admin", "/staff"} {
		g := e.Group(prefix,
			middleware.JWTAuth(jwtSecret),
			middleware.RequireRole(model.AccessAdmin, model.AccessStaff),
		)
		g.GET("/verify", m.Verify)

		g.GET("/eventos", m.ListEvents)
		g.POST("/eventos", m.CreateEvent)
		g.GET("/asistentes", m.ListAttendees)
		g.POST("/asistentes", m.CreateAttendee)
		g.GET("/asistentes/:id", m.GetAttendee)

		g.GET("/qr_lookup", m.Lookup)
		g.POST("/qr_checkin", m.CheckIn)
		g.POST("/alta_express", m.WalkIn)

		g.GET("/pase_lista", m.Roster)
		g.GET("/pase_lista_csv", m.ExportRoster)
		g.POST("/pase_lista_import", m.ImportRoster)

		g.GET("/credencial/:file", m.Badge)
		g.GET("/credencial_zip/:id", m.BadgeZip)

		g.GET("/buzon", m.Suggestions)
		g.GET("/logs", m.Logs)
	}
}

// RegisterProfile registers the self-service routes under /perfil. Any
// authenticated role may use them.
func RegisterProfile(e *echo.Echo, p *handler.ProfileHandler, jwtSecret string) {
	g := e.Group("/perfil", middleware.JWTAuth(jwtSecret))
	g.GET("/me", p.Me)
	g.PUT("/me", p.UpdateMe)
	g.GET("/medico", p.Medical)
	g.PUT("/medico", p.UpdateMedical)
	g.GET("/eventos_proximos", p.UpcomingEvents)
	g.PUT("/eventos/:id_registro/rsvp", p.RSVP)
	g.POST("/buzon", p.Suggest)
}
