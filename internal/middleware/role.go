package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agfi/registro-backend/internal/model"
)

// RequireRole aborts with 403 unless the authenticated caller has one of
// roles. It must run after JWTAuth.
func RequireRole(roles ...model.AccessRole) echo.MiddlewareFunc {
	allowed := make(map[model.AccessRole]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := ActorFrom(c)
			if !ok || !allowed[actor.Role] {
				return c.JSON(http.StatusForbidden, echo.Map{"ok": false, "message": "No autorizado."})
			}
			return next(c)
		}
	}
}
