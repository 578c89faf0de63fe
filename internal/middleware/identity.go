package middleware

// identity.go holds the helpers that read the caller stored by JWTAuth.

import (
	"github.com/labstack/echo/v4"

	"github.com/agfi/registro-backend/internal/service"
)

const actorKey = "actor"

// ActorFrom returns the caller stored by JWTAuth.
func ActorFrom(c echo.Context) (service.Actor, bool) {
	a, ok := c.Get(actorKey).(service.Actor)
	return a, ok
}
