package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/agfi/registro-backend/internal/model"
	"github.com/agfi/registro-backend/internal/service"
	"github.com/agfi/registro-backend/internal/utils"
)

// JWTAuth validates the Bearer access token and stores the caller as a
// service.Actor in the request context, along with "user_id" and "role"
// for the other middleware.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"ok": false, "message": "Token no proporcionado."})
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

			id, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"ok": false, "message": "Token inválido o expirado."})
			}

			c.Set(actorKey, service.Actor{
				PersonID: id.PersonID,
				Email:    id.Email,
				Name:     id.Name,
				Role:     model.AccessRole(id.Role),
			})
			c.Set("user_id", strconv.FormatUint(id.PersonID, 10))
			c.Set("role", id.Role)
			return next(c)
		}
	}
}
