package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agfi/registro-backend/internal/service"
)

// AuthHandler serves login and logout.
type AuthHandler struct {
	svc *service.Service
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(svc *service.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// loginBody accepts both the Spanish and the English key names used by
// the existing clients.
type loginBody struct {
	Correo   string `json:"correo" validate:"omitempty,max=150"`
	Email    string `json:"email" validate:"omitempty,max=150"`
	Password string `json:"password" validate:"omitempty,max=255"`
	Pass     string `json:"pass" validate:"omitempty,max=255"`
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c echo.Context) error {
	var body loginBody
	if err := bind(c, &body); err != nil {
		return err
	}
	email := body.Correo
	if email == "" {
		email = body.Email
	}
	password := body.Password
	if password == "" {
		password = body.Pass
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.svc.Login(ctx, email, password, client(c))
	if err != nil {
		return fail(c, err)
	}
	return success(c, http.StatusOK, echo.Map{
		"message":    "Login exitoso",
		"token":      res.Token,
		"expires_at": res.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		"user":       res.User,
	})
}

// Logout handles POST /auth/logout. Tokens are stateless, so this only
// records the event; the client discards its token.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	h.svc.Logout(ctx, actor(c), client(c))
	return success(c, http.StatusOK, echo.Map{
		"message": "Logout exitoso. El token debe eliminarse del cliente.",
	})
}
