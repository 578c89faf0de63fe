package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/agfi/registro-backend/internal/logging"
	"github.com/agfi/registro-backend/internal/middleware"
	"github.com/agfi/registro-backend/internal/service"
)

// requestTimeout bounds the database work of one request.
const requestTimeout = 10 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// success writes body with "ok": true.
func success(c echo.Context, status int, body echo.Map) error {
	if body == nil {
		body = echo.Map{}
	}
	body["ok"] = true
	return c.JSON(status, body)
}

// failure writes {"ok": false, "message": msg}.
func failure(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"ok": false, "message": msg})
}

// statusOf maps a service error kind to its HTTP status.
func statusOf(k service.Kind) int {
	switch k {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// fail renders a service error. Internal errors carry the cause in an
// "error" field for operators.
func fail(c echo.Context, err error) error {
	var se *service.Error
	if !errors.As(err, &se) {
		logging.Error().Err(err).Str("uri", c.Request().RequestURI).Msg("unexpected error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "message": "Error interno del servidor.", "error": err.Error()})
	}
	status := statusOf(se.Kind)
	if status == http.StatusInternalServerError {
		logging.Error().Err(se.Err).Str("uri", c.Request().RequestURI).Msg(se.Message)
		body := echo.Map{"ok": false, "message": se.Message}
		if se.Err != nil {
			body["error"] = se.Err.Error()
		}
		return c.JSON(status, body)
	}
	return failure(c, status, se.Message)
}

// ErrorHandler renders framework errors (unknown route, bad method, bind
// failures) in the same envelope as the handlers.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	msg := "Error interno del servidor."
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		switch status {
		case http.StatusNotFound:
			msg = "Recurso no encontrado."
		case http.StatusMethodNotAllowed:
			msg = "Método no permitido."
		case http.StatusRequestEntityTooLarge:
			msg = "La petición es demasiado grande."
		default:
			if s, ok := he.Message.(string); ok && status < 500 {
				msg = s
			} else if status < 500 {
				msg = http.StatusText(status)
			}
		}
	}
	if status >= 500 {
		logging.Error().Err(err).Str("uri", c.Request().RequestURI).Msg("request failed")
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = failure(c, status, msg)
}

// actor returns the caller stored by the JWT middleware. Routes without
// JWTAuth get the zero Actor, which every guarded operation refuses.
func actor(c echo.Context) service.Actor {
	a, _ := middleware.ActorFrom(c)
	return a
}

func client(c echo.Context) service.ClientInfo {
	return service.ClientInfo{IP: c.RealIP(), UserAgent: c.Request().UserAgent()}
}
