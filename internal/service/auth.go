package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agfi/registro-backend/internal/model"
	"github.com/agfi/registro-backend/internal/repository"
	"github.com/agfi/registro-backend/internal/utils"
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      utils.Identity
}

// Login checks the credentials of email and issues an access token. The
// same message is returned for an unknown email and a wrong password.
func (s *Service) Login(ctx context.Context, email, password string, client ClientInfo) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, invalid("Correo y contraseña son obligatorios.")
	}
	p, err := s.store.GetPersonByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, unauthorized("Correo o contraseña incorrectos.")
	}
	if err != nil {
		return nil, wrapRepo(err, "")
	}
	if p.Credential == model.WalkInCredential || !utils.VerifyCredential(p.Credential, password) {
		return nil, unauthorized("Correo o contraseña incorrectos.")
	}

	var (
		roleName   *model.RoleName
		attendeeID uint64
	)
	prof, err := s.store.GetAttendeeProfile(ctx, p.ID)
	switch {
	case err == nil:
		attendeeID = prof.Attendee.ID
		if prof.Role != nil {
			roleName = &prof.Role.Name
		}
	case !errors.Is(err, repository.ErrNotFound):
		return nil, wrapRepo(err, "")
	}

	id := utils.Identity{
		PersonID: p.ID,
		Email:    p.Email,
		Name:     p.FullName,
		Role:     string(model.AccessRoleFor(roleName)),
	}
	tok, err := utils.NewAccessToken(s.opts.JWTSecret, id, s.opts.TokenTTL)
	if err != nil {
		return nil, internal("No se pudo generar el token.", err)
	}

	s.audit.Record(ctx, Entry{
		Actor:       p.Email,
		Action:      fmt.Sprintf("Login EXITOSO desde IP %s. Usuario: %s, Rol: %s", client.IP, p.Email, id.Role),
		Description: "User-Agent: " + client.UserAgent,
		AttendeeID:  attendeeID,
	})
	return &LoginResult{Token: tok.Token, ExpiresAt: tok.Exp, User: id}, nil
}

// Logout only records the action; tokens are stateless and the client
// discards its copy.
func (s *Service) Logout(ctx context.Context, actor Actor, client ClientInfo) {
	var attendeeID uint64
	if a, err := s.store.GetAttendee(ctx, actor.PersonID); err == nil {
		attendeeID = a.ID
	}
	s.audit.Record(ctx, Entry{
		Actor:       actor.label(),
		Action:      fmt.Sprintf("Logout EXITOSO desde IP %s. Usuario: %s", client.IP, actor.Email),
		Description: "User-Agent: " + client.UserAgent,
		AttendeeID:  attendeeID,
	})
}

// Verify confirms that actor may enter the management panel.
func (s *Service) Verify(actor Actor) error {
	if !actor.IsManager() {
		return forbidden("No autorizado para entrar al panel administrativo. Rol actual: " + string(actor.Role))
	}
	return nil
}
