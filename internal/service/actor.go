package service

import "github.com/agfi/registro-backend/internal/model"

// Actor is the authenticated caller, taken from the access token and passed
// explicitly to every operation.
type Actor struct {
	PersonID uint64
	Email    string
	Name     string
	Role     model.AccessRole
}

// IsManager reports whether the actor may use the management operations.
func (a Actor) IsManager() bool {
	return a.Role == model.AccessAdmin || a.Role == model.AccessStaff
}

func (a Actor) label() string {
	if a.Email != "" {
		return a.Email
	}
	return "sistema"
}

func requireManager(a Actor) error {
	if !a.IsManager() {
		return forbidden("No autorizado.")
	}
	return nil
}

// ClientInfo describes where a request came from, for the audit trail.
type ClientInfo struct {
	IP        string
	UserAgent string
}
