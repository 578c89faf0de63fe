package service

import (
	"context"
	"time"

	"github.com/agfi/registro-backend/internal/model"
	"github.com/agfi/registro-backend/internal/repository"
)

// Repos is the data access surface the service depends on. It is satisfied
// by *repository.Queries and by the in-memory store used in tests.
type Repos interface {
	GetRoleByName(ctx context.Context, name model.RoleName) (*model.Role, error)

	GetPerson(ctx context.Context, id uint64) (*model.Person, error)
	GetPersonByEmail(ctx context.Context, email string) (*model.Person, error)
	EmailTakenByOther(ctx context.Context, email string, personID uint64) (bool, error)
	CreatePerson(ctx context.Context, p *model.Person) error
	UpdatePerson(ctx context.Context, p *model.Person) error

	GetAttendee(ctx context.Context, id uint64) (*model.Attendee, error)
	EnsureAttendee(ctx context.Context, a *model.Attendee) (bool, error)
	UpdateAttendee(ctx context.Context, a *model.Attendee) error
	GetAttendeeProfile(ctx context.Context, id uint64) (*model.AttendeeProfile, error)
	ListAttendees(ctx context.Context) ([]model.AttendeeSummary, error)
	ListAttendeeIDs(ctx context.Context) ([]uint64, error)

	GetMedical(ctx context.Context, attendeeID uint64) (*model.Medical, error)
	SaveMedical(ctx context.Context, m *model.Medical) error

	CreateEvent(ctx context.Context, e *model.Event) error
	GetEvent(ctx context.Context, id uint64) (*model.Event, error)
	ListEventSummaries(ctx context.Context) ([]model.EventSummary, error)

	GetRegistration(ctx context.Context, id uint64) (*model.Registration, error)
	GetRegistrationFor(ctx context.Context, eventID, attendeeID uint64) (*model.Registration, error)
	EnsureRegistration(ctx context.Context, seed *model.Registration) (bool, error)
	UpdateRegistration(ctx context.Context, r *model.Registration) error
	CreateRegistrations(ctx context.Context, regs []model.Registration) (int, error)
	ListUpcomingRegistrations(ctx context.Context, attendeeID uint64, from time.Time) ([]model.UpcomingRegistration, error)

	GetAttendanceByRegistration(ctx context.Context, registrationID uint64) (*model.Attendance, error)
	EnsureAttendance(ctx context.Context, seed *model.Attendance) (bool, error)
	UpdateAttendance(ctx context.Context, a *model.Attendance) error

	EnsureWalkIn(ctx context.Context, g *model.WalkInGuest) (bool, error)

	ListRoster(ctx context.Context, eventID uint64) ([]model.RosterRow, error)

	InsertLog(ctx context.Context, l *model.LogEntry) error
	ListLogs(ctx context.Context, limit int) ([]model.LogEntry, error)

	CreateSuggestion(ctx context.Context, s *model.Suggestion) error
	ListSuggestions(ctx context.Context) ([]model.Suggestion, error)
}

// Store adds transactions to Repos. InTx commits when fn returns nil and
// rolls back otherwise.
type Store interface {
	Repos
	InTx(ctx context.Context, fn func(r Repos) error) error
}

type sqlStore struct {
	*repository.Store
}

// NewSQLStore adapts a repository.Store to Store.
func NewSQLStore(s *repository.Store) Store {
	return sqlStore{Store: s}
}

func (s sqlStore) InTx(ctx context.Context, fn func(r Repos) error) error {
	return s.Store.InTx(ctx, func(q *repository.Queries) error { return fn(q) })
}
