package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/agfi/registro-backend/internal/model"
	"github.com/agfi/registro-backend/internal/repository"
)

// Profile is what a user sees about themselves. Attendee, Role and Medical
// are nil for persons that were never registered as attendees.
type Profile struct {
	Person   model.Person
	Attendee *model.Attendee
	Role     *model.Role
	Medical  *model.Medical
}

// Me returns the profile of the calling user.
func (s *Service) Me(ctx context.Context, actor Actor) (*Profile, error) {
	p, err := s.store.GetPerson(ctx, actor.PersonID)
	if err != nil {
		return nil, wrapRepo(err, "Persona no encontrada")
	}
	out := &Profile{Person: *p}
	prof, err := s.store.GetAttendeeProfile(ctx, actor.PersonID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
	case err != nil:
		return nil, wrapRepo(err, "")
	default:
		out.Attendee, out.Role, out.Medical = &prof.Attendee, prof.Role, prof.Medical
	}
	return out, nil
}

// ProfileInput is the body of a profile update. nil leaves a field alone;
// "" clears the optional ones. An empty name or email is ignored.
type ProfileInput struct {
	FullName   *string
	Email      *string
	Phone      *string
	Company    *string
	JobTitle   *string
	Experience *string
}

// UpdateMe applies a profile update to the calling user.
func (s *Service) UpdateMe(ctx context.Context, actor Actor, in ProfileInput) error {
	var email string
	err := s.store.InTx(ctx, func(r Repos) error {
		now := s.now()
		p, err := r.GetPerson(ctx, actor.PersonID)
		if err != nil {
			return wrapRepo(err, "Persona no encontrada")
		}
		if e := nonEmpty(in.Email); e != "" && e != p.Email {
			taken, err := r.EmailTakenByOther(ctx, e, p.ID)
			if err != nil {
				return wrapRepo(err, "")
			}
			if taken {
				return conflict("Ya existe otra persona con ese correo.")
			}
			p.Email = e
		}
		if n := nonEmpty(in.FullName); n != "" {
			p.FullName = n
		}
		applyOpt(&p.Phone, in.Phone)
		applyOpt(&p.Company, in.Company)
		applyOpt(&p.JobTitle, in.JobTitle)
		p.UpdatedAt = &now
		if err := r.UpdatePerson(ctx, p); err != nil {
			return wrapRepo(err, "")
		}
		email = p.Email

		if in.Experience == nil {
			return nil
		}
		a, err := r.GetAttendee(ctx, p.ID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		if err != nil {
			return wrapRepo(err, "")
		}
		applyOpt(&a.Experience, in.Experience)
		return wrapRepo(r.UpdateAttendee(ctx, a), "")
	})
	if err != nil {
		return err
	}
	s.audit.Record(ctx, Entry{
		Actor:       email,
		Action:      "Actualización de datos personales",
		Description: "Usuario " + email + " actualizó su perfil desde vista usuario.",
		AttendeeID:  s.attendeeIDOf(ctx, actor.PersonID),
	})
	return nil
}

// Medical returns the medical record of the calling attendee, or nil when
// none was saved yet.
func (s *Service) Medical(ctx context.Context, actor Actor) (*model.Medical, error) {
	if _, err := s.store.GetAttendee(ctx, actor.PersonID); err != nil {
		return nil, wrapRepo(err, "Asistente no encontrado")
	}
	m, err := s.store.GetMedical(ctx, actor.PersonID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return m, wrapRepo(err, "")
}

// MedicalInput is the body of a medical record update; nil leaves a field
// alone and "" clears it.
type MedicalInput struct {
	BloodType             *string
	Allergies             *string
	CurrentMedications    *string
	Conditions            *string
	EmergencyContactName  *string
	EmergencyContactPhone *string
}

// UpdateMedical creates or updates the medical record of the calling
// attendee.
func (s *Service) UpdateMedical(ctx context.Context, actor Actor, in MedicalInput) error {
	err := s.store.InTx(ctx, func(r Repos) error {
		if _, err := r.GetAttendee(ctx, actor.PersonID); err != nil {
			return wrapRepo(err, "Asistente no encontrado para esta persona")
		}
		m, err := r.GetMedical(ctx, actor.PersonID)
		if errors.Is(err, repository.ErrNotFound) {
			m, err = &model.Medical{AttendeeID: actor.PersonID}, nil
		}
		if err != nil {
			return wrapRepo(err, "")
		}
		applyOpt(&m.BloodType, in.BloodType)
		applyOpt(&m.Allergies, in.Allergies)
		applyOpt(&m.CurrentMedications, in.CurrentMedications)
		applyOpt(&m.Conditions, in.Conditions)
		applyOpt(&m.EmergencyContactName, in.EmergencyContactName)
		applyOpt(&m.EmergencyContactPhone, in.EmergencyContactPhone)
		return wrapRepo(r.SaveMedical(ctx, m), "")
	})
	if err != nil {
		return err
	}
	s.audit.Record(ctx, Entry{
		Actor:       actor.label(),
		Action:      "Actualización de datos médicos",
		Description: "Usuario " + actor.Email + " actualizó sus consideraciones médicas.",
		AttendeeID:  actor.PersonID,
	})
	return nil
}

// UpcomingEvents returns the caller's registrations for events starting
// today or later, soonest first.
func (s *Service) UpcomingEvents(ctx context.Context, actor Actor) ([]model.UpcomingRegistration, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	list, err := s.store.ListUpcomingRegistrations(ctx, actor.PersonID, today)
	return list, wrapRepo(err, "")
}

// RSVPInput is the body of an RSVP update. nil leaves a field alone.
type RSVPInput struct {
	Intent    *string
	Guests    *int
	Comments  *string
	Confirmed *bool
}

// RSVP lets a user answer the invitation behind one of their own
// registrations. Setting the intent to si or no without an explicit
// confirmation confirms or declines accordingly.
func (s *Service) RSVP(ctx context.Context, actor Actor, registrationID uint64, in RSVPInput) (*model.Registration, error) {
	var intent model.AttendanceIntent
	if in.Intent != nil {
		intent = model.AttendanceIntent(strings.TrimSpace(*in.Intent))
		if !intent.Valid() {
			return nil, invalid("Valor de asistencia no válido.")
		}
	}
	if in.Guests != nil && *in.Guests < 0 {
		return nil, invalid("El número de invitados no puede ser negativo.")
	}

	var reg *model.Registration
	err := s.store.InTx(ctx, func(r Repos) error {
		now := s.now()
		var err error
		if reg, err = r.GetRegistration(ctx, registrationID); err != nil {
			return wrapRepo(err, "Registro no encontrado.")
		}
		if reg.AttendeeID != actor.PersonID {
			return forbidden("No puedes modificar un registro que no es tuyo.")
		}

		confirmed := in.Confirmed
		if in.Intent != nil {
			reg.Intent = intent
			if confirmed == nil {
				switch intent {
				case model.IntentYes:
					confirmed = ptr(true)
				case model.IntentNo:
					confirmed = ptr(false)
				}
			}
		}
		if confirmed != nil {
			reg.Confirmed = ptr(*confirmed)
			reg.ConfirmedAt = &now
		}
		if in.Guests != nil {
			reg.Guests = *in.Guests
		}
		applyOpt(&reg.Comments, in.Comments)
		return wrapRepo(r.UpdateRegistration(ctx, reg), "")
	})
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, Entry{
		Actor:          actor.label(),
		Action:         "Actualización de RSVP",
		Description:    "Asistencia: " + string(reg.Intent) + ", confirmado: " + formatConfirmed(reg.Confirmed),
		EventID:        reg.EventID,
		AttendeeID:     reg.AttendeeID,
		RegistrationID: reg.ID,
	})
	return reg, nil
}

func (s *Service) attendeeIDOf(ctx context.Context, personID uint64) uint64 {
	if a, err := s.store.GetAttendee(ctx, personID); err == nil {
		return a.ID
	}
	return 0
}

func ptr[T any](v T) *T { return &v }
