package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/agfi/registro-backend/internal/model"
	"github.com/agfi/registro-backend/internal/repository"
	"github.com/agfi/registro-backend/internal/utils"
)

// AttendeeInput is the body of a formal attendee registration. Name, Email
// and Role are required; BirthDate is YYYY-MM-DD and ignored when it does
// not parse.
type AttendeeInput struct {
	Name       string
	Email      string
	Password   string
	Phone      string
	Company    string
	JobTitle   string
	Role       string
	Program    string
	Cohort     string
	BirthDate  string
	Experience string

	BloodType             string
	Allergies             string
	CurrentMedications    string
	Conditions            string
	EmergencyContactName  string
	EmergencyContactPhone string
}

func (in AttendeeInput) medical(attendeeID uint64) *model.Medical {
	m := &model.Medical{
		AttendeeID:            attendeeID,
		BloodType:             optString(in.BloodType),
		Allergies:             optString(in.Allergies),
		CurrentMedications:    optString(in.CurrentMedications),
		Conditions:            optString(in.Conditions),
		EmergencyContactName:  optString(in.EmergencyContactName),
		EmergencyContactPhone: optString(in.EmergencyContactPhone),
	}
	if m.BloodType == nil && m.Allergies == nil && m.CurrentMedications == nil &&
		m.Conditions == nil && m.EmergencyContactName == nil && m.EmergencyContactPhone == nil {
		return nil
	}
	return m
}

// CreateAttendee registers a person as a formal attendee. The role is
// resolved before anything is written so an unknown role leaves no rows.
func (s *Service) CreateAttendee(ctx context.Context, actor Actor, in AttendeeInput) (*model.AttendeeProfile, error) {
	if !actor.IsManager() {
		return nil, forbidden("Solo admin o staff pueden dar de alta asistentes.")
	}
	in.Name, in.Email, in.Role = strings.TrimSpace(in.Name), strings.TrimSpace(in.Email), strings.TrimSpace(in.Role)
	if in.Name == "" || in.Email == "" || in.Role == "" {
		return nil, invalid("Faltan campos obligatorios (nombre, correo o rol).")
	}
	role, err := s.store.GetRoleByName(ctx, model.RoleName(in.Role))
	if err != nil {
		return nil, roleError(err)
	}

	credential := in.Password
	if credential != "" && s.opts.HashNewCredentials {
		if credential, err = utils.HashCredential(in.Password, s.opts.BcryptCost); err != nil {
			return nil, internal("No se pudo procesar la contraseña.", err)
		}
	}

	var prof *model.AttendeeProfile
	err = s.store.InTx(ctx, func(r Repos) error {
		now := s.now()
		if _, err := r.GetPersonByEmail(ctx, in.Email); err == nil {
			return conflict("Ya existe una persona con ese correo.")
		} else if !errors.Is(err, repository.ErrNotFound) {
			return wrapRepo(err, "")
		}

		p := &model.Person{
			FullName:   in.Name,
			Email:      in.Email,
			Credential: credential,
			Phone:      optString(in.Phone),
			Company:    optString(in.Company),
			JobTitle:   optString(in.JobTitle),
			Program:    optString(in.Program),
			CreatedAt:  now,
		}
		if err := r.CreatePerson(ctx, p); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return conflict("Ya existe una persona con ese correo.")
			}
			return wrapRepo(err, "")
		}

		a := &model.Attendee{
			ID:         p.ID,
			RoleID:     &role.ID,
			Cohort:     optString(in.Cohort),
			Experience: optString(in.Experience),
			Active:     true,
		}
		a.BirthMonth, a.BirthDay = birthday(in.BirthDate)
		if _, err := r.EnsureAttendee(ctx, a); err != nil {
			return wrapRepo(err, "")
		}

		med := in.medical(p.ID)
		if med != nil {
			if err := r.SaveMedical(ctx, med); err != nil {
				return wrapRepo(err, "")
			}
		}
		prof = &model.AttendeeProfile{Person: *p, Attendee: *a, Role: role, Medical: med}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, Entry{
		Actor:       actor.label(),
		Action:      "Alta de asistente formal: " + in.Email,
		Description: "Rol: " + in.Role,
		AttendeeID:  prof.Attendee.ID,
	})
	return prof, nil
}

// ListAttendees returns every attendee ordered by name.
func (s *Service) ListAttendees(ctx context.Context, actor Actor) ([]model.AttendeeSummary, error) {
	if !actor.IsManager() {
		return nil, forbidden("Solo admin o staff pueden ver la lista de asistentes.")
	}
	list, err := s.store.ListAttendees(ctx)
	return list, wrapRepo(err, "")
}

// AttendeeProfile loads one attendee for management views such as badge
// rendering.
func (s *Service) AttendeeProfile(ctx context.Context, actor Actor, attendeeID uint64) (*model.AttendeeProfile, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	prof, err := s.store.GetAttendeeProfile(ctx, attendeeID)
	if err != nil {
		return nil, wrapRepo(err, "Asistente no encontrado.")
	}
	return prof, nil
}

func birthday(date string) (month, day *int16) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(date))
	if err != nil {
		return nil, nil
	}
	m, d := int16(t.Month()), int16(t.Day())
	return &m, &d
}
