package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/agfi/registro-backend/internal/lock"
	"github.com/agfi/registro-backend/internal/logging"
	"github.com/agfi/registro-backend/internal/metrics"
	"github.com/agfi/registro-backend/internal/model"
	"github.com/agfi/registro-backend/internal/queue"
	"github.com/agfi/registro-backend/internal/repository"
)

const walkInComment = "Alta express (invitado último momento)."

// LookupResult is what staff see after scanning a badge.
type LookupResult struct {
	Profile      *model.AttendeeProfile
	BadgeCode    string
	Registration *model.Registration
	Attendance   *model.Attendance
}

// Lookup resolves a badge code for an event without changing anything.
func (s *Service) Lookup(ctx context.Context, actor Actor, code string, eventID uint64) (*LookupResult, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(code) == "" || eventID == 0 {
		return nil, invalid("Faltan code o id_evento.")
	}
	attendeeID, ok := DecodeCode(code, s.opts.BadgePrefix)
	if !ok {
		return nil, invalid("Código QR inválido.")
	}
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return nil, wrapRepo(err, "Evento no encontrado.")
	}
	prof, err := s.store.GetAttendeeProfile(ctx, attendeeID)
	if err != nil {
		return nil, wrapRepo(err, "Asistente no encontrado.")
	}

	res := &LookupResult{Profile: prof, BadgeCode: BadgeCode(s.opts.BadgePrefix, attendeeID)}
	reg, err := s.store.GetRegistrationFor(ctx, eventID, attendeeID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return res, nil
	case err != nil:
		return nil, wrapRepo(err, "")
	}
	res.Registration = reg

	att, err := s.store.GetAttendanceByRegistration(ctx, reg.ID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
	case err != nil:
		return nil, wrapRepo(err, "")
	default:
		res.Attendance = att
	}
	return res, nil
}

// CheckInInput is the body of a check-in. A nil field is left untouched;
// a non-nil field is trimmed and applied, with "" clearing the column.
// Name, Email and Role are the exception: empty means absent.
type CheckInInput struct {
	EventID    uint64
	AttendeeID *uint64
	Code       string

	Name       *string
	Email      *string
	Company    *string
	Phone      *string
	Program    *string
	Cohort     *string
	Experience *string
	Role       *string

	BloodType             *string
	Allergies             *string
	CurrentMedications    *string
	Conditions            *string
	EmergencyContactName  *string
	EmergencyContactPhone *string
}

func (in CheckInInput) hasMedical() bool {
	return in.BloodType != nil || in.Allergies != nil || in.CurrentMedications != nil ||
		in.Conditions != nil || in.EmergencyContactName != nil || in.EmergencyContactPhone != nil
}

// CheckInResult reports the ids touched by a check-in and whether the
// registration and attendance rows were created by this call.
type CheckInResult struct {
	AttendeeID          uint64
	EventID             uint64
	RegistrationID      uint64
	AttendanceID        uint64
	EntryAt             *time.Time
	RegistrationCreated bool
	AttendanceCreated   bool
}

// CheckIn applies profile edits and records the physical entry of an
// attendee to an event, creating the registration and attendance rows when
// missing. Calling it again for the same pair never moves the entry time.
func (s *Service) CheckIn(ctx context.Context, actor Actor, in CheckInInput) (*CheckInResult, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	if in.EventID == 0 {
		return nil, invalid("id_evento es requerido.")
	}
	if _, err := s.store.GetEvent(ctx, in.EventID); err != nil {
		return nil, wrapRepo(err, "Evento no encontrado.")
	}

	var attendeeID uint64
	if in.AttendeeID != nil {
		attendeeID = *in.AttendeeID
	} else if id, ok := DecodeCode(in.Code, s.opts.BadgePrefix); ok {
		attendeeID = id
	}
	if attendeeID == 0 {
		return nil, invalid("No se pudo resolver el asistente.")
	}

	release, err := s.acquire(ctx, "checkin:"+strconv.FormatUint(in.EventID, 10)+":"+strconv.FormatUint(attendeeID, 10))
	if err != nil {
		return nil, err
	}
	defer release()

	var (
		res  CheckInResult
		name string
	)
	err = s.store.InTx(ctx, func(r Repos) error {
		now := s.now()
		prof, err := r.GetAttendeeProfile(ctx, attendeeID)
		if err != nil {
			return wrapRepo(err, "Asistente no encontrado.")
		}
		person, att := prof.Person, prof.Attendee

		email := nonEmpty(in.Email)
		if email != "" && email != person.Email {
			taken, err := r.EmailTakenByOther(ctx, email, person.ID)
			if err != nil {
				return wrapRepo(err, "")
			}
			if taken {
				return conflict("Ya existe otra persona con ese correo.")
			}
		}
		var role *model.Role
		if rn := nonEmpty(in.Role); rn != "" {
			if role, err = r.GetRoleByName(ctx, model.RoleName(rn)); err != nil {
				return roleError(err)
			}
		}

		if n := nonEmpty(in.Name); n != "" {
			person.FullName = n
		}
		if email != "" {
			person.Email = email
		}
		applyOpt(&person.Company, in.Company)
		applyOpt(&person.Phone, in.Phone)
		applyOpt(&person.Program, in.Program)
		person.UpdatedAt = &now
		if err := r.UpdatePerson(ctx, &person); err != nil {
			return wrapRepo(err, "Asistente no encontrado.")
		}

		if role != nil {
			att.RoleID = &role.ID
		}
		applyOpt(&att.Cohort, in.Cohort)
		applyOpt(&att.Experience, in.Experience)
		if err := r.UpdateAttendee(ctx, &att); err != nil {
			return wrapRepo(err, "")
		}

		if in.hasMedical() {
			med := prof.Medical
			if med == nil {
				med = &model.Medical{AttendeeID: attendeeID}
			}
			applyOpt(&med.BloodType, in.BloodType)
			applyOpt(&med.Allergies, in.Allergies)
			applyOpt(&med.CurrentMedications, in.CurrentMedications)
			applyOpt(&med.Conditions, in.Conditions)
			applyOpt(&med.EmergencyContactName, in.EmergencyContactName)
			applyOpt(&med.EmergencyContactPhone, in.EmergencyContactPhone)
			if err := r.SaveMedical(ctx, med); err != nil {
				return wrapRepo(err, "")
			}
		}

		reg := model.NewRegistration(in.EventID, attendeeID, now)
		regCreated, err := r.EnsureRegistration(ctx, &reg)
		if err != nil {
			return wrapRepo(err, "")
		}
		markPresent(&reg, now)
		if err := r.UpdateRegistration(ctx, &reg); err != nil {
			return wrapRepo(err, "")
		}

		attendance, attCreated, err := s.recordEntry(ctx, r, reg.ID, attendeeID, now)
		if err != nil {
			return err
		}

		name = person.FullName
		res = CheckInResult{
			AttendeeID:          attendeeID,
			EventID:             in.EventID,
			RegistrationID:      reg.ID,
			AttendanceID:        attendance.ID,
			EntryAt:             attendance.EntryAt,
			RegistrationCreated: regCreated,
			AttendanceCreated:   attCreated,
		}
		return nil
	})
	if err != nil {
		metrics.CheckIns.WithLabelValues(metrics.ResultError).Inc()
		return nil, err
	}

	// The lock covers the transaction only.
	release()
	metrics.CheckIns.WithLabelValues(resultLabel(res.AttendanceCreated)).Inc()
	s.audit.Record(ctx, Entry{
		Actor:          actor.label(),
		Action:         "Check-in QR. Asistente " + BadgeCode(s.opts.BadgePrefix, attendeeID),
		Description:    checkInDescription(res.RegistrationCreated, res.AttendanceCreated),
		EventID:        res.EventID,
		AttendeeID:     res.AttendeeID,
		RegistrationID: res.RegistrationID,
	})
	s.notify(ctx, queue.CheckInRecordedEvent{
		Kind:              queue.KindCheckIn,
		EventID:           res.EventID,
		AttendeeID:        res.AttendeeID,
		RegistrationID:    res.RegistrationID,
		AttendanceID:      res.AttendanceID,
		AttendeeName:      name,
		BadgeCode:         BadgeCode(s.opts.BadgePrefix, attendeeID),
		EntryAt:           formatTime(res.EntryAt),
		AttendanceCreated: res.AttendanceCreated,
		Actor:             actor.label(),
	})
	return &res, nil
}

// WalkInInput is the body of a walk-in registration. Company is optional.
type WalkInInput struct {
	EventID uint64
	Name    string
	Email   string
	Company string
	Role    string
	Program string
	Cohort  string
}

// WalkInResult reports every id touched and which rows were created.
type WalkInResult struct {
	PersonID            uint64
	AttendeeID          uint64
	EventID             uint64
	RegistrationID      uint64
	AttendanceID        uint64
	WalkInID            uint64
	BadgeCode           string
	EntryAt             *time.Time
	PersonCreated       bool
	AttendeeCreated     bool
	WalkInCreated       bool
	RegistrationCreated bool
	AttendanceCreated   bool
}

// WalkIn registers somebody at the door: person, attendee, walk-in marker,
// registration and attendance are each found or created. Repeating the call
// for the same event and email creates nothing new.
func (s *Service) WalkIn(ctx context.Context, actor Actor, in WalkInInput) (*WalkInResult, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Company = strings.TrimSpace(in.Company)
	in.Role = strings.TrimSpace(in.Role)
	in.Program = strings.TrimSpace(in.Program)
	in.Cohort = strings.TrimSpace(in.Cohort)

	if in.EventID == 0 {
		return nil, invalid("id_evento es requerido.")
	}
	if in.Name == "" || in.Email == "" || in.Role == "" || in.Program == "" || in.Cohort == "" {
		return nil, invalid("Nombre, correo, clasificación, carrera y generación son obligatorios.")
	}
	if _, err := s.store.GetEvent(ctx, in.EventID); err != nil {
		return nil, wrapRepo(err, "Evento no encontrado.")
	}
	role, err := s.store.GetRoleByName(ctx, model.RoleName(in.Role))
	if err != nil {
		return nil, roleError(err)
	}

	release, err := s.acquire(ctx, "walkin:"+strconv.FormatUint(in.EventID, 10)+":"+strings.ToLower(in.Email))
	if err != nil {
		return nil, err
	}
	defer release()

	var res WalkInResult
	err = s.store.InTx(ctx, func(r Repos) error {
		now := s.now()
		res = WalkInResult{EventID: in.EventID}

		person, created, err := s.ensureWalkInPerson(ctx, r, in, now)
		if err != nil {
			return err
		}
		res.PersonID, res.PersonCreated = person.ID, created

		att := model.Attendee{ID: person.ID, RoleID: &role.ID, Cohort: &in.Cohort, Active: true}
		if res.AttendeeCreated, err = r.EnsureAttendee(ctx, &att); err != nil {
			return wrapRepo(err, "")
		}
		if !res.AttendeeCreated {
			existing, err := r.GetAttendee(ctx, person.ID)
			if err != nil {
				return wrapRepo(err, "")
			}
			existing.RoleID = &role.ID
			existing.Cohort = &in.Cohort
			if err := r.UpdateAttendee(ctx, existing); err != nil {
				return wrapRepo(err, "")
			}
		}
		res.AttendeeID = person.ID

		marker := model.WalkInGuest{PersonID: person.ID, EventID: in.EventID, CreatedAt: now}
		if res.WalkInCreated, err = r.EnsureWalkIn(ctx, &marker); err != nil {
			return wrapRepo(err, "")
		}
		res.WalkInID = marker.ID

		yes := true
		comment := walkInComment
		reg := model.Registration{
			EventID:     in.EventID,
			AttendeeID:  person.ID,
			Intent:      model.IntentYes,
			Confirmed:   &yes,
			ConfirmedAt: &now,
			Comments:    &comment,
			CreatedAt:   now,
		}
		if res.RegistrationCreated, err = r.EnsureRegistration(ctx, &reg); err != nil {
			return wrapRepo(err, "")
		}
		if !res.RegistrationCreated {
			markPresent(&reg, now)
			if err := r.UpdateRegistration(ctx, &reg); err != nil {
				return wrapRepo(err, "")
			}
		}
		res.RegistrationID = reg.ID

		attendance, attCreated, err := s.recordEntry(ctx, r, reg.ID, person.ID, now)
		if err != nil {
			return err
		}
		res.AttendanceID, res.AttendanceCreated, res.EntryAt = attendance.ID, attCreated, attendance.EntryAt
		res.BadgeCode = BadgeCode(s.opts.BadgePrefix, person.ID)
		return nil
	})
	if err != nil {
		metrics.WalkIns.WithLabelValues(metrics.ResultError).Inc()
		return nil, err
	}

	release()
	metrics.WalkIns.WithLabelValues(resultLabel(res.PersonCreated)).Inc()
	s.audit.Record(ctx, Entry{
		Actor:          actor.label(),
		Action:         "Alta express de invitado de último momento: " + in.Email,
		Description:    "Persona creada: " + yesNo(res.PersonCreated) + ". " + checkInDescription(res.RegistrationCreated, res.AttendanceCreated),
		EventID:        res.EventID,
		AttendeeID:     res.AttendeeID,
		RegistrationID: res.RegistrationID,
		WalkInID:       res.WalkInID,
	})
	s.notify(ctx, queue.CheckInRecordedEvent{
		Kind:              queue.KindWalkIn,
		EventID:           res.EventID,
		AttendeeID:        res.AttendeeID,
		RegistrationID:    res.RegistrationID,
		AttendanceID:      res.AttendanceID,
		AttendeeName:      in.Name,
		BadgeCode:         res.BadgeCode,
		EntryAt:           formatTime(res.EntryAt),
		AttendanceCreated: res.AttendanceCreated,
		Actor:             actor.label(),
	})
	return &res, nil
}

// ensureWalkInPerson finds the person by email or creates one with the
// placeholder credential. An existing person gets the name refreshed and,
// when supplied, the company and program.
func (s *Service) ensureWalkInPerson(ctx context.Context, r Repos, in WalkInInput, now time.Time) (*model.Person, bool, error) {
	p, err := r.GetPersonByEmail(ctx, in.Email)
	if errors.Is(err, repository.ErrNotFound) {
		p = &model.Person{
			FullName:   in.Name,
			Email:      in.Email,
			Credential: model.WalkInCredential,
			Company:    optString(in.Company),
			Program:    optString(in.Program),
			CreatedAt:  now,
		}
		err = r.CreatePerson(ctx, p)
		if err == nil {
			return p, true, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, false, wrapRepo(err, "")
		}
		// Created concurrently by another process; continue with that row.
		p, err = r.GetPersonByEmail(ctx, in.Email)
	}
	if err != nil {
		return nil, false, wrapRepo(err, "")
	}

	p.FullName = in.Name
	if in.Company != "" {
		p.Company = &in.Company
	}
	if in.Program != "" {
		p.Program = &in.Program
	}
	p.UpdatedAt = &now
	if err := r.UpdatePerson(ctx, p); err != nil {
		return nil, false, wrapRepo(err, "")
	}
	return p, false, nil
}

// recordEntry finds or creates the attendance row of a registration. A new
// row gets the entry time and badge code; an existing row only has them
// filled in when still empty.
func (s *Service) recordEntry(ctx context.Context, r Repos, registrationID, attendeeID uint64, now time.Time) (*model.Attendance, bool, error) {
	code := BadgeCode(s.opts.BadgePrefix, attendeeID)
	att := model.Attendance{RegistrationID: registrationID, EntryAt: &now, BadgeCode: &code, CreatedAt: now}
	created, err := r.EnsureAttendance(ctx, &att)
	if err != nil {
		return nil, false, wrapRepo(err, "")
	}
	if created {
		return &att, true, nil
	}

	changed := false
	if att.EntryAt == nil {
		att.EntryAt = &now
		changed = true
	}
	if att.BadgeCode == nil || *att.BadgeCode == "" {
		att.BadgeCode = &code
		changed = true
	}
	if changed {
		if err := r.UpdateAttendance(ctx, &att); err != nil {
			return nil, false, wrapRepo(err, "")
		}
	}
	return &att, false, nil
}

// markPresent sets the intent to "si" and, unless somebody already decided,
// confirms the registration.
func markPresent(reg *model.Registration, now time.Time) {
	reg.Intent = model.IntentYes
	if reg.Confirmed == nil {
		yes := true
		reg.Confirmed = &yes
		reg.ConfirmedAt = &now
	}
}

func (s *Service) acquire(ctx context.Context, key string) (func(), error) {
	release, err := s.locker.Acquire(ctx, key)
	switch {
	case err == nil:
		return release, nil
	case errors.Is(err, lock.ErrNotAcquired):
		return nil, conflict("Operación en curso para este asistente, intenta de nuevo.")
	}
	return nil, internal("No se pudo obtener el bloqueo.", err)
}

func (s *Service) notify(ctx context.Context, ev queue.CheckInRecordedEvent) {
	if s.notifier == nil {
		return
	}
	ev.RecordedAt = s.now().Format(time.RFC3339)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := s.notifier.PublishCheckIn(ctx, ev); err != nil {
		logging.Warn().Err(err).Str("kind", ev.Kind).Uint64("id_registro", ev.RegistrationID).Msg("check-in notification not published")
	}
}

func roleError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return invalid("Rol de asistente no válido.")
	}
	return wrapRepo(err, "")
}

// applyOpt writes a trimmed optional value into dst; "" clears it.
func applyOpt(dst **string, v *string) {
	if v == nil {
		return
	}
	*dst = optString(*v)
}

func nonEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}

func resultLabel(created bool) string {
	if created {
		return metrics.ResultCreated
	}
	return metrics.ResultUpdated
}

func checkInDescription(regCreated, attCreated bool) string {
	return "Registro creado: " + yesNo(regCreated) + ". Asistencia creada: " + yesNo(attCreated) + "."
}

func yesNo(b bool) string {
	if b {
		return "sí"
	}
	return "no"
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
