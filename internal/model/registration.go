package model

import "time"

// AttendanceIntent is the RSVP answer stored in registros.asistencia.
type AttendanceIntent string

const (
	IntentYes     AttendanceIntent = "si"
	IntentNo      AttendanceIntent = "no"
	IntentMaybe   AttendanceIntent = "tal_vez"
	IntentUnknown AttendanceIntent = "desconocido"
)

// Valid reports whether the intent belongs to the closed set. The match is
// case-sensitive.
func (i AttendanceIntent) Valid() bool {
	switch i {
	case IntentYes, IntentNo, IntentMaybe, IntentUnknown:
		return true
	}
	return false
}

// Registration is one attendee's RSVP for one event. There is at most one
// per (EventID, AttendeeID).
type Registration struct {
	ID          uint64           // registros.id_registro
	EventID     uint64           // registros.id_evento
	AttendeeID  uint64           // registros.id_asistente
	Intent      AttendanceIntent // registros.asistencia
	Guests      int              // registros.invitados
	Confirmed   *bool            // registros.confirmado (nil = undecided)
	ConfirmedAt *time.Time       // registros.fecha_confirmacion
	Comments    *string          // registros.comentarios
	CreatedAt   time.Time        // registros.creado_en
}

// NewRegistration returns the default seed used whenever a registration is
// created on demand.
func NewRegistration(eventID, attendeeID uint64, now time.Time) Registration {
	return Registration{
		EventID:    eventID,
		AttendeeID: attendeeID,
		Intent:     IntentUnknown,
		Guests:     0,
		CreatedAt:  now,
	}
}

// Attendance is the physical check-in of a registration. EntryAt is set once
// and never moved afterwards.
type Attendance struct {
	ID             uint64     // asistencia.id_asistencia
	RegistrationID uint64     // asistencia.id_registro
	EntryAt        *time.Time // asistencia.hora_entrada
	Table          *string    // asistencia.numero_mesa
	Seat           *string    // asistencia.numero_asiento
	BadgeCode      *string    // asistencia.codigo_gafete
	CreatedAt      time.Time  // asistencia.creado_en
}

// UpcomingRegistration pairs a registration with its event for the profile
// view of upcoming events.
type UpcomingRegistration struct {
	Registration Registration
	Event        Event
}
