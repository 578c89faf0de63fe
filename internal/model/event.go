package model

import "time"

// Event mirrors the `eventos` table. Events are created by management users
// and never modified afterwards.
type Event struct {
	ID        uint64    // eventos.id_evento
	Code      string    // eventos.codigo (unique)
	Name      string    // eventos.nombre
	StartDate time.Time // eventos.fecha_inicio
	Venue     *string   // eventos.sede
	Address   *string   // eventos.direccion
	City      *string   // eventos.ciudad
	State     *string   // eventos.estado
	Country   *string   // eventos.pais
	Notes     *string   // eventos.notas
	CreatedAt time.Time // eventos.creado_en
}

// EventSummary is an event with the counters shown in the event listing.
type EventSummary struct {
	Event
	Invited   int // total attendees
	Confirmed int // registrations with confirmado = true
}

// WalkInGuest marks a person added to an event at the door.
type WalkInGuest struct {
	ID        uint64    // invitados_ultimo_momento.id_invitado_ulm
	PersonID  uint64    // invitados_ultimo_momento.id_persona
	EventID   uint64    // invitados_ultimo_momento.id_evento
	CreatedAt time.Time // invitados_ultimo_momento.creado_en
}
