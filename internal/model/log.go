package model

import "time"

// LogEntry mirrors the append-only `logs` table.
type LogEntry struct {
	ID             uint64    // logs.id_log
	Actor          *string   // logs.actor
	Action         string    // logs.accion
	Description    *string   // logs.descripcion
	EventID        *uint64   // logs.id_evento
	AttendeeID     *uint64   // logs.id_asistente
	RegistrationID *uint64   // logs.id_registro
	WalkInID       *uint64   // logs.id_invitado_ulm
	CreatedAt      time.Time // logs.creado_en
}

// Suggestion is an anonymous comment left in the suggestion box.
type Suggestion struct {
	ID           uint64    // buzon_comentarios.id_comentario
	Subject      *string   // buzon_comentarios.asunto
	Message      string    // buzon_comentarios.mensaje
	RelatedEvent *string   // buzon_comentarios.evento_relacionado
	CreatedAt    time.Time // buzon_comentarios.creado_en
}
