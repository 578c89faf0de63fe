package repository

import (
	"context"

	"github.com/agfi/registro-backend/internal/model"
)

// ListRoster returns the registrations of an event joined with attendee,
// person, role and physical attendance, ordered by full name. A row counts
// as checked in only when its attendance has an entry time.
func (q *Queries) ListRoster(ctx context.Context, eventID uint64) ([]model.RosterRow, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT r.id_registro, a.id_asistente, p.nombre_completo, COALESCE(p.correo, ''), p.empresa,
		 COALESCE(ro.nombre_rol, ''), r.asistencia, r.confirmado, r.invitados, r.comentarios,
		 (asi.hora_entrada IS NOT NULL)
		 FROM registros r
		 JOIN asistentes a ON a.id_asistente = r.id_asistente
		 JOIN personas p ON p.id_persona = a.id_asistente
		 LEFT JOIN roles ro ON ro.id_rol = a.id_rol
		 LEFT JOIN asistencia asi ON asi.id_registro = r.id_registro
		 WHERE r.id_evento = ?
		 ORDER BY p.nombre_completo ASC, r.id_registro ASC`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.RosterRow{}
	for rows.Next() {
		var r model.RosterRow
		if err := rows.Scan(&r.RegistrationID, &r.AttendeeID, &r.FullName, &r.Email, &r.Company,
			&r.RoleName, &r.Intent, &r.Confirmed, &r.Guests, &r.Comments, &r.CheckedIn); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
