package repository

import (
	"context"
	"errors"

	"github.com/agfi/registro-backend/internal/model"
)

const attendeeColumns = "id_asistente, id_rol, generacion, mes_cumple, dia_cumple, experiencia, activo"

// GetAttendee fetches the attendee extension of person id.
func (q *Queries) GetAttendee(ctx context.Context, id uint64) (*model.Attendee, error) {
	var a model.Attendee
	err := q.db.QueryRowContext(ctx,
		"SELECT "+attendeeColumns+" FROM asistentes WHERE id_asistente = ? LIMIT 1", id).
		Scan(&a.ID, &a.RoleID, &a.Cohort, &a.BirthMonth, &a.BirthDay, &a.Experience, &a.Active)
	if err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// EnsureAttendee inserts a when the person has no attendee row yet and
// reports whether it did. An existing row is left untouched; callers apply
// field updates separately.
func (q *Queries) EnsureAttendee(ctx context.Context, a *model.Attendee) (bool, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO asistentes (id_asistente, id_rol, generacion, mes_cumple, dia_cumple, experiencia, activo)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE id_asistente = id_asistente`,
		a.ID, a.RoleID, a.Cohort, a.BirthMonth, a.BirthDay, a.Experience, a.Active)
	if err != nil {
		return false, translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// UpdateAttendee writes the mutable attendee columns.
func (q *Queries) UpdateAttendee(ctx context.Context, a *model.Attendee) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE asistentes SET id_rol = ?, generacion = ?, mes_cumple = ?, dia_cumple = ?,
		 experiencia = ?, activo = ? WHERE id_asistente = ?`,
		a.RoleID, a.Cohort, a.BirthMonth, a.BirthDay, a.Experience, a.Active, a.ID)
	return translate(err)
}

// GetAttendeeProfile loads an attendee with its person, role and optional
// medical record. It returns ErrNotFound when either the attendee or its
// person is missing.
func (q *Queries) GetAttendeeProfile(ctx context.Context, id uint64) (*model.AttendeeProfile, error) {
	const query = `SELECT p.id_persona, p.nombre_completo, p.correo, p.password_hash, p.telefono, p.empresa,
		p.puesto, p.carrera, p.creado_en, p.actualizado_en,
		a.id_asistente, a.id_rol, a.generacion, a.mes_cumple, a.dia_cumple, a.experiencia, a.activo,
		r.id_rol, r.nombre_rol, r.costo_evento
		FROM asistentes a
		JOIN personas p ON p.id_persona = a.id_asistente
		LEFT JOIN roles r ON r.id_rol = a.id_rol
		WHERE a.id_asistente = ? LIMIT 1`
	var (
		prof       model.AttendeeProfile
		email      *string
		credential *string
		roleID     *int16
		roleName   *model.RoleName
		roleCost   *string
	)
	p, a := &prof.Person, &prof.Attendee
	err := q.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.FullName, &email, &credential, &p.Phone, &p.Company, &p.JobTitle, &p.Program,
		&p.CreatedAt, &p.UpdatedAt,
		&a.ID, &a.RoleID, &a.Cohort, &a.BirthMonth, &a.BirthDay, &a.Experience, &a.Active,
		&roleID, &roleName, &roleCost)
	if err != nil {
		return nil, translate(err)
	}
	if email != nil {
		p.Email = *email
	}
	if credential != nil {
		p.Credential = *credential
	}
	if roleID != nil && roleName != nil {
		prof.Role = &model.Role{ID: *roleID, Name: *roleName}
		if roleCost != nil {
			prof.Role.EventCost = *roleCost
		}
	}
	med, err := q.GetMedical(ctx, id)
	switch {
	case err == nil:
		prof.Medical = med
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}
	return &prof, nil
}

// ListAttendees returns every attendee with a role, ordered by full name.
func (q *Queries) ListAttendees(ctx context.Context) ([]model.AttendeeSummary, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT a.id_asistente, p.nombre_completo, COALESCE(p.correo, ''), p.empresa, r.nombre_rol
		 FROM asistentes a
		 JOIN personas p ON p.id_persona = a.id_asistente
		 JOIN roles r ON r.id_rol = a.id_rol
		 ORDER BY p.nombre_completo ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.AttendeeSummary{}
	for rows.Next() {
		var s model.AttendeeSummary
		if err := rows.Scan(&s.AttendeeID, &s.FullName, &s.Email, &s.Company, &s.RoleName); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListAttendeeIDs returns the ids of every attendee.
func (q *Queries) ListAttendeeIDs(ctx context.Context) ([]uint64, error) {
	rows, err := q.db.QueryContext(ctx, "SELECT id_asistente FROM asistentes ORDER BY id_asistente")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountAttendees returns the number of attendees.
func (q *Queries) CountAttendees(ctx context.Context) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM asistentes").Scan(&n)
	return n, err
}
