package repository

import (
	"context"
	"time"

	"github.com/agfi/registro-backend/internal/model"
)

const attendanceColumns = "id_asistencia, id_registro, hora_entrada, numero_mesa, numero_asiento, codigo_gafete, creado_en"

func scanAttendance(row interface{ Scan(...any) error }) (*model.Attendance, error) {
	var a model.Attendance
	if err := row.Scan(&a.ID, &a.RegistrationID, &a.EntryAt, &a.Table, &a.Seat, &a.BadgeCode, &a.CreatedAt); err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// GetAttendance fetches an attendance record by id.
func (q *Queries) GetAttendance(ctx context.Context, id uint64) (*model.Attendance, error) {
	return scanAttendance(q.db.QueryRowContext(ctx,
		"SELECT "+attendanceColumns+" FROM asistencia WHERE id_asistencia = ? LIMIT 1", id))
}

// GetAttendanceByRegistration fetches the check-in record of a registration.
func (q *Queries) GetAttendanceByRegistration(ctx context.Context, registrationID uint64) (*model.Attendance, error) {
	return scanAttendance(q.db.QueryRowContext(ctx,
		"SELECT "+attendanceColumns+" FROM asistencia WHERE id_registro = ? LIMIT 1", registrationID))
}

// EnsureAttendance atomically finds or creates the attendance record of
// seed.RegistrationID. On creation the seed is stored; otherwise seed is
// replaced by the existing row.
func (q *Queries) EnsureAttendance(ctx context.Context, seed *model.Attendance) (bool, error) {
	if seed.CreatedAt.IsZero() {
		seed.CreatedAt = time.Now().UTC()
	}
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO asistencia (id_registro, hora_entrada, numero_mesa, numero_asiento, codigo_gafete, creado_en)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE id_asistencia = LAST_INSERT_ID(id_asistencia)`,
		seed.RegistrationID, seed.EntryAt, seed.Table, seed.Seat, seed.BadgeCode, seed.CreatedAt)
	if err != nil {
		return false, translate(err)
	}
	id, created, err := upsertCreated(res)
	if err != nil {
		return false, err
	}
	if created {
		seed.ID = id
		return true, nil
	}
	existing, err := q.GetAttendance(ctx, id)
	if err != nil {
		return false, err
	}
	*seed = *existing
	return false, nil
}

// UpdateAttendance writes the mutable check-in columns of a. The entry time
// is only ever filled, never cleared or moved: the COALESCE keeps the stored
// value when one exists.
func (q *Queries) UpdateAttendance(ctx context.Context, a *model.Attendance) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE asistencia SET hora_entrada = COALESCE(hora_entrada, ?), numero_mesa = ?, numero_asiento = ?,
		 codigo_gafete = ? WHERE id_asistencia = ?`,
		a.EntryAt, a.Table, a.Seat, a.BadgeCode, a.ID)
	return translate(err)
}
