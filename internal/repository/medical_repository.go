package repository

import (
	"context"

	"github.com/agfi/registro-backend/internal/model"
)

// GetMedical fetches the medical record of an attendee or ErrNotFound.
func (q *Queries) GetMedical(ctx context.Context, attendeeID uint64) (*model.Medical, error) {
	var m model.Medical
	err := q.db.QueryRowContext(ctx,
		`SELECT id_asistente, tipo_sangre, alergias, medicamentos_actuales, padecimientos,
		 contacto_emergencia_nombre, contacto_emergencia_telefono
		 FROM asistentes_medicos WHERE id_asistente = ? LIMIT 1`, attendeeID).
		Scan(&m.AttendeeID, &m.BloodType, &m.Allergies, &m.CurrentMedications, &m.Conditions,
			&m.EmergencyContactName, &m.EmergencyContactPhone)
	if err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

// SaveMedical creates or overwrites the medical record of m.AttendeeID.
func (q *Queries) SaveMedical(ctx context.Context, m *model.Medical) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO asistentes_medicos (id_asistente, tipo_sangre, alergias, medicamentos_actuales,
		 padecimientos, contacto_emergencia_nombre, contacto_emergencia_telefono)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE tipo_sangre = VALUES(tipo_sangre), alergias = VALUES(alergias),
		 medicamentos_actuales = VALUES(medicamentos_actuales), padecimientos = VALUES(padecimientos),
		 contacto_emergencia_nombre = VALUES(contacto_emergencia_nombre),
		 contacto_emergencia_telefono = VALUES(contacto_emergencia_telefono)`,
		m.AttendeeID, m.BloodType, m.Allergies, m.CurrentMedications, m.Conditions,
		m.EmergencyContactName, m.EmergencyContactPhone)
	return translate(err)
}
