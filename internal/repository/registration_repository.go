package repository

import (
	"context"
	"strings"
	"time"

	"github.com/agfi/registro-backend/internal/model"
)

const registrationColumns = `id_registro, id_evento, id_asistente, asistencia, invitados, confirmado,
	fecha_confirmacion, comentarios, creado_en`

func scanRegistration(row interface{ Scan(...any) error }, r *model.Registration, extra ...any) error {
	dest := []any{&r.ID, &r.EventID, &r.AttendeeID, &r.Intent, &r.Guests, &r.Confirmed,
		&r.ConfirmedAt, &r.Comments, &r.CreatedAt}
	return row.Scan(append(dest, extra...)...)
}

// GetRegistration fetches a registration by id.
func (q *Queries) GetRegistration(ctx context.Context, id uint64) (*model.Registration, error) {
	var r model.Registration
	row := q.db.QueryRowContext(ctx,
		"SELECT "+registrationColumns+" FROM registros WHERE id_registro = ? LIMIT 1", id)
	if err := scanRegistration(row, &r); err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

// GetRegistrationFor fetches the registration of an attendee for an event.
func (q *Queries) GetRegistrationFor(ctx context.Context, eventID, attendeeID uint64) (*model.Registration, error) {
	var r model.Registration
	row := q.db.QueryRowContext(ctx,
		"SELECT "+registrationColumns+" FROM registros WHERE id_evento = ? AND id_asistente = ? LIMIT 1",
		eventID, attendeeID)
	if err := scanRegistration(row, &r); err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

// EnsureRegistration atomically finds or creates the registration for
// (seed.EventID, seed.AttendeeID). On creation the seed values are stored;
// otherwise seed is overwritten with the existing row. The unique key on
// (id_evento, id_asistente) makes concurrent callers converge on one row.
func (q *Queries) EnsureRegistration(ctx context.Context, seed *model.Registration) (bool, error) {
	if seed.CreatedAt.IsZero() {
		seed.CreatedAt = time.Now().UTC()
	}
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO registros (id_evento, id_asistente, asistencia, invitados, confirmado,
		 fecha_confirmacion, comentarios, creado_en)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE id_registro = LAST_INSERT_ID(id_registro)`,
		seed.EventID, seed.AttendeeID, seed.Intent, seed.Guests, seed.Confirmed,
		seed.ConfirmedAt, seed.Comments, seed.CreatedAt)
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
	existing, err := q.GetRegistration(ctx, id)
	if err != nil {
		return false, err
	}
	*seed = *existing
	return false, nil
}

// UpdateRegistration writes the RSVP columns of r.
func (q *Queries) UpdateRegistration(ctx context.Context, r *model.Registration) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE registros SET asistencia = ?, invitados = ?, confirmado = ?, fecha_confirmacion = ?,
		 comentarios = ? WHERE id_registro = ?`,
		r.Intent, r.Guests, r.Confirmed, r.ConfirmedAt, r.Comments, r.ID)
	return translate(err)
}

// CreateRegistrations inserts regs with a single multi-row statement and
// returns how many rows were written. Pairs that already exist are skipped.
func (q *Queries) CreateRegistrations(ctx context.Context, regs []model.Registration) (int, error) {
	if len(regs) == 0 {
		return 0, nil
	}
	var b strings.Builder
	b.WriteString(`INSERT IGNORE INTO registros (id_evento, id_asistente, asistencia, invitados, confirmado,
		fecha_confirmacion, comentarios, creado_en) VALUES `)
	args := make([]any, 0, len(regs)*8)
	for i, r := range regs {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args, r.EventID, r.AttendeeID, r.Intent, r.Guests, r.Confirmed,
			r.ConfirmedAt, r.Comments, r.CreatedAt)
	}
	res, err := q.db.ExecContext(ctx, b.String(), args...)
	if err != nil {
		return 0, translate(err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// ListUpcomingRegistrations returns the registrations of an attendee whose
// event starts at or after from, soonest first.
func (q *Queries) ListUpcomingRegistrations(ctx context.Context, attendeeID uint64, from time.Time) ([]model.UpcomingRegistration, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT r.id_registro, r.id_evento, r.id_asistente, r.asistencia, r.invitados, r.confirmado,
		 r.fecha_confirmacion, r.comentarios, r.creado_en,
		 e.id_evento, e.codigo, e.nombre, e.fecha_inicio, e.sede, e.direccion, e.ciudad, e.estado,
		 e.pais, e.notas, e.creado_en
		 FROM registros r JOIN eventos e ON e.id_evento = r.id_evento
		 WHERE r.id_asistente = ? AND e.fecha_inicio >= ?
		 ORDER BY e.fecha_inicio ASC, e.id_evento ASC`, attendeeID, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.UpcomingRegistration{}
	for rows.Next() {
		var u model.UpcomingRegistration
		e := &u.Event
		if err := scanRegistration(rows, &u.Registration,
			&e.ID, &e.Code, &e.Name, &e.StartDate, &e.Venue, &e.Address, &e.City,
			&e.State, &e.Country, &e.Notes, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
