package repository

import (
	"context"
	"time"

	"github.com/agfi/registro-backend/internal/model"
)

const eventColumns = "id_evento, codigo, nombre, fecha_inicio, sede, direccion, ciudad, estado, pais, notas, creado_en"

func scanEvent(row interface{ Scan(...any) error }, e *model.Event, extra ...any) error {
	dest := []any{&e.ID, &e.Code, &e.Name, &e.StartDate, &e.Venue, &e.Address, &e.City,
		&e.State, &e.Country, &e.Notes, &e.CreatedAt}
	return row.Scan(append(dest, extra...)...)
}

// CreateEvent inserts e and populates its generated ID. A duplicate code
// yields ErrDuplicate.
func (q *Queries) CreateEvent(ctx context.Context, e *model.Event) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO eventos (codigo, nombre, fecha_inicio, sede, direccion, ciudad, estado, pais, notas, creado_en)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Code, e.Name, e.StartDate, e.Venue, e.Address, e.City, e.State, e.Country, e.Notes, e.CreatedAt)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// GetEvent fetches an event by id.
func (q *Queries) GetEvent(ctx context.Context, id uint64) (*model.Event, error) {
	var e model.Event
	row := q.db.QueryRowContext(ctx, "SELECT "+eventColumns+" FROM eventos WHERE id_evento = ? LIMIT 1", id)
	if err := scanEvent(row, &e); err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

// ListEventSummaries returns every event, latest start date first, with the
// number of confirmed registrations. Invited is filled with the total
// attendee count, which is what every event is seeded with.
func (q *Queries) ListEventSummaries(ctx context.Context) ([]model.EventSummary, error) {
	total, err := q.CountAttendees(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := q.db.QueryContext(ctx,
		`SELECT e.id_evento, e.codigo, e.nombre, e.fecha_inicio, e.sede, e.direccion, e.ciudad, e.estado,
		 e.pais, e.notas, e.creado_en,
		 (SELECT COUNT(*) FROM registros r WHERE r.id_evento = e.id_evento AND r.confirmado = 1)
		 FROM eventos e ORDER BY e.fecha_inicio DESC, e.id_evento DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.EventSummary{}
	for rows.Next() {
		var s model.EventSummary
		if err := scanEvent(rows, &s.Event, &s.Confirmed); err != nil {
			return nil, err
		}
		s.Invited = total
		out = append(out, s)
	}
	return out, rows.Err()
}
