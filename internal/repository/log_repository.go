package repository

import (
	"context"
	"time"

	"github.com/agfi/registro-backend/internal/model"
)

// InsertLog appends an audit entry. Log rows are never updated or deleted.
func (q *Queries) InsertLog(ctx context.Context, l *model.LogEntry) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO logs (actor, accion, descripcion, id_evento, id_asistente, id_registro, id_invitado_ulm, creado_en)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.Actor, l.Action, l.Description, l.EventID, l.AttendeeID, l.RegistrationID, l.WalkInID, l.CreatedAt)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = uint64(id)
	return nil
}

// ListLogs returns the most recent audit entries, newest first.
func (q *Queries) ListLogs(ctx context.Context, limit int) ([]model.LogEntry, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id_log, actor, accion, descripcion, id_evento, id_asistente, id_registro, id_invitado_ulm, creado_en
		 FROM logs ORDER BY creado_en DESC, id_log DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.LogEntry{}
	for rows.Next() {
		var l model.LogEntry
		if err := rows.Scan(&l.ID, &l.Actor, &l.Action, &l.Description, &l.EventID, &l.AttendeeID,
			&l.RegistrationID, &l.WalkInID, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
