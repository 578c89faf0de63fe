package repository

import (
	"context"
	"time"

	"github.com/agfi/registro-backend/internal/model"
)

// CreateSuggestion stores an anonymous suggestion box entry.
func (q *Queries) CreateSuggestion(ctx context.Context, s *model.Suggestion) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	res, err := q.db.ExecContext(ctx,
		"INSERT INTO buzon_comentarios (asunto, mensaje, evento_relacionado, creado_en) VALUES (?, ?, ?, ?)",
		s.Subject, s.Message, s.RelatedEvent, s.CreatedAt)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// ListSuggestions returns every suggestion, newest first.
func (q *Queries) ListSuggestions(ctx context.Context) ([]model.Suggestion, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT id_comentario, asunto, mensaje, evento_relacionado, creado_en FROM buzon_comentarios ORDER BY creado_en DESC, id_comentario DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Suggestion{}
	for rows.Next() {
		var s model.Suggestion
		if err := rows.Scan(&s.ID, &s.Subject, &s.Message, &s.RelatedEvent, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
