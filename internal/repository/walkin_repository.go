package repository

import (
	"context"
	"time"

	"github.com/agfi/registro-backend/internal/model"
)

// EnsureWalkIn atomically finds or creates the walk-in marker for
// (g.PersonID, g.EventID) and populates g.ID.
func (q *Queries) EnsureWalkIn(ctx context.Context, g *model.WalkInGuest) (bool, error) {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO invitados_ultimo_momento (id_persona, id_evento, creado_en) VALUES (?, ?, ?)
		 ON DUPLICATE KEY UPDATE id_invitado_ulm = LAST_INSERT_ID(id_invitado_ulm)`,
		g.PersonID, g.EventID, g.CreatedAt)
	if err != nil {
		return false, translate(err)
	}
	id, created, err := upsertCreated(res)
	if err != nil {
		return false, err
	}
	g.ID = id
	return created, nil
}
