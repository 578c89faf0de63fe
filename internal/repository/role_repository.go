package repository

import (
	"context"

	"github.com/agfi/registro-backend/internal/model"
)

const roleColumns = "id_rol, nombre_rol, costo_evento"

// GetRoleByName fetches a role by its enumerated name. It returns
// ErrNotFound for names outside the seeded set.
func (q *Queries) GetRoleByName(ctx context.Context, name model.RoleName) (*model.Role, error) {
	var r model.Role
	err := q.db.QueryRowContext(ctx,
		"SELECT "+roleColumns+" FROM roles WHERE nombre_rol = ? LIMIT 1", name).
		Scan(&r.ID, &r.Name, &r.EventCost)
	if err != nil {
		return nil, translate(err)
	}
	return &r, nil
}
