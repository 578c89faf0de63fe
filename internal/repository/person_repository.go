package repository

import (
	"context"
	"strings"
	"time"

	"github.com/agfi/registro-backend/internal/model"
)

const personColumns = `id_persona, nombre_completo, correo, password_hash, telefono, empresa,
	puesto, carrera, creado_en, actualizado_en`

func scanPerson(row interface{ Scan(...any) error }) (*model.Person, error) {
	var (
		p          model.Person
		email      *string
		credential *string
	)
	if err := row.Scan(&p.ID, &p.FullName, &email, &credential, &p.Phone, &p.Company,
		&p.JobTitle, &p.Program, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, translate(err)
	}
	if email != nil {
		p.Email = *email
	}
	if credential != nil {
		p.Credential = *credential
	}
	return &p, nil
}

// nullIfEmpty maps "" to NULL so optional unique columns never collide on
// the empty string.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// GetPerson fetches a person by id.
func (q *Queries) GetPerson(ctx context.Context, id uint64) (*model.Person, error) {
	return scanPerson(q.db.QueryRowContext(ctx,
		"SELECT "+personColumns+" FROM personas WHERE id_persona = ? LIMIT 1", id))
}

// GetPersonByEmail fetches a person by email. Emails are compared after
// trimming surrounding whitespace; the column collation makes the match
// case-insensitive.
func (q *Queries) GetPersonByEmail(ctx context.Context, email string) (*model.Person, error) {
	return scanPerson(q.db.QueryRowContext(ctx,
		"SELECT "+personColumns+" FROM personas WHERE correo = ? LIMIT 1", strings.TrimSpace(email)))
}

// EmailTakenByOther reports whether some person other than personID already
// owns email.
func (q *Queries) EmailTakenByOther(ctx context.Context, email string, personID uint64) (bool, error) {
	var n int
	err := q.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM personas WHERE correo = ? AND id_persona <> ?",
		strings.TrimSpace(email), personID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CreatePerson inserts p and populates its generated ID. A duplicate email
// yields ErrDuplicate.
func (q *Queries) CreatePerson(ctx context.Context, p *model.Person) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO personas (nombre_completo, correo, password_hash, telefono, empresa, puesto, carrera, creado_en)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.FullName, nullIfEmpty(p.Email), nullIfEmpty(p.Credential), p.Phone, p.Company, p.JobTitle, p.Program, p.CreatedAt)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// UpdatePerson writes every mutable column of p. The credential is not
// touched here.
func (q *Queries) UpdatePerson(ctx context.Context, p *model.Person) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE personas SET nombre_completo = ?, correo = ?, telefono = ?, empresa = ?, puesto = ?,
		 carrera = ?, actualizado_en = ? WHERE id_persona = ?`,
		p.FullName, nullIfEmpty(p.Email), p.Phone, p.Company, p.JobTitle, p.Program, p.UpdatedAt, p.ID)
	return translate(err)
}
