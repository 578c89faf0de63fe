package repository

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so every query method can
// run inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries groups every data access method. The methods are spread across
// the *_repository.go files of this package, one file per table.
type Queries struct {
	db DBTX
}

// New returns Queries bound to db, which may be a pool or a transaction.
func New(db DBTX) *Queries { return &Queries{db: db} }

// Store is the pool-backed entry point. Reads can go straight through the
// embedded Queries; writes that must be atomic use InTx.
type Store struct {
	*Queries
	db *sql.DB
}

// NewStore returns a Store bound to the given database.
func NewStore(db *sql.DB) *Store {
	return &Store{Queries: New(db), db: db}
}

// DB exposes the underlying pool for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// InTx runs fn inside a transaction. The transaction is committed when fn
// returns nil and rolled back otherwise, so callers never observe a
// partially applied unit of work.
func (s *Store) InTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(New(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// upsertCreated interprets the result of an
// INSERT ... ON DUPLICATE KEY UPDATE pk = LAST_INSERT_ID(pk) statement.
// MySQL reports one affected row for a fresh insert and zero when the
// existing row was left untouched; LastInsertId is the row's key either way.
func upsertCreated(res sql.Result) (id uint64, created bool, err error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, false, err
	}
	lid, err := res.LastInsertId()
	if err != nil {
		return 0, false, err
	}
	return uint64(lid), n == 1, nil
}
