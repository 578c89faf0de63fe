package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agfi/registro-backend/internal/model"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewStore(db), mock
}

var regCols = []string{"id_registro", "id_evento", "id_asistente", "asistencia", "invitados",
	"confirmado", "fecha_confirmacion", "comentarios", "creado_en"}

func TestEnsureRegistration_Created(t *testing.T) {
	s, mock := newMock(t)
	now := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	seed := model.NewRegistration(3, 9, now)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO registros")).
		WithArgs(uint64(3), uint64(9), model.IntentUnknown, 0, nil, nil, nil, now).
		WillReturnResult(sqlmock.NewResult(41, 1))

	created, err := s.EnsureRegistration(context.Background(), &seed)
	require.NoError(t, err)
	assert.True(t, created)
	assert.EqualValues(t, 41, seed.ID)
}

func TestEnsureRegistration_ExistingRowWins(t *testing.T) {
	s, mock := newMock(t)
	now := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	seed := model.NewRegistration(3, 9, now)

	mock.ExpectExec(regexp.QuoteMeta("ON DUPLICATE KEY UPDATE id_registro = LAST_INSERT_ID(id_registro)")).
		WillReturnResult(sqlmock.NewResult(41, 0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM registros WHERE id_registro = ?")).
		WithArgs(uint64(41)).
		WillReturnRows(sqlmock.NewRows(regCols).
			AddRow(41, 3, 9, "no", 1, false, now.Add(-time.Hour), "Viaje", now.Add(-48*time.Hour)))

	created, err := s.EnsureRegistration(context.Background(), &seed)
	require.NoError(t, err)
	assert.False(t, created)
	assert.EqualValues(t, 41, seed.ID)
	assert.Equal(t, model.IntentNo, seed.Intent)
	require.NotNil(t, seed.Confirmed)
	assert.False(t, *seed.Confirmed)
	require.NotNil(t, seed.Comments)
	assert.Equal(t, "Viaje", *seed.Comments)
}

func TestCreatePerson_DuplicateEmail(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO personas")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := s.CreatePerson(context.Background(), &model.Person{FullName: "Ana", Email: "ana@agfi.mx"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestPersonWrites_EmptyEmailIsNull(t *testing.T) {
	s, mock := newMock(t)
	now := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO personas")).
		WithArgs("Luis", nil, nil, nil, nil, nil, nil, now).
		WillReturnResult(sqlmock.NewResult(12, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE personas SET")).
		WithArgs("Luis Pérez", nil, nil, nil, nil, nil, sqlmock.AnyArg(), uint64(12)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	p := &model.Person{FullName: "Luis", CreatedAt: now}
	require.NoError(t, s.CreatePerson(context.Background(), p))
	assert.EqualValues(t, 12, p.ID)

	p.FullName = "Luis Pérez"
	require.NoError(t, s.UpdatePerson(context.Background(), p))
}

func TestGetEvent_NotFound(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM eventos WHERE id_evento = ?")).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id_evento"}))

	_, err := s.GetEvent(context.Background(), 5)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateRegistrations_SingleStatement(t *testing.T) {
	s, mock := newMock(t)
	now := time.Now().UTC()
	regs := []model.Registration{
		model.NewRegistration(1, 10, now),
		model.NewRegistration(1, 11, now),
		model.NewRegistration(1, 12, now),
	}
	mock.ExpectExec(regexp.QuoteMeta("INSERT IGNORE INTO registros") + ".*" +
		regexp.QuoteMeta("(?, ?, ?, ?, ?, ?, ?, ?),(?, ?, ?, ?, ?, ?, ?, ?),(?, ?, ?, ?, ?, ?, ?, ?)")).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := s.CreateRegistrations(context.Background(), regs)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.CreateRegistrations(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUpdateAttendance_KeepsEntryTime(t *testing.T) {
	s, mock := newMock(t)
	entry := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("hora_entrada = COALESCE(hora_entrada, ?)")).
		WithArgs(&entry, nil, nil, nil, uint64(8)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.UpdateAttendance(context.Background(), &model.Attendance{ID: 8, EntryAt: &entry}))
}

func TestInTx(t *testing.T) {
	t.Run("commit", func(t *testing.T) {
		s, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE registros")).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := s.InTx(context.Background(), func(q *Queries) error {
			return q.UpdateRegistration(context.Background(), &model.Registration{ID: 1, Intent: model.IntentYes})
		})
		assert.NoError(t, err)
	})

	t.Run("rollback", func(t *testing.T) {
		s, mock := newMock(t)
		boom := errors.New("boom")
		mock.ExpectBegin()
		mock.ExpectRollback()

		err := s.InTx(context.Background(), func(q *Queries) error { return boom })
		assert.ErrorIs(t, err, boom)
	})
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))
	assert.ErrorIs(t, translate(&mysql.MySQLError{Number: 1062}), ErrDuplicate)
	other := &mysql.MySQLError{Number: 1213}
	assert.Equal(t, other, translate(other))
}
