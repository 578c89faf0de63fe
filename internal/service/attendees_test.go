package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agfi/registro-backend/internal/model"
	"github.com/agfi/registro-backend/internal/service"
	"github.com/agfi/registro-backend/internal/utils"
)

func TestCreateAttendee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	prof, err := f.svc.CreateAttendee(ctx, admin, service.AttendeeInput{
		Name:      "Rosa Méndez",
		Email:     "rosa@agfi.mx",
		Password:  "inicio123",
		Role:      "ingeniero",
		Cohort:    "2010",
		BirthDate: "1988-07-09",
		BloodType: "B+",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleEngineer, prof.Role.Name)
	assert.Equal(t, int16(7), *prof.Attendee.BirthMonth)
	assert.Equal(t, int16(9), *prof.Attendee.BirthDay)
	require.NotNil(t, prof.Medical)
	assert.Equal(t, "B+", *prof.Medical.BloodType)

	p, err := f.store.GetPerson(ctx, prof.Person.ID)
	require.NoError(t, err)
	assert.Equal(t, "inicio123", p.Credential)

	list, err := f.svc.ListAttendees(ctx, staff)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "rosa@agfi.mx", list[0].Email)
}

func TestCreateAttendee_WithoutMedicalFields(t *testing.T) {
	f := newFixture(t)
	prof, err := f.svc.CreateAttendee(context.Background(), staff, service.AttendeeInput{
		Name: "Saúl", Email: "saul@agfi.mx", Role: "becario", BirthDate: "julio",
	})
	require.NoError(t, err)
	assert.Nil(t, prof.Medical)
	assert.Nil(t, prof.Attendee.BirthMonth)
	assert.Equal(t, 0, f.store.Counts().Medical)
}

func TestCreateAttendee_HashesWhenEnabled(t *testing.T) {
	f := newFixture(t, func(o *service.Options) {
		o.HashNewCredentials = true
		o.BcryptCost = 4
	})
	ctx := context.Background()

	prof, err := f.svc.CreateAttendee(ctx, admin, service.AttendeeInput{Name: "Tere", Email: "tere@agfi.mx", Password: "clave", Role: "staff"})
	require.NoError(t, err)

	p, err := f.store.GetPerson(ctx, prof.Person.ID)
	require.NoError(t, err)
	assert.True(t, utils.IsBcryptHash(p.Credential))

	res, err := f.svc.Login(ctx, "tere@agfi.mx", "clave", service.ClientInfo{})
	require.NoError(t, err)
	assert.Equal(t, string(model.AccessStaff), res.User.Role)
}

func TestCreateAttendee_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.AddAttendee("Ulises", "ulises@agfi.mx", model.RoleEngineer)
	before := f.store.Counts()

	_, err := f.svc.CreateAttendee(ctx, admin, service.AttendeeInput{Name: "X", Email: "x@agfi.mx", Role: "capitán"})
	requireKind(t, err, service.KindValidation)

	_, err = f.svc.CreateAttendee(ctx, admin, service.AttendeeInput{Name: "X", Role: "ingeniero"})
	requireKind(t, err, service.KindValidation)

	_, err = f.svc.CreateAttendee(ctx, admin, service.AttendeeInput{Name: "Otro", Email: "ULISES@agfi.mx", Role: "ingeniero"})
	requireKind(t, err, service.KindConflict)

	_, err = f.svc.CreateAttendee(ctx, f.actorFor(1, "ulises@agfi.mx"), service.AttendeeInput{Name: "X", Email: "x@agfi.mx", Role: "ingeniero"})
	requireKind(t, err, service.KindForbidden)
	_, err = f.svc.ListAttendees(ctx, f.actorFor(1, "ulises@agfi.mx"))
	requireKind(t, err, service.KindForbidden)

	assert.Equal(t, before, f.store.Counts())
}
