package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agfi/registro-backend/internal/model"
	"github.com/agfi/registro-backend/internal/service"
)

func TestMe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.store.AddAttendee("Ana", "ana@agfi.mx", model.RoleEngineer)
	solo := f.store.AddPerson("Solo", "solo@agfi.mx", "x")

	prof, err := f.svc.Me(ctx, f.actorFor(ana, "ana@agfi.mx"))
	require.NoError(t, err)
	assert.Equal(t, "Ana", prof.Person.FullName)
	require.NotNil(t, prof.Attendee)
	assert.Equal(t, model.RoleEngineer, prof.Role.Name)
	assert.Nil(t, prof.Medical)

	prof, err = f.svc.Me(ctx, f.actorFor(solo, "solo@agfi.mx"))
	require.NoError(t, err)
	assert.Nil(t, prof.Attendee)
	assert.Nil(t, prof.Role)

	_, err = f.svc.Me(ctx, f.actorFor(404, ""))
	requireKind(t, err, service.KindNotFound)
}

func TestUpdateMe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.store.AddAttendee("Ana", "ana@agfi.mx", model.RoleEngineer)
	f.store.AddAttendee("Beto", "beto@agfi.mx", model.RoleEngineer)
	actor := f.actorFor(ana, "ana@agfi.mx")

	require.NoError(t, f.svc.UpdateMe(ctx, actor, service.ProfileInput{Phone: str("555"), JobTitle: str("Gerente"), Experience: str("10 años")}))
	require.NoError(t, f.svc.UpdateMe(ctx, actor, service.ProfileInput{FullName: str(" "), Phone: str("")}))

	prof, err := f.store.GetAttendeeProfile(ctx, ana)
	require.NoError(t, err)
	assert.Equal(t, "Ana", prof.Person.FullName)
	assert.Nil(t, prof.Person.Phone)
	assert.Equal(t, "Gerente", *prof.Person.JobTitle)
	assert.Equal(t, "10 años", *prof.Attendee.Experience)
	require.NotNil(t, prof.Person.UpdatedAt)

	err = f.svc.UpdateMe(ctx, actor, service.ProfileInput{Email: str("beto@agfi.mx")})
	requireKind(t, err, service.KindConflict)

	require.NoError(t, f.svc.UpdateMe(ctx, actor, service.ProfileInput{Email: str("ana.lopez@agfi.mx")}))
	p, err := f.store.GetPerson(ctx, ana)
	require.NoError(t, err)
	assert.Equal(t, "ana.lopez@agfi.mx", p.Email)

	logs := f.store.Logs()
	require.NotEmpty(t, logs)
	assert.Equal(t, "ana.lopez@agfi.mx", *logs[len(logs)-1].Actor)
}

func TestMedical(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.store.AddAttendee("Ana", "ana@agfi.mx", model.RoleEngineer)
	solo := f.store.AddPerson("Solo", "solo@agfi.mx", "x")
	actor := f.actorFor(ana, "ana@agfi.mx")

	m, err := f.svc.Medical(ctx, actor)
	require.NoError(t, err)
	assert.Nil(t, m)

	require.NoError(t, f.svc.UpdateMedical(ctx, actor, service.MedicalInput{BloodType: str("A-"), Allergies: str("Nuez")}))
	require.NoError(t, f.svc.UpdateMedical(ctx, actor, service.MedicalInput{Allergies: str("")}))

	m, err = f.svc.Medical(ctx, actor)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "A-", *m.BloodType)
	assert.Nil(t, m.Allergies)

	_, err = f.svc.Medical(ctx, f.actorFor(solo, "solo@agfi.mx"))
	requireKind(t, err, service.KindNotFound)
	err = f.svc.UpdateMedical(ctx, f.actorFor(solo, "solo@agfi.mx"), service.MedicalInput{BloodType: str("O+")})
	requireKind(t, err, service.KindNotFound)
	assert.Equal(t, 1, f.store.Counts().Medical)
}

func TestUpcomingEvents(t *testing.T) {
	f := newFixture(t)
	ana := f.store.AddAttendee("Ana", "ana@agfi.mx", model.RoleEngineer)
	past := f.store.AddEvent("Pasado", time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC))
	today := f.store.AddEvent("Hoy", time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC))
	later := f.store.AddEvent("Luego", time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
	for _, ev := range []uint64{later, past, today} {
		f.store.PutRegistration(model.NewRegistration(ev, ana, f.clock()))
	}

	list, err := f.svc.UpcomingEvents(context.Background(), f.actorFor(ana, "ana@agfi.mx"))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, today, list[0].Event.ID)
	assert.Equal(t, later, list[1].Event.ID)
}

func TestRSVP(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.store.AddAttendee("Ana", "ana@agfi.mx", model.RoleEngineer)
	beto := f.store.AddAttendee("Beto", "beto@agfi.mx", model.RoleEngineer)
	ev := f.store.AddEvent("Cena", time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
	anaReg := f.store.PutRegistration(model.NewRegistration(ev, ana, f.clock()))
	betoReg := f.store.PutRegistration(model.NewRegistration(ev, beto, f.clock()))
	actor := f.actorFor(ana, "ana@agfi.mx")

	reg, err := f.svc.RSVP(ctx, actor, anaReg, service.RSVPInput{Intent: str("si"), Guests: ptrInt(1), Comments: str("Vegetariano")})
	require.NoError(t, err)
	assert.Equal(t, model.IntentYes, reg.Intent)
	assert.True(t, *reg.Confirmed)
	assert.Equal(t, f.clock(), *reg.ConfirmedAt)
	assert.Equal(t, 1, reg.Guests)

	reg, err = f.svc.RSVP(ctx, actor, anaReg, service.RSVPInput{Intent: str("no")})
	require.NoError(t, err)
	assert.False(t, *reg.Confirmed)

	reg, err = f.svc.RSVP(ctx, actor, anaReg, service.RSVPInput{Intent: str("tal_vez")})
	require.NoError(t, err)
	assert.False(t, *reg.Confirmed)

	reg, err = f.svc.RSVP(ctx, actor, anaReg, service.RSVPInput{Intent: str("si"), Confirmed: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, *reg.Confirmed)
	assert.Equal(t, "Vegetariano", *f.registration(t, anaReg).Comments)

	_, err = f.svc.RSVP(ctx, actor, betoReg, service.RSVPInput{Intent: str("si")})
	requireKind(t, err, service.KindForbidden)
	assert.Equal(t, model.IntentUnknown, f.registration(t, betoReg).Intent)

	_, err = f.svc.RSVP(ctx, actor, 999, service.RSVPInput{Intent: str("si")})
	requireKind(t, err, service.KindNotFound)
	_, err = f.svc.RSVP(ctx, actor, anaReg, service.RSVPInput{Intent: str("claro")})
	requireKind(t, err, service.KindValidation)
	_, err = f.svc.RSVP(ctx, actor, anaReg, service.RSVPInput{Guests: ptrInt(-1)})
	requireKind(t, err, service.KindValidation)
}

func TestSuggestions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Suggest(ctx, service.SuggestionInput{Subject: "Hola", Message: "  "})
	requireKind(t, err, service.KindValidation)

	_, err = f.svc.Suggest(ctx, service.SuggestionInput{Message: "Más café"})
	require.NoError(t, err)
	_, err = f.svc.Suggest(ctx, service.SuggestionInput{Subject: "Sede", Message: "Mejor estacionamiento", RelatedEvent: "Cena"})
	require.NoError(t, err)

	list, err := f.svc.Suggestions(ctx, admin)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Mejor estacionamiento", list[0].Message)
	assert.Nil(t, list[1].Subject)

	_, err = f.svc.Suggestions(ctx, f.actorFor(1, "a@agfi.mx"))
	requireKind(t, err, service.KindForbidden)
}

func TestLogs_NewestFirstWithLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		f.svc.Logout(ctx, staff, service.ClientInfo{IP: "10.0.0." + itoa(uint64(i))})
	}

	logs, err := f.svc.Logs(ctx, admin, 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Contains(t, logs[0].Action, "10.0.0.2")

	_, err = f.svc.Logs(ctx, f.actorFor(1, ""), 10)
	requireKind(t, err, service.KindForbidden)
}

func ptrInt(v int) *int { return &v }
