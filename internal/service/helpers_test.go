package service_test

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agfi/registro-backend/internal/model"
	"github.com/agfi/registro-backend/internal/queue"
	"github.com/agfi/registro-backend/internal/service"
	"github.com/agfi/registro-backend/internal/storetest"
)

var (
	staff = service.Actor{PersonID: 900, Email: "staff@agfi.mx", Name: "Mesa de registro", Role: model.AccessStaff}
	admin = service.Actor{PersonID: 901, Email: "admin@agfi.mx", Name: "Administración", Role: model.AccessAdmin}
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []queue.CheckInRecordedEvent
}

func (n *recordingNotifier) PublishCheckIn(ctx context.Context, ev queue.CheckInRecordedEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, ev)
	return nil
}

func (n *recordingNotifier) events() []queue.CheckInRecordedEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]queue.CheckInRecordedEvent(nil), n.sent...)
}

type fixture struct {
	svc      *service.Service
	store    *storetest.Store
	notifier *recordingNotifier

	mu  sync.Mutex
	now time.Time
}

func newFixture(t *testing.T, opts ...func(*service.Options)) *fixture {
	t.Helper()
	o := service.Options{JWTSecret: "clave-de-prueba"}
	for _, fn := range opts {
		fn(&o)
	}
	f := &fixture{
		store:    storetest.New(),
		notifier: &recordingNotifier{},
		now:      time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC),
	}
	f.svc = service.New(f.store, nil, f.notifier, o)
	f.svc.SetClock(f.clock)
	return f
}

func (f *fixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func (f *fixture) actorFor(id uint64, email string) service.Actor {
	return service.Actor{PersonID: id, Email: email, Role: model.AccessUser}
}

func (f *fixture) registration(t *testing.T, id uint64) *model.Registration {
	t.Helper()
	reg, err := f.store.GetRegistration(context.Background(), id)
	require.NoError(t, err)
	return reg
}

func requireKind(t *testing.T, err error, kind service.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, service.KindOf(err), "error: %v", err)
}

func str(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func itoa(id uint64) string { return strconv.FormatUint(id, 10) }
