package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agfi/registro-backend/internal/model"
	"github.com/agfi/registro-backend/internal/repository"
)

// seedBatch bounds the rows per multi-row insert when seeding registrations.
const seedBatch = 500

// EventInput is the body of an event creation. Date is YYYY-MM-DD.
type EventInput struct {
	Name    string
	Date    string
	Venue   string
	Address string
	City    string
	State   string
	Country string
	Notes   string
}

// CreateEvent stores a new event and seeds one undecided registration for
// every existing attendee, all in one transaction. It returns the event and
// the number of registrations created.
func (s *Service) CreateEvent(ctx context.Context, actor Actor, in EventInput) (*model.Event, int, error) {
	if err := requireManager(actor); err != nil {
		return nil, 0, err
	}
	in.Name, in.Date, in.Venue = strings.TrimSpace(in.Name), strings.TrimSpace(in.Date), strings.TrimSpace(in.Venue)
	if in.Name == "" || in.Date == "" || in.Venue == "" {
		return nil, 0, invalid("Faltan campos obligatorios.")
	}
	start, err := time.Parse("2006-01-02", in.Date)
	if err != nil {
		return nil, 0, invalid("Fecha inválida.")
	}

	var (
		ev      *model.Event
		created int
	)
	err = s.store.InTx(ctx, func(r Repos) error {
		now := s.now()
		ev = &model.Event{
			Name:      in.Name,
			StartDate: start,
			Venue:     optString(in.Venue),
			Address:   optString(in.Address),
			City:      optString(in.City),
			State:     optString(in.State),
			Country:   optString(in.Country),
			Notes:     optString(in.Notes),
			CreatedAt: now,
		}
		if err := createWithCode(ctx, r, ev, now); err != nil {
			return err
		}

		ids, err := r.ListAttendeeIDs(ctx)
		if err != nil {
			return wrapRepo(err, "")
		}
		for from := 0; from < len(ids); from += seedBatch {
			to := min(from+seedBatch, len(ids))
			batch := make([]model.Registration, 0, to-from)
			for _, id := range ids[from:to] {
				batch = append(batch, model.NewRegistration(ev.ID, id, now))
			}
			n, err := r.CreateRegistrations(ctx, batch)
			if err != nil {
				return wrapRepo(err, "")
			}
			created += n
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	s.audit.Record(ctx, Entry{
		Actor:       actor.label(),
		Action:      "Creación de evento " + ev.Code,
		Description: fmt.Sprintf("%s (%s). Registros creados: %d", ev.Name, in.Date, created),
		EventID:     ev.ID,
	})
	return ev, created, nil
}

// createWithCode inserts ev with code EV-<unix seconds>. Two events created
// within the same second get a numeric suffix.
func createWithCode(ctx context.Context, r Repos, ev *model.Event, now time.Time) error {
	base := fmt.Sprintf("EV-%d", now.Unix())
	ev.Code = base
	for i := 2; ; i++ {
		err := r.CreateEvent(ctx, ev)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicate) || i > 10 {
			return wrapRepo(err, "")
		}
		ev.Code = fmt.Sprintf("%s-%d", base, i)
	}
}

// ListEvents returns every event, latest first, with invitation and
// confirmation counters.
func (s *Service) ListEvents(ctx context.Context, actor Actor) ([]model.EventSummary, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	evs, err := s.store.ListEventSummaries(ctx)
	return evs, wrapRepo(err, "")
}
