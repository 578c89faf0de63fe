// Package storetest provides an in-memory service.Store for tests. It
// mirrors the unique keys and upsert behaviour of the MySQL repository and
// rolls back every change made inside a failed InTx.
package storetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/agfi/registro-backend/internal/model"
	"github.com/agfi/registro-backend/internal/repository"
	"github.com/agfi/registro-backend/internal/service"
)

type state struct {
	seq         map[string]uint64
	roles       map[model.RoleName]model.Role
	persons     map[uint64]model.Person
	attendees   map[uint64]model.Attendee
	medical     map[uint64]model.Medical
	events      map[uint64]model.Event
	regs        map[uint64]model.Registration
	attendance  map[uint64]model.Attendance
	walkins     map[uint64]model.WalkInGuest
	logs        []model.LogEntry
	suggestions []model.Suggestion
}

func (s *state) clone() *state {
	return &state{
		seq:         cloneMap(s.seq),
		roles:       cloneMap(s.roles),
		persons:     cloneMap(s.persons),
		attendees:   cloneMap(s.attendees),
		medical:     cloneMap(s.medical),
		events:      cloneMap(s.events),
		regs:        cloneMap(s.regs),
		attendance:  cloneMap(s.attendance),
		walkins:     cloneMap(s.walkins),
		logs:        append([]model.LogEntry(nil), s.logs...),
		suggestions: append([]model.Suggestion(nil), s.suggestions...),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Store is an in-memory service.Store. Set Fail to make a method return an
// error, keyed by method name.
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex
	st   *state

	Fail map[string]error
}

var _ service.Store = (*Store)(nil)

// New returns a Store seeded with the five roles of the schema.
func New() *Store {
	s := &Store{st: &state{
		seq:        map[string]uint64{},
		roles:      map[model.RoleName]model.Role{},
		persons:    map[uint64]model.Person{},
		attendees:  map[uint64]model.Attendee{},
		medical:    map[uint64]model.Medical{},
		events:     map[uint64]model.Event{},
		regs:       map[uint64]model.Registration{},
		attendance: map[uint64]model.Attendance{},
		walkins:    map[uint64]model.WalkInGuest{},
	}, Fail: map[string]error{}}
	for i, r := range []struct {
		name model.RoleName
		cost string
	}{
		{model.RoleEngineer, "500.00"},
		{model.RoleIntern, "250.00"},
		{model.RoleStudent, "150.00"},
		{model.RoleAdministrator, "0.00"},
		{model.RoleStaff, "0.00"},
	} {
		s.st.roles[r.name] = model.Role{ID: int16(i + 1), Name: r.name, EventCost: r.cost}
	}
	return s
}

func (s *Store) next(table string) uint64 {
	s.st.seq[table]++
	return s.st.seq[table]
}

// datetime stores t the way a MySQL DATETIME column does: rounded to the
// nearest second.
func datetime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	r := t.Round(time.Second)
	return &r
}

func (s *Store) fail(method string) error {
	return s.Fail[method]
}

// InTx runs fn serialized with other transactions and restores the previous
// state when fn fails.
func (s *Store) InTx(ctx context.Context, fn func(r service.Repos) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.st.clone()
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.st = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func sameEmail(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func (s *Store) GetRoleByName(ctx context.Context, name model.RoleName) (*model.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.st.roles[name]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (s *Store) roleByID(id *int16) *model.Role {
	if id == nil {
		return nil
	}
	for _, r := range s.st.roles {
		if r.ID == *id {
			r := r
			return &r
		}
	}
	return nil
}

func (s *Store) GetPerson(ctx context.Context, id uint64) (*model.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.st.persons[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (s *Store) GetPersonByEmail(ctx context.Context, email string) (*model.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.st.persons {
		if p.Email != "" && sameEmail(p.Email, email) {
			p := p
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) EmailTakenByOther(ctx context.Context, email string, personID uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.st.persons {
		if id != personID && p.Email != "" && sameEmail(p.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) emailTaken(email string, except uint64) bool {
	if email == "" {
		return false
	}
	for id, p := range s.st.persons {
		if id != except && sameEmail(p.Email, email) {
			return true
		}
	}
	return false
}

func (s *Store) CreatePerson(ctx context.Context, p *model.Person) error {
	if err := s.fail("CreatePerson"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emailTaken(p.Email, 0) {
		return repository.ErrDuplicate
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	p.ID = s.next("personas")
	s.st.persons[p.ID] = *p
	return nil
}

func (s *Store) UpdatePerson(ctx context.Context, p *model.Person) error {
	if err := s.fail("UpdatePerson"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.st.persons[p.ID]
	if !ok {
		return nil
	}
	if s.emailTaken(p.Email, p.ID) {
		return repository.ErrDuplicate
	}
	upd := *p
	upd.Credential = cur.Credential
	upd.CreatedAt = cur.CreatedAt
	s.st.persons[p.ID] = upd
	return nil
}

func (s *Store) GetAttendee(ctx context.Context, id uint64) (*model.Attendee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.st.attendees[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (s *Store) EnsureAttendee(ctx context.Context, a *model.Attendee) (bool, error) {
	if err := s.fail("EnsureAttendee"); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.attendees[a.ID]; ok {
		return false, nil
	}
	s.st.attendees[a.ID] = *a
	return true, nil
}

func (s *Store) UpdateAttendee(ctx context.Context, a *model.Attendee) error {
	if err := s.fail("UpdateAttendee"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.attendees[a.ID]; ok {
		s.st.attendees[a.ID] = *a
	}
	return nil
}

func (s *Store) GetAttendeeProfile(ctx context.Context, id uint64) (*model.AttendeeProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.st.attendees[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p, ok := s.st.persons[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	prof := &model.AttendeeProfile{Person: p, Attendee: a, Role: s.roleByID(a.RoleID)}
	if m, ok := s.st.medical[id]; ok {
		prof.Medical = &m
	}
	return prof, nil
}

func (s *Store) ListAttendees(ctx context.Context) ([]model.AttendeeSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.AttendeeSummary{}
	for id, a := range s.st.attendees {
		role := s.roleByID(a.RoleID)
		if role == nil {
			continue
		}
		p := s.st.persons[id]
		out = append(out, model.AttendeeSummary{
			AttendeeID: id, FullName: p.FullName, Email: p.Email, Company: p.Company, RoleName: role.Name,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (s *Store) ListAttendeeIDs(ctx context.Context) ([]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uint64, 0, len(s.st.attendees))
	for id := range s.st.attendees {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *Store) GetMedical(ctx context.Context, attendeeID uint64) (*model.Medical, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.st.medical[attendeeID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (s *Store) SaveMedical(ctx context.Context, m *model.Medical) error {
	if err := s.fail("SaveMedical"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.medical[m.AttendeeID] = *m
	return nil
}

func (s *Store) CreateEvent(ctx context.Context, e *model.Event) error {
	if err := s.fail("CreateEvent"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range s.st.events {
		if ev.Code == e.Code {
			return repository.ErrDuplicate
		}
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	e.ID = s.next("eventos")
	s.st.events[e.ID] = *e
	return nil
}

func (s *Store) GetEvent(ctx context.Context, id uint64) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.st.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (s *Store) ListEventSummaries(ctx context.Context) ([]model.EventSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.EventSummary{}
	for _, e := range s.st.events {
		sum := model.EventSummary{Event: e, Invited: len(s.st.attendees)}
		for _, r := range s.st.regs {
			if r.EventID == e.ID && r.Confirmed != nil && *r.Confirmed {
				sum.Confirmed++
			}
		}
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.After(out[j].StartDate)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) GetRegistration(ctx context.Context, id uint64) (*model.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.st.regs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (s *Store) regFor(eventID, attendeeID uint64) (model.Registration, bool) {
	for _, r := range s.st.regs {
		if r.EventID == eventID && r.AttendeeID == attendeeID {
			return r, true
		}
	}
	return model.Registration{}, false
}

func (s *Store) GetRegistrationFor(ctx context.Context, eventID, attendeeID uint64) (*model.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.regFor(eventID, attendeeID)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (s *Store) EnsureRegistration(ctx context.Context, seed *model.Registration) (bool, error) {
	if err := s.fail("EnsureRegistration"); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.regFor(seed.EventID, seed.AttendeeID); ok {
		*seed = r
		return false, nil
	}
	if seed.CreatedAt.IsZero() {
		seed.CreatedAt = time.Now().UTC()
	}
	seed.ID = s.next("registros")
	stored := *seed
	stored.ConfirmedAt = datetime(seed.ConfirmedAt)
	s.st.regs[seed.ID] = stored
	return true, nil
}

func (s *Store) UpdateRegistration(ctx context.Context, r *model.Registration) error {
	if err := s.fail("UpdateRegistration"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.st.regs[r.ID]
	if !ok {
		return nil
	}
	upd := *r
	upd.ConfirmedAt = datetime(r.ConfirmedAt)
	upd.EventID, upd.AttendeeID, upd.CreatedAt = cur.EventID, cur.AttendeeID, cur.CreatedAt
	s.st.regs[r.ID] = upd
	return nil
}

func (s *Store) CreateRegistrations(ctx context.Context, regs []model.Registration) (int, error) {
	if err := s.fail("CreateRegistrations"); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range regs {
		if _, ok := s.regFor(r.EventID, r.AttendeeID); ok {
			continue
		}
		r.ID = s.next("registros")
		s.st.regs[r.ID] = r
		n++
	}
	return n, nil
}

func (s *Store) ListUpcomingRegistrations(ctx context.Context, attendeeID uint64, from time.Time) ([]model.UpcomingRegistration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.UpcomingRegistration{}
	for _, r := range s.st.regs {
		ev := s.st.events[r.EventID]
		if r.AttendeeID == attendeeID && !ev.StartDate.Before(from) {
			out = append(out, model.UpcomingRegistration{Registration: r, Event: ev})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Event.StartDate.Equal(out[j].Event.StartDate) {
			return out[i].Event.StartDate.Before(out[j].Event.StartDate)
		}
		return out[i].Event.ID < out[j].Event.ID
	})
	return out, nil
}

func (s *Store) attendanceFor(registrationID uint64) (model.Attendance, bool) {
	for _, a := range s.st.attendance {
		if a.RegistrationID == registrationID {
			return a, true
		}
	}
	return model.Attendance{}, false
}

func (s *Store) GetAttendanceByRegistration(ctx context.Context, registrationID uint64) (*model.Attendance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attendanceFor(registrationID)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (s *Store) EnsureAttendance(ctx context.Context, seed *model.Attendance) (bool, error) {
	if err := s.fail("EnsureAttendance"); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.attendanceFor(seed.RegistrationID); ok {
		*seed = a
		return false, nil
	}
	if seed.CreatedAt.IsZero() {
		seed.CreatedAt = time.Now().UTC()
	}
	seed.ID = s.next("asistencia")
	stored := *seed
	stored.EntryAt = datetime(seed.EntryAt)
	s.st.attendance[seed.ID] = stored
	return true, nil
}

// UpdateAttendance keeps an existing entry time, like the COALESCE in the
// SQL statement.
func (s *Store) UpdateAttendance(ctx context.Context, a *model.Attendance) error {
	if err := s.fail("UpdateAttendance"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.st.attendance[a.ID]
	if !ok {
		return nil
	}
	upd := *a
	upd.EntryAt = datetime(a.EntryAt)
	if cur.EntryAt != nil {
		upd.EntryAt = cur.EntryAt
	}
	upd.RegistrationID, upd.CreatedAt = cur.RegistrationID, cur.CreatedAt
	s.st.attendance[a.ID] = upd
	return nil
}

func (s *Store) EnsureWalkIn(ctx context.Context, g *model.WalkInGuest) (bool, error) {
	if err := s.fail("EnsureWalkIn"); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.st.walkins {
		if w.PersonID == g.PersonID && w.EventID == g.EventID {
			g.ID = w.ID
			return false, nil
		}
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	g.ID = s.next("invitados_ultimo_momento")
	s.st.walkins[g.ID] = *g
	return true, nil
}

func (s *Store) ListRoster(ctx context.Context, eventID uint64) ([]model.RosterRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.RosterRow{}
	for _, r := range s.st.regs {
		if r.EventID != eventID {
			continue
		}
		a, ok := s.st.attendees[r.AttendeeID]
		if !ok {
			continue
		}
		p := s.st.persons[r.AttendeeID]
		row := model.RosterRow{
			RegistrationID: r.ID,
			AttendeeID:     r.AttendeeID,
			FullName:       p.FullName,
			Email:          p.Email,
			Company:        p.Company,
			Intent:         r.Intent,
			Confirmed:      r.Confirmed,
			Guests:         r.Guests,
			Comments:       r.Comments,
		}
		if role := s.roleByID(a.RoleID); role != nil {
			row.RoleName = role.Name
		}
		if att, ok := s.attendanceFor(r.ID); ok && att.EntryAt != nil {
			row.CheckedIn = true
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FullName != out[j].FullName {
			return out[i].FullName < out[j].FullName
		}
		return out[i].RegistrationID < out[j].RegistrationID
	})
	return out, nil
}

func (s *Store) InsertLog(ctx context.Context, l *model.LogEntry) error {
	if err := s.fail("InsertLog"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l.ID = s.next("logs")
	s.st.logs = append(s.st.logs, *l)
	return nil
}

func (s *Store) ListLogs(ctx context.Context, limit int) ([]model.LogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.LogEntry{}
	for i := len(s.st.logs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.st.logs[i])
	}
	return out, nil
}

func (s *Store) CreateSuggestion(ctx context.Context, sg *model.Suggestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sg.ID = s.next("buzon_comentarios")
	s.st.suggestions = append(s.st.suggestions, *sg)
	return nil
}

func (s *Store) ListSuggestions(ctx context.Context) ([]model.Suggestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Suggestion, 0, len(s.st.suggestions))
	for i := len(s.st.suggestions) - 1; i >= 0; i-- {
		out = append(out, s.st.suggestions[i])
	}
	return out, nil
}
