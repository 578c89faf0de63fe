package storetest

import (
	"time"

	"github.com/agfi/registro-backend/internal/model"
)

// AddPerson inserts a person without an attendee row and returns its id.
func (s *Store) AddPerson(name, email, credential string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next("personas")
	s.st.persons[id] = model.Person{ID: id, FullName: name, Email: email, Credential: credential, CreatedAt: time.Now().UTC()}
	return id
}

// AddAttendee inserts a person with an attendee row of the given role and
// returns its id.
func (s *Store) AddAttendee(name, email string, role model.RoleName) uint64 {
	id := s.AddPerson(name, email, "secreto")
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.st.roles[role]
	s.st.attendees[id] = model.Attendee{ID: id, RoleID: &r.ID, Active: true}
	return id
}

// AddEvent inserts an event starting on date and returns its id.
func (s *Store) AddEvent(name string, date time.Time) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next("eventos")
	s.st.events[id] = model.Event{ID: id, Code: "EV-T" + name, Name: name, StartDate: date, CreatedAt: time.Now().UTC()}
	return id
}

// PutRegistration stores r as is and returns its id.
func (s *Store) PutRegistration(r model.Registration) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.next("registros")
	s.st.regs[r.ID] = r
	return r.ID
}

// PutAttendance stores a as is and returns its id.
func (s *Store) PutAttendance(a model.Attendance) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.next("asistencia")
	s.st.attendance[a.ID] = a
	return a.ID
}

// Counts reports the number of rows per table.
type Counts struct {
	Persons, Attendees, Medical, Events, Registrations, Attendances, WalkIns, Logs int
}

func (s *Store) Counts() Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Counts{
		Persons:       len(s.st.persons),
		Attendees:     len(s.st.attendees),
		Medical:       len(s.st.medical),
		Events:        len(s.st.events),
		Registrations: len(s.st.regs),
		Attendances:   len(s.st.attendance),
		WalkIns:       len(s.st.walkins),
		Logs:          len(s.st.logs),
	}
}

// Logs returns every audit entry in insertion order.
func (s *Store) Logs() []model.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.LogEntry(nil), s.st.logs...)
}
