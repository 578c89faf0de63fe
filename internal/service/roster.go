package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/agfi/registro-backend/internal/metrics"
	"github.com/agfi/registro-backend/internal/model"
	"github.com/agfi/registro-backend/internal/repository"
)

// RosterColumns is the header of the exported roster, in order. Import
// reads the same names.
var RosterColumns = []string{
	"id_evento", "codigo_evento", "nombre_evento", "fecha_evento",
	"id_registro", "id_asistente", "nombre", "correo", "empresa", "rol",
	"asistencia_estado", "confirmado", "invitados", "comentarios", "check_in",
}

const utf8BOM = "\ufeff"

// Import miss reasons.
const (
	MissNoEmail  = "sin_correo"
	MissNotFound = "persona_o_asistente_no_encontrado"
)

// RosterView is an event with its registrations ordered by name.
type RosterView struct {
	Event *model.Event
	Rows  []model.RosterRow
}

// Roster returns the attendance list of an event.
func (s *Service) Roster(ctx context.Context, actor Actor, eventID uint64) (*RosterView, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	ev, err := s.event(ctx, eventID)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.ListRoster(ctx, eventID)
	if err != nil {
		return nil, wrapRepo(err, "")
	}
	return &RosterView{Event: ev, Rows: rows}, nil
}

// ExportCSV renders the roster of an event as a UTF-8 CSV with BOM and
// returns it with its download file name.
func (s *Service) ExportCSV(ctx context.Context, actor Actor, eventID uint64) (string, []byte, error) {
	view, err := s.Roster(ctx, actor, eventID)
	if err != nil {
		return "", nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(utf8BOM)
	w := csv.NewWriter(&buf)
	if err := w.Write(RosterColumns); err != nil {
		return "", nil, internal("No se pudo generar el CSV.", err)
	}
	ev := view.Event
	for _, r := range view.Rows {
		rec := []string{
			strconv.FormatUint(ev.ID, 10),
			ev.Code,
			ev.Name,
			ev.StartDate.Format("2006-01-02"),
			strconv.FormatUint(r.RegistrationID, 10),
			strconv.FormatUint(r.AttendeeID, 10),
			r.FullName,
			r.Email,
			deref(r.Company),
			string(r.RoleName),
			string(r.Intent),
			formatConfirmed(r.Confirmed),
			strconv.Itoa(r.Guests),
			flatten(deref(r.Comments)),
			boolDigit(r.CheckedIn),
		}
		if err := w.Write(rec); err != nil {
			return "", nil, internal("No se pudo generar el CSV.", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", nil, internal("No se pudo generar el CSV.", err)
	}
	return fmt.Sprintf("pase_lista_evento_%d.csv", ev.ID), buf.Bytes(), nil
}

// ImportMiss is a CSV row that could not be applied.
type ImportMiss struct {
	Line   int
	Reason string
	Email  string
	Row    map[string]string
}

// ImportSummary aggregates the outcome of a roster import.
type ImportSummary struct {
	Total   int
	Created int
	Updated int
	Missed  []ImportMiss
}

// ImportCSV reconciles the registrations of an event against a CSV matched
// by email. Bad rows are reported in the summary and never fail the batch;
// the call only fails when the event is unknown or the file is unreadable.
func (s *Service) ImportCSV(ctx context.Context, actor Actor, eventID uint64, file io.Reader) (*ImportSummary, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	if _, err := s.event(ctx, eventID); err != nil {
		return nil, err
	}
	rows, err := readRosterCSV(file)
	if err != nil {
		return nil, err
	}

	sum := &ImportSummary{Missed: []ImportMiss{}}
	err = s.store.InTx(ctx, func(r Repos) error {
		now := s.now()
		*sum = ImportSummary{Missed: []ImportMiss{}}
		for i, row := range rows {
			sum.Total++
			line := i + 2
			email := strings.TrimSpace(row["correo"])
			if email == "" {
				sum.Missed = append(sum.Missed, ImportMiss{Line: line, Reason: MissNoEmail, Row: row})
				continue
			}
			attendeeID, found, err := attendeeByEmail(ctx, r, email)
			if err != nil {
				return err
			}
			if !found {
				sum.Missed = append(sum.Missed, ImportMiss{Line: line, Reason: MissNotFound, Email: email})
				continue
			}

			reg := model.NewRegistration(eventID, attendeeID, now)
			created, err := r.EnsureRegistration(ctx, &reg)
			if err != nil {
				return wrapRepo(err, "")
			}
			if created {
				sum.Created++
			} else {
				sum.Updated++
			}
			applyRosterRow(&reg, row, now)
			if err := r.UpdateRegistration(ctx, &reg); err != nil {
				return wrapRepo(err, "")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RosterImportRows.WithLabelValues("created").Add(float64(sum.Created))
	metrics.RosterImportRows.WithLabelValues("updated").Add(float64(sum.Updated))
	metrics.RosterImportRows.WithLabelValues("unmatched").Add(float64(len(sum.Missed)))
	s.audit.Record(ctx, Entry{
		Actor:  actor.label(),
		Action: "Importación de pase de lista",
		Description: fmt.Sprintf("Filas: %d, creados: %d, actualizados: %d, no encontrados: %d",
			sum.Total, sum.Created, sum.Updated, len(sum.Missed)),
		EventID: eventID,
	})
	return sum, nil
}

func attendeeByEmail(ctx context.Context, r Repos, email string) (uint64, bool, error) {
	p, err := r.GetPersonByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, wrapRepo(err, "")
	}
	a, err := r.GetAttendee(ctx, p.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, wrapRepo(err, "")
	}
	return a.ID, true, nil
}

// applyRosterRow copies the recognized columns of row into reg. Unknown
// intents, unparsable numbers and booleans, and empty comments leave the
// stored value alone.
func applyRosterRow(reg *model.Registration, row map[string]string, now time.Time) {
	intent := strings.TrimSpace(row["asistencia_estado"])
	if intent == "" {
		intent = strings.TrimSpace(row["asistencia"])
	}
	if in := model.AttendanceIntent(intent); in.Valid() {
		reg.Intent = in
	}
	if b, ok := ParseBool(row["confirmado"]); ok {
		reg.Confirmed = &b
		reg.ConfirmedAt = &now
	}
	if g := strings.TrimSpace(row["invitados"]); g != "" {
		if n, err := strconv.Atoi(g); err == nil && n >= 0 {
			reg.Guests = n
		}
	}
	if c := row["comentarios"]; c != "" {
		reg.Comments = &c
	}
}

// ParseBool is the tolerant boolean parser used by the roster import.
// ok is false when the value is not recognized.
func ParseBool(v string) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "t", "sí", "si", "yes", "y":
		return true, true
	case "0", "false", "f", "no", "n":
		return false, true
	}
	return false, false
}

// readRosterCSV decodes file into one map per data row keyed by header.
func readRosterCSV(file io.Reader) ([]map[string]string, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, invalid("No se pudo leer el archivo.")
	}
	data = bytes.TrimPrefix(data, []byte(utf8BOM))
	if !utf8.Valid(data) {
		return nil, invalid("No se pudo leer el archivo como UTF-8")
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, invalid("El archivo CSV no es válido.")
	}
	if len(records) == 0 {
		return []map[string]string{}, nil
	}

	header := records[0]
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	out := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(rec) {
				row[h] = rec[i]
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *Service) event(ctx context.Context, eventID uint64) (*model.Event, error) {
	if eventID == 0 {
		return nil, invalid("id_evento es requerido")
	}
	ev, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, wrapRepo(err, "Evento no encontrado")
	}
	return ev, nil
}

func formatConfirmed(b *bool) string {
	if b == nil {
		return ""
	}
	return boolDigit(*b)
}

func boolDigit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func flatten(s string) string {
	return strings.NewReplacer("\n", " ", "\r", " ").Replace(s)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
