package handler

// view.go renders models with the Spanish JSON keys the clients consume.

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/agfi/registro-backend/internal/model"
	"github.com/agfi/registro-backend/internal/service"
)

const dateLayout = "2006-01-02"

func isoTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

func eventView(ev *model.Event) echo.Map {
	return echo.Map{
		"id_evento": ev.ID,
		"codigo":    ev.Code,
		"nombre":    ev.Name,
		"fecha":     ev.StartDate.Format(dateLayout),
		"lugar":     ev.Venue,
		"direccion": ev.Address,
		"ciudad":    ev.City,
		"estado":    ev.State,
		"pais":      ev.Country,
		"notas":     ev.Notes,
	}
}

func eventSummaryView(s model.EventSummary) echo.Map {
	m := eventView(&s.Event)
	m["invitados"] = s.Invited
	m["confirmados"] = s.Confirmed
	return m
}

func roleName(r *model.Role) interface{} {
	if r == nil {
		return nil
	}
	return string(r.Name)
}

// medicalInto copies the medical keys into m. A missing record adds nothing.
func medicalInto(m echo.Map, md *model.Medical) {
	if md == nil {
		return
	}
	m["tipo_sangre"] = md.BloodType
	m["alergias"] = md.Allergies
	m["medicamentos_actuales"] = md.CurrentMedications
	m["padecimientos"] = md.Conditions
	m["contacto_emergencia_nombre"] = md.EmergencyContactName
	m["contacto_emergencia_telefono"] = md.EmergencyContactPhone
}

func medicalView(md *model.Medical) echo.Map {
	if md == nil {
		return nil
	}
	m := echo.Map{}
	medicalInto(m, md)
	return m
}

// attendeeView is the scanned-badge view of an attendee.
func attendeeView(p *model.AttendeeProfile, code string) echo.Map {
	m := echo.Map{
		"id_asistente": p.Attendee.ID,
		"codigo_qr":    code,
		"nombre":       p.Person.FullName,
		"correo":       p.Person.Email,
		"empresa":      p.Person.Company,
		"telefono":     p.Person.Phone,
		"carrera":      p.Person.Program,
		"generacion":   p.Attendee.Cohort,
		"rol":          roleName(p.Role),
	}
	medicalInto(m, p.Medical)
	return m
}

func attendeeProfileView(p *model.AttendeeProfile, code string) echo.Map {
	m := attendeeView(p, code)
	m["puesto"] = p.Person.JobTitle
	m["experiencia"] = p.Attendee.Experience
	m["mes_cumple"] = p.Attendee.BirthMonth
	m["dia_cumple"] = p.Attendee.BirthDay
	m["activo"] = p.Attendee.Active
	if p.Role != nil {
		m["costo_evento"] = p.Role.EventCost
	}
	return m
}

func registrationView(r *model.Registration) echo.Map {
	if r == nil {
		return nil
	}
	return echo.Map{
		"id_registro":        r.ID,
		"id_evento":          r.EventID,
		"asistencia_estado":  string(r.Intent),
		"confirmado":         r.Confirmed,
		"fecha_confirmacion": isoTime(r.ConfirmedAt),
		"invitados":          r.Guests,
		"comentarios":        r.Comments,
	}
}

func attendanceView(a *model.Attendance) echo.Map {
	if a == nil {
		return nil
	}
	return echo.Map{
		"id_asistencia":  a.ID,
		"hora_entrada":   isoTime(a.EntryAt),
		"numero_mesa":    a.Table,
		"numero_asiento": a.Seat,
		"codigo_gafete":  a.BadgeCode,
	}
}

func rosterRowView(r model.RosterRow) echo.Map {
	return echo.Map{
		"id_registro":       r.RegistrationID,
		"id_asistente":      r.AttendeeID,
		"nombre":            r.FullName,
		"correo":            r.Email,
		"empresa":           r.Company,
		"rol":               string(r.RoleName),
		"asistencia_estado": string(r.Intent),
		"confirmado":        r.Confirmed,
		"invitados":         r.Guests,
		"comentarios":       r.Comments,
		"check_in":          r.CheckedIn,
	}
}

func personView(p *model.Person) echo.Map {
	return echo.Map{
		"id_persona":      p.ID,
		"nombre_completo": p.FullName,
		"correo":          p.Email,
		"telefono":        p.Phone,
		"empresa":         p.Company,
		"puesto":          p.JobTitle,
		"carrera":         p.Program,
	}
}

func profileView(p *service.Profile) echo.Map {
	m := echo.Map{"persona": personView(&p.Person), "asistente": nil}
	if p.Attendee != nil {
		m["asistente"] = echo.Map{
			"id_asistente": p.Attendee.ID,
			"generacion":   p.Attendee.Cohort,
			"experiencia":  p.Attendee.Experience,
			"mes_cumple":   p.Attendee.BirthMonth,
			"dia_cumple":   p.Attendee.BirthDay,
			"activo":       p.Attendee.Active,
			"rol":          roleName(p.Role),
		}
	}
	m["medico"] = medicalView(p.Medical)
	return m
}

func suggestionView(s model.Suggestion) echo.Map {
	return echo.Map{
		"id_comentario":      s.ID,
		"asunto":             s.Subject,
		"mensaje":            s.Message,
		"evento_relacionado": s.RelatedEvent,
		"creado_en":          s.CreatedAt.Format(time.RFC3339),
	}
}

func logView(l model.LogEntry) echo.Map {
	return echo.Map{
		"id_log":          l.ID,
		"actor":           l.Actor,
		"accion":          l.Action,
		"descripcion":     l.Description,
		"id_evento":       l.EventID,
		"id_asistente":    l.AttendeeID,
		"id_registro":     l.RegistrationID,
		"id_invitado_ulm": l.WalkInID,
		"creado_en":       l.CreatedAt.Format(time.RFC3339),
	}
}

// flexID accepts an id sent either as a JSON number or as a numeric string.
type flexID uint64

func (f *flexID) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" || s == `""` {
		*f = 0
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		s = s[1 : len(s)-1]
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return err
	}
	*f = flexID(n)
	return nil
}

// parseID reads a positive integer path or query parameter. Zero means
// absent or malformed.
func parseID(s string) uint64 {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
