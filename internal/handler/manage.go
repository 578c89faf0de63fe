package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/agfi/registro-backend/internal/badge"
	"github.com/agfi/registro-backend/internal/service"
)

// maxImportSize bounds an uploaded roster file.
const maxImportSize = 10 << 20

// ManageHandler serves the management operations. The same handler set is
// mounted under /admin and /staff; the role guard lives in the router and
// the service checks the actor again.
type ManageHandler struct {
	svc    *service.Service
	badges *badge.Renderer
}

// NewManageHandler constructs a ManageHandler. A nil renderer draws badges
// without a logo.
func NewManageHandler(svc *service.Service, badges *badge.Renderer) *ManageHandler {
	if badges == nil {
		badges = &badge.Renderer{}
	}
	return &ManageHandler{svc: svc, badges: badges}
}

// Verify handles GET /verify: the panel asks whether the token may enter.
func (h *ManageHandler) Verify(c echo.Context) error {
	a := actor(c)
	if err := h.svc.Verify(a); err != nil {
		return fail(c, err)
	}
	return success(c, http.StatusOK, echo.Map{
		"user": echo.Map{"id_persona": a.PersonID, "correo": a.Email, "nombre": a.Name, "rol": string(a.Role)},
	})
}

// ---- events ----

type eventBody struct {
	Nombre    string `json:"nombre" validate:"max=200"`
	Fecha     string `json:"fecha" validate:"omitempty,datetime=2006-01-02"`
	Lugar     string `json:"lugar" validate:"max=200"`
	Direccion string `json:"direccion" validate:"max=255"`
	Ciudad    string `json:"ciudad" validate:"max=100"`
	Estado    string `json:"estado" validate:"max=100"`
	Pais      string `json:"pais" validate:"max=100"`
	Notas     string `json:"notas"`
}

// ListEvents handles GET /eventos.
func (h *ManageHandler) ListEvents(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.svc.ListEvents(ctx, actor(c))
	if err != nil {
		return fail(c, err)
	}
	out := make([]echo.Map, 0, len(list))
	for _, ev := range list {
		out = append(out, eventSummaryView(ev))
	}
	return success(c, http.StatusOK, echo.Map{"eventos": out})
}

// CreateEvent handles POST /eventos.
func (h *ManageHandler) CreateEvent(c echo.Context) error {
	var body eventBody
	if err := bind(c, &body); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	ev, created, err := h.svc.CreateEvent(ctx, actor(c), service.EventInput{
		Name:    body.Nombre,
		Date:    body.Fecha,
		Venue:   body.Lugar,
		Address: body.Direccion,
		City:    body.Ciudad,
		State:   body.Estado,
		Country: body.Pais,
		Notes:   body.Notas,
	})
	if err != nil {
		return fail(c, err)
	}
	return success(c, http.StatusCreated, echo.Map{
		"message":           "Evento creado correctamente.",
		"evento":            eventView(ev),
		"registros_creados": created,
	})
}

// ---- attendees ----

type attendeeBody struct {
	Nombre          string `json:"nombre" validate:"max=200"`
	Correo          string `json:"correo" validate:"omitempty,email,max=150"`
	Password        string `json:"password" validate:"max=255"`
	Telefono        string `json:"telefono" validate:"max=30"`
	Empresa         string `json:"empresa" validate:"max=150"`
	Puesto          string `json:"puesto" validate:"max=150"`
	Rol             string `json:"rol" validate:"max=50"`
	Carrera         string `json:"carrera" validate:"max=150"`
	Generacion      string `json:"generacion" validate:"max=50"`
	FechaNacimiento string `json:"fecha_nacimiento"`
	Experiencia     string `json:"experiencia"`

	TipoSangre                 string `json:"tipo_sangre" validate:"max=5"`
	Alergias                   string `json:"alergias"`
	MedicamentosActuales       string `json:"medicamentos_actuales"`
	Padecimientos              string `json:"padecimientos"`
	ContactoEmergenciaNombre   string `json:"contacto_emergencia_nombre" validate:"max=150"`
	ContactoEmergenciaTelefono string `json:"contacto_emergencia_telefono" validate:"max=30"`
}

// ListAttendees handles GET /asistentes.
func (h *ManageHandler) ListAttendees(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.svc.ListAttendees(ctx, actor(c))
	if err != nil {
		return fail(c, err)
	}
	out := make([]echo.Map, 0, len(list))
	for _, a := range list {
		out = append(out, echo.Map{
			"id_asistente": a.AttendeeID,
			"nombre":       a.FullName,
			"correo":       a.Email,
			"empresa":      a.Company,
			"rol":          string(a.RoleName),
		})
	}
	return success(c, http.StatusOK, echo.Map{"asistentes": out})
}

// GetAttendee handles GET /asistentes/:id.
func (h *ManageHandler) GetAttendee(c echo.Context) error {
	id := parseID(c.Param("id"))
	if id == 0 {
		return failure(c, http.StatusBadRequest, "id_asistente inválido.")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.svc.AttendeeProfile(ctx, actor(c), id)
	if err != nil {
		return fail(c, err)
	}
	return success(c, http.StatusOK, echo.Map{
		"asistente": attendeeProfileView(p, service.BadgeCode(h.svc.BadgePrefix(), id)),
	})
}

// CreateAttendee handles POST /asistentes.
func (h *ManageHandler) CreateAttendee(c echo.Context) error {
	var body attendeeBody
	if err := bind(c, &body); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.svc.CreateAttendee(ctx, actor(c), service.AttendeeInput{
		Name:                  body.Nombre,
		Email:                 body.Correo,
		Password:              body.Password,
		Phone:                 body.Telefono,
		Company:               body.Empresa,
		JobTitle:              body.Puesto,
		Role:                  body.Rol,
		Program:               body.Carrera,
		Cohort:                body.Generacion,
		BirthDate:             body.FechaNacimiento,
		Experience:            body.Experiencia,
		BloodType:             body.TipoSangre,
		Allergies:             body.Alergias,
		CurrentMedications:    body.MedicamentosActuales,
		Conditions:            body.Padecimientos,
		EmergencyContactName:  body.ContactoEmergenciaNombre,
		EmergencyContactPhone: body.ContactoEmergenciaTelefono,
	})
	if err != nil {
		return fail(c, err)
	}
	return success(c, http.StatusCreated, echo.Map{
		"message":   "Asistente creado correctamente.",
		"asistente": attendeeProfileView(p, service.BadgeCode(h.svc.BadgePrefix(), p.Attendee.ID)),
	})
}

// ---- check-in ----

// Lookup handles GET /qr_lookup?code=&id_evento=.
func (h *ManageHandler) Lookup(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.svc.Lookup(ctx, actor(c), c.QueryParam("code"), parseID(c.QueryParam("id_evento")))
	if err != nil {
		return fail(c, err)
	}
	return success(c, http.StatusOK, echo.Map{
		"asistente":  attendeeView(res.Profile, res.BadgeCode),
		"registro":   registrationView(res.Registration),
		"asistencia": attendanceView(res.Attendance),
	})
}

// checkInBody uses pointers so an absent key leaves the column alone.
type checkInBody struct {
	IDEvento    flexID  `json:"id_evento"`
	IDAsistente *flexID `json:"id_asistente"`
	Code        string  `json:"code"`

	Nombre      *string `json:"nombre" validate:"omitempty,max=200"`
	Correo      *string `json:"correo" validate:"omitempty,max=150"`
	Empresa     *string `json:"empresa" validate:"omitempty,max=150"`
	Telefono    *string `json:"telefono" validate:"omitempty,max=30"`
	Carrera     *string `json:"carrera" validate:"omitempty,max=150"`
	Generacion  *string `json:"generacion" validate:"omitempty,max=50"`
	Experiencia *string `json:"experiencia"`
	Rol         *string `json:"rol" validate:"omitempty,max=50"`

	TipoSangre                 *string `json:"tipo_sangre" validate:"omitempty,max=5"`
	Alergias                   *string `json:"alergias"`
	MedicamentosActuales       *string `json:"medicamentos_actuales"`
	Padecimientos              *string `json:"padecimientos"`
	ContactoEmergenciaNombre   *string `json:"contacto_emergencia_nombre" validate:"omitempty,max=150"`
	ContactoEmergenciaTelefono *string `json:"contacto_emergencia_telefono" validate:"omitempty,max=30"`
}

// CheckIn handles POST /qr_checkin.
func (h *ManageHandler) CheckIn(c echo.Context) error {
	var body checkInBody
	if err := bind(c, &body); err != nil {
		return err
	}
	in := service.CheckInInput{
		EventID:               uint64(body.IDEvento),
		Code:                  body.Code,
		Name:                  body.Nombre,
		Email:                 body.Correo,
		Company:               body.Empresa,
		Phone:                 body.Telefono,
		Program:               body.Carrera,
		Cohort:                body.Generacion,
		Experience:            body.Experiencia,
		Role:                  body.Rol,
		BloodType:             body.TipoSangre,
		Allergies:             body.Alergias,
		CurrentMedications:    body.MedicamentosActuales,
		Conditions:            body.Padecimientos,
		EmergencyContactName:  body.ContactoEmergenciaNombre,
		EmergencyContactPhone: body.ContactoEmergenciaTelefono,
	}
	if body.IDAsistente != nil {
		id := uint64(*body.IDAsistente)
		in.AttendeeID = &id
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.svc.CheckIn(ctx, actor(c), in)
	if err != nil {
		return fail(c, err)
	}
	return success(c, http.StatusOK, echo.Map{
		"message": "Datos actualizados y asistencia registrada correctamente.",
		"detalles": echo.Map{
			"id_asistente":      res.AttendeeID,
			"id_evento":         res.EventID,
			"id_registro":       res.RegistrationID,
			"id_asistencia":     res.AttendanceID,
			"hora_entrada":      isoTime(res.EntryAt),
			"registro_creado":   res.RegistrationCreated,
			"asistencia_creada": res.AttendanceCreated,
		},
	})
}

type walkInBody struct {
	IDEvento   flexID `json:"id_evento"`
	Nombre     string `json:"nombre" validate:"max=200"`
	Correo     string `json:"correo" validate:"omitempty,email,max=150"`
	Empresa    string `json:"empresa" validate:"max=150"`
	Rol        string `json:"rol" validate:"max=50"`
	Carrera    string `json:"carrera" validate:"max=150"`
	Generacion string `json:"generacion" validate:"max=50"`
}

// WalkIn handles POST /alta_express.
func (h *ManageHandler) WalkIn(c echo.Context) error {
	var body walkInBody
	if err := bind(c, &body); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.svc.WalkIn(ctx, actor(c), service.WalkInInput{
		EventID: uint64(body.IDEvento),
		Name:    body.Nombre,
		Email:   body.Correo,
		Company: body.Empresa,
		Role:    body.Rol,
		Program: body.Carrera,
		Cohort:  body.Generacion,
	})
	if err != nil {
		return fail(c, err)
	}
	return success(c, http.StatusOK, echo.Map{
		"message": "Invitado de último momento dado de alta y asistencia registrada.",
		"data": echo.Map{
			"id_persona":          res.PersonID,
			"id_asistente":        res.AttendeeID,
			"id_evento":           res.EventID,
			"id_registro":         res.RegistrationID,
			"id_asistencia":       res.AttendanceID,
			"id_invitado_ulm":     res.WalkInID,
			"codigo_qr":           res.BadgeCode,
			"hora_entrada":        isoTime(res.EntryAt),
			"persona_creada":      res.PersonCreated,
			"asistente_creado":    res.AttendeeCreated,
			"invitado_ulm_creado": res.WalkInCreated,
			"registro_creado":     res.RegistrationCreated,
			"asistencia_creada":   res.AttendanceCreated,
		},
	})
}

// ---- roster ----

// Roster handles GET /pase_lista?id_evento=.
func (h *ManageHandler) Roster(c echo.Context) error {
	eventID := parseID(c.QueryParam("id_evento"))
	if eventID == 0 {
		return failure(c, http.StatusBadRequest, "id_evento es requerido.")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	view, err := h.svc.Roster(ctx, actor(c), eventID)
	if err != nil {
		return fail(c, err)
	}
	rows := make([]echo.Map, 0, len(view.Rows))
	for _, r := range view.Rows {
		rows = append(rows, rosterRowView(r))
	}
	return success(c, http.StatusOK, echo.Map{
		"evento":    eventView(view.Event),
		"registros": rows,
	})
}

// ExportRoster handles GET /pase_lista_csv?id_evento=.
func (h *ManageHandler) ExportRoster(c echo.Context) error {
	eventID := parseID(c.QueryParam("id_evento"))
	if eventID == 0 {
		return failure(c, http.StatusBadRequest, "id_evento es requerido.")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	name, data, err := h.svc.ExportCSV(ctx, actor(c), eventID)
	if err != nil {
		return fail(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", data)
}

// ImportRoster handles POST /pase_lista_import (multipart: id_evento, file).
func (h *ManageHandler) ImportRoster(c echo.Context) error {
	eventID := parseID(c.FormValue("id_evento"))
	if eventID == 0 {
		return failure(c, http.StatusBadRequest, "id_evento es requerido.")
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return failure(c, http.StatusBadRequest, "Falta el archivo CSV (campo file).")
	}
	if fh.Size > maxImportSize {
		return failure(c, http.StatusRequestEntityTooLarge, "El archivo es demasiado grande.")
	}
	f, err := fh.Open()
	if err != nil {
		return failure(c, http.StatusBadRequest, "No se pudo leer el archivo.")
	}
	defer f.Close()

	ctx, cancel := reqCtx(c)
	defer cancel()
	sum, err := h.svc.ImportCSV(ctx, actor(c), eventID, f)
	if err != nil {
		return fail(c, err)
	}
	missed := make([]echo.Map, 0, len(sum.Missed))
	for _, m := range sum.Missed {
		missed = append(missed, echo.Map{
			"linea":  m.Line,
			"motivo": m.Reason,
			"correo": m.Email,
			"fila":   m.Row,
		})
	}
	return success(c, http.StatusOK, echo.Map{
		"message": "Importación completada.",
		"resumen": echo.Map{
			"filas_totales":          sum.Total,
			"registros_creados":      sum.Created,
			"registros_actualizados": sum.Updated,
			"no_encontrados":         missed,
		},
	})
}

// ---- badges ----

// Badge handles GET /credencial/:file where file is "<id>.png".
func (h *ManageHandler) Badge(c echo.Context) error {
	id := parseID(strings.TrimSuffix(c.Param("file"), ".png"))
	if id == 0 {
		return failure(c, http.StatusBadRequest, "id_asistente inválido.")
	}
	card, err := h.card(c, id)
	if err != nil {
		return fail(c, err)
	}
	data, err := h.badges.Front(card)
	if err != nil {
		return fail(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, "inline; filename="+strconv.Quote(badge.FrontName(id)))
	return c.Blob(http.StatusOK, "image/png", data)
}

// BadgeZip handles GET /credencial_zip/:id.
func (h *ManageHandler) BadgeZip(c echo.Context) error {
	id := parseID(c.Param("id"))
	if id == 0 {
		return failure(c, http.StatusBadRequest, "id_asistente inválido.")
	}
	card, err := h.card(c, id)
	if err != nil {
		return fail(c, err)
	}
	data, err := h.badges.Zip(card)
	if err != nil {
		return fail(c, err)
	}
	name := fmt.Sprintf("credencial_%d.zip", id)
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+strconv.Quote(name))
	return c.Blob(http.StatusOK, "application/zip", data)
}

func (h *ManageHandler) card(c echo.Context, id uint64) (badge.Card, error) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.svc.AttendeeProfile(ctx, actor(c), id)
	if err != nil {
		return badge.Card{}, err
	}
	return badge.CardFor(p, service.BadgeCode(h.svc.BadgePrefix(), id)), nil
}

// ---- extras ----

// Suggestions handles GET /buzon.
func (h *ManageHandler) Suggestions(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.svc.Suggestions(ctx, actor(c))
	if err != nil {
		return fail(c, err)
	}
	out := make([]echo.Map, 0, len(list))
	for _, s := range list {
		out = append(out, suggestionView(s))
	}
	return success(c, http.StatusOK, echo.Map{"comentarios": out})
}

// Logs handles GET /logs?limit=N.
func (h *ManageHandler) Logs(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.svc.Logs(ctx, actor(c), limit)
	if err != nil {
		return fail(c, err)
	}
	out := make([]echo.Map, 0, len(list))
	for _, l := range list {
		out = append(out, logView(l))
	}
	return success(c, http.StatusOK, echo.Map{"logs": out})
}
