package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agfi/registro-backend/internal/service"
)

// ProfileHandler serves the self-service endpoints under /perfil.
type ProfileHandler struct {
	svc *service.Service
}

func NewProfileHandler(svc *service.Service) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

// Me handles GET /perfil/me.
func (h *ProfileHandler) Me(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.svc.Me(ctx, actor(c))
	if err != nil {
		return fail(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"perfil": profileView(p)})
}

type profileBody struct {
	NombreCompleto *string `json:"nombre_completo" validate:"omitempty,max=200"`
	Correo         *string `json:"correo" validate:"omitempty,max=150"`
	Telefono       *string `json:"telefono" validate:"omitempty,max=30"`
	Empresa        *string `json:"empresa" validate:"omitempty,max=150"`
	Puesto         *string `json:"puesto" validate:"omitempty,max=150"`
	Experiencia    *string `json:"experiencia"`
}

// UpdateMe handles PUT /perfil/me.
func (h *ProfileHandler) UpdateMe(c echo.Context) error {
	var body profileBody
	if err := bind(c, &body); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	err := h.svc.UpdateMe(ctx, actor(c), service.ProfileInput{
		FullName:   body.NombreCompleto,
		Email:      body.Correo,
		Phone:      body.Telefono,
		Company:    body.Empresa,
		JobTitle:   body.Puesto,
		Experience: body.Experiencia,
	})
	if err != nil {
		return fail(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"message": "Datos personales actualizados correctamente."})
}

// Medical handles GET /perfil/medico. A user without a record gets null.
func (h *ProfileHandler) Medical(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	md, err := h.svc.Medical(ctx, actor(c))
	if err != nil {
		return fail(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"medico": medicalView(md)})
}

type medicalBody struct {
	TipoSangre                 *string `json:"tipo_sangre" validate:"omitempty,max=5"`
	Alergias                   *string `json:"alergias"`
	MedicamentosActuales       *string `json:"medicamentos_actuales"`
	Padecimientos              *string `json:"padecimientos"`
	ContactoEmergenciaNombre   *string `json:"contacto_emergencia_nombre" validate:"omitempty,max=150"`
	ContactoEmergenciaTelefono *string `json:"contacto_emergencia_telefono" validate:"omitempty,max=30"`
}

// UpdateMedical handles PUT /perfil/medico.
func (h *ProfileHandler) UpdateMedical(c echo.Context) error {
	var body medicalBody
	if err := bind(c, &body); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	err := h.svc.UpdateMedical(ctx, actor(c), service.MedicalInput{
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
	return success(c, http.StatusOK, echo.Map{"message": "Consideraciones médicas actualizadas correctamente."})
}

// UpcomingEvents handles GET /perfil/eventos_proximos.
func (h *ProfileHandler) UpcomingEvents(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.svc.UpcomingEvents(ctx, actor(c))
	if err != nil {
		return fail(c, err)
	}
	out := make([]echo.Map, 0, len(list))
	for _, u := range list {
		out = append(out, echo.Map{
			"registro": registrationView(&u.Registration),
			"evento":   eventView(&u.Event),
		})
	}
	return success(c, http.StatusOK, echo.Map{"eventos": out})
}

type rsvpBody struct {
	Asistencia  *string `json:"asistencia" validate:"omitempty,intent"`
	Invitados   *int    `json:"invitados" validate:"omitempty,gte=0"`
	Comentarios *string `json:"comentarios"`
	Confirmado  *bool   `json:"confirmado"`
}

// RSVP handles PUT /perfil/eventos/:id_registro/rsvp.
func (h *ProfileHandler) RSVP(c echo.Context) error {
	regID := parseID(c.Param("id_registro"))
	if regID == 0 {
		return failure(c, http.StatusBadRequest, "id_registro inválido.")
	}
	var body rsvpBody
	if err := bind(c, &body); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	reg, err := h.svc.RSVP(ctx, actor(c), regID, service.RSVPInput{
		Intent:    body.Asistencia,
		Guests:    body.Invitados,
		Comments:  body.Comentarios,
		Confirmed: body.Confirmado,
	})
	if err != nil {
		return fail(c, err)
	}
	return success(c, http.StatusOK, echo.Map{
		"message":  "Confirmación actualizada correctamente.",
		"registro": registrationView(reg),
	})
}

type suggestionBody struct {
	Asunto            string `json:"asunto" validate:"max=200"`
	Mensaje           string `json:"mensaje"`
	EventoRelacionado string `json:"evento_relacionado" validate:"max=200"`
}

// Suggest handles POST /perfil/buzon. The author is not stored.
func (h *ProfileHandler) Suggest(c echo.Context) error {
	var body suggestionBody
	if err := bind(c, &body); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	sg, err := h.svc.Suggest(ctx, service.SuggestionInput{
		Subject:      body.Asunto,
		Message:      body.Mensaje,
		RelatedEvent: body.EventoRelacionado,
	})
	if err != nil {
		return fail(c, err)
	}
	return success(c, http.StatusCreated, echo.Map{
		"message":    "Gracias, tu comentario fue enviado.",
		"comentario": suggestionView(*sg),
	})
}
