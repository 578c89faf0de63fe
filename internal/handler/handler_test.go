package handler_test

import (
	"bytes"
	"encoding/json"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agfi/registro-backend/internal/config"
	"github.com/agfi/registro-backend/internal/handler"
	"github.com/agfi/registro-backend/internal/model"
	"github.com/agfi/registro-backend/internal/router"
	"github.com/agfi/registro-backend/internal/service"
	"github.com/agfi/registro-backend/internal/storetest"
	"github.com/agfi/registro-backend/internal/utils"
)

const secret = "clave-de-prueba"

type server struct {
	e     *echo.Echo
	store *storetest.Store
}

func newServer(t *testing.T) *server {
	t.Helper()
	store := storetest.New()
	svc := service.New(store, nil, nil, service.Options{
		BadgePrefix: "AGFI",
		JWTSecret:   secret,
		TokenTTL:    time.Hour,
	})
	e := echo.New()
	router.Setup(e, nil)
	router.RegisterRoutes(e, nil)
	router.RegisterAuth(e, handler.NewAuthHandler(svc), secret, config.RateLimitConfig{}, nil)
	router.RegisterManagement(e, handler.NewManageHandler(svc, nil), secret)
	router.RegisterProfile(e, handler.NewProfileHandler(svc), secret)
	return &server{e: e, store: store}
}

func bearer(t *testing.T, id uint64, role model.AccessRole) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, utils.Identity{
		PersonID: id, Email: "u" + string(role) + "@agfi.mx", Role: string(role),
	}, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func (s *server) do(t *testing.T, method, path, auth string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var out map[string]interface{}
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

// every JSON response carries ok in agreement with the status code
func assertEnvelope(t *testing.T, rec *httptest.ResponseRecorder, out map[string]interface{}) {
	t.Helper()
	require.NotNil(t, out)
	assert.Equal(t, rec.Code < 400, out["ok"], "ok flag for status %d", rec.Code)
}

func TestLogin(t *testing.T) {
	s := newServer(t)
	s.store.AddAttendee("Mesa de registro", "staff@agfi.mx", model.RoleStaff)

	rec, out := s.do(t, http.MethodPost, "/auth/login", "", echo.Map{"email": "staff@agfi.mx", "pass": "secreto"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assertEnvelope(t, rec, out)
	assert.Equal(t, "Login exitoso", out["message"])
	assert.NotEmpty(t, out["token"])
	user := out["user"].(map[string]interface{})
	assert.Equal(t, "staff", user["rol"])

	rec, out = s.do(t, http.MethodPost, "/auth/login", "", echo.Map{"correo": "staff@agfi.mx", "password": "otra"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assertEnvelope(t, rec, out)

	rec, out = s.do(t, http.MethodPost, "/auth/login", "", echo.Map{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assertEnvelope(t, rec, out)
}

func TestLogout_RequiresToken(t *testing.T) {
	s := newServer(t)

	rec, out := s.do(t, http.MethodPost, "/auth/logout", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assertEnvelope(t, rec, out)

	rec, out = s.do(t, http.MethodPost, "/auth/logout", bearer(t, 5, model.AccessUser), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assertEnvelope(t, rec, out)
	assert.Len(t, s.store.Logs(), 1)
}

func TestManagement_RoleGuard(t *testing.T) {
	s := newServer(t)

	for _, prefix := range []string{"/admin", "/staff"} {
		rec, out := s.do(t, http.MethodGet, prefix+"/eventos", bearer(t, 5, model.AccessUser), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code, prefix)
		assertEnvelope(t, rec, out)

		rec, out = s.do(t, http.MethodGet, prefix+"/eventos", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, prefix)
		assertEnvelope(t, rec, out)

		for _, role := range []model.AccessRole{model.AccessAdmin, model.AccessStaff} {
			rec, out = s.do(t, http.MethodGet, prefix+"/verify", bearer(t, 1, role), nil)
			assert.Equal(t, http.StatusOK, rec.Code, prefix)
			assertEnvelope(t, rec, out)
		}
	}
}

func TestCreateEvent(t *testing.T) {
	s := newServer(t)
	s.store.AddAttendee("Ana López", "ana@agfi.mx", model.RoleEngineer)
	auth := bearer(t, 1, model.AccessAdmin)

	rec, out := s.do(t, http.MethodPost, "/admin/eventos", auth, echo.Map{
		"nombre": "Cena anual", "fecha": "2026-05-20", "lugar": "Club de Industriales",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assertEnvelope(t, rec, out)
	assert.EqualValues(t, 1, out["registros_creados"])
	ev := out["evento"].(map[string]interface{})
	assert.Equal(t, "2026-05-20", ev["fecha"])
	assert.True(t, strings.HasPrefix(ev["codigo"].(string), "EV-"))

	rec, out = s.do(t, http.MethodPost, "/admin/eventos", auth, echo.Map{
		"nombre": "Cena anual", "fecha": "20/05/2026", "lugar": "Club",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assertEnvelope(t, rec, out)
	assert.Contains(t, out["message"], "fecha")

	rec, out = s.do(t, http.MethodPost, "/admin/eventos", auth, echo.Map{"nombre": "Sin fecha"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assertEnvelope(t, rec, out)
}

func TestCheckIn_AcceptsStringIDsAndIsIdempotent(t *testing.T) {
	s := newServer(t)
	eventID := s.store.AddEvent("Cena", time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC))
	ana := s.store.AddAttendee("Ana López", "ana@agfi.mx", model.RoleEngineer)
	auth := bearer(t, 1, model.AccessStaff)
	body := echo.Map{"id_evento": "1", "code": "AGFI-1", "empresa": "Acme"}
	require.EqualValues(t, 1, eventID)
	require.EqualValues(t, 1, ana)

	rec, out := s.do(t, http.MethodPost, "/staff/qr_checkin", auth, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assertEnvelope(t, rec, out)
	det := out["detalles"].(map[string]interface{})
	assert.Equal(t, true, det["asistencia_creada"])
	assert.Equal(t, true, det["registro_creado"])
	first := det["hora_entrada"]
	assert.NotNil(t, first)

	rec, out = s.do(t, http.MethodPost, "/admin/qr_checkin", auth, body)
	require.Equal(t, http.StatusOK, rec.Code)
	det = out["detalles"].(map[string]interface{})
	assert.Equal(t, false, det["asistencia_creada"])
	assert.Equal(t, first, det["hora_entrada"])
	assert.Equal(t, 1, s.store.Counts().Attendances)

	rec, out = s.do(t, http.MethodGet, "/staff/qr_lookup?code=AGFI-1&id_evento=1", auth, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	asis := out["asistente"].(map[string]interface{})
	assert.Equal(t, "Acme", asis["empresa"])
	assert.Equal(t, "AGFI-1", asis["codigo_qr"])
	assert.NotNil(t, out["asistencia"])
}

func TestCheckIn_Errors(t *testing.T) {
	s := newServer(t)
	s.store.AddEvent("Cena", time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC))
	auth := bearer(t, 1, model.AccessStaff)

	rec, out := s.do(t, http.MethodPost, "/staff/qr_checkin", auth, echo.Map{"id_evento": 1, "code": "AGFI-99"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assertEnvelope(t, rec, out)

	rec, out = s.do(t, http.MethodPost, "/staff/qr_checkin", auth, echo.Map{"id_evento": "uno"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assertEnvelope(t, rec, out)

	rec, out = s.do(t, http.MethodGet, "/staff/qr_lookup?code=XYZ&id_evento=1", auth, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assertEnvelope(t, rec, out)
}

func TestCheckIn_ExplicitZeroAttendeeIDIsRejected(t *testing.T) {
	s := newServer(t)
	s.store.AddEvent("Cena", time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC))
	s.store.AddAttendee("Ana López", "ana@agfi.mx", model.RoleEngineer)
	auth := bearer(t, 1, model.AccessStaff)

	rec, out := s.do(t, http.MethodPost, "/staff/qr_checkin", auth, echo.Map{"id_evento": 1, "id_asistente": 0, "code": "AGFI-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assertEnvelope(t, rec, out)
	assert.Equal(t, false, out["ok"])
	assert.Equal(t, 0, s.store.Counts().Attendances)
	assert.Equal(t, 0, s.store.Counts().Registrations)
}

func TestWalkIn(t *testing.T) {
	s := newServer(t)
	s.store.AddEvent("Cena", time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC))
	auth := bearer(t, 1, model.AccessStaff)
	body := echo.Map{
		"id_evento": 1, "nombre": "Carla Méndez", "correo": "carla@agfi.mx",
		"rol": "becario", "carrera": "Ingeniería Química", "generacion": "2024",
	}

	rec, out := s.do(t, http.MethodPost, "/staff/alta_express", auth, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assertEnvelope(t, rec, out)
	data := out["data"].(map[string]interface{})
	for _, k := range []string{"persona_creada", "asistente_creado", "invitado_ulm_creado", "registro_creado", "asistencia_creada"} {
		assert.Equal(t, true, data[k], k)
	}
	assert.True(t, strings.HasPrefix(data["codigo_qr"].(string), "AGFI-"))

	rec, out = s.do(t, http.MethodPost, "/staff/alta_express", auth, body)
	require.Equal(t, http.StatusOK, rec.Code)
	data = out["data"].(map[string]interface{})
	assert.Equal(t, false, data["persona_creada"])
	assert.Equal(t, false, data["asistencia_creada"])

	body["correo"] = "no-es-correo"
	rec, out = s.do(t, http.MethodPost, "/staff/alta_express", auth, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assertEnvelope(t, rec, out)
	assert.Contains(t, out["message"], "correo")
}

func TestRosterExportAndImport(t *testing.T) {
	s := newServer(t)
	eventID := s.store.AddEvent("Cena", time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC))
	ana := s.store.AddAttendee("Ana López", "ana@agfi.mx", model.RoleEngineer)
	s.store.PutRegistration(model.NewRegistration(eventID, ana, time.Now()))
	auth := bearer(t, 1, model.AccessAdmin)

	rec, out := s.do(t, http.MethodGet, "/admin/pase_lista?id_evento=1", auth, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, out["registros"], 1)

	rec, _ = s.do(t, http.MethodGet, "/admin/pase_lista_csv?id_evento=1", auth, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/csv")
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "pase_lista_evento_1.csv")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\ufeff"))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("id_evento", "1"))
	fw, err := mw.CreateFormFile("file", "pase.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("correo,asistencia_estado,confirmado\nana@agfi.mx,si,1\nnadie@agfi.mx,no,0\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/admin/pase_lista_import", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, auth)
	rec = httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res struct {
		OK      bool `json:"ok"`
		Resumen struct {
			Total    int `json:"filas_totales"`
			Updated  int `json:"registros_actualizados"`
			NotFound []struct {
				Motivo string `json:"motivo"`
			} `json:"no_encontrados"`
		} `json:"resumen"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.OK)
	assert.Equal(t, 2, res.Resumen.Total)
	assert.Equal(t, 1, res.Resumen.Updated)
	require.Len(t, res.Resumen.NotFound, 1)
	assert.Equal(t, service.MissNotFound, res.Resumen.NotFound[0].Motivo)

	rec, out = s.do(t, http.MethodGet, "/admin/pase_lista?id_evento=77", auth, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assertEnvelope(t, rec, out)
}

func TestBadge(t *testing.T) {
	s := newServer(t)
	s.store.AddAttendee("Ana López", "ana@agfi.mx", model.RoleEngineer)
	auth := bearer(t, 1, model.AccessAdmin)

	rec, _ := s.do(t, http.MethodGet, "/admin/credencial/1.png", auth, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 600, img.Bounds().Dx())

	rec, _ = s.do(t, http.MethodGet, "/staff/credencial_zip/1", auth, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/zip", rec.Header().Get(echo.HeaderContentType))

	rec, out := s.do(t, http.MethodGet, "/admin/credencial/9.png", auth, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assertEnvelope(t, rec, out)
}

func TestProfileAndRSVP(t *testing.T) {
	s := newServer(t)
	eventID := s.store.AddEvent("Cena", time.Now().AddDate(0, 1, 0))
	ana := s.store.AddAttendee("Ana López", "ana@agfi.mx", model.RoleEngineer)
	beto := s.store.AddAttendee("Beto Ruiz", "beto@agfi.mx", model.RoleStudent)
	regAna := s.store.PutRegistration(model.NewRegistration(eventID, ana, time.Now()))
	regBeto := s.store.PutRegistration(model.NewRegistration(eventID, beto, time.Now()))
	auth := bearer(t, ana, model.AccessUser)

	rec, out := s.do(t, http.MethodPut, "/perfil/me", auth, echo.Map{"telefono": "555 0101"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assertEnvelope(t, rec, out)

	rec, out = s.do(t, http.MethodGet, "/perfil/me", auth, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	persona := out["perfil"].(map[string]interface{})["persona"].(map[string]interface{})
	assert.Equal(t, "555 0101", persona["telefono"])

	rec, out = s.do(t, http.MethodGet, "/perfil/medico", auth, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, out["medico"])

	rec, out = s.do(t, http.MethodGet, "/perfil/eventos_proximos", auth, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, out["eventos"], 1)

	path := "/perfil/eventos/" + strconv.FormatUint(regAna, 10) + "/rsvp"
	rec, out = s.do(t, http.MethodPut, path, auth, echo.Map{"asistencia": "si", "invitados": 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	reg := out["registro"].(map[string]interface{})
	assert.Equal(t, "si", reg["asistencia_estado"])
	assert.Equal(t, true, reg["confirmado"])

	rec, out = s.do(t, http.MethodPut, path, auth, echo.Map{"asistencia": "quizas"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assertEnvelope(t, rec, out)

	rec, out = s.do(t, http.MethodPut, "/perfil/eventos/"+strconv.FormatUint(regBeto, 10)+"/rsvp", auth, echo.Map{"asistencia": "no"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assertEnvelope(t, rec, out)

	rec, out = s.do(t, http.MethodPost, "/perfil/buzon", auth, echo.Map{"mensaje": "Más café"})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assertEnvelope(t, rec, out)

	rec, out = s.do(t, http.MethodGet, "/admin/buzon", bearer(t, 99, model.AccessAdmin), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, out["comentarios"], 1)
}

func TestFrameworkErrorsUseEnvelope(t *testing.T) {
	s := newServer(t)

	rec, out := s.do(t, http.MethodGet, "/no/existe", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assertEnvelope(t, rec, out)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader("{no es json"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok":false`)
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	rec, _ := s.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec, _ = s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
