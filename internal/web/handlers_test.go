package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odontocare/prontuario/internal/audit"
	"github.com/odontocare/prontuario/internal/config"
	"github.com/odontocare/prontuario/internal/remote"
	"github.com/odontocare/prontuario/internal/report"
	"github.com/odontocare/prontuario/internal/session"
	"github.com/odontocare/prontuario/pkg/models"
)

// fakeAPI counts calls and returns canned results.
type fakeAPI struct {
	calls       map[string]int
	loginToken  string
	loginErr    error
	fetchRecord models.PatientRecord
	fetchErr    error
	listRecords []models.PatientRecord
	listErr     error
	lastRecord  models.PatientRecord
	lastProc    models.Procedure
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{calls: map[string]int{}, loginToken: "tok"}
}

func (f *fakeAPI) Login(ctx context.Context, cpf, password string) (string, error) {
	f.calls["login"]++
	return f.loginToken, f.loginErr
}

func (f *fakeAPI) FetchRecord(ctx context.Context, cpf, password string) (models.PatientRecord, error) {
	f.calls["fetch"]++
	return f.fetchRecord, f.fetchErr
}

func (f *fakeAPI) ListUsers(ctx context.Context) ([]models.PatientRecord, error) {
	f.calls["list"]++
	return f.listRecords, f.listErr
}

func (f *fakeAPI) RegisterUser(ctx context.Context, rec models.PatientRecord) (models.PatientRecord, error) {
	f.calls["register"]++
	f.lastRecord = rec
	rec.ID = "novo-id"
	return rec, nil
}

func (f *fakeAPI) UpdateUser(ctx context.Context, id string, rec models.PatientRecord) (models.PatientRecord, error) {
	f.calls["update"]++
	f.lastRecord = rec
	return rec, nil
}

func (f *fakeAPI) AppendProcedure(ctx context.Context, id string, p models.Procedure) (models.PatientRecord, error) {
	f.calls["append"]++
	f.lastProc = p
	return models.PatientRecord{ID: id}, nil
}

func (f *fakeAPI) DeleteUser(ctx context.Context, id string) error {
	f.calls["delete"]++
	return nil
}

type testEnv struct {
	api      *fakeAPI
	sessions *session.MemoryStore
	srv      *Server
	audit    *audit.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	api := newFakeAPI()
	sessions := session.NewMemoryStore(time.Hour)
	auditLog := audit.NewLogger(audit.Config{Enabled: true})
	require.NoError(t, auditLog.Start(context.Background()))
	t.Cleanup(auditLog.Stop)
	compiler := report.NewCompiler(report.Header{ClinicName: "Clínica Teste"})
	srv := NewServer(config.LoadFromEnv(), api, sessions, compiler, auditLog, zerolog.Nop())
	return &testEnv{api: api, sessions: sessions, srv: srv, audit: auditLog}
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestLogin_InvalidCPFNeverCallsAPI(t *testing.T) {
	e := newTestEnv(t)
	resp := e.do(http.MethodPost, "/api/v1/login", `{"cpf": "123", "password": "senha"}`)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "CPF inválido")
	assert.Zero(t, e.api.calls["login"], "invalid CPF must not issue a login call")
}

func TestLogin_Success(t *testing.T) {
	e := newTestEnv(t)
	resp := e.do(http.MethodPost, "/api/v1/login", `{"cpf": "12206154471", "password": "senha"}`)

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	_, ok := e.sessions.Get()
	assert.True(t, ok, "session should be stored after login")
}

func TestLogin_UpstreamUnauthorized(t *testing.T) {
	e := newTestEnv(t)
	e.api.loginErr = remote.ErrUnauthorized

	resp := e.do(http.MethodPost, "/api/v1/login", `{"cpf": "122.061.544-71", "password": "x"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestProtectedRoutes_RequireSession(t *testing.T) {
	e := newTestEnv(t)
	resp := e.do(http.MethodGet, "/api/v1/patients/", "")

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Zero(t, e.api.calls["list"])
}

func TestListPatients_DisplayOrder(t *testing.T) {
	e := newTestEnv(t)
	e.sessions.Set("tok")
	e.api.listRecords = []models.PatientRecord{{
		ID: "1",
		Procedures: []models.Procedure{
			{Name: "Principal", Date: "2023-01-01", Principal: true},
			{Name: "Antigo", Date: "2024-01-01"},
			{Name: "Recente", Date: "2024-06-01"},
		},
	}}

	resp := e.do(http.MethodGet, "/api/v1/patients/", "")
	require.Equal(t, http.StatusOK, resp.Code)

	var got []models.PatientRecord
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	require.Len(t, got, 1)
	names := []string{got[0].Procedures[0].Name, got[0].Procedures[1].Name, got[0].Procedures[2].Name}
	assert.Equal(t, []string{"Principal", "Recente", "Antigo"}, names)
}

func TestRegisterPatient_MissingFieldBlocksCall(t *testing.T) {
	e := newTestEnv(t)
	e.sessions.Set("tok")

	resp := e.do(http.MethodPost, "/api/v1/patients/", `{"nome": "Maria", "cpf": "12206154471"}`)
	require.Equal(t, http.StatusBadRequest, resp.Code)

	var body struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Contains(t, body.Errors, "telefone")
	assert.Zero(t, e.api.calls["register"], "validation failure must not reach the API")
}

func TestRegisterPatient_StripsMasksForTransmission(t *testing.T) {
	e := newTestEnv(t)
	e.sessions.Set("tok")

	resp := e.do(http.MethodPost, "/api/v1/patients/", `{"nome": "Maria", "cpf": "122.061.544-71", "telefone": "(11) 98765-4321"}`)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	assert.Equal(t, "12206154471", e.api.lastRecord.CPF)
	assert.Equal(t, "11987654321", e.api.lastRecord.Phone)
}

func TestUpdatePatient_InvalidBirthDate(t *testing.T) {
	e := newTestEnv(t)
	e.sessions.Set("tok")
	future := time.Now().AddDate(1, 0, 0).Format("2006-01-02")

	resp := e.do(http.MethodPut, "/api/v1/patients/42",
		`{"nome": "Maria", "cpf": "12206154471", "telefone": "11987654321", "dataNascimento": "`+future+`"}`)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Zero(t, e.api.calls["update"])
}

func TestAppendProcedure_AlwaysSecondary(t *testing.T) {
	e := newTestEnv(t)
	e.sessions.Set("tok")

	resp := e.do(http.MethodPost, "/api/v1/patients/42/procedures",
		`{"data": "2024-05-01", "procedimento": "Limpeza", "valor": "120.00", "principal": true}`)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	assert.False(t, e.api.lastProc.Principal, "appended procedures are never principal")
	assert.Equal(t, 1, e.api.calls["append"])
}

func TestAppendProcedure_MissingFields(t *testing.T) {
	e := newTestEnv(t)
	e.sessions.Set("tok")

	resp := e.do(http.MethodPost, "/api/v1/patients/42/procedures", `{"procedimento": "Limpeza"}`)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Zero(t, e.api.calls["append"])
}

func TestProntuario_ReturnsPDF(t *testing.T) {
	e := newTestEnv(t)
	e.api.fetchRecord = models.PatientRecord{
		ID:           "42",
		PersonalData: models.PersonalData{Name: "Maria", CPF: "12206154471"},
		Procedures:   []models.Procedure{{Name: "Canal", Principal: true, Value: "350.00"}},
	}

	resp := e.do(http.MethodPost, "/api/v1/prontuario", `{"cpf": "12206154471", "password": "senha"}`)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "application/pdf", resp.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(resp.Body.Bytes(), []byte("%PDF")), "response is not a PDF")
}

func TestProntuario_InvalidCPF(t *testing.T) {
	e := newTestEnv(t)
	resp := e.do(http.MethodPost, "/api/v1/prontuario", `{"cpf": "999", "password": "x"}`)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Zero(t, e.api.calls["fetch"])
}

func TestUpstream401ClearsSessionGlobally(t *testing.T) {
	e := newTestEnv(t)
	e.sessions.Set("tok")
	e.api.listErr = remote.ErrUnauthorized

	resp := e.do(http.MethodGet, "/api/v1/patients/", "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	_, ok := e.sessions.Get()
	assert.False(t, ok, "401 must clear the stored session")
}

func TestTimeoutMapsToUserMessage(t *testing.T) {
	e := newTestEnv(t)
	e.sessions.Set("tok")
	e.api.listErr = remote.ErrTimeout

	resp := e.do(http.MethodGet, "/api/v1/patients/", "")
	assert.Equal(t, http.StatusGatewayTimeout, resp.Code)
	assert.Contains(t, resp.Body.String(), "demorou")
}

func TestConnectivityMapsToUserMessage(t *testing.T) {
	e := newTestEnv(t)
	e.sessions.Set("tok")
	e.api.listErr = remote.ErrConnectivity

	resp := e.do(http.MethodGet, "/api/v1/patients/", "")
	assert.Equal(t, http.StatusBadGateway, resp.Code)
	assert.Contains(t, resp.Body.String(), "conexão")
}

func TestServerMessagePassesThrough(t *testing.T) {
	e := newTestEnv(t)
	e.sessions.Set("tok")
	e.api.listErr = &remote.APIError{StatusCode: http.StatusConflict, Message: "CPF já cadastrado"}

	resp := e.do(http.MethodGet, "/api/v1/patients/", "")
	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Contains(t, resp.Body.String(), "CPF já cadastrado")
}

func TestHealthCheck(t *testing.T) {
	e := newTestEnv(t)
	resp := e.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.Code)
}
