package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/odontocare/prontuario/internal/audit"
	"github.com/odontocare/prontuario/internal/form"
	"github.com/odontocare/prontuario/internal/normalize"
	"github.com/odontocare/prontuario/internal/remote"
	"github.com/odontocare/prontuario/internal/report"
	"github.com/odontocare/prontuario/internal/session"
	"github.com/odontocare/prontuario/pkg/models"
)

// RecordsAPI is the slice of the remote client the handlers depend on.
type RecordsAPI interface {
	Login(ctx context.Context, cpf, password string) (string, error)
	FetchRecord(ctx context.Context, cpf, password string) (models.PatientRecord, error)
	ListUsers(ctx context.Context) ([]models.PatientRecord, error)
	RegisterUser(ctx context.Context, rec models.PatientRecord) (models.PatientRecord, error)
	UpdateUser(ctx context.Context, id string, rec models.PatientRecord) (models.PatientRecord, error)
	AppendProcedure(ctx context.Context, id string, p models.Procedure) (models.PatientRecord, error)
	DeleteUser(ctx context.Context, id string) error
}

// User-facing transport error messages, one per error class.
const (
	msgTimeout      = "A requisição demorou demais. Tente novamente."
	msgConnectivity = "Sem conexão com o servidor."
	msgExpired      = "Sessão expirada."
	msgGeneric      = "Ocorreu um erro inesperado."
)

var patientRequired = []string{"nome", "cpf", "telefone"}

var procedureRequired = []string{"data", "procedimento", "valor"}

// Handlers contains all HTTP handlers.
type Handlers struct {
	api      RecordsAPI
	sessions session.Store
	compiler *report.Compiler
	audit    *audit.Logger
	log      zerolog.Logger
}

// NewHandlers creates new handlers.
func NewHandlers(api RecordsAPI, sessions session.Store, compiler *report.Compiler, auditLog *audit.Logger, log zerolog.Logger) *Handlers {
	return &Handlers{
		api:      api,
		sessions: sessions,
		compiler: compiler,
		audit:    auditLog,
		log:      log,
	}
}

// HealthCheck handles health check requests.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "prontuario",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// RequireSession gates the registry routes on a live session.
func (h *Handlers) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := h.sessions.Get(); !ok {
			respondError(w, http.StatusUnauthorized, msgExpired)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type credentials struct {
	CPF      string `json:"cpf"`
	Password string `json:"password"`
}

// Login validates the CPF locally and authenticates against the records
// API. An invalid CPF never reaches the network.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		respondError(w, http.StatusBadRequest, "Requisição inválida.")
		return
	}

	if !normalize.ValidCPF(creds.CPF) {
		respondError(w, http.StatusBadRequest, form.MsgInvalidCPF)
		return
	}

	masked := normalize.CPF(creds.CPF)
	token, err := h.api.Login(r.Context(), masked, creds.Password)
	if err != nil {
		h.audit.Record(audit.KindLogin, masked, "", r.RemoteAddr, false, err.Error())
		h.respondAPIError(w, err)
		return
	}

	h.sessions.Set(token)
	h.audit.Record(audit.KindLogin, masked, "", r.RemoteAddr, true, "")

	tok, _ := h.sessions.Get()
	respond(w, http.StatusOK, map[string]string{
		"status":     "authenticated",
		"expires_at": tok.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// Logout drops the session.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear()
	respond(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// Prontuario fetches a record and streams the compiled document.
func (h *Handlers) Prontuario(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		respondError(w, http.StatusBadRequest, "Requisição inválida.")
		return
	}
	if !normalize.ValidCPF(creds.CPF) {
		respondError(w, http.StatusBadRequest, form.MsgInvalidCPF)
		return
	}

	masked := normalize.CPF(creds.CPF)
	rec, err := h.api.FetchRecord(r.Context(), masked, creds.Password)
	if err != nil {
		h.audit.Record(audit.KindExport, masked, "", r.RemoteAddr, false, err.Error())
		h.respondAPIError(w, err)
		return
	}

	pdf, err := h.compiler.Compile(rec)
	if err != nil {
		h.log.Error().Err(err).Msg("compile prontuario")
		respondError(w, http.StatusInternalServerError, msgGeneric)
		return
	}

	h.audit.Record(audit.KindExport, masked, rec.ID, r.RemoteAddr, true, "")

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="prontuario.pdf"`)
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

// ListPatients returns all records, with each record's procedures in
// display order (principal first, then by descending date). Stored order
// is a concern of the compiled document, not of the listing.
func (h *Handlers) ListPatients(w http.ResponseWriter, r *http.Request) {
	records, err := h.api.ListUsers(r.Context())
	if err != nil {
		h.respondAPIError(w, err)
		return
	}
	for i := range records {
		records[i].Procedures = records[i].SortedByDate()
	}
	respond(w, http.StatusOK, records)
}

// RegisterPatient validates the form fields and creates the record with
// its principal procedure. Validation failures block the network call.
func (h *Handlers) RegisterPatient(w http.ResponseWriter, r *http.Request) {
	var rec models.PatientRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		respondError(w, http.StatusBadRequest, "Requisição inválida.")
		return
	}

	if errs := validatePatient(rec); len(errs) > 0 {
		respond(w, http.StatusBadRequest, map[string]any{"errors": errs})
		return
	}

	rec.CPF = normalize.Digits(rec.CPF)
	rec.Phone = normalize.Digits(rec.Phone)

	created, err := h.api.RegisterUser(r.Context(), rec)
	if err != nil {
		h.respondAPIError(w, err)
		return
	}
	h.audit.Record(audit.KindRegister, "", created.ID, r.RemoteAddr, true, "")
	respond(w, http.StatusCreated, created)
}

// UpdatePatient validates and replaces a record.
func (h *Handlers) UpdatePatient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var rec models.PatientRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		respondError(w, http.StatusBadRequest, "Requisição inválida.")
		return
	}

	if errs := validatePatient(rec); len(errs) > 0 {
		respond(w, http.StatusBadRequest, map[string]any{"errors": errs})
		return
	}

	rec.CPF = normalize.Digits(rec.CPF)
	rec.Phone = normalize.Digits(rec.Phone)

	updated, err := h.api.UpdateUser(r.Context(), id, rec)
	if err != nil {
		h.respondAPIError(w, err)
		return
	}
	h.audit.Record(audit.KindUpdate, "", id, r.RemoteAddr, true, "")
	respond(w, http.StatusOK, updated)
}

// DeletePatient removes a record.
func (h *Handlers) DeletePatient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.api.DeleteUser(r.Context(), id); err != nil {
		h.respondAPIError(w, err)
		return
	}
	h.audit.Record(audit.KindDelete, "", id, r.RemoteAddr, true, "")
	respond(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// AppendProcedure adds one secondary procedure to a record. Procedures
// are append-only; there is no edit or delete.
func (h *Handlers) AppendProcedure(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var p models.Procedure
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondError(w, http.StatusBadRequest, "Requisição inválida.")
		return
	}

	if errs := validateProcedure(p); len(errs) > 0 {
		respond(w, http.StatusBadRequest, map[string]any{"errors": errs})
		return
	}
	p.Principal = false // the principal exists from registration

	updated, err := h.api.AppendProcedure(r.Context(), id, p)
	if err != nil {
		h.respondAPIError(w, err)
		return
	}
	h.audit.Record(audit.KindAppend, "", id, r.RemoteAddr, true, "")
	respond(w, http.StatusOK, updated)
}

// ListAuditEvents exposes the in-memory audit trail.
func (h *Handlers) ListAuditEvents(w http.ResponseWriter, r *http.Request) {
	filter := audit.Filter{}
	if kind := r.URL.Query().Get("kind"); kind != "" {
		filter.Kind = audit.Kind(kind)
	}
	if patient := r.URL.Query().Get("patient"); patient != "" {
		filter.PatientID = patient
	}
	events := h.audit.Events(filter)
	if events == nil {
		events = []audit.Event{}
	}
	respond(w, http.StatusOK, events)
}

// validatePatient runs the patient form over a decoded record.
func validatePatient(rec models.PatientRecord) map[string]string {
	f := form.New(patientRequired, map[string]form.FieldKind{
		"cpf":            form.CPF,
		"telefone":       form.Phone,
		"email":          form.Email,
		"dataNascimento": form.BirthDate,
		"peso":           form.Weight,
	})
	f.Set("nome", rec.Name)
	f.Set("cpf", rec.CPF)
	f.Set("telefone", rec.Phone)
	f.Set("email", rec.Email)
	f.Set("dataNascimento", rec.BirthDate)
	f.Set("peso", rec.Weight)
	return f.Validate()
}

// validateProcedure runs the procedure sub-form over a decoded
// procedure.
func validateProcedure(p models.Procedure) map[string]string {
	f := form.New(procedureRequired, nil)
	f.Set("data", p.Date)
	f.Set("procedimento", p.Name)
	f.Set("valor", p.Value)
	return f.Validate()
}

// respondAPIError maps the remote error taxonomy onto responses. A 401
// is always global: the session is cleared no matter which call hit it.
func (h *Handlers) respondAPIError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, remote.ErrUnauthorized):
		h.sessions.Clear()
		respondError(w, http.StatusUnauthorized, msgExpired)
	case errors.Is(err, remote.ErrTimeout):
		respondError(w, http.StatusGatewayTimeout, msgTimeout)
	case errors.Is(err, remote.ErrConnectivity):
		respondError(w, http.StatusBadGateway, msgConnectivity)
	default:
		var apiErr *remote.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			respondError(w, apiErr.StatusCode, apiErr.Message)
			return
		}
		h.log.Error().Err(err).Msg("records api call failed")
		respondError(w, http.StatusInternalServerError, msgGeneric)
	}
}

// Helper functions

func respond(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respond(w, status, map[string]string{"error": message})
}
