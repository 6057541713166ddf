// Package remote is the client for the clinic's records API, the
// authoritative owner of all patient data. One request per user action,
// no retries: failures surface a classified error and the caller's form
// state stays untouched.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/odontocare/prontuario/internal/session"
	"github.com/odontocare/prontuario/pkg/models"
)

// Error taxonomy of the transport boundary. Handlers map these to the
// user-facing messages; everything else arrives as *APIError.
var (
	ErrTimeout      = errors.New("a requisição demorou demais")
	ErrConnectivity = errors.New("sem conexão com o servidor")
	ErrUnauthorized = errors.New("sessão expirada")
)

// APIError carries a non-2xx response that is not a 401.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error %d", e.StatusCode)
}

// Client talks to the records API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	sessions   session.Store
}

// Config holds client configuration.
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	Sessions session.Store
}

// NewClient creates a records API client.
func NewClient(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		sessions:   cfg.Sessions,
	}
}

func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, authed bool) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if authed {
		tok, ok := c.sessions.Get()
		if !ok {
			return nil, ErrUnauthorized
		}
		req.Header.Set("Authorization", "Bearer "+tok.Value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode >= 400 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: serverMessage(respBody)}
	}
	return respBody, nil
}

// classify sorts a transport failure into the timeout or connectivity
// class.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	return err
}

// serverMessage extracts the error message the API sends in its body.
func serverMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return strings.TrimSpace(string(body))
}

// Login authenticates with a masked CPF and password and returns the
// bearer token. The caller stores it in the session store.
func (c *Client) Login(ctx context.Context, cpf, password string) (string, error) {
	body := map[string]string{"cpf": cpf, "password": password}
	respBody, err := c.doRequest(ctx, http.MethodPost, "/api/login", body, false)
	if err != nil {
		return "", err
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("unmarshal login response: %w", err)
	}
	return resp.Token, nil
}

// FetchRecord retrieves the prontuário payload for a patient and coerces
// it at the boundary.
func (c *Client) FetchRecord(ctx context.Context, cpf, password string) (models.PatientRecord, error) {
	body := map[string]string{"cpf": cpf, "password": password}
	respBody, err := c.doRequest(ctx, http.MethodPost, "/api/prontuario", body, false)
	if err != nil {
		return models.PatientRecord{}, err
	}
	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return models.PatientRecord{}, fmt.Errorf("unmarshal prontuario response: %w", err)
	}
	return models.Coerce(resp.Data), nil
}

// ListUsers returns all patient records.
func (c *Client) ListUsers(ctx context.Context) ([]models.PatientRecord, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, "/api/users", nil, true)
	if err != nil {
		return nil, err
	}
	var records []models.PatientRecord
	if err := json.Unmarshal(respBody, &records); err != nil {
		return nil, fmt.Errorf("unmarshal users: %w", err)
	}
	return records, nil
}

// RegisterUser creates a patient record together with its principal
// procedure; the server assigns the ID.
func (c *Client) RegisterUser(ctx context.Context, rec models.PatientRecord) (models.PatientRecord, error) {
	respBody, err := c.doRequest(ctx, http.MethodPost, "/api/register/user", rec, true)
	if err != nil {
		return models.PatientRecord{}, err
	}
	var created models.PatientRecord
	if err := json.Unmarshal(respBody, &created); err != nil {
		return models.PatientRecord{}, fmt.Errorf("unmarshal created record: %w", err)
	}
	return created, nil
}

// UpdateUser replaces a patient record.
func (c *Client) UpdateUser(ctx context.Context, id string, rec models.PatientRecord) (models.PatientRecord, error) {
	respBody, err := c.doRequest(ctx, http.MethodPut, "/api/users/"+url.PathEscape(id), rec, true)
	if err != nil {
		return models.PatientRecord{}, err
	}
	var updated models.PatientRecord
	if err := json.Unmarshal(respBody, &updated); err != nil {
		return models.PatientRecord{}, fmt.Errorf("unmarshal updated record: %w", err)
	}
	return updated, nil
}

// AppendProcedure appends one secondary procedure to a record. There is
// no edit or delete for individual procedures.
func (c *Client) AppendProcedure(ctx context.Context, id string, p models.Procedure) (models.PatientRecord, error) {
	respBody, err := c.doRequest(ctx, http.MethodPut, "/api/users/"+url.PathEscape(id)+"/procedimento", p, true)
	if err != nil {
		return models.PatientRecord{}, err
	}
	var updated models.PatientRecord
	if err := json.Unmarshal(respBody, &updated); err != nil {
		return models.PatientRecord{}, fmt.Errorf("unmarshal record: %w", err)
	}
	return updated, nil
}

// DeleteUser removes a patient record.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	_, err := c.doRequest(ctx, http.MethodDelete, "/api/users/"+url.PathEscape(id), nil, true)
	return err
}
