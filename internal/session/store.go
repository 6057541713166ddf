// Package session holds the bearer token issued by the remote API. A
// single store instance is injected into every component that needs auth
// context; presence of a non-expired token is the sole authorization
// gate for protected flows.
package session

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token is the persisted session state.
type Token struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
	SessionID string    `json:"session_id"`
}

// Store is the get/set/clear contract shared by the web layer and the
// remote client.
type Store interface {
	Get() (Token, bool)
	Set(token string)
	Clear()
}

// expiryOf reads the exp claim without verifying the signature; the
// server owns verification, the client only needs to know when to stop
// sending the token. Tokens that are not JWTs get the fallback TTL.
func expiryOf(token string, fallback time.Duration) time.Time {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err == nil {
		if exp, err := parsed.Claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}
	return time.Now().Add(fallback)
}

// MemoryStore keeps the session in process memory.
type MemoryStore struct {
	mu          sync.RWMutex
	token       Token
	hasToken    bool
	fallbackTTL time.Duration
}

// NewMemoryStore creates an in-memory store. fallbackTTL applies to
// tokens without a readable exp claim.
func NewMemoryStore(fallbackTTL time.Duration) *MemoryStore {
	return &MemoryStore{fallbackTTL: fallbackTTL}
}

// Get returns the current token; ok is false when no token is stored or
// the stored one has expired. An expired token is cleared on read.
func (s *MemoryStore) Get() (Token, bool) {
	s.mu.RLock()
	t, ok := s.token, s.hasToken
	s.mu.RUnlock()
	if !ok {
		return Token{}, false
	}
	if time.Now().After(t.ExpiresAt) {
		s.Clear()
		return Token{}, false
	}
	return t, true
}

// Set stores a fresh token, deriving its expiry from the JWT exp claim.
func (s *MemoryStore) Set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = Token{
		Value:     token,
		ExpiresAt: expiryOf(token, s.fallbackTTL),
		SessionID: uuid.NewString(),
	}
	s.hasToken = true
}

// Clear drops the session.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = Token{}
	s.hasToken = false
}

// FileStore persists the session to a JSON file so a restart keeps the
// user logged in until the token expires.
type FileStore struct {
	MemoryStore
	path string
}

// NewFileStore creates a file-backed store, loading any previously
// persisted session.
func NewFileStore(path string, fallbackTTL time.Duration) *FileStore {
	s := &FileStore{path: path}
	s.fallbackTTL = fallbackTTL
	if data, err := os.ReadFile(path); err == nil {
		var t Token
		if err := json.Unmarshal(data, &t); err == nil && t.Value != "" {
			s.token = t
			s.hasToken = true
		}
	}
	return s
}

// Set stores and persists the token. Persistence failures are ignored;
// the in-memory session stays usable.
func (s *FileStore) Set(token string) {
	s.MemoryStore.Set(token)
	s.mu.RLock()
	data, _ := json.Marshal(s.token)
	s.mu.RUnlock()
	_ = os.WriteFile(s.path, data, 0o600)
}

// Clear drops the session and removes the persisted copy.
func (s *FileStore) Clear() {
	s.MemoryStore.Clear()
	_ = os.Remove(s.path)
}
