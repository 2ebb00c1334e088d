package client

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jobboard/jobboard-go/internal/crypto"
	"github.com/jobboard/jobboard-go/internal/model"
)

// TokenStore persists the session token between runs.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// MemoryTokenStore keeps the token for the life of the process.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

func (m *MemoryTokenStore) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryTokenStore) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryTokenStore) Clear() error {
	return m.Save("")
}

// FileTokenStore keeps the token in a file readable only by its owner.
type FileTokenStore struct {
	Path string
}

func (f FileTokenStore) Load() (string, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading token file: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func (f FileTokenStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("creating token dir: %w", err)
	}
	if err := os.WriteFile(f.Path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	return nil
}

func (f FileTokenStore) Clear() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing token file: %w", err)
	}
	return nil
}

// Session is the client's view of who is logged in. It is populated from a
// login response or a stored token and cleared on logout or on any 401.
// Claims are decoded without verification; the server remains the
// authority on whether a token is valid.
type Session struct {
	mu      sync.RWMutex
	store   TokenStore
	token   string
	claims  *crypto.Claims
	onClear []func()
	now     func() time.Time
}

// NewSession restores a session from store. A stored token that cannot be
// decoded or has expired is discarded.
func NewSession(store TokenStore) (*Session, error) {
	s := &Session{store: store, now: time.Now}

	token, err := store.Load()
	if err != nil {
		return nil, err
	}
	if token == "" {
		return s, nil
	}

	claims, err := crypto.DecodeUnverified(token)
	if err != nil || s.expired(claims) {
		return s, store.Clear()
	}
	s.token, s.claims = token, claims
	return s, nil
}

// Set replaces the session with token and persists it.
func (s *Session) Set(token string) error {
	claims, err := crypto.DecodeUnverified(token)
	if err != nil {
		return err
	}
	if err := s.store.Save(token); err != nil {
		return err
	}

	s.mu.Lock()
	s.token, s.claims = token, claims
	s.mu.Unlock()
	return nil
}

// Clear forgets the token and runs the OnClear callbacks if a session was
// active.
func (s *Session) Clear() error {
	s.mu.Lock()
	had := s.token != ""
	s.token, s.claims = "", nil
	callbacks := append([]func(){}, s.onClear...)
	s.mu.Unlock()

	err := s.store.Clear()
	if had {
		for _, fn := range callbacks {
			fn()
		}
	}
	return err
}

// OnClear registers fn to run whenever an active session ends, e.g. to send
// the user back to a login prompt.
func (s *Session) OnClear(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onClear = append(s.onClear, fn)
}

// Token returns the bearer token, or "" when logged out or expired.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.claims == nil || s.expired(s.claims) {
		return ""
	}
	return s.token
}

// Identity returns the user id and role carried by the token.
func (s *Session) Identity() (int64, model.Role, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.claims == nil || s.expired(s.claims) {
		return 0, "", false
	}
	return s.claims.UserID, s.claims.Role, true
}

func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

func (s *Session) expired(c *crypto.Claims) bool {
	return c.ExpiresAt != nil && !s.now().Before(c.ExpiresAt.Time)
}
