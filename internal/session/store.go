// Package session holds the authenticated principal for the console and
// persists it across runs, the way the browser app kept its token and profile
// in durable client storage.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"attendboard/internal/auth"
)

// Role is the principal's role as issued by the backend.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Session is the authenticated principal plus its bearer credential.
type Session struct {
	PrincipalID string `json:"principal_id"`
	Role        Role   `json:"role"`
	DisplayName string `json:"display_name"`
	Token       string `json:"token"`
}

// ErrNotAuthenticated is returned when no session is persisted.
var ErrNotAuthenticated = errors.New("not logged in")

// Store reads and writes the session file. Writes are atomic so a crash never
// leaves a half-written credential on disk.
type Store struct {
	path string

	mu     sync.Mutex
	cur    *Session
	loaded bool
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Current returns the persisted session, if any.
func (s *Store) Current() (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return Session{}, err
	}
	if s.cur == nil {
		return Session{}, ErrNotAuthenticated
	}
	return *s.cur, nil
}

// Establish builds a session from a freshly issued token, reading the
// principal's id, role and display name out of the token claims, and persists it.
func (s *Store) Establish(token string) (Session, error) {
	claims, err := auth.Peek(token)
	if err != nil {
		return Session{}, fmt.Errorf("unreadable token: %w", err)
	}
	sess := Session{
		PrincipalID: claims.Subject,
		Role:        Role(claims.Role),
		DisplayName: claims.Name,
		Token:       token,
	}
	if err := s.Save(sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Save persists the session to disk with owner-only permissions.
func (s *Store) Save(sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	s.cur = &sess
	s.loaded = true
	return nil
}

// Clear removes the persisted session. Clearing an absent session is not an error.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = nil
	s.loaded = true
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Token implements gateway.TokenSource. It returns the empty string when no
// session exists so unauthenticated calls simply omit the header.
func (s *Store) Token() string {
	sess, err := s.Current()
	if err != nil {
		return ""
	}
	return sess.Token
}

func (s *Store) loadLocked() error {
	if s.loaded {
		return nil
	}
	s.loaded = true
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		// A corrupt session file behaves like a logged-out state.
		return nil
	}
	if sess.Token == "" {
		return nil
	}
	s.cur = &sess
	return nil
}
