package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"attendboard/internal/auth"
)

func tempPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "nested", "session.json")
}

func TestSessionPersistsAcrossStores(t *testing.T) {
	path := tempPath(t)

	first := NewStore(path)
	want := Session{PrincipalID: "u-1", Role: RoleTeacher, DisplayName: "Ravi Iyer", Token: "tok"}
	if err := first.Save(want); err != nil {
		t.Fatal(err)
	}

	// A fresh store simulates the next process start.
	second := NewStore(path)
	got, err := second.Current()
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatalf("restored session = %+v, want %+v", got, want)
	}
	if second.Token() != "tok" {
		t.Fatalf("Token() = %q, want %q", second.Token(), "tok")
	}
}

func TestMissingSessionIsLoggedOut(t *testing.T) {
	s := NewStore(tempPath(t))
	if _, err := s.Current(); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("error = %v, want ErrNotAuthenticated", err)
	}
	if s.Token() != "" {
		t.Fatal("Token() must be empty when logged out")
	}
}

func TestClearRemovesSession(t *testing.T) {
	path := tempPath(t)
	s := NewStore(path)
	if err := s.Save(Session{PrincipalID: "u-1", Role: RoleStudent, Token: "tok"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Current(); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("error = %v, want ErrNotAuthenticated", err)
	}
	// Clearing again must not fail.
	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, err := NewStore(path).Current(); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatal("session file survived Clear")
	}
}

func TestCorruptFileBehavesLoggedOut(t *testing.T) {
	path := tempPath(t)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	s := NewStore(path)
	if _, err := s.Current(); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("error = %v, want ErrNotAuthenticated for a corrupt file", err)
	}
}

func TestEstablishReadsClaims(t *testing.T) {
	token, _, err := auth.Issue("u-42", "admin", "Asha Verma", "attendboard-demo", "secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	s := NewStore(tempPath(t))
	sess, err := s.Establish(token)
	if err != nil {
		t.Fatal(err)
	}
	if sess.PrincipalID != "u-42" || sess.Role != RoleAdmin || sess.DisplayName != "Asha Verma" {
		t.Fatalf("session = %+v, claims not carried over", sess)
	}
	if sess.Token != token {
		t.Fatal("token not stored")
	}
}

func TestEstablishRejectsGarbage(t *testing.T) {
	s := NewStore(tempPath(t))
	if _, err := s.Establish("not-a-jwt"); err == nil {
		t.Fatal("expected an error for an unreadable token")
	}
}
