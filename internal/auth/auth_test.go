package auth

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func newTestStore(t *testing.T, allowAnonymous bool) *Store {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store, err := New(db, allowAnonymous)
	if err != nil {
		t.Fatalf("auth.New: %v", err)
	}
	return store
}

func TestRegisterAndAuthenticate(t *testing.T) {
	store := newTestStore(t, false)

	if err := store.Register("alice", "correct-horse"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := store.Authenticate("alice", "correct-horse"); err != nil {
		t.Errorf("Authenticate with correct password failed: %v", err)
	}
}

func TestAuthenticateRejectsWrongPassword(t *testing.T) {
	store := newTestStore(t, false)
	store.Register("bob", "secret")

	if err := store.Authenticate("bob", "wrong"); err == nil {
		t.Error("expected an error for a wrong password")
	}
}

func TestAuthenticateRejectsUnknownUser(t *testing.T) {
	store := newTestStore(t, false)

	if err := store.Authenticate("ghost", "anything"); err == nil {
		t.Error("expected an error for an unknown user")
	}
}

func TestAllowAnonymous(t *testing.T) {
	store := newTestStore(t, true)
	if !store.AllowAnonymous() {
		t.Error("AllowAnonymous() should reflect the constructor argument")
	}
}
