// Package auth implements the Auth Gate: it verifies CONNECT
// credentials against a salted-hash table when anonymous connections
// are disallowed.
package auth

import (
	"database/sql"
	"errors"

	"github.com/harrowgate/goqtt/pkg/er"
	h "github.com/harrowgate/goqtt/pkg/hash"
)

const defaultBcryptCost = 10

// Store is the broker-wide authentications map of spec.md §6, backed
// by a SQLite users table instead of an in-memory map so credentials
// survive restarts independent of session state.
type Store struct {
	db             *sql.DB
	allowAnonymous bool
}

// New opens the Store against db, creating the users table if absent.
func New(db *sql.DB, allowAnonymous bool) (*Store, error) {
	s := &Store{db: db, allowAnonymous: allowAnonymous}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS users (
		username TEXT PRIMARY KEY,
		secret   TEXT NOT NULL
	)`); err != nil {
		return nil, err
	}
	return s, nil
}

// AllowAnonymous reports whether CONNECTs without credentials are accepted.
func (s *Store) AllowAnonymous() bool {
	return s.allowAnonymous
}

// Register stores a new user with a bcrypt hash of password.
func (s *Store) Register(username, password string) error {
	hash, err := h.HashPasswd(password, defaultBcryptCost)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT OR REPLACE INTO users (username, secret) VALUES (?, ?)`, username, hash)
	return err
}

// Authenticate implements check_passwd(password, stored_salt_for_username)
// from spec.md §4.14: look up the stored hash for username and compare.
func (s *Store) Authenticate(username, password string) error {
	var hash string

	err := s.db.QueryRow("SELECT secret FROM users WHERE username = ?", username).Scan(&hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &er.Err{
				Context: "Auth",
				Message: er.ErrUserNotFound,
			}
		}
		return err
	}

	if !h.VerifyPasswd(hash, password) {
		return &er.Err{
			Context: "Auth",
			Message: er.ErrInvalidPassword,
		}
	}

	return nil
}
