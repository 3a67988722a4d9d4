// Package auth holds the admin login flag of a client scope.
//
// The flag lives in the client's own storage and the credential check is a
// single configured account, so this only gates the admin screens from
// casual use. It is not a security boundary.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/postshelf/internal/services/content/storage"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials reports a rejected login.
var ErrInvalidCredentials = errors.New("invalid username or password")

// IsLoggedIn reports whether the scope carries the logged-in flag.
func IsLoggedIn(ctx context.Context, kv storage.KV) (bool, error) {
	if kv == nil {
		return false, storage.ErrScopeRequired
	}
	value, ok, err := kv.Get(ctx, storage.KeyLoggedIn)
	if err != nil {
		return false, fmt.Errorf("read login flag: %w", err)
	}
	return ok && value == "true", nil
}

// SetLoggedIn stores the flag as "true" or "false".
func SetLoggedIn(ctx context.Context, kv storage.KV, loggedIn bool) error {
	if kv == nil {
		return storage.ErrScopeRequired
	}
	value := "false"
	if loggedIn {
		value = "true"
	}
	if err := kv.Set(ctx, storage.KeyLoggedIn, value); err != nil {
		return fmt.Errorf("write login flag: %w", err)
	}
	return nil
}

// Verifier checks a username and password pair.
type Verifier interface {
	Verify(username, password string) bool
}

// StaticVerifier accepts exactly one account whose password is stored as a
// bcrypt hash. An empty hash rejects every login.
type StaticVerifier struct {
	Username     string
	PasswordHash string
}

// Verify compares the pair against the configured account.
func (v StaticVerifier) Verify(username, password string) bool {
	if strings.TrimSpace(v.PasswordHash) == "" {
		return false
	}
	if strings.TrimSpace(username) != v.Username {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(v.PasswordHash), []byte(password)) == nil
}

// HashPassword returns the bcrypt hash to configure for password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// ScopeDropper forgets a cached scope, wiping its storage when asked.
type ScopeDropper interface {
	Drop(ctx context.Context, id string, wipe bool) error
}

// Gate logs scopes in and out.
type Gate struct {
	Verifier Verifier
	// Scopes is consulted on logout when ClearOnLogout is set.
	Scopes        ScopeDropper
	ClearOnLogout bool
}

// Login sets the flag when the credentials verify and returns
// ErrInvalidCredentials otherwise.
func (g Gate) Login(ctx context.Context, kv storage.KV, username, password string) error {
	if g.Verifier == nil || !g.Verifier.Verify(username, password) {
		return ErrInvalidCredentials
	}
	return SetLoggedIn(ctx, kv, true)
}

// Logout clears the flag. With ClearOnLogout the whole scope is wiped, which
// ends a session-storage client's edits.
func (g Gate) Logout(ctx context.Context, scopeID string, kv storage.KV) error {
	if g.ClearOnLogout && g.Scopes != nil {
		return g.Scopes.Drop(ctx, scopeID, true)
	}
	return SetLoggedIn(ctx, kv, false)
}
