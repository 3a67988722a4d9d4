// Package storage defines the key-value capability postshelf persists client
// state through.
package storage

import (
	"context"
	"errors"
	"strings"
)

// Mode selects a Backend implementation.
type Mode string

const (
	// ModeSession keeps scopes in process memory; they vanish on logout,
	// idle expiry or restart.
	ModeSession Mode = "session"
	// ModeDurable keeps scopes in SQLite so they survive restarts.
	ModeDurable Mode = "durable"
)

// ParseMode normalizes a configured storage mode.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeSession, "":
		return ModeSession, nil
	case ModeDurable:
		return ModeDurable, nil
	default:
		return "", errors.New("storage mode must be session or durable")
	}
}

// Fixed key names inside one scope.
const (
	KeyPosts           = "posts"
	KeyDownloads       = "downloads"
	KeyPostsLastID     = "posts.last_id"
	KeyDownloadsLastID = "downloads.last_id"
	KeyLoggedIn        = "isLoggedIn"
)

// ErrScopeRequired reports an empty scope id.
var ErrScopeRequired = errors.New("storage scope is required")

// KV is one client's string-valued storage scope.
type KV interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
	// Clear removes every key in the scope.
	Clear(ctx context.Context) error
}

// Backend hands out scopes by id.
type Backend interface {
	Scope(id string) (KV, error)
	Close() error
}
