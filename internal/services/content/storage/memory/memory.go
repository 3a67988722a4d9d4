// Package memory provides the session-scoped storage backend: scopes live in
// process memory and disappear when cleared or when the process exits.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/louisbranch/postshelf/internal/services/content/storage"
)

// Backend holds every scope in one map guarded by a mutex.
type Backend struct {
	mu     sync.RWMutex
	scopes map[string]map[string]string
}

// New returns an empty session backend.
func New() *Backend {
	return &Backend{scopes: map[string]map[string]string{}}
}

// Scope returns the KV for id. The scope is created on first write.
func (b *Backend) Scope(id string) (storage.KV, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, storage.ErrScopeRequired
	}
	return &scope{backend: b, id: id}, nil
}

// Len reports how many scopes currently hold data.
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.scopes)
}

// Close drops all scopes.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scopes = map[string]map[string]string{}
	return nil
}

type scope struct {
	backend *Backend
	id      string
}

func (s *scope) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.backend.mu.RLock()
	defer s.backend.mu.RUnlock()
	value, ok := s.backend.scopes[s.id][key]
	return value, ok, nil
}

func (s *scope) Set(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	entries, ok := s.backend.scopes[s.id]
	if !ok {
		entries = map[string]string{}
		s.backend.scopes[s.id] = entries
	}
	entries[key] = value
	return nil
}

func (s *scope) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	entries, ok := s.backend.scopes[s.id]
	if !ok {
		return nil
	}
	delete(entries, key)
	if len(entries) == 0 {
		delete(s.backend.scopes, s.id)
	}
	return nil
}

func (s *scope) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	delete(s.backend.scopes, s.id)
	return nil
}

var _ storage.Backend = (*Backend)(nil)
