package collection

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/louisbranch/postshelf/internal/platform/requestctx"
	"github.com/louisbranch/postshelf/internal/services/content/storage"
)

// Scope is one client's storage together with its initialized Store.
type Scope struct {
	ID    string
	KV    storage.KV
	Store *Store

	lastUsed time.Time
}

// Registry caches one Store per scope id so concurrent requests from the
// same client share a single serialized Store.
type Registry struct {
	mu      sync.Mutex
	backend storage.Backend
	seeder  Seeder
	logger  *log.Logger
	now     func() time.Time
	scopes  map[string]*Scope
}

// NewRegistry returns an empty registry over backend.
func NewRegistry(backend storage.Backend, seeder Seeder, logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	return &Registry{
		backend: backend,
		seeder:  seeder,
		logger:  logger,
		now:     time.Now,
		scopes:  map[string]*Scope{},
	}
}

// Open returns the cached scope for id, initializing it on first use.
func (r *Registry) Open(ctx context.Context, id string) (*Scope, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, storage.ErrScopeRequired
	}
	if r == nil || r.backend == nil {
		return nil, fmt.Errorf("storage backend is not configured")
	}

	r.mu.Lock()
	if cached, ok := r.scopes[id]; ok {
		cached.lastUsed = r.now()
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	// Initialization may fetch the fixture, so it runs outside the lock.
	kv, err := r.backend.Scope(id)
	if err != nil {
		return nil, err
	}
	store, err := Open(requestctx.WithScopeID(ctx, id), kv, r.seeder, Options{Logger: r.logger})
	if err != nil {
		return nil, fmt.Errorf("open scope: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.scopes[id]; ok {
		cached.lastUsed = r.now()
		return cached, nil
	}
	opened := &Scope{ID: id, KV: kv, Store: store, lastUsed: r.now()}
	r.scopes[id] = opened
	return opened, nil
}

// Drop forgets the cached scope and closes its Store, so writes through a
// Scope obtained earlier fail with ErrClosed. With wipe set, its storage is
// wiped too.
func (r *Registry) Drop(ctx context.Context, id string, wipe bool) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return storage.ErrScopeRequired
	}
	r.mu.Lock()
	cached, ok := r.scopes[id]
	delete(r.scopes, id)
	r.mu.Unlock()

	if ok {
		return cached.Store.Close(ctx, wipe)
	}
	if !wipe {
		return nil
	}
	kv, err := r.backend.Scope(id)
	if err != nil {
		return err
	}
	if err := kv.Clear(ctx); err != nil {
		return fmt.Errorf("clear scope: %w", err)
	}
	return nil
}

// EvictIdle drops scopes unused for longer than idle and returns their ids.
// With wipe set, evicted scopes lose their storage, which is how session
// scopes end.
func (r *Registry) EvictIdle(ctx context.Context, idle time.Duration, wipe bool) []string {
	if idle <= 0 {
		return nil
	}
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	var evicted []*Scope
	for id, scope := range r.scopes {
		if scope.lastUsed.Before(cutoff) {
			evicted = append(evicted, scope)
			delete(r.scopes, id)
		}
	}
	r.mu.Unlock()

	ids := make([]string, 0, len(evicted))
	for _, scope := range evicted {
		ids = append(ids, scope.ID)
		if err := scope.Store.Close(ctx, wipe); err != nil {
			r.logger.Printf("clear idle scope failed scope=%s err=%v", scope.ID, err)
		}
	}
	return ids
}

// Len reports how many scopes are cached.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.scopes)
}
