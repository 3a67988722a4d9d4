// Package collection owns the posts and downloads collections of one client
// scope: it seeds them from the fixture on first use, serves reads from
// memory, and writes every change straight through to storage. A freshly
// seeded scope touches storage only once something is written to it.
package collection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"slices"
	"strconv"
	"strings"
	"sync"

	apperrors "github.com/louisbranch/postshelf/internal/platform/errors"
	"github.com/louisbranch/postshelf/internal/platform/otel"
	"github.com/louisbranch/postshelf/internal/platform/requestctx"
	"github.com/louisbranch/postshelf/internal/services/content/domain"
	"github.com/louisbranch/postshelf/internal/services/content/seed"
	"github.com/louisbranch/postshelf/internal/services/content/storage"
	"go.opentelemetry.io/otel/attribute"
)

// Seeder supplies the fixture used for collections missing from storage.
type Seeder interface {
	Load(ctx context.Context) seed.Fixture
}

// SeederFunc adapts a function to Seeder.
type SeederFunc func(ctx context.Context) seed.Fixture

// Load calls f.
func (f SeederFunc) Load(ctx context.Context) seed.Fixture {
	return f(ctx)
}

// Key names one collection and binds it to its record type.
type Key[T domain.Record[T]] struct {
	name      string
	lastIDKey string
}

// Name returns the storage key holding the collection.
func (k Key[T]) Name() string {
	return k.name
}

var (
	// Posts is the posts collection.
	Posts = Key[domain.Post]{name: storage.KeyPosts, lastIDKey: storage.KeyPostsLastID}
	// Downloads is the downloads collection.
	Downloads = Key[domain.Download]{name: storage.KeyDownloads, lastIDKey: storage.KeyDownloadsLastID}
)

var (
	// ErrNotInitialized reports use of a collection before Initialize.
	ErrNotInitialized = errors.New("collection is not initialized")
	// ErrClosed reports a write to a Store whose scope was dropped.
	ErrClosed = apperrors.New(apperrors.CodeStorageUnavailable, "scope storage is closed")
)

// entry keeps one collection's items ([]T) and the last id handed out.
// Pending entries were seeded but not yet written to storage.
type entry struct {
	items     any
	lastID    int64
	lastIDKey string
	pending   bool
}

// Options tunes a Store.
type Options struct {
	Logger *log.Logger
}

// Store holds one scope's collections. Operations are serialized, so each
// runs to completion before the next begins.
type Store struct {
	mu      sync.Mutex
	kv      storage.KV
	seeder  Seeder
	logger  *log.Logger
	entries map[string]*entry
	closed  bool
}

// New returns an uninitialized Store over kv.
func New(kv storage.KV, seeder Seeder, opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	if seeder == nil {
		seeder = SeederFunc(func(context.Context) seed.Fixture { return seed.Empty() })
	}
	return &Store{
		kv:      kv,
		seeder:  seeder,
		logger:  logger,
		entries: map[string]*entry{},
	}
}

// Open returns an initialized Store over kv.
func Open(ctx context.Context, kv storage.KV, seeder Seeder, opts Options) (*Store, error) {
	if kv == nil {
		return nil, fmt.Errorf("storage scope is required")
	}
	store := New(kv, seeder, opts)
	if err := store.Initialize(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// Initialize loads each collection from storage. Collections that are
// missing or hold malformed JSON are seeded from the fixture, which is
// loaded at most once per call. A malformed collection is overwritten right
// away; a missing one stays pending until the first write to the Store.
func (s *Store) Initialize(ctx context.Context) error {
	ctx, span := otel.Tracer("content/collection").Start(ctx, "collection.Initialize")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	var loaded *seed.Fixture
	fixture := func() seed.Fixture {
		if loaded == nil {
			value := s.seeder.Load(ctx)
			loaded = &value
		}
		return *loaded
	}

	if err := initialize(ctx, s, Posts, func() []domain.Post { return fixture().Posts }); err != nil {
		return err
	}
	if err := initialize(ctx, s, Downloads, func() []domain.Download { return fixture().Downloads }); err != nil {
		return err
	}
	span.SetAttributes(attribute.Bool("collection.seeded", loaded != nil))
	return nil
}

// Reseed replaces both collections with a fresh fixture load and resets the
// id counters to the fixture's largest ids.
func (s *Store) Reseed(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	fixture := s.seeder.Load(ctx)
	if err := reseed(ctx, s, Posts, fixture.Posts); err != nil {
		return err
	}
	return reseed(ctx, s, Downloads, fixture.Downloads)
}

// GetAll returns a copy of the collection.
func GetAll[T domain.Record[T]](s *Store, k Key[T]) []T {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, _, err := current(s, k)
	if err != nil {
		return []T{}
	}
	return slices.Clone(items)
}

// Find returns the record with id.
func Find[T domain.Record[T]](s *Store, k Key[T], id string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	items, _, err := current(s, k)
	if err != nil {
		return zero, false
	}
	index := indexOf(items, id)
	if index < 0 {
		return zero, false
	}
	return items[index], true
}

// ReplaceAll overwrites the collection and persists it immediately.
func ReplaceAll[T domain.Record[T]](ctx context.Context, s *Store, k Key[T], items []T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	_, lastID, err := current(s, k)
	if err != nil {
		return err
	}
	return replaceLocked(ctx, s, k, slices.Clone(items), lastID)
}

// Mutation edits a copy of a collection. NextID allocates an id that is not
// in use and was never handed out before in this scope.
type Mutation[T any] func(items []T, nextID func() string) ([]T, error)

// Update applies fn atomically and persists the result. It returns a copy of
// the collection as stored.
func Update[T domain.Record[T]](ctx context.Context, s *Store, k Key[T], fn Mutation[T]) ([]T, error) {
	if fn == nil {
		return nil, fmt.Errorf("mutation is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	items, lastID, err := current(s, k)
	if err != nil {
		return nil, err
	}
	working := slices.Clone(items)
	inUse := make(map[string]struct{}, len(working))
	for _, item := range working {
		inUse[item.RecordID()] = struct{}{}
	}
	nextID := func() string {
		for {
			lastID++
			id := strconv.FormatInt(lastID, 10)
			if _, taken := inUse[id]; !taken {
				inUse[id] = struct{}{}
				return id
			}
		}
	}

	updated, err := fn(working, nextID)
	if err != nil {
		return nil, err
	}
	if err := replaceLocked(ctx, s, k, updated, lastID); err != nil {
		return nil, err
	}
	return slices.Clone(updated), nil
}

// Persist writes seeded collections that are still held only in memory.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return flushPending(ctx, s, "")
}

// Close stops writes through s. With wipe set the scope's storage is
// cleared under the same lock, so no write through s lands after it.
func (s *Store) Close(ctx context.Context, wipe bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if !wipe {
		return nil
	}
	if err := s.kv.Clear(ctx); err != nil {
		return apperrors.Wrap(apperrors.CodeStorageUnavailable, "clear scope", err)
	}
	return nil
}

func initialize[T domain.Record[T]](ctx context.Context, s *Store, k Key[T], fromFixture func() []T) error {
	raw, found, err := s.kv.Get(ctx, k.name)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStorageUnavailable, "read "+k.name, err)
	}
	lastID, err := readLastID(ctx, s, k)
	if err != nil {
		return err
	}

	var items []T
	malformed := false
	if found {
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			s.logger.Printf("discarding malformed persisted collection=%s scope=%s err=%v", k.name, requestctx.ScopeIDFromContext(ctx), err)
			malformed = true
		}
	}
	if malformed {
		// The stored counter survives so ids handed out earlier stay retired.
		return replaceLocked(ctx, s, k, seededItems(fromFixture), lastID)
	}
	if !found {
		seeded := seededItems(fromFixture)
		s.entries[k.name] = &entry{
			items:     seeded,
			lastID:    max(lastID, maxNumericID(seeded)),
			lastIDKey: k.lastIDKey,
			pending:   true,
		}
		return nil
	}
	if items == nil {
		items = []T{}
	}
	s.entries[k.name] = &entry{items: items, lastID: max(lastID, maxNumericID(items)), lastIDKey: k.lastIDKey}
	return nil
}

func seededItems[T any](fromFixture func() []T) []T {
	seeded := slices.Clone(fromFixture())
	if seeded == nil {
		seeded = []T{}
	}
	return seeded
}

func reseed[T domain.Record[T]](ctx context.Context, s *Store, k Key[T], items []T) error {
	items = slices.Clone(items)
	if items == nil {
		items = []T{}
	}
	return replaceLocked(ctx, s, k, items, 0)
}

func current[T domain.Record[T]](s *Store, k Key[T]) ([]T, int64, error) {
	e, ok := s.entries[k.name]
	if !ok {
		return nil, 0, ErrNotInitialized
	}
	items, ok := e.items.([]T)
	if !ok {
		return nil, 0, fmt.Errorf("collection %s holds %T", k.name, e.items)
	}
	return items, e.lastID, nil
}

// replaceLocked persists items and the id counter, then swaps them into
// memory. The counter never drops below the largest numeric id present.
func replaceLocked[T domain.Record[T]](ctx context.Context, s *Store, k Key[T], items []T, lastID int64) error {
	ctx, span := otel.Tracer("content/collection").Start(ctx, "collection.ReplaceAll")
	defer span.End()
	span.SetAttributes(
		attribute.String("collection.name", k.name),
		attribute.Int("collection.size", len(items)),
	)

	if items == nil {
		items = []T{}
	}
	if err := flushPending(ctx, s, k.name); err != nil {
		return err
	}
	lastID = max(lastID, maxNumericID(items))
	if err := persist(ctx, s, k.name, k.lastIDKey, items, lastID); err != nil {
		return err
	}
	s.entries[k.name] = &entry{items: items, lastID: lastID, lastIDKey: k.lastIDKey}
	return nil
}

// flushPending writes seeded collections that have not reached storage yet,
// except skip, which the caller is about to write itself.
func flushPending(ctx context.Context, s *Store, skip string) error {
	for name, e := range s.entries {
		if !e.pending || name == skip {
			continue
		}
		if err := persist(ctx, s, name, e.lastIDKey, e.items, e.lastID); err != nil {
			return err
		}
		e.pending = false
	}
	return nil
}

func persist(ctx context.Context, s *Store, name, lastIDKey string, items any, lastID int64) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := s.kv.Set(ctx, name, string(payload)); err != nil {
		return apperrors.Wrap(apperrors.CodeStorageUnavailable, "persist "+name, err)
	}
	if err := s.kv.Set(ctx, lastIDKey, strconv.FormatInt(lastID, 10)); err != nil {
		return apperrors.Wrap(apperrors.CodeStorageUnavailable, "persist "+lastIDKey, err)
	}
	return nil
}

func readLastID[T domain.Record[T]](ctx context.Context, s *Store, k Key[T]) (int64, error) {
	raw, ok, err := s.kv.Get(ctx, k.lastIDKey)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeStorageUnavailable, "read "+k.lastIDKey, err)
	}
	if !ok {
		return 0, nil
	}
	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || value < 0 {
		s.logger.Printf("ignoring malformed id counter key=%s scope=%s value=%q", k.lastIDKey, requestctx.ScopeIDFromContext(ctx), raw)
		return 0, nil
	}
	return value, nil
}

// maxNumericID returns the largest id that parses as a non-negative integer.
// Other ids are ignored.
func maxNumericID[T domain.Record[T]](items []T) int64 {
	var highest int64
	for _, item := range items {
		value, err := strconv.ParseInt(strings.TrimSpace(item.RecordID()), 10, 64)
		if err == nil && value > highest {
			highest = value
		}
	}
	return highest
}

func indexOf[T domain.Record[T]](items []T, id string) int {
	return slices.IndexFunc(items, func(item T) bool { return item.RecordID() == id })
}
