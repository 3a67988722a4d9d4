package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/louisbranch/postshelf/internal/services/content/storage"
)

func TestScopeRoundTripSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "postshelf.db")

	store := openTestStore(t, path)
	kv, err := store.Scope("browser-1")
	if err != nil {
		t.Fatalf("Scope() error = %v", err)
	}
	if err := kv.Set(ctx, storage.KeyPosts, `[{"id":"1"}]`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := kv.Set(ctx, storage.KeyPosts, `[{"id":"2"}]`); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened := openTestStore(t, path)
	kv, _ = reopened.Scope("browser-1")
	value, ok, err := kv.Get(ctx, storage.KeyPosts)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok || value != `[{"id":"2"}]` {
		t.Fatalf("Get() = %q, %v", value, ok)
	}
}

func TestGetMissingKey(t *testing.T) {
	store := openTestStore(t, filepath.Join(t.TempDir(), "postshelf.db"))
	kv, _ := store.Scope("browser-1")

	value, ok, err := kv.Get(context.Background(), storage.KeyDownloads)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok || value != "" {
		t.Fatalf("Get() = %q, %v; want missing", value, ok)
	}
}

func TestClearOnlyAffectsOneScope(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, filepath.Join(t.TempDir(), "postshelf.db"))
	first, _ := store.Scope("browser-1")
	second, _ := store.Scope("browser-2")

	for _, kv := range []storage.KV{first, second} {
		if err := kv.Set(ctx, storage.KeyLoggedIn, "true"); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
	}
	if err := first.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	scopes, err := store.Scopes(ctx)
	if err != nil {
		t.Fatalf("Scopes() error = %v", err)
	}
	if diff := cmp.Diff([]string{"browser-2"}, scopes); diff != "" {
		t.Fatalf("Scopes() mismatch (-want +got):\n%s", diff)
	}
}

func TestDeleteRemovesKey(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, filepath.Join(t.TempDir(), "postshelf.db"))
	kv, _ := store.Scope("browser-1")

	if err := kv.Set(ctx, storage.KeyLoggedIn, "true"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := kv.Delete(ctx, storage.KeyLoggedIn); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok, _ := kv.Get(ctx, storage.KeyLoggedIn); ok {
		t.Fatal("expected key to be deleted")
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(" "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func openTestStore(t *testing.T, path string) *Store {
	t.Helper()
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}
