package reconcile

import (
	"bytes"
	"context"
	"log"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/louisbranch/postshelf/internal/services/content/collection"
	"github.com/louisbranch/postshelf/internal/services/content/domain"
	"github.com/louisbranch/postshelf/internal/services/content/seed"
	"github.com/louisbranch/postshelf/internal/services/content/storage/memory"
	"pgregory.net/rapid"
)

type fataler interface {
	Helper()
	Fatalf(format string, args ...any)
}

func openStore(t fataler, posts []domain.Post) *collection.Store {
	t.Helper()
	kv, err := memory.New().Scope("scope")
	if err != nil {
		t.Fatalf("Scope() error = %v", err)
	}
	seeder := collection.SeederFunc(func(context.Context) seed.Fixture {
		return seed.Fixture{Posts: posts, Downloads: []domain.Download{}}
	})
	store, err := collection.Open(context.Background(), kv, seeder, collection.Options{Logger: log.New(&bytes.Buffer{}, "", 0)})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return store
}

func TestUpsertAppendsWithNextID(t *testing.T) {
	t.Parallel()

	store := openStore(t, []domain.Post{{ID: "1", Title: "A"}, {ID: "2"}, {ID: "3"}})
	result, err := Upsert(context.Background(), store, collection.Posts, domain.Post{Title: "New"})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if !result.Created {
		t.Fatal("expected record to be created")
	}
	if result.Record.ID != "4" {
		t.Fatalf("new id = %q, want 4", result.Record.ID)
	}
	if got := len(result.Items); got != 4 {
		t.Fatalf("len(items) = %d, want 4", got)
	}
	if diff := cmp.Diff(result.Items, collection.GetAll(store, collection.Posts)); diff != "" {
		t.Fatalf("stored mismatch (-result +stored):\n%s", diff)
	}
}

func TestUpsertOnEmptyCollectionStartsAtOne(t *testing.T) {
	t.Parallel()

	store := openStore(t, nil)
	result, err := Upsert(context.Background(), store, collection.Downloads, domain.Download{Title: "Tool"})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	want := []domain.Download{{ID: "1", Title: "Tool"}}
	if diff := cmp.Diff(want, result.Items); diff != "" {
		t.Fatalf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestUpsertReplacesInPlace(t *testing.T) {
	t.Parallel()

	store := openStore(t, []domain.Post{{ID: "1", Title: "A"}, {ID: "2", Title: "B"}, {ID: "3", Title: "C"}})
	result, err := Upsert(context.Background(), store, collection.Posts, domain.Post{ID: "2", Title: "B2", Content: "<p>x</p>"})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if result.Created {
		t.Fatal("expected in-place update")
	}
	want := []domain.Post{{ID: "1", Title: "A"}, {ID: "2", Title: "B2", Content: "<p>x</p>"}, {ID: "3", Title: "C"}}
	if diff := cmp.Diff(want, collection.GetAll(store, collection.Posts)); diff != "" {
		t.Fatalf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestUpsertUnknownIDIsAppendedWithFreshID(t *testing.T) {
	t.Parallel()

	store := openStore(t, []domain.Post{{ID: "1"}})
	result, err := Upsert(context.Background(), store, collection.Posts, domain.Post{ID: "99", Title: "Ghost"})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if !result.Created || result.Record.ID != "2" {
		t.Fatalf("result = %+v, want created with id 2", result.Record)
	}
}

func TestUpsertIgnoresNonNumericIDs(t *testing.T) {
	t.Parallel()

	store := openStore(t, []domain.Post{{ID: "intro"}, {ID: "about"}})
	result, err := Upsert(context.Background(), store, collection.Posts, domain.Post{Title: "First numbered"})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if result.Record.ID != "1" {
		t.Fatalf("new id = %q, want 1", result.Record.ID)
	}
}

func TestRemovedIDIsNotReused(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openStore(t, []domain.Post{{ID: "1"}, {ID: "2"}})
	if _, err := Remove(ctx, store, collection.Posts, "2"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	result, err := Upsert(ctx, store, collection.Posts, domain.Post{Title: "Next"})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if result.Record.ID != "3" {
		t.Fatalf("new id = %q, want 3", result.Record.ID)
	}
}

func TestRemove(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openStore(t, []domain.Post{{ID: "1", Title: "A"}, {ID: "2", Title: "B"}})

	result, err := Remove(ctx, store, collection.Posts, "1")
	if err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if !result.Removed || result.Record.Title != "A" {
		t.Fatalf("result = %+v, want removed A", result)
	}
	if diff := cmp.Diff([]domain.Post{{ID: "2", Title: "B"}}, collection.GetAll(store, collection.Posts)); diff != "" {
		t.Fatalf("items mismatch (-want +got):\n%s", diff)
	}

	missing, err := Remove(ctx, store, collection.Posts, "404")
	if err != nil {
		t.Fatalf("Remove() missing error = %v", err)
	}
	if missing.Removed {
		t.Fatal("expected missing id to report not removed")
	}
	if diff := cmp.Diff([]domain.Post{{ID: "2", Title: "B"}}, missing.Items); diff != "" {
		t.Fatalf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestUpsertThenOpenFromFixture(t *testing.T) {
	t.Parallel()

	store := openStore(t, []domain.Post{{ID: "1", Title: "Hello", Thumbnail: "h.png", Content: "hi"}})
	if _, err := Upsert(context.Background(), store, collection.Posts, domain.Post{Title: "X", Thumbnail: "t", Content: "c"}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	items := collection.GetAll(store, collection.Posts)
	if len(items) != 2 || items[1].ID != "2" {
		t.Fatalf("items = %+v, want second post with id 2", items)
	}
}

func numericPosts(t *rapid.T) []domain.Post {
	ids := rapid.SliceOfDistinct(rapid.IntRange(1, 500), func(v int) int { return v }).Draw(t, "ids")
	posts := make([]domain.Post, 0, len(ids))
	for _, id := range ids {
		posts = append(posts, domain.Post{ID: strconv.Itoa(id), Title: "t" + strconv.Itoa(id)})
	}
	return posts
}

func TestUpsertProperties(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		posts := numericPosts(rt)
		store := openStore(rt, posts)
		ctx := context.Background()

		highest := 0
		for _, post := range posts {
			id, _ := strconv.Atoi(post.ID)
			highest = max(highest, id)
		}

		created, err := Upsert(ctx, store, collection.Posts, domain.Post{Title: "new"})
		if err != nil {
			rt.Fatalf("Upsert() error = %v", err)
		}
		if got := len(created.Items); got != len(posts)+1 {
			rt.Fatalf("len(items) = %d, want %d", got, len(posts)+1)
		}
		if want := strconv.Itoa(highest + 1); created.Record.ID != want {
			rt.Fatalf("new id = %q, want %q", created.Record.ID, want)
		}
		if diff := cmp.Diff(posts, created.Items[:len(posts)]); diff != "" {
			rt.Fatalf("existing records changed (-want +got):\n%s", diff)
		}

		if len(posts) == 0 {
			return
		}
		index := rapid.IntRange(0, len(posts)-1).Draw(rt, "index")
		edited := posts[index]
		edited.Title = "edited"
		updated, err := Upsert(ctx, store, collection.Posts, edited)
		if err != nil {
			rt.Fatalf("Upsert() edit error = %v", err)
		}
		if updated.Created {
			rt.Fatalf("edit of id %s created a record", edited.ID)
		}
		if got := updated.Items[index]; got != edited {
			rt.Fatalf("items[%d] = %+v, want %+v", index, got, edited)
		}
		if got := len(updated.Items); got != len(posts)+1 {
			rt.Fatalf("len(items) after edit = %d, want %d", got, len(posts)+1)
		}
	})
}

func TestRemoveProperties(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		posts := numericPosts(rt)
		store := openStore(rt, posts)
		ctx := context.Background()

		missing, err := Remove(ctx, store, collection.Posts, "0")
		if err != nil {
			rt.Fatalf("Remove() error = %v", err)
		}
		if missing.Removed {
			rt.Fatal("removing an absent id reported removal")
		}
		if diff := cmp.Diff(posts, missing.Items); diff != "" {
			rt.Fatalf("absent removal changed items (-want +got):\n%s", diff)
		}

		if len(posts) == 0 {
			return
		}
		target := rapid.SampledFrom(posts).Draw(rt, "target")
		removed, err := Remove(ctx, store, collection.Posts, target.ID)
		if err != nil {
			rt.Fatalf("Remove() error = %v", err)
		}
		if got := len(removed.Items); got != len(posts)-1 {
			rt.Fatalf("len(items) = %d, want %d", got, len(posts)-1)
		}
		for _, item := range removed.Items {
			if item.ID == target.ID {
				rt.Fatalf("id %s still present", target.ID)
			}
		}
	})
}
