package seed

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/gzip"
	"github.com/louisbranch/postshelf/internal/services/content/domain"
)

const sampleFixture = `{
  "posts": [{"id": "1", "title": "A", "thumbnail": "t.png", "content": "body"}],
  "downloads": []
}`

func TestLoadEmbeddedFixture(t *testing.T) {
	t.Parallel()

	loader, logs := newTestLoader(t, Config{Source: EmbeddedSource})
	got := loader.Load(context.Background())
	if len(got.Posts) == 0 || len(got.Downloads) == 0 {
		t.Fatalf("expected embedded fixture to carry posts and downloads, got %+v", got)
	}
	if logs.Len() != 0 {
		t.Fatalf("unexpected log output: %q", logs.String())
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data.json")
	mustWriteFile(t, path, []byte(sampleFixture))

	loader, _ := newTestLoader(t, Config{Source: path})
	got := loader.Load(context.Background())

	want := Fixture{
		Posts:     []domain.Post{{ID: "1", Title: "A", Thumbnail: "t.png", Content: "body"}},
		Downloads: []domain.Download{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFromGzipFile(t *testing.T) {
	t.Parallel()

	var compressed bytes.Buffer
	writer := gzip.NewWriter(&compressed)
	if _, err := writer.Write([]byte(sampleFixture)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	path := filepath.Join(t.TempDir(), "data.json.gz")
	mustWriteFile(t, path, compressed.Bytes())

	loader, _ := newTestLoader(t, Config{Source: path})
	got := loader.Load(context.Background())
	if len(got.Posts) != 1 || got.Posts[0].Title != "A" {
		t.Fatalf("Load() = %+v", got)
	}
}

func TestLoadFromHTTP(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleFixture))
	}))
	defer server.Close()

	loader, _ := newTestLoader(t, Config{Source: server.URL + "/data.json", Client: server.Client()})
	got := loader.Load(context.Background())
	if len(got.Posts) != 1 {
		t.Fatalf("Load() posts = %d, want 1", len(got.Posts))
	}
}

func TestLoadFailsOpen(t *testing.T) {
	t.Parallel()

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()

	dir := t.TempDir()
	malformed := filepath.Join(dir, "malformed.json")
	mustWriteFile(t, malformed, []byte(`{"posts": [`))
	wrongShape := filepath.Join(dir, "wrong.json")
	mustWriteFile(t, wrongShape, []byte(`{"posts": "nope", "downloads": []}`))
	missingField := filepath.Join(dir, "missing.json")
	mustWriteFile(t, missingField, []byte(`{"posts": []}`))

	cases := []struct {
		name string
		cfg  Config
	}{
		{name: "http status", cfg: Config{Source: failing.URL, Client: failing.Client()}},
		{name: "timeout", cfg: Config{Source: slow.URL, Client: slow.Client(), Timeout: 50 * time.Millisecond}},
		{name: "missing file", cfg: Config{Source: filepath.Join(dir, "absent.json")}},
		{name: "malformed json", cfg: Config{Source: malformed}},
		{name: "schema type", cfg: Config{Source: wrongShape}},
		{name: "schema required", cfg: Config{Source: missingField}},
	}
	for _, tc := range cases {
		loader, logs := newTestLoader(t, tc.cfg)
		got := loader.Load(context.Background())
		if diff := cmp.Diff(Empty(), got); diff != "" {
			t.Fatalf("%s: Load() mismatch (-want +got):\n%s", tc.name, diff)
		}
		if !strings.Contains(logs.String(), "seed fixture load failed") {
			t.Fatalf("%s: expected failure to be logged, got %q", tc.name, logs.String())
		}
	}
}

func TestNewLoaderDefaultsToEmbedded(t *testing.T) {
	t.Parallel()

	loader, err := NewLoader(Config{})
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}
	if loader.Source() != EmbeddedSource {
		t.Fatalf("Source() = %q, want %q", loader.Source(), EmbeddedSource)
	}
}

func TestDecodeNormalizesNullCollections(t *testing.T) {
	t.Parallel()

	got, err := Decode([]byte(`{"posts": null, "downloads": null}`), nil)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.Posts == nil || got.Downloads == nil {
		t.Fatalf("Decode() = %#v, want non-nil collections", got)
	}
}

func newTestLoader(t *testing.T, cfg Config) (*Loader, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	cfg.Logger = log.New(&logs, "", 0)
	loader, err := NewLoader(cfg)
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}
	return loader, &logs
}

func mustWriteFile(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
}
