// Package seed loads the fixture document that initializes empty client
// scopes. Loading fails open: callers always receive a usable, possibly
// empty, fixture and failures are only logged.
package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/louisbranch/postshelf/internal/platform/otel"
	"github.com/louisbranch/postshelf/internal/platform/requestctx"
	"github.com/louisbranch/postshelf/internal/platform/timeouts"
	"github.com/louisbranch/postshelf/internal/services/content/domain"
	"github.com/louisbranch/postshelf/internal/services/content/seed/fixture"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// EmbeddedSource selects the fixture compiled into the binary.
const EmbeddedSource = "embedded:"

const maxFixtureBytes = 8 << 20

var gzipMagic = []byte{0x1f, 0x8b}

// Fixture is the seed document: the two named collections.
type Fixture struct {
	Posts     []domain.Post     `json:"posts"`
	Downloads []domain.Download `json:"downloads"`
}

// Empty returns a fixture with non-nil, empty collections.
func Empty() Fixture {
	return Fixture{Posts: []domain.Post{}, Downloads: []domain.Download{}}
}

// Config controls where and how the fixture is read.
type Config struct {
	// Source is a file path, an http(s) URL, or EmbeddedSource.
	Source string
	// Timeout bounds one Load. Zero uses timeouts.FixtureFetch.
	Timeout time.Duration
	Client  *http.Client
	Logger  *log.Logger
}

// Loader reads and validates the fixture document.
type Loader struct {
	source  string
	timeout time.Duration
	client  *http.Client
	logger  *log.Logger
	schema  *jsonschema.Schema
}

// NewLoader compiles the fixture schema and returns a Loader.
func NewLoader(cfg Config) (*Loader, error) {
	schema, err := jsonschema.CompileString("fixture.schema.json", fixture.Schema)
	if err != nil {
		return nil, fmt.Errorf("compile fixture schema: %w", err)
	}
	source := strings.TrimSpace(cfg.Source)
	if source == "" {
		source = EmbeddedSource
	}
	client := cfg.Client
	if client == nil {
		client = http.DefaultClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = timeouts.FixtureFetch
	}
	return &Loader{
		source:  source,
		timeout: timeout,
		client:  client,
		logger:  logger,
		schema:  schema,
	}, nil
}

// Source returns the configured fixture source.
func (l *Loader) Source() string {
	return l.source
}

// Load returns the fixture, or an empty one when it cannot be read, decoded
// or validated.
func (l *Loader) Load(ctx context.Context) Fixture {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := otel.Tracer("content/seed").Start(ctx, "seed.Load")
	defer span.End()
	span.SetAttributes(attribute.String("seed.source", l.source))

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	loaded, err := l.load(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fixture load failed")
		l.logger.Printf("seed fixture load failed source=%s scope=%s err=%v", l.source, requestctx.ScopeIDFromContext(ctx), err)
		return Empty()
	}
	span.SetAttributes(
		attribute.Int("seed.posts", len(loaded.Posts)),
		attribute.Int("seed.downloads", len(loaded.Downloads)),
	)
	return loaded
}

func (l *Loader) load(ctx context.Context) (Fixture, error) {
	raw, err := l.read(ctx)
	if err != nil {
		return Fixture{}, err
	}
	raw, err = decompress(raw)
	if err != nil {
		return Fixture{}, err
	}
	return Decode(raw, l.schema)
}

func (l *Loader) read(ctx context.Context) ([]byte, error) {
	switch {
	case l.source == EmbeddedSource:
		return fixture.Data, nil
	case strings.HasPrefix(l.source, "http://"), strings.HasPrefix(l.source, "https://"):
		return l.fetch(ctx)
	default:
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := os.ReadFile(l.source)
		if err != nil {
			return nil, fmt.Errorf("read fixture: %w", err)
		}
		return raw, nil
	}
}

func (l *Loader) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.source, nil)
	if err != nil {
		return nil, fmt.Errorf("build fixture request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch fixture: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch fixture: http status %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxFixtureBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read fixture body: %w", err)
	}
	if len(raw) > maxFixtureBytes {
		return nil, errors.New("fixture exceeds size limit")
	}
	return raw, nil
}

// decompress inflates gzip payloads, detected by magic bytes so both
// .json.gz files and gzip-encoded responses work.
func decompress(raw []byte) ([]byte, error) {
	if !bytes.HasPrefix(raw, gzipMagic) {
		return raw, nil
	}
	reader, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("open gzip fixture: %w", err)
	}
	defer reader.Close()
	inflated, err := io.ReadAll(io.LimitReader(reader, maxFixtureBytes+1))
	if err != nil {
		return nil, fmt.Errorf("inflate fixture: %w", err)
	}
	if len(inflated) > maxFixtureBytes {
		return nil, errors.New("fixture exceeds size limit")
	}
	return inflated, nil
}

// Decode validates raw against schema and decodes it into a Fixture with
// non-nil collections.
func Decode(raw []byte, schema *jsonschema.Schema) (Fixture, error) {
	if schema != nil {
		decoder := json.NewDecoder(bytes.NewReader(raw))
		decoder.UseNumber()
		var document any
		if err := decoder.Decode(&document); err != nil {
			return Fixture{}, fmt.Errorf("parse fixture: %w", err)
		}
		if err := schema.Validate(document); err != nil {
			return Fixture{}, fmt.Errorf("validate fixture: %w", err)
		}
	}
	var decoded Fixture
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Fixture{}, fmt.Errorf("parse fixture: %w", err)
	}
	if decoded.Posts == nil {
		decoded.Posts = []domain.Post{}
	}
	if decoded.Downloads == nil {
		decoded.Downloads = []domain.Download{}
	}
	return decoded, nil
}
