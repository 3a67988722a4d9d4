package otel_test

import (
	"context"
	"testing"

	"github.com/louisbranch/postshelf/internal/platform/otel"
)

func TestSetup_NoopWhenEndpointEmpty(t *testing.T) {
	t.Setenv("POSTSHELF_OTEL_ENDPOINT", "")
	t.Setenv("POSTSHELF_OTEL_ENABLED", "")

	shutdown, err := otel.Setup(context.Background(), "test-service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetup_NoopWhenExplicitlyDisabled(t *testing.T) {
	t.Setenv("POSTSHELF_OTEL_ENDPOINT", "http://localhost:4318")
	t.Setenv("POSTSHELF_OTEL_ENABLED", "false")

	shutdown, err := otel.Setup(context.Background(), "test-service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetup_CreatesProviderWhenEndpointSet(t *testing.T) {
	// Non-routable address so nothing is exported.
	t.Setenv("POSTSHELF_OTEL_ENDPOINT", "http://192.0.2.1:4318")
	t.Setenv("POSTSHELF_OTEL_ENABLED", "")

	shutdown, err := otel.Setup(context.Background(), "test-service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestTracerStartsSpanWithoutProvider(t *testing.T) {
	ctx, span := otel.Tracer("content/collection").Start(context.Background(), "sample")
	defer span.End()
	if ctx == nil {
		t.Fatal("expected span context")
	}
}
