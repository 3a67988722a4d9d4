package requestctx

import (
	"context"
	"testing"
)

func TestScopeIDFromContextRoundTrip(t *testing.T) {
	ctx := WithScopeID(context.Background(), "scope-42")
	if got := ScopeIDFromContext(ctx); got != "scope-42" {
		t.Fatalf("ScopeIDFromContext = %q, want %q", got, "scope-42")
	}
}

func TestScopeIDFromContextEmpty(t *testing.T) {
	if got := ScopeIDFromContext(context.Background()); got != "-" {
		t.Fatalf("ScopeIDFromContext = %q, want %q", got, "-")
	}
}

func TestScopeIDFromContextNil(t *testing.T) {
	if got := ScopeIDFromContext(nil); got != "-" {
		t.Fatalf("expected placeholder for nil context, got %q", got)
	}
}

func TestWithScopeIDNilContext(t *testing.T) {
	ctx := WithScopeID(nil, "scope-99")
	if ctx == nil {
		t.Fatal("expected non-nil context")
	}
	if got := ScopeIDFromContext(ctx); got != "scope-99" {
		t.Fatalf("ScopeIDFromContext = %q, want %q", got, "scope-99")
	}
}
