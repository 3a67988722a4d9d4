package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestIsMatchesByCode(t *testing.T) {
	t.Parallel()

	err := WithMetadata(CodePostNotFound, "post 7 not found", map[string]string{"id": "7"})
	if !stderrors.Is(err, New(CodePostNotFound, "")) {
		t.Fatal("expected errors with the same code to match")
	}
	if stderrors.Is(err, New(CodeDownloadNotFound, "")) {
		t.Fatal("expected errors with different codes not to match")
	}
}

func TestWrapUnwrapsCause(t *testing.T) {
	t.Parallel()

	cause := stderrors.New("disk full")
	err := fmt.Errorf("save post: %w", Wrap(CodeStorageUnavailable, "persist posts", cause))
	if !stderrors.Is(err, cause) {
		t.Fatal("expected cause to be reachable")
	}
	if got := CodeOf(err); got != CodeStorageUnavailable {
		t.Fatalf("CodeOf() = %q, want %q", got, CodeStorageUnavailable)
	}
	if got, want := err.Error(), "save post: persist posts: disk full"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestCodeOfDefaultsToUnknown(t *testing.T) {
	t.Parallel()

	if got := CodeOf(stderrors.New("boom")); got != CodeUnknown {
		t.Fatalf("CodeOf() = %q, want %q", got, CodeUnknown)
	}
	if got := CodeOf(nil); got != CodeUnknown {
		t.Fatalf("CodeOf(nil) = %q, want %q", got, CodeUnknown)
	}
}

func TestHTTPStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code Code
		want int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodePostNotFound, http.StatusNotFound},
		{CodeDownloadNotFound, http.StatusNotFound},
		{CodeInvalidCredentials, http.StatusUnauthorized},
		{CodeStorageUnavailable, http.StatusServiceUnavailable},
		{CodeUnknown, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if got := tc.code.HTTPStatus(); got != tc.want {
			t.Fatalf("%s.HTTPStatus() = %d, want %d", tc.code, got, tc.want)
		}
	}
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	if !IsNotFound(New(CodeDownloadNotFound, "missing")) {
		t.Fatal("expected not found")
	}
	if IsNotFound(New(CodeUnknown, "boom")) || IsNotFound(nil) {
		t.Fatal("expected other errors not to be not found")
	}
}
