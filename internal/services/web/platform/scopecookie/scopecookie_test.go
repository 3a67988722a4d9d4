package scopecookie

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/louisbranch/postshelf/internal/platform/id"
)

var testSecret = []byte(strings.Repeat("k", MinSecretBytes))

func newScopeID(t *testing.T) string {
	t.Helper()
	scopeID, err := id.NewID()
	if err != nil {
		t.Fatalf("NewID() error = %v", err)
	}
	return scopeID
}

func TestNewValidatesConfig(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{Secret: []byte("short")}); err == nil {
		t.Fatal("expected short secret to fail")
	}
	if _, err := New(Config{Secret: testSecret, Persistent: true}); err == nil {
		t.Fatal("expected persistent cookie without max age to fail")
	}
}

func TestWriteAndReadRoundTrip(t *testing.T) {
	t.Parallel()

	codec, err := New(Config{Secret: testSecret})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	scopeID := newScopeID(t)

	req := httptest.NewRequest(http.MethodGet, "http://localhost/", nil)
	rr := httptest.NewRecorder()
	if err := codec.Write(rr, req, scopeID); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	cookie, err := http.ParseSetCookie(rr.Header().Get("Set-Cookie"))
	if err != nil {
		t.Fatalf("ParseSetCookie() error = %v", err)
	}
	if cookie.Name != Name || !cookie.HttpOnly || cookie.Secure {
		t.Fatalf("cookie = %+v", cookie)
	}
	if cookie.MaxAge != 0 {
		t.Fatalf("session cookie MaxAge = %d, want 0", cookie.MaxAge)
	}

	next := httptest.NewRequest(http.MethodGet, "http://localhost/admin", nil)
	next.AddCookie(cookie)
	got, err := codec.Read(next)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got != scopeID {
		t.Fatalf("Read() = %q, want %q", got, scopeID)
	}
}

func TestPersistentCookieExpires(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	codec, err := New(Config{Secret: testSecret, Persistent: true, MaxAge: time.Hour, Now: func() time.Time { return now }})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	rr := httptest.NewRecorder()
	if err := codec.Write(rr, httptest.NewRequest(http.MethodGet, "https://shelf.example/", nil), newScopeID(t)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	cookie, err := http.ParseSetCookie(rr.Header().Get("Set-Cookie"))
	if err != nil {
		t.Fatalf("ParseSetCookie() error = %v", err)
	}
	if cookie.MaxAge != 3600 || !cookie.Secure {
		t.Fatalf("cookie = %+v, want secure with MaxAge 3600", cookie)
	}

	if _, err := codec.Verify(cookie.Value); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	now = now.Add(2 * time.Hour)
	if _, err := codec.Verify(cookie.Value); !errors.Is(err, ErrInvalid) {
		t.Fatalf("Verify() expired error = %v, want %v", err, ErrInvalid)
	}
}

func TestVerifyRejectsForgedTokens(t *testing.T) {
	t.Parallel()

	codec, err := New(Config{Secret: testSecret})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	other, err := New(Config{Secret: []byte(strings.Repeat("z", MinSecretBytes))})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	scopeID := newScopeID(t)
	foreign, err := other.Sign(scopeID)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	wrongIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:  "someone-else",
		Subject: scopeID,
	}).SignedString(testSecret)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:  Issuer,
		Subject: "../../etc",
	}).SignedString(testSecret)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Issuer:  Issuer,
		Subject: scopeID,
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	for name, token := range map[string]string{
		"other secret": foreign,
		"wrong issuer": wrongIssuer,
		"bad subject":  badSubject,
		"alg none":     unsigned,
		"garbage":      "not-a-token",
	} {
		if _, err := codec.Verify(token); !errors.Is(err, ErrInvalid) {
			t.Fatalf("%s: Verify() error = %v, want %v", name, err, ErrInvalid)
		}
	}
}

func TestReadMissingCookie(t *testing.T) {
	t.Parallel()

	codec, err := New(Config{Secret: testSecret})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := codec.Read(httptest.NewRequest(http.MethodGet, "/", nil)); !errors.Is(err, ErrMissing) {
		t.Fatalf("Read() error = %v, want %v", err, ErrMissing)
	}
	if _, err := codec.Read(nil); !errors.Is(err, ErrMissing) {
		t.Fatalf("Read(nil) error = %v, want %v", err, ErrMissing)
	}
}

func TestClear(t *testing.T) {
	t.Parallel()

	codec, err := New(Config{Secret: testSecret})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	rr := httptest.NewRecorder()
	codec.Clear(rr, httptest.NewRequest(http.MethodPost, "/logout", nil))
	cookie, err := http.ParseSetCookie(rr.Header().Get("Set-Cookie"))
	if err != nil {
		t.Fatalf("ParseSetCookie() error = %v", err)
	}
	if cookie.Name != Name || cookie.MaxAge >= 0 {
		t.Fatalf("cookie = %+v, want expired %s", cookie, Name)
	}
}
