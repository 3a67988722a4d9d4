package i18n

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResolveUsesAcceptLanguage(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9")
	loc, tag := Resolve(req)
	if tag.String() != "pt-BR" {
		t.Fatalf("tag = %q, want pt-BR", tag)
	}
	if got := T(loc, "notice.logout"); got != "Você foi desconectado." {
		t.Fatalf("T() = %q", got)
	}
}

func TestResolveCookieOverridesHeader(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "pt-BR")
	req.AddCookie(&http.Cookie{Name: LangCookie, Value: "en-US"})
	loc, tag := Resolve(req)
	if tag.String() != "en-US" {
		t.Fatalf("tag = %q, want en-US", tag)
	}
	if got := T(loc, "notice.logout"); got != "You have been signed out." {
		t.Fatalf("T() = %q", got)
	}
}

func TestResolveDefaultsToEnglish(t *testing.T) {
	t.Parallel()

	_, tag := Resolve(nil)
	if tag.String() != "en-US" {
		t.Fatalf("tag = %q, want en-US", tag)
	}
}

func TestTFallsBackToKey(t *testing.T) {
	t.Parallel()

	if got := T(nil, "page.unknown"); got != "page.unknown" {
		t.Fatalf("T(nil) = %q", got)
	}
}

func TestTfSubstitutesArgs(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "pt-BR")
	loc, _ := Resolve(req)
	if got := Tf(loc, "form.post.edit", "7"); got != "Editando postagem 7" {
		t.Fatalf("Tf() = %q", got)
	}
	if got := Tf(nil, "form.post.edit", "7"); got != "form.post.edit" {
		t.Fatalf("Tf(nil) = %q", got)
	}
}
