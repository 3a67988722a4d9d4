package templates

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/louisbranch/postshelf/internal/services/content/domain"
	"github.com/louisbranch/postshelf/internal/services/web/platform/i18n"
	"golang.org/x/text/language"
)

func render(t *testing.T, component templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := component.Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return buf.String()
}

func englishPage() PageContext {
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	loc, tag := i18n.Resolve(req)
	return PageContext{Lang: tag.String(), Loc: loc, CurrentPath: "/"}
}

func assertContains(t *testing.T, body string, markers ...string) {
	t.Helper()
	for _, marker := range markers {
		if !strings.Contains(body, marker) {
			t.Fatalf("body missing %q:\n%s", marker, body)
		}
	}
}

func TestHomePageRendersCardsAndDownloads(t *testing.T) {
	t.Parallel()

	posts := []domain.Post{{
		ID:           "1",
		Title:        "Launch day",
		Thumbnail:    "https://example.com/a.png",
		Content:      "<p>" + strings.Repeat("a", 200) + "</p>",
		DownloadLink: "https://example.com/kit.zip",
	}}
	downloads := []domain.Download{{ID: "4", Title: "User guide", Link: "https://example.com/guide.pdf", Description: "PDF"}}

	body := render(t, HomePage(englishPage(), posts, downloads))
	assertContains(t, body,
		`<html lang="en-US">`,
		`href="/posts/1"`,
		strings.Repeat("a", 150)+"...",
		`download="Launch-day-download"`,
		`download="User-guide"`,
		"View full post",
		`href="/login"`,
	)
	if strings.Contains(body, strings.Repeat("a", 151)) {
		t.Fatal("preview longer than 150 characters")
	}
}

func TestHomePageEmptyState(t *testing.T) {
	t.Parallel()

	body := render(t, HomePage(englishPage(), nil, nil))
	assertContains(t, body, "No posts available yet.", "No downloads available yet.")
}

func TestHomePageEscapesUserContent(t *testing.T) {
	t.Parallel()

	posts := []domain.Post{{ID: "1", Title: `<script>alert(1)</script>`, Thumbnail: "javascript:alert(1)"}}
	body := render(t, HomePage(englishPage(), posts, nil))
	if strings.Contains(body, "<script>alert(1)</script>") {
		t.Fatal("title rendered unescaped")
	}
	if strings.Contains(body, `src="javascript:`) {
		t.Fatal("unsafe url rendered")
	}
}

func TestPostPageShowsContentAsText(t *testing.T) {
	t.Parallel()

	post := domain.Post{ID: "2", Title: "Notes", Content: `<b>bold</b> text<script>alert(1)</script>`}
	body := render(t, PostPage(englishPage(), post))
	assertContains(t, body,
		`<div class="post-body">&lt;b&gt;bold&lt;/b&gt; text&lt;script&gt;alert(1)&lt;/script&gt;</div>`,
		"Back to listing",
	)
	if strings.Contains(body, "<b>bold</b>") || strings.Contains(body, "<script>alert(1)") {
		t.Fatal("post content rendered as markup")
	}
}

func TestAdminPageFormsAndConfirmation(t *testing.T) {
	t.Parallel()

	page := englishPage()
	page.LoggedIn = true
	editing := domain.Post{ID: "3", Title: "Draft", Content: "c"}
	body := render(t, AdminPage(page, AdminView{
		Posts:       []domain.Post{editing},
		EditingPost: &editing,
	}))
	assertContains(t, body,
		`id="post-form"`,
		`id="post-id" name="id" value="3"`,
		"Editing post 3",
		`action="/admin/posts/3/delete"`,
		`data-confirm="Are you sure you want to delete this post?"`,
		`id="cancel-edit-btn"`,
		"New download",
		"No downloads saved.",
		`id="logout-btn"`,
	)
}

func TestLayoutRendersToastInPortuguese(t *testing.T) {
	t.Parallel()

	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "pt-BR")
	loc, tag := i18n.Resolve(req)
	if tag != language.MustParse("pt-BR") {
		t.Fatalf("tag = %s, want pt-BR", tag)
	}
	page := PageContext{Lang: tag.String(), Loc: loc, Toast: &Toast{Kind: "success", Message: "Postagem adicionada!"}}
	body := render(t, LoginPage(page, "admin"))
	assertContains(t, body,
		`<html lang="pt-BR">`,
		`class="toast toast-success"`,
		"Postagem adicionada!",
		`name="username" autocomplete="username" required value="admin"`,
		"Usuário",
	)
}

func TestErrorPage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		key    string
		want   string
	}{
		{http.StatusBadRequest, "", "The request could not be processed."},
		{http.StatusUnauthorized, "", "You need to sign in to continue."},
		{http.StatusForbidden, "", "This action is not allowed."},
		{http.StatusNotFound, "", "Page not found."},
		{http.StatusServiceUnavailable, "", "Storage is unavailable. Try again shortly."},
		{http.StatusInternalServerError, "", "Something went wrong."},
		{http.StatusInternalServerError, "error.not_found", "Page not found."},
	}
	for _, tc := range tests {
		body := render(t, ErrorPage(englishPage(), tc.status, tc.key))
		if !strings.Contains(body, tc.want) {
			t.Fatalf("ErrorPage(%d, %q) missing %q", tc.status, tc.key, tc.want)
		}
	}
}
