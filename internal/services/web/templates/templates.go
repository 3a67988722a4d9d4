// Package templates renders the postshelf pages as templ components. The
// components live in the .templ files next to this one.
package templates

//go:generate templ generate

import (
	"net/http"
	"strings"

	"github.com/louisbranch/postshelf/internal/services/content/domain"
	webi18n "github.com/louisbranch/postshelf/internal/services/web/platform/i18n"
)

// Localizer provides translated strings for components.
type Localizer = webi18n.Localizer

// T returns a translated string or the key.
func T(loc Localizer, key string) string {
	return webi18n.T(loc, key)
}

// Tf returns a translated string with its placeholders filled from args.
func Tf(loc Localizer, key string, args ...any) string {
	return webi18n.Tf(loc, key, args...)
}

// Toast is a one-time notice shown above the page body.
type Toast struct {
	Kind    string
	Message string
}

// PageContext carries what every page needs from the request.
type PageContext struct {
	Lang        string
	Loc         Localizer
	CurrentPath string
	LoggedIn    bool
	Toast       *Toast
}

func pageLang(page PageContext) string {
	if page.Lang == "" {
		return "en-US"
	}
	return page.Lang
}

// downloadName is the file name suggested for a download link.
func downloadName(title string) string {
	return strings.Join(strings.Fields(title), "-")
}

func editingPost(editing *domain.Post) domain.Post {
	if editing == nil {
		return domain.Post{}
	}
	return *editing
}

func editingDownload(editing *domain.Download) domain.Download {
	if editing == nil {
		return domain.Download{}
	}
	return *editing
}

func postFormHeading(loc Localizer, editing *domain.Post) string {
	if editing == nil {
		return T(loc, "form.post.new")
	}
	return Tf(loc, "form.post.edit", editing.ID)
}

func downloadFormHeading(loc Localizer, editing *domain.Download) string {
	if editing == nil {
		return T(loc, "form.download.new")
	}
	return Tf(loc, "form.download.edit", editing.ID)
}

// errorMessageKey prefers the key carried by the error, then falls back to
// one message per status class.
func errorMessageKey(statusCode int, key string) string {
	if key = strings.TrimSpace(key); key != "" {
		return key
	}
	switch statusCode {
	case http.StatusBadRequest:
		return "error.invalid_input"
	case http.StatusUnauthorized:
		return "error.unauthorized"
	case http.StatusForbidden:
		return "error.forbidden"
	case http.StatusNotFound:
		return "error.not_found"
	case http.StatusServiceUnavailable:
		return "error.unavailable"
	default:
		return "error.internal"
	}
}
