// Package i18n resolves the language of a web request and the printer used
// to localize its page.
package i18n

import (
	"net/http"
	"strings"

	"github.com/louisbranch/postshelf/internal/platform/i18n/catalog"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// LangCookie overrides Accept-Language when set to a supported locale.
const LangCookie = "postshelf_lang"

// Localizer provides translated strings for templ components.
type Localizer interface {
	Sprintf(key message.Reference, args ...any) string
}

// Resolve picks the request language from the language cookie, then
// Accept-Language, and returns its printer and tag.
func Resolve(r *http.Request) (*message.Printer, language.Tag) {
	return ResolveWith(catalog.Default(), r)
}

// ResolveWith is Resolve over an explicit bundle.
func ResolveWith(bundle *catalog.Bundle, r *http.Request) (*message.Printer, language.Tag) {
	preference := ""
	if r != nil {
		if cookie, err := r.Cookie(LangCookie); err == nil && bundle.HasLocale(strings.TrimSpace(cookie.Value)) {
			preference = strings.TrimSpace(cookie.Value)
		} else {
			preference = r.Header.Get("Accept-Language")
		}
	}
	tag := bundle.Match(preference)
	return bundle.Printer(tag), tag
}

// T returns the translation of key, or the key itself when nothing is
// registered for it.
func T(loc Localizer, key string) string {
	if loc != nil {
		if value := strings.TrimSpace(loc.Sprintf(key)); value != "" {
			return value
		}
	}
	return key
}

// Tf is T for messages with placeholders. Without a localizer the key is
// returned unformatted.
func Tf(loc Localizer, key string, args ...any) string {
	if loc != nil {
		if value := strings.TrimSpace(loc.Sprintf(key, args...)); value != "" {
			return value
		}
	}
	return key
}
