package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/louisbranch/postshelf/internal/platform/id"
	"github.com/louisbranch/postshelf/internal/services/content/auth"
	"github.com/louisbranch/postshelf/internal/services/content/collection"
	weberrors "github.com/louisbranch/postshelf/internal/services/web/platform/errors"
	"github.com/louisbranch/postshelf/internal/services/web/platform/httpx"
	"github.com/louisbranch/postshelf/internal/services/web/platform/requestmeta"
	"github.com/louisbranch/postshelf/internal/services/web/platform/scopecookie"
	"github.com/louisbranch/postshelf/internal/services/web/routepath"
)

type scopeKey struct{}

func scopeFromRequest(r *http.Request) *collection.Scope {
	if r == nil {
		return nil
	}
	scope, _ := r.Context().Value(scopeKey{}).(*collection.Scope)
	return scope
}

// withScope attaches the client's storage scope to the request, starting a
// new scope when the cookie is missing or fails verification.
func (h handlers) withScope() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scopeID, err := h.cookies.Read(r)
			if err != nil {
				if errors.Is(err, scopecookie.ErrInvalid) {
					h.logger.Printf("discarding scope cookie path=%s err=%v", r.URL.Path, err)
				}
				scopeID, err = id.NewID()
				if err != nil {
					h.writeError(w, r, nil, err)
					return
				}
				if err := h.cookies.Write(w, r, scopeID); err != nil {
					h.writeError(w, r, nil, err)
					return
				}
			}
			scope, err := h.scopes.Open(r.Context(), scopeID)
			if err != nil {
				h.writeError(w, r, nil, err)
				return
			}
			ctx := context.WithValue(r.Context(), scopeKey{}, scope)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requireLogin sends scopes without the login flag to the login page.
func (h handlers) requireLogin() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope := scopeFromRequest(r)
			loggedIn, err := auth.IsLoggedIn(r.Context(), scope.KV)
			if err != nil {
				h.writeError(w, r, scope, err)
				return
			}
			if !loggedIn {
				httpx.WriteRedirect(w, r, routepath.Login)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (h handlers) rejectCrossOriginWrites() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if requestmeta.IsCrossOriginWrite(r, h.policy) {
				h.logger.Printf("rejected cross-origin write path=%s origin=%q", r.URL.Path, r.Header.Get("Origin"))
				h.writeError(w, r, nil, weberrors.EK(weberrors.KindForbidden, "error.forbidden", "cross-origin write"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
