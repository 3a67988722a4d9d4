package web

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	apperrors "github.com/louisbranch/postshelf/internal/platform/errors"
	"github.com/louisbranch/postshelf/internal/services/content/auth"
	"github.com/louisbranch/postshelf/internal/services/content/collection"
	"github.com/louisbranch/postshelf/internal/services/content/command"
	"github.com/louisbranch/postshelf/internal/services/content/domain"
	weberrors "github.com/louisbranch/postshelf/internal/services/web/platform/errors"
	"github.com/louisbranch/postshelf/internal/services/web/platform/flash"
	"github.com/louisbranch/postshelf/internal/services/web/platform/httpx"
	webi18n "github.com/louisbranch/postshelf/internal/services/web/platform/i18n"
	"github.com/louisbranch/postshelf/internal/services/web/platform/requestmeta"
	"github.com/louisbranch/postshelf/internal/services/web/platform/scopecookie"
	"github.com/louisbranch/postshelf/internal/services/web/routepath"
	"github.com/louisbranch/postshelf/internal/services/web/templates"
)

type handlers struct {
	scopes  *collection.Registry
	gate    auth.Gate
	cookies *scopecookie.Codec
	policy  requestmeta.SchemePolicy
	logger  *log.Logger
}

func (h handlers) health(w http.ResponseWriter, _ *http.Request) {
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h handlers) home(w http.ResponseWriter, r *http.Request) {
	scope := scopeFromRequest(r)
	page := h.pageContext(w, r, scope)
	h.render(w, r, http.StatusOK, templates.HomePage(page, command.ListPosts(scope.Store), command.ListDownloads(scope.Store)))
}

func (h handlers) post(w http.ResponseWriter, r *http.Request) {
	scope := scopeFromRequest(r)
	post, err := command.FindPost(scope.Store, r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, scope, err)
		return
	}
	page := h.pageContext(w, r, scope)
	h.render(w, r, http.StatusOK, templates.PostPage(page, post))
}

func (h handlers) notFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, r, scopeFromRequest(r), weberrors.EK(weberrors.KindNotFound, "error.not_found", "page not found"))
}

func (h handlers) loginPage(w http.ResponseWriter, r *http.Request) {
	scope := scopeFromRequest(r)
	page := h.pageContext(w, r, scope)
	if page.LoggedIn {
		httpx.WriteRedirect(w, r, routepath.Admin)
		return
	}
	h.render(w, r, http.StatusOK, templates.LoginPage(page, ""))
}

func (h handlers) loginSubmit(w http.ResponseWriter, r *http.Request) {
	scope := scopeFromRequest(r)
	if err := r.ParseForm(); err != nil {
		h.writeError(w, r, scope, weberrors.EK(weberrors.KindInvalidInput, "error.invalid_input", "parse login form"))
		return
	}
	username := strings.TrimSpace(r.PostFormValue("username"))
	err := h.gate.Login(r.Context(), scope.KV, username, r.PostFormValue("password"))
	if errors.Is(err, auth.ErrInvalidCredentials) {
		h.logger.Printf("login rejected scope=%s", scope.ID)
		page := h.pageContext(w, r, scope)
		page.Toast = h.toast(page.Loc, flash.NoticeError("notice.login.failed"))
		h.render(w, r, http.StatusUnauthorized, templates.LoginPage(page, username))
		return
	}
	if err != nil {
		h.writeError(w, r, scope, err)
		return
	}
	h.redirectWithNotice(w, r, routepath.Admin, flash.NoticeSuccess("notice.login.success"))
}

func (h handlers) logout(w http.ResponseWriter, r *http.Request) {
	scope := scopeFromRequest(r)
	if err := h.gate.Logout(r.Context(), scope.ID, scope.KV); err != nil {
		h.writeError(w, r, scope, err)
		return
	}
	if h.gate.ClearOnLogout {
		h.cookies.Clear(w, r)
	}
	h.redirectWithNotice(w, r, routepath.Login, flash.NoticeInfo("notice.logout"))
}

func (h handlers) adminPanel(w http.ResponseWriter, r *http.Request) {
	h.renderAdmin(w, r, templates.AdminView{})
}

func (h handlers) editPost(w http.ResponseWriter, r *http.Request) {
	scope := scopeFromRequest(r)
	post, err := command.FindPost(scope.Store, r.PathValue("id"))
	if err != nil {
		h.adminNotFound(w, r, scope, err, "notice.post.not_found")
		return
	}
	h.renderAdmin(w, r, templates.AdminView{EditingPost: &post})
}

func (h handlers) editDownload(w http.ResponseWriter, r *http.Request) {
	scope := scopeFromRequest(r)
	download, err := command.FindDownload(scope.Store, r.PathValue("id"))
	if err != nil {
		h.adminNotFound(w, r, scope, err, "notice.download.not_found")
		return
	}
	h.renderAdmin(w, r, templates.AdminView{EditingDownload: &download})
}

func (h handlers) savePost(w http.ResponseWriter, r *http.Request) {
	scope := scopeFromRequest(r)
	if err := r.ParseForm(); err != nil {
		h.writeError(w, r, scope, weberrors.EK(weberrors.KindInvalidInput, "error.invalid_input", "parse post form"))
		return
	}
	result, err := command.OnSavePost(r.Context(), scope.Store, domain.Post{
		ID:           r.PostFormValue("id"),
		Title:        r.PostFormValue("title"),
		Thumbnail:    r.PostFormValue("thumbnail"),
		Content:      r.PostFormValue("content"),
		DownloadLink: r.PostFormValue("downloadLink"),
	})
	if err != nil {
		h.writeError(w, r, scope, err)
		return
	}
	key := "notice.post.updated"
	if result.Created {
		key = "notice.post.created"
	}
	h.redirectWithNotice(w, r, routepath.Admin, flash.NoticeSuccess(key))
}

func (h handlers) deletePost(w http.ResponseWriter, r *http.Request) {
	scope := scopeFromRequest(r)
	removed, err := command.OnDeletePost(r.Context(), scope.Store, r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, scope, err)
		return
	}
	notice := flash.NoticeSuccess("notice.post.deleted")
	if !removed {
		notice = flash.NoticeError("notice.post.not_found")
	}
	h.redirectWithNotice(w, r, routepath.Admin, notice)
}

func (h handlers) saveDownload(w http.ResponseWriter, r *http.Request) {
	scope := scopeFromRequest(r)
	if err := r.ParseForm(); err != nil {
		h.writeError(w, r, scope, weberrors.EK(weberrors.KindInvalidInput, "error.invalid_input", "parse download form"))
		return
	}
	result, err := command.OnSaveDownload(r.Context(), scope.Store, domain.Download{
		ID:          r.PostFormValue("id"),
		Title:       r.PostFormValue("title"),
		Link:        r.PostFormValue("link"),
		Description: r.PostFormValue("description"),
	})
	if err != nil {
		h.writeError(w, r, scope, err)
		return
	}
	key := "notice.download.updated"
	if result.Created {
		key = "notice.download.created"
	}
	h.redirectWithNotice(w, r, routepath.Admin, flash.NoticeSuccess(key))
}

func (h handlers) deleteDownload(w http.ResponseWriter, r *http.Request) {
	scope := scopeFromRequest(r)
	removed, err := command.OnDeleteDownload(r.Context(), scope.Store, r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, scope, err)
		return
	}
	notice := flash.NoticeSuccess("notice.download.deleted")
	if !removed {
		notice = flash.NoticeError("notice.download.not_found")
	}
	h.redirectWithNotice(w, r, routepath.Admin, notice)
}

func (h handlers) renderAdmin(w http.ResponseWriter, r *http.Request, view templates.AdminView) {
	scope := scopeFromRequest(r)
	view.Posts = command.ListPosts(scope.Store)
	view.Downloads = command.ListDownloads(scope.Store)
	page := h.pageContext(w, r, scope)
	h.render(w, r, http.StatusOK, templates.AdminPage(page, view))
}

// adminNotFound turns a missing edit target into a notice on the panel;
// other failures render the error page.
func (h handlers) adminNotFound(w http.ResponseWriter, r *http.Request, scope *collection.Scope, err error, key string) {
	if !apperrors.IsNotFound(err) {
		h.writeError(w, r, scope, err)
		return
	}
	h.redirectWithNotice(w, r, routepath.Admin, flash.NoticeError(key))
}

func (h handlers) redirectWithNotice(w http.ResponseWriter, r *http.Request, location string, notice flash.Notice) {
	flash.WriteWithPolicy(w, r, notice, h.policy)
	httpx.WriteRedirect(w, r, location)
}

// pageContext consumes the pending flash notice and resolves the request
// language and login state.
func (h handlers) pageContext(w http.ResponseWriter, r *http.Request, scope *collection.Scope) templates.PageContext {
	loc, tag := webi18n.Resolve(r)
	page := templates.PageContext{
		Lang:        tag.String(),
		Loc:         loc,
		CurrentPath: r.URL.Path,
	}
	if scope != nil {
		loggedIn, err := auth.IsLoggedIn(r.Context(), scope.KV)
		if err != nil {
			h.logger.Printf("read login flag scope=%s err=%v", scope.ID, err)
		}
		page.LoggedIn = loggedIn
	}
	if notice, ok := flash.ReadAndClear(w, r); ok {
		page.Toast = h.toast(loc, notice)
	}
	return page
}

func (h handlers) toast(loc templates.Localizer, notice flash.Notice) *templates.Toast {
	return &templates.Toast{
		Kind:    string(notice.Kind),
		Message: templates.T(loc, notice.Key),
	}
}

func (h handlers) render(w http.ResponseWriter, r *http.Request, status int, component templ.Component) {
	if err := httpx.WriteComponent(w, r, status, component); err != nil {
		h.logger.Printf("render page path=%s err=%v", r.URL.Path, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// writeError renders the error page with the status the error maps to.
func (h handlers) writeError(w http.ResponseWriter, r *http.Request, scope *collection.Scope, err error) {
	status := weberrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Printf("request failed method=%s path=%s request_id=%s err=%v", r.Method, r.URL.Path, w.Header().Get(httpx.RequestIDHeader), err)
	}
	page := h.pageContext(w, r, scope)
	h.render(w, r, status, templates.ErrorPage(page, status, weberrors.LocalizationKey(err)))
}
