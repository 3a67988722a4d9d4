// Package web hosts the browser-facing postshelf service: the public
// listing, the login gate and the admin panel.
package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/louisbranch/postshelf/internal/platform/timeouts"
	"github.com/louisbranch/postshelf/internal/services/content/auth"
	"github.com/louisbranch/postshelf/internal/services/content/collection"
	"github.com/louisbranch/postshelf/internal/services/web/platform/httpx"
	"github.com/louisbranch/postshelf/internal/services/web/platform/observability"
	"github.com/louisbranch/postshelf/internal/services/web/platform/requestmeta"
	"github.com/louisbranch/postshelf/internal/services/web/platform/scopecookie"
	"github.com/louisbranch/postshelf/internal/services/web/routepath"
	webstatic "github.com/louisbranch/postshelf/internal/services/web/static"
)

// Config defines startup inputs for the web service.
type Config struct {
	HTTPAddr string
	Scopes   *collection.Registry
	Gate     auth.Gate
	Cookies  *scopecookie.Codec
	Policy   requestmeta.SchemePolicy
	// IdleTTL evicts scopes unused for this long. Zero disables the sweep.
	IdleTTL time.Duration
	// WipeIdle clears the storage of evicted scopes, ending session-mode
	// clients.
	WipeIdle bool
	Logger   *log.Logger
}

// Server hosts the web HTTP surface and lifecycle.
type Server struct {
	httpAddr   string
	httpServer *http.Server
	scopes     *collection.Registry
	idleTTL    time.Duration
	wipeIdle   bool
	logger     *log.Logger
}

// NewHandler builds the root handler.
func NewHandler(cfg Config) (http.Handler, error) {
	if cfg.Scopes == nil {
		return nil, errors.New("scope registry is required")
	}
	if cfg.Cookies == nil {
		return nil, errors.New("scope cookie codec is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	h := handlers{
		scopes:  cfg.Scopes,
		gate:    cfg.Gate,
		cookies: cfg.Cookies,
		policy:  cfg.Policy,
		logger:  logger,
	}

	scoped := func(handler http.HandlerFunc) http.Handler {
		return httpx.Chain(handler, h.withScope())
	}
	admin := func(handler http.HandlerFunc) http.Handler {
		return httpx.Chain(handler, h.withScope(), h.requireLogin())
	}

	mux := http.NewServeMux()
	mux.Handle("GET "+routepath.Static, http.StripPrefix(routepath.Static, http.FileServer(http.FS(webstatic.FS))))
	mux.HandleFunc("GET "+routepath.Health, h.health)

	mux.Handle("GET /{$}", scoped(h.home))
	mux.Handle("GET "+routepath.PostsPrefix+"{id}", scoped(h.post))
	mux.Handle("GET "+routepath.Login, scoped(h.loginPage))
	mux.Handle("POST "+routepath.Login, scoped(h.loginSubmit))
	mux.Handle("POST "+routepath.Logout, scoped(h.logout))

	mux.Handle("GET "+routepath.Admin, admin(h.adminPanel))
	mux.Handle("POST "+routepath.AdminPosts, admin(h.savePost))
	mux.Handle("GET "+routepath.AdminPostsPrefix+"{id}/edit", admin(h.editPost))
	mux.Handle("POST "+routepath.AdminPostsPrefix+"{id}/delete", admin(h.deletePost))
	mux.Handle("POST "+routepath.AdminDownloads, admin(h.saveDownload))
	mux.Handle("GET "+routepath.AdminDownloadsPrefix+"{id}/edit", admin(h.editDownload))
	mux.Handle("POST "+routepath.AdminDownloadsPrefix+"{id}/delete", admin(h.deleteDownload))

	mux.Handle("/", scoped(h.notFound))

	return httpx.Chain(mux,
		httpx.RecoverPanic(),
		httpx.RequestID(),
		observability.RequestLogger(logger),
		h.rejectCrossOriginWrites(),
	), nil
}

// NewServer validates config and constructs a web server.
func NewServer(_ context.Context, cfg Config) (*Server, error) {
	httpAddr := strings.TrimSpace(cfg.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	handler, err := NewHandler(cfg)
	if err != nil {
		return nil, fmt.Errorf("compose web handler: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		httpAddr: httpAddr,
		httpServer: &http.Server{
			Addr:              httpAddr,
			Handler:           handler,
			ReadHeaderTimeout: timeouts.ReadHeader,
		},
		scopes:   cfg.Scopes,
		idleTTL:  cfg.IdleTTL,
		wipeIdle: cfg.WipeIdle,
		logger:   logger,
	}, nil
}

// ListenAndServe serves HTTP traffic until context cancellation or server stop.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("web server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	if s.idleTTL > 0 {
		go s.sweepIdleScopes(sweepCtx, timeouts.SessionSweep)
	}

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Printf("web listening addr=%s", s.httpAddr)
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown web http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve web http: %w", err)
	}
}

// Close closes open server resources.
func (s *Server) Close() {
	if s == nil || s.httpServer == nil {
		return
	}
	_ = s.httpServer.Close()
}

func (s *Server) sweepIdleScopes(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Server) sweepOnce(ctx context.Context) []string {
	evicted := s.scopes.EvictIdle(ctx, s.idleTTL, s.wipeIdle)
	if len(evicted) > 0 {
		s.logger.Printf("evicted idle scopes count=%d remaining=%d wiped=%t", len(evicted), s.scopes.Len(), s.wipeIdle)
	}
	return evicted
}
