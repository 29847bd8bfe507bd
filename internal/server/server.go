// Package server exposes the built corpus over HTTP for preview: pages by
// slug with locale negotiation, a health endpoint, build status, and
// Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"git.home.luguber.info/inful/contentpress/internal/config"
	"git.home.luguber.info/inful/contentpress/internal/document"
	"git.home.luguber.info/inful/contentpress/internal/locale"
	"git.home.luguber.info/inful/contentpress/internal/logfields"
	"git.home.luguber.info/inful/contentpress/internal/pipeline"
)

// BuildFunc runs one build. Injected so tests can stub the pipeline.
type BuildFunc func(ctx context.Context) (*pipeline.Result, error)

// siteState is the immutable serving state derived from one build. Rebuilds
// swap the whole state atomically; requests never see a half-built corpus.
type siteState struct {
	result *pipeline.Result
	index  *document.SlugIndex
	router *locale.Router
}

// Server serves rendered pages for the most recent successful build.
type Server struct {
	cfg      *config.Config
	build    BuildFunc
	registry *prom.Registry

	mu    sync.RWMutex
	state *siteState

	httpServer *http.Server
}

// New creates a preview server. registry may be nil to disable /metrics.
func New(cfg *config.Config, build BuildFunc, registry *prom.Registry) *Server {
	return &Server{cfg: cfg, build: build, registry: registry}
}

// Rebuild runs a build and swaps the serving state on success. A failed
// build leaves the previous state serving.
func (s *Server) Rebuild(ctx context.Context) error {
	result, err := s.build(ctx)
	if err != nil {
		slog.Error("Rebuild failed; keeping previous site state", logfields.Error(err))
		return err
	}

	index, err := document.BuildSlugIndex(result.Corpus)
	if err != nil {
		return err
	}
	router, err := locale.NewRouter(result.Corpus, s.cfg.Content.FallbackLocale)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.state = &siteState{result: result, index: index, router: router}
	s.mu.Unlock()

	slog.Info("Serving state updated",
		logfields.BuildID(result.BuildID),
		slog.Int("documents", result.Corpus.Len()))
	return nil
}

func (s *Server) current() *siteState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Handler builds the HTTP routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	if s.registry != nil && s.cfg.Server.Metrics {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	mux.HandleFunc("GET /", s.handlePage)
	return logRequests(mux)
}

// ListenAndServe starts the server and blocks until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Preview server listening", slog.String("addr", s.cfg.Server.Addr))
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	state := s.current()
	w.Header().Set("Content-Type", "application/json")
	if state == nil {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "building"})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":          "ready",
		"build_id":        state.result.BuildID,
		"outcome":         state.result.Outcome,
		"documents":       state.result.Corpus.Len(),
		"dangling":        len(state.result.Report.Dangling()),
		"failures":        len(state.result.Failures),
		"fallback_locale": state.router.Fallback(),
	})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	state := s.current()
	if state == nil {
		http.Error(w, "site is building", http.StatusServiceUnavailable)
		return
	}

	slug := r.URL.Path
	if slug != "/" {
		slug = strings.TrimSuffix(slug, "/")
	}

	id, ok := state.index.Lookup(slug)
	if !ok {
		http.NotFound(w, r)
		return
	}

	doc, err := s.selectVariant(state, id, r)
	if err != nil {
		var nv *locale.NoVariantError
		if errors.As(err, &nv) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	page, ok := state.result.Pages[document.Key{ID: doc.ID, Locale: doc.Locale}]
	if !ok {
		// The variant exists but failed its parse; isolation means the rest
		// of the site still serves.
		http.Error(w, "document failed to build", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Language", doc.Locale)
	_, _ = w.Write([]byte(page))
}

func (s *Server) selectVariant(state *siteState, id string, r *http.Request) (*document.Document, error) {
	if requested := r.URL.Query().Get("locale"); requested != "" {
		return state.router.Route(id, requested)
	}
	return state.router.Negotiate(id, r.Header.Get("Accept-Language"))
}

// logRequests is the request logging middleware.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("Request handled",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logfields.DurationMS(float64(time.Since(started).Milliseconds())))
	})
}
