package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/couchcryptid/storm-data-dashboard/internal/dashboard"
	"github.com/couchcryptid/storm-data-dashboard/internal/observability"
	"github.com/couchcryptid/storm-data-dashboard/internal/vegalite"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SpecStore serves the most recently built documents.
type SpecStore interface {
	sharedobs.ReadinessChecker
	Document(name string) (vegalite.Document, bool)
}

// Server exposes health, readiness, metrics, and spec HTTP endpoints.
type Server struct {
	httpServer *http.Server
	store      SpecStore
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// /specs/{name} routes. Spec responses are gzip-compressed when the client
// accepts it.
func NewServer(addr string, store SpecStore, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		store:   store,
		metrics: metrics,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(store))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("GET /specs/{name}", gzhttp.GzipHandler(http.HandlerFunc(s.handleSpec)))

	return s
}

// handleSpec writes the named document. Conditional requests carrying the
// current ETag get 304.
func (s *Server) handleSpec(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	view := name
	if !slices.Contains(dashboard.ViewNames(), name) {
		view = "unknown"
	}

	status := s.writeSpec(w, r, name)
	s.metrics.SpecRequests.WithLabelValues(view, strconv.Itoa(status)).Inc()
}

func (s *Server) writeSpec(w http.ResponseWriter, r *http.Request, name string) int {
	if !slices.Contains(dashboard.ViewNames(), name) {
		sharedobs.WriteJSON(w, http.StatusNotFound, map[string]any{
			"error": "unknown view",
			"views": dashboard.ViewNames(),
		})
		return http.StatusNotFound
	}

	doc, ok := s.store.Document(name)
	if err := s.store.CheckReadiness(r.Context()); err != nil || !ok {
		sharedobs.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return http.StatusServiceUnavailable
	}

	etag := doc.ETag()
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Last-Modified", doc.GeneratedAt.Format(http.TimeFormat))
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return http.StatusNotModified
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc.JSON); err != nil {
		s.logger.Warn("write spec response failed", "error", err, "view", name)
	}
	return http.StatusOK
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
