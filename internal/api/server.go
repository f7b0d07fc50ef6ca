// Package api exposes the HTTP interface for the scraper service.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/neonlead/leadscraper/internal/config"
	"github.com/neonlead/leadscraper/internal/metrics"
	"github.com/neonlead/leadscraper/internal/scraper"
	"github.com/neonlead/leadscraper/internal/search"
)

// Server wires HTTP handlers to the orchestrator, job store and queue.
type Server struct {
	router   chi.Router
	orch     *scraper.Orchestrator
	jobStore scraper.JobStore
	queue    scraper.Queue
	searcher *search.Client
	idGen    scraper.IDGenerator
	clock    scraper.Clock
	cfg      config.Config
	logger   *zap.Logger
}

// NewServer constructs a Server with middleware and routes. The queue may be
// nil when no transport is configured; job submission then fails with a
// client-visible error.
func NewServer(
	orch *scraper.Orchestrator,
	jobStore scraper.JobStore,
	queue scraper.Queue,
	searcher *search.Client,
	idGen scraper.IDGenerator,
	clock scraper.Clock,
	cfg config.Config,
	logger *zap.Logger,
) *Server {
	s := &Server{
		orch:     orch,
		jobStore: jobStore,
		queue:    queue,
		searcher: searcher,
		idGen:    idGen,
		clock:    clock,
		cfg:      cfg,
		logger:   logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(timeoutMiddleware(120 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/scrape", s.scrape)
		r.Post("/export", s.export)
		r.Post("/search", s.search)
		r.Route("/jobs", func(r chi.Router) {
			r.Post("/", s.submitJob)
			r.Get("/{job_id}", s.getJobStatus)
			r.Get("/{job_id}/results", s.getJobResults)
		})
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type requestIDKey struct{}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		metrics.ObserveHTTPRequest(r.Method, routePattern(r), ww.status, time.Since(start))
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("error", rec))
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// routePattern returns the matched chi pattern ("/api/jobs/{job_id}") so
// metric labels stay bounded; path parameters would mint one label value per
// job id.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
