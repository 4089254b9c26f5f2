// Package server exposes report jobs over HTTP: trigger, poll, download,
// plus a small HTML dashboard and Prometheus metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/caevv/storewatch/internal/jobs"
	"github.com/caevv/storewatch/internal/logging"
	"github.com/caevv/storewatch/internal/scheduler"
)

// Jobs is the job manager surface the server needs.
type Jobs interface {
	Trigger() (string, error)
	Poll(id string) (jobs.Status, error)
	Fetch(id string) ([]byte, error)
	Get(id string) (jobs.Job, error)
	List() []jobs.Job
}

// Schedules reports the periodic triggers, if any are configured.
type Schedules interface {
	List() []scheduler.EntryStats
}

// Options configures a Server.
type Options struct {
	Addr string
	// BaseURL prefixes the report URL returned when a job is complete.
	BaseURL   string
	Jobs      Jobs
	Schedules Schedules
	// Gatherer serves /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// Server represents the HTTP server for storewatch.
type Server struct {
	addr      string
	baseURL   string
	jobs      Jobs
	schedules Schedules
	gatherer  prometheus.Gatherer
	logger    *slog.Logger

	srv       *http.Server
	router    chi.Router
	startTime time.Time

	mu      sync.RWMutex
	started bool
}

// New creates a new Server instance.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		addr:      opts.Addr,
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		jobs:      opts.Jobs,
		schedules: opts.Schedules,
		gatherer:  opts.Gatherer,
		logger:    logger,
		startTime: time.Now(),
		router:    chi.NewRouter(),
	}

	s.registerRoutes()

	return s
}

// registerRoutes sets up all HTTP routes.
func (s *Server) registerRoutes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/trigger_report", s.handleTriggerReport)
		r.Get("/get_report/{id}", s.handleGetReport)
		r.Get("/reports/{id}", s.handleDownloadReport)
		r.Get("/jobs", s.handleListJobs)
		r.Get("/jobs/{id}", s.handleGetJob)
		r.Get("/schedules", s.handleListSchedules)
	})

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	// UI routes
	r.Get("/", s.handleDashboard)
	r.Get("/jobs/{id}", s.handleJobDetail)
}

// Handler returns the root handler, for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is canceled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("server already started")
	}
	s.started = true
	s.srv = &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(_ net.Listener) context.Context { return ctx },
	}
	s.mu.Unlock()

	s.logger.Info("starting HTTP server", "addr", s.addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server failed: %w", err)
		}
	}()

	// Wait for context cancellation or server error
	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server", "reason", ctx.Err())
		return s.Stop(context.Background())
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || s.srv == nil {
		return nil
	}

	s.logger.Info("stopping HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("error during shutdown", "error", err)
		return fmt.Errorf("shutdown failed: %w", err)
	}

	s.started = false
	s.logger.Info("HTTP server stopped")
	return nil
}

// loggingMiddleware logs HTTP requests and hands handlers a request-scoped
// logger through the context.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		reqLogger := s.logger.With("request_id", middleware.GetReqID(r.Context()))
		r = r.WithContext(logging.WithContext(r.Context(), reqLogger))

		// Wrap response writer to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		reqLogger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote_addr", r.RemoteAddr,
		)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Uptime returns the server uptime as a string
func (s *Server) Uptime() string {
	duration := time.Since(s.startTime)
	hours := int(duration.Hours())
	minutes := int(duration.Minutes()) % 60
	seconds := int(duration.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
