// Package api exposes the tutoring orchestrator over HTTP.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abhisek/socratic/internal/dialogue"
	"github.com/abhisek/socratic/internal/session"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

// Service is the orchestrator surface the handlers call.
type Service interface {
	Begin(ctx context.Context, problem session.ProblemRef, owner, difficulty string) (*session.Session, error)
	Continue(ctx context.Context, id, userText, owner, difficulty string) (*dialogue.Turn, error)
	Get(ctx context.Context, id, owner string) (*session.Session, error)
	End(ctx context.Context, id, owner string) error
}

// Server holds the handlers and their dependencies.
type Server struct {
	svc            Service
	logger         *slog.Logger
	validate       *validator.Validate
	limiter        *limiter
	gatherer       prometheus.Gatherer
	health         func(context.Context) error
	sessionTimeout time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithRateLimit limits each identity to perMinute requests with the given
// burst. A non-positive rate disables limiting.
func WithRateLimit(perMinute float64, burst int) Option {
	return func(s *Server) {
		if perMinute > 0 {
			s.limiter = newLimiter(perMinute, burst, time.Now)
		}
	}
}

// WithGatherer serves g on /metrics instead of the default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithHealthCheck adds a dependency probe to /healthz.
func WithHealthCheck(fn func(context.Context) error) Option {
	return func(s *Server) { s.health = fn }
}

// WithSessionTimeout lets session views report their expiry.
func WithSessionTimeout(d time.Duration) Option {
	return func(s *Server) { s.sessionTimeout = d }
}

// NewServer creates a Server.
func NewServer(svc Service, opts ...Option) *Server {
	s := &Server{
		svc:      svc,
		logger:   slog.Default(),
		validate: newValidator(),
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1/sessions", func(r chi.Router) {
		r.Use(identityMiddleware)
		if s.limiter != nil {
			r.Use(s.limiter.middleware)
		}
		r.Post("/", s.handleCreate)
		r.Get("/{id}", s.handleGet)
		r.Post("/{id}/messages", s.handleContinue)
		r.Delete("/{id}", s.handleDelete)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.logger.Warn("health check failed", "error", err)
			JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

// requestLogger logs one line per request once it completes.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"remote", r.RemoteAddr,
					"request_id", middleware.GetReqID(r.Context()))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
