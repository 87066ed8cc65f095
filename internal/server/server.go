// Package server exposes the sanitization pipeline over HTTP. The server
// is a boundary collaborator: the core stays I/O-free and the server
// owns request parsing, rate limiting, and response encoding.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sdrasco/freedact/internal/config"
	"github.com/sdrasco/freedact/internal/otel"
)

const (
	defaultTimeout = 60 * time.Second
	maxBodyBytes   = 10 << 20
)

// Server holds the dependencies for the HTTP API.
type Server struct {
	router  *chi.Mux
	cfg     *config.Config
	secret  []byte
	limiter *Limiter
}

// Option configures the Server.
type Option func(*Server)

// WithLimits sets the request budgets for the API.
func WithLimits(limits Limits) Option {
	return func(s *Server) { s.limiter = NewLimiter(limits) }
}

// New builds the server around a resolved config and secret.
func New(cfg *config.Config, secret []byte, opts ...Option) *Server {
	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		secret: secret,
	}
	for _, o := range opts {
		o(s)
	}
	if s.limiter == nil {
		s.limiter = NewLimiter(Limits{GlobalRPM: 600, CallerRPM: 120})
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(defaultTimeout))
	s.router.Use(otel.Middleware())

	s.router.Get("/healthz", s.handleHealth)
	s.router.Post("/v1/sanitize", s.handleSanitize)
	return s
}

// Handler returns the routed handler, used directly by tests.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe blocks until the context is cancelled or the listener
// fails.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
