// Package server is the HTTP face of the authorization engine: the chi
// router, middleware chain, and graceful lifecycle around the handlers.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/warrantd/warrant/internal/engine"
	"github.com/warrantd/warrant/internal/handler"
	"github.com/warrantd/warrant/internal/openapi"
	"github.com/warrantd/warrant/internal/server/middleware"
	"github.com/warrantd/warrant/internal/service"
	"github.com/warrantd/warrant/internal/store"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	// AuthRatePerMinute caps requests per client IP on the public auth
	// endpoints. Zero disables the limiter.
	AuthRatePerMinute int
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() Config {
	return Config{
		Host:              "0.0.0.0",
		Port:              8080,
		ShutdownTimeout:   30 * time.Second,
		CORSOrigins:       []string{"*"},
		AuthRatePerMinute: 60,
	}
}

// Server owns the router and the wired handlers. Construct with New, then
// call ListenAndServe; it blocks until SIGINT/SIGTERM and drains in-flight
// requests on the way out.
type Server struct {
	cfg        Config
	router     chi.Router
	engine     *engine.Engine
	store      store.ActivationStore
	opsSvc     *service.OpsService
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a Server with all routes and middleware wired.
func New(cfg Config, e *engine.Engine, st store.ActivationStore, opsSvc *service.OpsService, logger *slog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		engine: e,
		store:  st,
		opsSvc: opsSvc,
		logger: logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chimw.Compress(5))

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Get("/openapi.json", openapi.Handler())

	authHandler := handler.NewAuthHandler(s.engine)
	opsHandler := handler.NewOpsHandler(s.engine, s.opsSvc, s.store)

	r.Route("/api/v1", func(r chi.Router) {
		// Worker-facing endpoints: anonymous, rate-limited. The auth code
		// and token are the credentials.
		r.Group(func(r chi.Router) {
			if s.cfg.AuthRatePerMinute > 0 {
				r.Use(middleware.RateLimit(s.cfg.AuthRatePerMinute))
			}
			r.Post("/auth/request", authHandler.RequestAuth)
			r.Post("/auth/activate", authHandler.Activate)
			r.Post("/auth/verify", authHandler.Verify)
			r.Get("/status", authHandler.Status)
		})

		// Operator endpoints: session login open, the rest behind it.
		r.Route("/ops", func(r chi.Router) {
			r.Post("/session", opsHandler.Session)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireOperator(s.opsSvc))
				r.Post("/sweep", opsHandler.Sweep)
				r.Get("/activations", opsHandler.ListActivations)
			})
		})
	})

	s.router = r
}

// handleHealthz is a liveness probe.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleReadyz is a readiness probe: 200 once the activation store answers.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.ActiveCount(r.Context()); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"degraded","checks":{"store":"error: ` + err.Error() + `"}}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok","checks":{"store":"ok"}}`))
}

// ListenAndServe starts the server and blocks until SIGINT or SIGTERM, then
// drains in-flight requests before returning.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
