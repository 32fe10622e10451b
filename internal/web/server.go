// Package web serves the portfolio site's Spotify widget API over HTTP.
package web

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tmarsh/go-spotify-now-playing/internal/config"
	"github.com/tmarsh/go-spotify-now-playing/internal/metrics"
	"github.com/tmarsh/go-spotify-now-playing/internal/spotify"
)

// DefaultAddr is the default server address.
const DefaultAddr = "127.0.0.1:8080"

// Upstream rate limit shared by all API callers. The widget polls on a
// fixed interval, so sustained traffic above this means abuse or a bug, and
// the fallback payload is the right answer either way.
const (
	upstreamRateLimit = rate.Limit(8)
	upstreamBurst     = 16
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr        string
	Credentials config.Credentials
	Logger      *zap.Logger
}

// Server is the HTTP server for the widget API.
type Server struct {
	router   chi.Router
	server   *http.Server
	handlers *Handlers
	log      *zap.Logger
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig) (*Server, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	// Own registry so tests can build multiple servers in one process.
	registry := prometheus.NewRegistry()
	recorder := metrics.New(registry)

	client := spotify.NewClient(spotify.ClientConfig{
		Credentials: cfg.Credentials,
		Logger:      log.Named("spotify"),
		Metrics:     recorder,
	})

	limiter := rate.NewLimiter(upstreamRateLimit, upstreamBurst)
	handlers := NewHandlers(client, limiter, log, recorder)

	router := chi.NewRouter()

	s := &Server{
		router:   router,
		handlers: handlers,
		log:      log,
	}

	s.setupMiddleware()
	s.setupRoutes(registry)

	// WriteTimeout must outlast the worst case of both retry budgets: two
	// sequential upstream calls, each with three attempts plus backoff.
	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.log))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

// setupRoutes configures routes for the application.
func (s *Server) setupRoutes(registry *prometheus.Registry) {
	s.router.Get("/api/spotify", s.handlers.NowPlaying)
	s.router.Get("/api/now-playing", s.handlers.NowPlaying)
	s.router.Get("/api/spotify/top", s.handlers.TopTracks)

	s.router.Get("/healthz", s.handlers.Health)
	s.router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}

// Handler returns the server's root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Info("starting server", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Run starts the server and handles graceful shutdown on interrupt signals.
func (s *Server) Run() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
		s.log.Info("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return err
	}

	s.log.Info("server stopped")
	return nil
}
