// Package server hosts the primer HTTP API: stage runs, catalog and mind map
// views, knowledge point search, prompt overrides and the embedded catalog
// browser.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	_ "github.com/jackzampolin/primer/docs/swagger"
	"github.com/jackzampolin/primer/internal/api"
	"github.com/jackzampolin/primer/internal/config"
	"github.com/jackzampolin/primer/internal/home"
	"github.com/jackzampolin/primer/internal/llmcall"
	"github.com/jackzampolin/primer/internal/pipeline"
	"github.com/jackzampolin/primer/internal/pipeline/stages"
	"github.com/jackzampolin/primer/internal/prompts"
	"github.com/jackzampolin/primer/internal/prompts/extract_outline"
	"github.com/jackzampolin/primer/internal/prompts/mermaid"
	"github.com/jackzampolin/primer/internal/prompts/segment"
	"github.com/jackzampolin/primer/internal/providers"
	"github.com/jackzampolin/primer/internal/server/endpoints"
	"github.com/jackzampolin/primer/internal/svcctx"
)

// Server is the primer HTTP server.
type Server struct {
	httpServer *http.Server
	router     chi.Router
	registry   *providers.Registry
	runner     *pipeline.Runner
	configMgr  *config.Manager
	logger     *slog.Logger

	services *svcctx.Services

	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8080)
	Port int
	// Home is the primer home directory holding uploads/.
	Home *home.Dir
	// ConfigManager provides configuration with hot-reload support.
	// When nil the defaults are used.
	ConfigManager *config.Manager
	// Registry overrides the provider registry built from configuration.
	Registry *providers.Registry
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Home == nil {
		return nil, errors.New("server: home directory is required")
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	services := NewServices(cfg)
	s := &Server{
		registry:  services.Registry,
		runner:    services.Runner,
		configMgr: cfg.ConfigManager,
		logger:    cfg.Logger,
		services:  services,
	}

	s.endpointRegistry = api.NewRegistry()
	s.endpointRegistry.Register(endpoints.All()...)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(s.withServices)
	s.endpointRegistry.RegisterRoutes(r)
	s.router = r

	// Stage runs block until the LLM calls finish, so writes get a long deadline.
	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// NewServices wires the provider registry, prompt resolver and stage runner
// for cfg. The CLI uses it to run stages without a server.
func NewServices(cfg Config) *svcctx.Services {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	getConfig := config.DefaultConfig
	if cfg.ConfigManager != nil {
		getConfig = cfg.ConfigManager.Get
	}

	registry := cfg.Registry
	if registry == nil {
		registry = providers.NewRegistry()
		registry.SetLogger(logger)
		registry.Reload(getConfig().ToProviderRegistryConfig())
		if cfg.ConfigManager != nil {
			cfg.ConfigManager.OnChange(func(c *config.Config) {
				registry.Reload(c.ToProviderRegistryConfig())
				logger.Info("provider registry reloaded from config")
			})
		}
	}

	dir := cfg.Home.WithLayout(getConfig().Layout())

	resolver := prompts.NewResolver(prompts.NewStore(dir.BookDir, logger), logger)
	for _, p := range extract_outline.Prompts() {
		resolver.Register(p)
	}
	for _, p := range segment.Prompts() {
		resolver.Register(p)
	}
	for _, p := range mermaid.Prompts() {
		resolver.Register(p)
	}

	calls := llmcall.NewRecorder(dir.BookDir, logger)

	deps := stages.Deps{
		Home:    dir,
		Config:  getConfig,
		LLM:     registry,
		Prompts: resolver,
		Calls:   calls,
		Logger:  logger,
	}
	runner := pipeline.NewRunner(stages.NewRegistry(deps), logger)

	return &svcctx.Services{
		Registry:      registry,
		ConfigManager: cfg.ConfigManager,
		Prompts:       resolver,
		Logger:        logger,
		Home:          dir,
		Runner:        runner,
		Calls:         calls,
		Search:        stages.NewIndexStage(deps),
	}
}

// Start serves HTTP until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()
	defer s.setNotRunning()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}
	if active := s.runner.ActiveBooks(); len(active) > 0 {
		s.logger.Warn("stopped with stage runs in flight", "books", active)
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Handler returns the routed handler, for embedding or httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Registry returns the provider registry.
func (s *Server) Registry() *providers.Registry {
	return s.registry
}

// Runner returns the stage runner.
func (s *Server) Runner() *pipeline.Runner {
	return s.runner
}

// Endpoints returns the endpoint registry, used to build the api CLI.
func (s *Server) Endpoints() *api.Registry {
	return s.endpointRegistry
}

// withServices enriches the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(svcctx.WithServices(r.Context(), s.services)))
	})
}
