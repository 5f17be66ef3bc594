// Package server assembles the engine's services and serves the HTTP
// API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/MRenAIAgent/math-content-engine-sub000/internal/api"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/config"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/engine"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/home"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/ingest"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/narrate"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/providers"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/render"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/server/endpoints"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/store"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/svcctx"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/templates"
)

// Server is the main mathengine HTTP server.
type Server struct {
	httpServer *http.Server
	registry   *providers.Registry
	configMgr  *config.Manager
	homeDir    *home.Dir
	logger     *slog.Logger

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8080)
	Port string
	// Home is the engine home directory
	Home *home.Dir
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Home == nil {
		homeDir, err := home.New("")
		if err != nil {
			return nil, err
		}
		cfg.Home = homeDir
	}

	// Create provider registry
	registry := providers.NewRegistry()
	registry.SetLogger(cfg.Logger)

	// If config manager provided, set up providers and hot reload
	if cfg.ConfigManager != nil {
		registry.Reload(cfg.ConfigManager.Get().ToProviderRegistryConfig())

		// Watch for config changes
		cfg.ConfigManager.OnChange(func(c *config.Config) {
			registry.Reload(c.ToProviderRegistryConfig())
			cfg.Logger.Info("provider registry reloaded from config")
		})
	}

	s := &Server{
		registry:  registry,
		configMgr: cfg.ConfigManager,
		homeDir:   cfg.Home,
		logger:    cfg.Logger,
	}

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All() {
		s.endpointRegistry.Register(ep)
	}

	// Set up HTTP server
	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	s.httpServer = &http.Server{
		Addr:        net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:     s.withServices(mux),
		ReadTimeout: 30 * time.Second,
		// Generate requests render synchronously; give them room.
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Start starts the server. It blocks until the context is cancelled or
// an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	if err := s.homeDir.EnsureExists(); err != nil {
		s.setNotRunning()
		return fmt.Errorf("failed to create home directory: %w", err)
	}

	services, err := s.buildServices()
	if err != nil {
		s.setNotRunning()
		return err
	}
	s.services = services

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			_ = s.shutdown()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// buildServices wires the engine's components from configuration. A
// missing provider disables the dependent service rather than failing
// startup; the endpoints report 503 for disabled services.
func (s *Server) buildServices() (*svcctx.Services, error) {
	services := &svcctx.Services{
		Registry:  s.registry,
		ConfigMgr: s.configMgr,
		Home:      s.homeDir,
		Logger:    s.logger,
	}

	var cfg *config.Config
	if s.configMgr != nil {
		cfg = s.configMgr.Get()
	} else {
		cfg = config.DefaultConfig()
	}

	renderer, err := s.buildRenderer(cfg)
	if err != nil {
		return nil, err
	}

	quality, err := render.ParseQuality(cfg.Renderer.Quality)
	if err != nil {
		return nil, err
	}

	// Results store
	st, err := store.New(s.homeDir.DBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open results store: %w", err)
	}
	services.Store = st

	// Template engine (no LLM needed for the regex path)
	tmplRegistry, err := templates.NewLibraryRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to load template library: %w", err)
	}
	tmplParser, err := templates.NewLibraryParser(tmplRegistry)
	if err != nil {
		return nil, fmt.Errorf("failed to build question parser: %w", err)
	}

	var llmParser *templates.LLMParser
	generator, genErr := s.registry.GetLLM(cfg.Defaults.LLMProvider)
	if genErr != nil {
		s.logger.Warn("LLM provider unavailable, generation disabled",
			"provider", cfg.Defaults.LLMProvider, "error", genErr)
	} else {
		llmParser, err = templates.NewLLMParser(generator, tmplRegistry)
		if err != nil {
			return nil, fmt.Errorf("failed to build llm parser: %w", err)
		}
	}

	services.Templates, err = templates.NewEngine(templates.EngineConfig{
		Registry:  tmplRegistry,
		Parser:    tmplParser,
		LLMParser: llmParser,
		Renderer:  renderer,
		Quality:   quality,
		Logger:    s.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build template engine: %w", err)
	}

	// Generation engine needs an LLM
	if generator != nil {
		services.Engine, err = engine.New(engine.Config{
			Generator:   generator,
			Renderer:    renderer,
			MaxAttempts: cfg.Engine.MaxAttempts,
			Model:       cfg.Engine.Model,
			Quality:     quality,
			Logger:      s.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build engine: %w", err)
		}
	}

	// Narrator needs a TTS provider
	if synth, err := s.registry.GetTTS(cfg.Defaults.TTSProvider); err != nil {
		s.logger.Warn("TTS provider unavailable, narration disabled",
			"provider", cfg.Defaults.TTSProvider, "error", err)
	} else {
		ttsCfg, _ := cfg.GetTTSProvider(cfg.Defaults.TTSProvider)
		services.Narrator, err = narrate.New(narrate.Config{
			Synthesizer: synth,
			Voice:       ttsCfg.Voice,
			Speed:       ttsCfg.Speed,
			Logger:      s.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build narrator: %w", err)
		}
	}

	// Ingestor needs an OCR provider
	if ocr, err := s.registry.GetOCR(cfg.Defaults.OCRProvider); err != nil {
		s.logger.Warn("OCR provider unavailable, ingest disabled",
			"provider", cfg.Defaults.OCRProvider, "error", err)
	} else {
		services.Ingestor, err = ingest.NewIngestor(ocr, s.homeDir, s.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to build ingestor: %w", err)
		}
	}

	return services, nil
}

// buildRenderer picks the render backend from configuration.
func (s *Server) buildRenderer(cfg *config.Config) (render.Renderer, error) {
	timeout := time.Duration(cfg.Renderer.TimeoutSeconds) * time.Second
	switch cfg.Renderer.Backend {
	case "", "local":
		return render.NewLocalRenderer(render.LocalConfig{
			Binary:  cfg.Renderer.Binary,
			Timeout: timeout,
		}), nil
	case "docker":
		renderer, err := render.NewDockerRenderer(render.DockerConfig{
			Image:   cfg.Renderer.DockerImage,
			Timeout: timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create docker renderer: %w", err)
		}
		return renderer, nil
	default:
		return nil, fmt.Errorf("unknown renderer backend: %q", cfg.Renderer.Backend)
	}
}

// shutdown performs graceful shutdown of the HTTP server.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	if s.services != nil && s.services.Store != nil {
		if err := s.services.Store.Close(); err != nil {
			s.logger.Error("store close error", "error", err)
		}
	}

	s.setNotRunning()
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

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Registry returns the provider registry.
func (s *Server) Registry() *providers.Registry {
	return s.registry
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if s.services != nil {
			ctx = svcctx.WithServices(ctx, s.services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware that ensures the server is fully initialized.
// Returns 503 Service Unavailable before services are built.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.services == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"server not fully initialized"}`))
			return
		}
		next(w, r)
	}
}
