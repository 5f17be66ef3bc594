package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/MRenAIAgent/math-content-engine-sub000/internal/providers"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/render"
)

// DefaultMaxAttempts bounds the retry loop when no value is configured.
const DefaultMaxAttempts = 5

// Config holds the engine's collaborators and limits. Everything is a
// plain parameter; the engine never reads the environment.
type Config struct {
	Generator   providers.Generator
	Renderer    render.Renderer
	MaxAttempts int            // Default 5; negative is a configuration error
	Model       string         // LLM model override
	Quality     render.Quality // Default quality when a request leaves it empty
	Logger      *slog.Logger
}

// Engine is the single entry point for topic-driven generation,
// consumed by the CLI and the REST API.
type Engine struct {
	loop           *Loop
	defaultQuality render.Quality
}

// New validates the configuration and builds an engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Generator == nil {
		return nil, fmt.Errorf("engine: generator is required")
	}
	if cfg.Renderer == nil {
		return nil, fmt.Errorf("engine: renderer is required")
	}
	if cfg.MaxAttempts < 0 {
		return nil, fmt.Errorf("engine: max attempts must be positive, got %d", cfg.MaxAttempts)
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Quality == "" {
		cfg.Quality = render.DefaultQuality
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Engine{
		loop: &Loop{
			generator:   cfg.Generator,
			renderer:    cfg.Renderer,
			maxAttempts: cfg.MaxAttempts,
			model:       cfg.Model,
			logger:      cfg.Logger,
		},
		defaultQuality: cfg.Quality,
	}, nil
}

// Run executes one generation request to a terminal state.
func (e *Engine) Run(ctx context.Context, req *Request) (*Result, error) {
	if req == nil || strings.TrimSpace(req.Topic) == "" {
		return nil, fmt.Errorf("engine: topic is required")
	}
	if req.OutputPath == "" {
		return nil, fmt.Errorf("engine: output path is required")
	}
	if req.Quality == "" {
		req.Quality = e.defaultQuality
	}
	return e.loop.Run(ctx, req)
}

// MaxAttempts reports the configured attempt ceiling.
func (e *Engine) MaxAttempts() int {
	return e.loop.maxAttempts
}
