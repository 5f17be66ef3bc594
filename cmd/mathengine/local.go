package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/MRenAIAgent/math-content-engine-sub000/internal/config"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/home"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/providers"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/render"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/store"
)

// localEnv bundles what serverless commands need: config, providers,
// renderer, and the results store.
type localEnv struct {
	Home     *home.Dir
	Config   *config.Config
	Registry *providers.Registry
	Renderer render.Renderer
	Store    *store.Store
	Logger   *slog.Logger
}

// newLocalEnv loads config and wires providers for commands that run
// without a server.
func newLocalEnv() (*localEnv, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, err
	}

	path := cfgFile
	if path == "" && h.ConfigExists() {
		path = h.ConfigPath()
	}
	configMgr, err := config.NewManager(path)
	if err != nil {
		return nil, err
	}
	cfg := configMgr.Get()

	registry := providers.NewRegistryFromConfig(cfg.ToProviderRegistryConfig())
	registry.SetLogger(logger)

	renderer, err := newRenderer(cfg)
	if err != nil {
		return nil, err
	}

	st, err := store.New(h.DBPath())
	if err != nil {
		return nil, err
	}

	return &localEnv{
		Home:     h,
		Config:   cfg,
		Registry: registry,
		Renderer: renderer,
		Store:    st,
		Logger:   logger,
	}, nil
}

func (e *localEnv) Close() {
	if e.Store != nil {
		e.Store.Close()
	}
}

// newRenderer picks the render backend from configuration.
func newRenderer(cfg *config.Config) (render.Renderer, error) {
	timeout := time.Duration(cfg.Renderer.TimeoutSeconds) * time.Second
	switch cfg.Renderer.Backend {
	case "", "local":
		return render.NewLocalRenderer(render.LocalConfig{
			Binary:  cfg.Renderer.Binary,
			Timeout: timeout,
		}), nil
	case "docker":
		return render.NewDockerRenderer(render.DockerConfig{
			Image:   cfg.Renderer.DockerImage,
			Timeout: timeout,
		})
	default:
		return nil, fmt.Errorf("unknown renderer backend: %q", cfg.Renderer.Backend)
	}
}
