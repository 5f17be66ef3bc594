// Package svcctx provides service context for dependency injection via context.
// This package is separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/MRenAIAgent/math-content-engine-sub000/internal/config"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/engine"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/home"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/ingest"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/narrate"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/providers"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/store"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/templates"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	Engine    *engine.Engine
	Templates *templates.Engine
	Registry  *providers.Registry
	Store     *store.Store
	Narrator  *narrate.Narrator
	Ingestor  *ingest.Ingestor
	ConfigMgr *config.Manager
	Home      *home.Dir
	Logger    *slog.Logger
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// EngineFrom extracts the generation engine from context.
func EngineFrom(ctx context.Context) *engine.Engine {
	if s := ServicesFrom(ctx); s != nil {
		return s.Engine
	}
	return nil
}

// TemplatesFrom extracts the template engine from context.
func TemplatesFrom(ctx context.Context) *templates.Engine {
	if s := ServicesFrom(ctx); s != nil {
		return s.Templates
	}
	return nil
}

// RegistryFrom extracts the provider registry from context.
func RegistryFrom(ctx context.Context) *providers.Registry {
	if s := ServicesFrom(ctx); s != nil {
		return s.Registry
	}
	return nil
}

// StoreFrom extracts the results store from context.
func StoreFrom(ctx context.Context) *store.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.Store
	}
	return nil
}

// NarratorFrom extracts the narrator from context.
func NarratorFrom(ctx context.Context) *narrate.Narrator {
	if s := ServicesFrom(ctx); s != nil {
		return s.Narrator
	}
	return nil
}

// IngestorFrom extracts the worksheet ingestor from context.
func IngestorFrom(ctx context.Context) *ingest.Ingestor {
	if s := ServicesFrom(ctx); s != nil {
		return s.Ingestor
	}
	return nil
}

// ConfigManagerFrom extracts the config manager from context.
func ConfigManagerFrom(ctx context.Context) *config.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.ConfigMgr
	}
	return nil
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil {
		return s.Logger
	}
	return nil
}
