package providers

import (
	"fmt"
	"log/slog"
	"sync"
)

// Registry holds references to LLM, TTS, and OCR providers.
// It supports config-driven instantiation, hot-reload, and provides thread-safe access.
type Registry struct {
	mu           sync.RWMutex
	generators   map[string]Generator
	synthesizers map[string]Synthesizer
	ocrProviders map[string]OCRProvider
	logger       *slog.Logger
}

// NewRegistry creates a new empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		generators:   make(map[string]Generator),
		synthesizers: make(map[string]Synthesizer),
		ocrProviders: make(map[string]OCRProvider),
		logger:       slog.Default(),
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// RegisterLLM registers a generator by name.
func (r *Registry) RegisterLLM(name string, client Generator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generators[name] = client
	if r.logger != nil {
		r.logger.Info("registered LLM client", "name", name)
	}
}

// RegisterTTS registers a synthesizer by name.
func (r *Registry) RegisterTTS(name string, provider Synthesizer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.synthesizers[name] = provider
	if r.logger != nil {
		r.logger.Info("registered TTS provider", "name", name)
	}
}

// RegisterOCR registers an OCR provider by name.
func (r *Registry) RegisterOCR(name string, provider OCRProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ocrProviders[name] = provider
	if r.logger != nil {
		r.logger.Info("registered OCR provider", "name", name)
	}
}

// GetLLM returns a generator by name.
func (r *Registry) GetLLM(name string) (Generator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.generators[name]
	if !ok {
		return nil, fmt.Errorf("LLM client not found: %s", name)
	}
	return client, nil
}

// GetTTS returns a synthesizer by name.
func (r *Registry) GetTTS(name string) (Synthesizer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	provider, ok := r.synthesizers[name]
	if !ok {
		return nil, fmt.Errorf("TTS provider not found: %s", name)
	}
	return provider, nil
}

// GetOCR returns an OCR provider by name.
func (r *Registry) GetOCR(name string) (OCRProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	provider, ok := r.ocrProviders[name]
	if !ok {
		return nil, fmt.Errorf("OCR provider not found: %s", name)
	}
	return provider, nil
}

// ListLLM returns all registered generator names.
func (r *Registry) ListLLM() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.generators))
	for name := range r.generators {
		names = append(names, name)
	}
	return names
}

// ListTTS returns all registered synthesizer names.
func (r *Registry) ListTTS() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.synthesizers))
	for name := range r.synthesizers {
		names = append(names, name)
	}
	return names
}

// ListOCR returns all registered OCR provider names.
func (r *Registry) ListOCR() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.ocrProviders))
	for name := range r.ocrProviders {
		names = append(names, name)
	}
	return names
}

// HasLLM checks if a generator is registered.
func (r *Registry) HasLLM(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.generators[name]
	return ok
}

// HasTTS checks if a synthesizer is registered.
func (r *Registry) HasTTS(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.synthesizers[name]
	return ok
}

// RegistryConfig defines the providers to instantiate from config.
// This mirrors the config.Config structure for provider setup.
type RegistryConfig struct {
	// LLMProviders maps provider names to their config
	LLMProviders map[string]LLMProviderConfig

	// TTSProviders maps provider names to their config
	TTSProviders map[string]TTSProviderConfig

	// OCRProviders maps provider names to their config
	OCRProviders map[string]OCRProviderConfig
}

// LLMProviderConfig matches config.LLMProviderCfg with resolved API key.
type LLMProviderConfig struct {
	Type    string // "claude", "openai", "mock"
	Model   string // Default model name
	APIKey  string // Resolved API key
	Enabled bool
}

// TTSProviderConfig matches config.TTSProviderCfg with resolved API key.
type TTSProviderConfig struct {
	Type    string  // "openai-tts", "elevenlabs", "mock"
	Model   string  // Model name
	Voice   string  // Default voice
	Speed   float64 // Speaking speed
	APIKey  string  // Resolved API key
	Enabled bool
}

// OCRProviderConfig matches config.OCRProviderCfg with resolved API key.
type OCRProviderConfig struct {
	Type    string // "mistral-ocr", "mock"
	Model   string // Model name
	APIKey  string // Resolved API key
	Enabled bool
}

// NewRegistryFromConfig creates a registry with providers based on configuration.
// Only enabled providers with valid API keys will be registered.
func NewRegistryFromConfig(cfg RegistryConfig) *Registry {
	r := NewRegistry()
	r.applyConfig(cfg)
	return r
}

// Reload updates the registry based on new configuration.
// Providers that are no longer configured will be unregistered.
// Providers with changed settings will be re-registered.
func (r *Registry) Reload(cfg RegistryConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wantLLM := make(map[string]bool)
	wantTTS := make(map[string]bool)
	wantOCR := make(map[string]bool)

	for name, provCfg := range cfg.LLMProviders {
		if !provCfg.Enabled || provCfg.APIKey == "" {
			continue
		}
		wantLLM[name] = true

		existing, hasExisting := r.generators[name]
		if !hasExisting || needsLLMUpdate(existing, provCfg) {
			client := createLLMClient(provCfg)
			if client != nil {
				r.generators[name] = client
				if r.logger != nil {
					if hasExisting {
						r.logger.Info("updated LLM client", "name", name, "type", provCfg.Type)
					} else {
						r.logger.Info("registered LLM client", "name", name, "type", provCfg.Type)
					}
				}
			}
		}
	}

	for name, provCfg := range cfg.TTSProviders {
		if !provCfg.Enabled || provCfg.APIKey == "" {
			continue
		}
		wantTTS[name] = true

		existing, hasExisting := r.synthesizers[name]
		if !hasExisting || needsTTSUpdate(existing, provCfg) {
			provider := createTTSClient(provCfg)
			if provider != nil {
				r.synthesizers[name] = provider
				if r.logger != nil {
					if hasExisting {
						r.logger.Info("updated TTS provider", "name", name, "type", provCfg.Type)
					} else {
						r.logger.Info("registered TTS provider", "name", name, "type", provCfg.Type)
					}
				}
			}
		}
	}

	for name, provCfg := range cfg.OCRProviders {
		if !provCfg.Enabled || provCfg.APIKey == "" {
			continue
		}
		wantOCR[name] = true

		existing, hasExisting := r.ocrProviders[name]
		if !hasExisting || needsOCRUpdate(existing, provCfg) {
			provider := createOCRProvider(provCfg)
			if provider != nil {
				r.ocrProviders[name] = provider
				if r.logger != nil {
					if hasExisting {
						r.logger.Info("updated OCR provider", "name", name, "type", provCfg.Type)
					} else {
						r.logger.Info("registered OCR provider", "name", name, "type", provCfg.Type)
					}
				}
			}
		}
	}

	for name := range r.generators {
		if !wantLLM[name] {
			delete(r.generators, name)
			if r.logger != nil {
				r.logger.Info("unregistered LLM client", "name", name)
			}
		}
	}
	for name := range r.synthesizers {
		if !wantTTS[name] {
			delete(r.synthesizers, name)
			if r.logger != nil {
				r.logger.Info("unregistered TTS provider", "name", name)
			}
		}
	}
	for name := range r.ocrProviders {
		if !wantOCR[name] {
			delete(r.ocrProviders, name)
			if r.logger != nil {
				r.logger.Info("unregistered OCR provider", "name", name)
			}
		}
	}
}

// applyConfig applies configuration without locking (used during init).
func (r *Registry) applyConfig(cfg RegistryConfig) {
	for name, provCfg := range cfg.LLMProviders {
		if !provCfg.Enabled || provCfg.APIKey == "" {
			continue
		}
		client := createLLMClient(provCfg)
		if client != nil {
			r.generators[name] = client
		}
	}

	for name, provCfg := range cfg.TTSProviders {
		if !provCfg.Enabled || provCfg.APIKey == "" {
			continue
		}
		provider := createTTSClient(provCfg)
		if provider != nil {
			r.synthesizers[name] = provider
		}
	}

	for name, provCfg := range cfg.OCRProviders {
		if !provCfg.Enabled || provCfg.APIKey == "" {
			continue
		}
		provider := createOCRProvider(provCfg)
		if provider != nil {
			r.ocrProviders[name] = provider
		}
	}
}

// createLLMClient creates a generator based on provider type.
func createLLMClient(cfg LLMProviderConfig) Generator {
	switch cfg.Type {
	case "claude":
		return NewClaudeClient(ClaudeConfig{
			APIKey:       cfg.APIKey,
			DefaultModel: cfg.Model,
		})
	case "openai":
		return NewOpenAIClient(OpenAIConfig{
			APIKey:       cfg.APIKey,
			DefaultModel: cfg.Model,
		})
	case "mock":
		return NewMockGenerator()
	default:
		return nil
	}
}

// createTTSClient creates a synthesizer based on provider type.
func createTTSClient(cfg TTSProviderConfig) Synthesizer {
	switch cfg.Type {
	case "openai-tts":
		return NewOpenAITTSClient(OpenAITTSConfig{
			APIKey: cfg.APIKey,
			Model:  cfg.Model,
			Voice:  cfg.Voice,
			Speed:  cfg.Speed,
		})
	case "elevenlabs":
		return NewElevenLabsTTSClient(ElevenLabsTTSConfig{
			APIKey: cfg.APIKey,
			Model:  cfg.Model,
			Voice:  cfg.Voice,
			Speed:  cfg.Speed,
		})
	case "mock":
		return NewMockSynthesizer()
	default:
		return nil
	}
}

// createOCRProvider creates an OCR provider based on provider type.
func createOCRProvider(cfg OCRProviderConfig) OCRProvider {
	switch cfg.Type {
	case "mistral-ocr":
		return NewMistralOCRClient(MistralOCRConfig{
			APIKey: cfg.APIKey,
			Model:  cfg.Model,
		})
	case "mock":
		return NewMockOCRProvider()
	default:
		return nil
	}
}

// needsLLMUpdate checks if a generator needs to be recreated.
func needsLLMUpdate(client Generator, cfg LLMProviderConfig) bool {
	switch c := client.(type) {
	case *ClaudeClient:
		return c.apiKey != cfg.APIKey ||
			(cfg.Model != "" && c.defaultModel != cfg.Model)
	case *OpenAIClient:
		return c.apiKey != cfg.APIKey ||
			(cfg.Model != "" && c.defaultModel != cfg.Model)
	case *MockGenerator:
		return false
	default:
		return true
	}
}

// needsTTSUpdate checks if a synthesizer needs to be recreated.
func needsTTSUpdate(provider Synthesizer, cfg TTSProviderConfig) bool {
	switch p := provider.(type) {
	case *OpenAITTSClient:
		return p.apiKey != cfg.APIKey ||
			(cfg.Model != "" && p.model != cfg.Model) ||
			(cfg.Voice != "" && p.voice != cfg.Voice)
	case *ElevenLabsTTSClient:
		return p.apiKey != cfg.APIKey ||
			(cfg.Model != "" && p.model != cfg.Model) ||
			(cfg.Voice != "" && p.voice != cfg.Voice)
	case *MockSynthesizer:
		return false
	default:
		return true
	}
}

// needsOCRUpdate checks if an OCR provider needs to be recreated.
func needsOCRUpdate(provider OCRProvider, cfg OCRProviderConfig) bool {
	switch p := provider.(type) {
	case *MistralOCRClient:
		return p.apiKey != cfg.APIKey ||
			(cfg.Model != "" && p.model != cfg.Model)
	case *MockOCRProvider:
		return false
	default:
		return true
	}
}
