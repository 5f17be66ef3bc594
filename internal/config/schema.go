package config

// Config holds mathengine configuration.
// Stored at: {home}/config.yaml
type Config struct {
	LLMProviders map[string]LLMProviderCfg `mapstructure:"llm_providers" yaml:"llm_providers"`
	TTSProviders map[string]TTSProviderCfg `mapstructure:"tts_providers" yaml:"tts_providers"`
	OCRProviders map[string]OCRProviderCfg `mapstructure:"ocr_providers" yaml:"ocr_providers"`
	Renderer     RendererCfg               `mapstructure:"renderer" yaml:"renderer"`
	Engine       EngineCfg                 `mapstructure:"engine" yaml:"engine"`
	Defaults     DefaultsCfg               `mapstructure:"defaults" yaml:"defaults"`
}

// LLMProviderCfg configures an LLM provider.
type LLMProviderCfg struct {
	Type    string `mapstructure:"type" yaml:"type"`       // "claude", "openai", "mock"
	Model   string `mapstructure:"model" yaml:"model"`     // Default model name
	APIKey  string `mapstructure:"api_key" yaml:"api_key"` // API key (supports ${ENV_VAR} syntax)
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
}

// TTSProviderCfg configures a TTS provider.
type TTSProviderCfg struct {
	Type    string  `mapstructure:"type" yaml:"type"` // "openai-tts", "elevenlabs", "mock"
	Model   string  `mapstructure:"model" yaml:"model"`
	Voice   string  `mapstructure:"voice" yaml:"voice"`
	Speed   float64 `mapstructure:"speed" yaml:"speed"`
	APIKey  string  `mapstructure:"api_key" yaml:"api_key"` // API key (supports ${ENV_VAR} syntax)
	Enabled bool    `mapstructure:"enabled" yaml:"enabled"`
}

// OCRProviderCfg configures an OCR provider.
type OCRProviderCfg struct {
	Type    string `mapstructure:"type" yaml:"type"` // "mistral-ocr", "mock"
	Model   string `mapstructure:"model" yaml:"model"`
	APIKey  string `mapstructure:"api_key" yaml:"api_key"` // API key (supports ${ENV_VAR} syntax)
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
}

// RendererCfg configures the Manim renderer.
type RendererCfg struct {
	// Backend selects where scenes render: "local" or "docker".
	Backend string `mapstructure:"backend" yaml:"backend"`
	// Binary is the manim executable for the local backend.
	Binary string `mapstructure:"binary" yaml:"binary"`
	// DockerImage is the image for the docker backend.
	DockerImage string `mapstructure:"docker_image" yaml:"docker_image"`
	// Quality is the default render quality: low, medium, high, 4k.
	Quality string `mapstructure:"quality" yaml:"quality"`
	// TimeoutSeconds bounds a single render.
	TimeoutSeconds int `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// EngineCfg configures the generation loop.
type EngineCfg struct {
	// MaxAttempts bounds generate-validate-render cycles per request.
	MaxAttempts int `mapstructure:"max_attempts" yaml:"max_attempts"`
	// Model overrides the provider's default model when set.
	Model string `mapstructure:"model" yaml:"model"`
}

// DefaultsCfg specifies default provider selections.
type DefaultsCfg struct {
	LLMProvider string `mapstructure:"llm_provider" yaml:"llm_provider"`
	TTSProvider string `mapstructure:"tts_provider" yaml:"tts_provider"`
	OCRProvider string `mapstructure:"ocr_provider" yaml:"ocr_provider"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LLMProviders: map[string]LLMProviderCfg{
			"claude": {
				Type:    "claude",
				APIKey:  "${ANTHROPIC_API_KEY}",
				Enabled: true,
			},
			"openai": {
				Type:    "openai",
				APIKey:  "${OPENAI_API_KEY}",
				Enabled: false,
			},
		},
		TTSProviders: map[string]TTSProviderCfg{
			"openai-tts": {
				Type:    "openai-tts",
				Voice:   "alloy",
				Speed:   1.0,
				APIKey:  "${OPENAI_API_KEY}",
				Enabled: true,
			},
			"elevenlabs": {
				Type:    "elevenlabs",
				APIKey:  "${ELEVENLABS_API_KEY}",
				Enabled: false,
			},
		},
		OCRProviders: map[string]OCRProviderCfg{
			"mistral": {
				Type:    "mistral-ocr",
				APIKey:  "${MISTRAL_API_KEY}",
				Enabled: true,
			},
		},
		Renderer: RendererCfg{
			Backend:        "local",
			Binary:         "manim",
			DockerImage:    "manimcommunity/manim:stable",
			Quality:        "medium",
			TimeoutSeconds: 300,
		},
		Engine: EngineCfg{
			MaxAttempts: 5,
		},
		Defaults: DefaultsCfg{
			LLMProvider: "claude",
			TTSProvider: "openai-tts",
			OCRProvider: "mistral",
		},
	}
}

// GetLLMProvider returns an LLM provider config by name.
func (c *Config) GetLLMProvider(name string) (LLMProviderCfg, bool) {
	cfg, ok := c.LLMProviders[name]
	return cfg, ok
}

// GetTTSProvider returns a TTS provider config by name.
func (c *Config) GetTTSProvider(name string) (TTSProviderCfg, bool) {
	cfg, ok := c.TTSProviders[name]
	return cfg, ok
}

// EnabledLLMProviders returns all enabled LLM providers.
func (c *Config) EnabledLLMProviders() map[string]LLMProviderCfg {
	result := make(map[string]LLMProviderCfg)
	for name, cfg := range c.LLMProviders {
		if cfg.Enabled {
			result[name] = cfg
		}
	}
	return result
}
