package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if len(cfg.LLMProviders) == 0 {
		t.Error("expected default LLM providers")
	}
	claude, ok := cfg.GetLLMProvider("claude")
	if !ok || claude.APIKey != "${ANTHROPIC_API_KEY}" {
		t.Error("expected claude API key placeholder")
	}
	if cfg.Renderer.Backend != "local" || cfg.Renderer.Quality != "medium" {
		t.Errorf("unexpected renderer defaults: %+v", cfg.Renderer)
	}
	if cfg.Engine.MaxAttempts != 5 {
		t.Errorf("unexpected engine defaults: %+v", cfg.Engine)
	}
	if cfg.Defaults.LLMProvider != "claude" {
		t.Errorf("unexpected provider defaults: %+v", cfg.Defaults)
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Run("resolves environment variable", func(t *testing.T) {
		os.Setenv("TEST_API_KEY", "secret123")
		defer os.Unsetenv("TEST_API_KEY")

		result := ResolveEnvVars("${TEST_API_KEY}")
		if result != "secret123" {
			t.Errorf("expected secret123, got %s", result)
		}
	})

	t.Run("returns empty for missing env var", func(t *testing.T) {
		result := ResolveEnvVars("${DEFINITELY_NOT_SET_12345}")
		if result != "" {
			t.Errorf("expected empty string, got %s", result)
		}
	})

	t.Run("leaves literal values unchanged", func(t *testing.T) {
		result := ResolveEnvVars("literal-value")
		if result != "literal-value" {
			t.Errorf("expected literal-value, got %s", result)
		}
	})
}

func TestToProviderRegistryConfig(t *testing.T) {
	os.Setenv("TEST_CLAUDE_KEY", "sk-ant-123")
	defer os.Unsetenv("TEST_CLAUDE_KEY")

	cfg := &Config{
		LLMProviders: map[string]LLMProviderCfg{
			"claude": {Type: "claude", APIKey: "${TEST_CLAUDE_KEY}", Enabled: true},
		},
		TTSProviders: map[string]TTSProviderCfg{
			"openai-tts": {Type: "openai-tts", Voice: "alloy", Speed: 1.25, APIKey: "direct-key", Enabled: true},
		},
	}

	reg := cfg.ToProviderRegistryConfig()
	if reg.LLMProviders["claude"].APIKey != "sk-ant-123" {
		t.Errorf("env var not resolved: %+v", reg.LLMProviders["claude"])
	}
	if reg.TTSProviders["openai-tts"].APIKey != "direct-key" {
		t.Errorf("literal key changed: %+v", reg.TTSProviders["openai-tts"])
	}
	if reg.TTSProviders["openai-tts"].Speed != 1.25 {
		t.Errorf("speed not carried: %+v", reg.TTSProviders["openai-tts"])
	}
}

func TestNewManager(t *testing.T) {
	t.Run("loads from config file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configFile := filepath.Join(tmpDir, "config.yaml")

		configContent := `
engine:
  max_attempts: 3
renderer:
  backend: docker
`
		if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
			t.Fatalf("failed to write config file: %v", err)
		}

		mgr, err := NewManager(configFile)
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}

		cfg := mgr.Get()
		if cfg.Engine.MaxAttempts != 3 {
			t.Errorf("expected 3 attempts, got %d", cfg.Engine.MaxAttempts)
		}
		if cfg.Renderer.Backend != "docker" {
			t.Errorf("expected docker backend, got %s", cfg.Renderer.Backend)
		}
	})
}

func TestManager_OnChange_Multiple(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configFile, []byte("engine:\n  max_attempts: 5\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	mgr, err := NewManager(configFile)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	mgr.OnChange(func(cfg *Config) {})
	mgr.OnChange(func(cfg *Config) {})
	mgr.OnChange(func(cfg *Config) {})

	mgr.mu.RLock()
	if len(mgr.callbacks) != 3 {
		t.Errorf("expected 3 callbacks, got %d", len(mgr.callbacks))
	}
	mgr.mu.RUnlock()
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("config not written: %v", err)
	}
	content := string(data)
	if len(content) == 0 || content[0] != '#' {
		t.Error("expected a commented header")
	}

	// The written file must load back through the manager.
	mgr, err := NewManager(path)
	if err != nil {
		t.Fatalf("written default does not load: %v", err)
	}
	if _, ok := mgr.Get().GetLLMProvider("claude"); !ok {
		t.Error("expected claude provider in written defaults")
	}
}
