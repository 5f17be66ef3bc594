package providers

import (
	"context"
	"testing"
)

func testRegistryConfig() RegistryConfig {
	return RegistryConfig{
		LLMProviders: map[string]LLMProviderConfig{
			"claude": {
				Type:    "claude",
				Model:   "claude-sonnet-4-20250514",
				APIKey:  "key-1",
				Enabled: true,
			},
			"openai": {
				Type:    "openai",
				Model:   "gpt-4o",
				APIKey:  "key-2",
				Enabled: true,
			},
			"disabled": {
				Type:    "claude",
				APIKey:  "key-3",
				Enabled: false,
			},
			"no-key": {
				Type:    "openai",
				Enabled: true,
			},
		},
		TTSProviders: map[string]TTSProviderConfig{
			"openai-tts": {
				Type:    "openai-tts",
				Voice:   "onyx",
				APIKey:  "key-4",
				Enabled: true,
			},
		},
		OCRProviders: map[string]OCRProviderConfig{
			"mistral-ocr": {
				Type:    "mistral-ocr",
				APIKey:  "key-5",
				Enabled: true,
			},
		},
	}
}

func TestNewRegistryFromConfig(t *testing.T) {
	r := NewRegistryFromConfig(testRegistryConfig())

	if !r.HasLLM("claude") {
		t.Error("expected claude to be registered")
	}
	if !r.HasLLM("openai") {
		t.Error("expected openai to be registered")
	}
	if r.HasLLM("disabled") {
		t.Error("disabled provider should not be registered")
	}
	if r.HasLLM("no-key") {
		t.Error("provider without API key should not be registered")
	}
	if !r.HasTTS("openai-tts") {
		t.Error("expected openai-tts to be registered")
	}
	if len(r.ListOCR()) != 1 {
		t.Errorf("expected 1 OCR provider, got %d", len(r.ListOCR()))
	}
}

func TestRegistryGet(t *testing.T) {
	r := NewRegistryFromConfig(testRegistryConfig())

	client, err := r.GetLLM("claude")
	if err != nil {
		t.Fatalf("GetLLM failed: %v", err)
	}
	if client.Name() != ClaudeName {
		t.Errorf("expected %q, got %q", ClaudeName, client.Name())
	}

	if _, err := r.GetLLM("nonexistent"); err == nil {
		t.Error("expected error for unknown LLM")
	}
	if _, err := r.GetTTS("nonexistent"); err == nil {
		t.Error("expected error for unknown TTS provider")
	}
	if _, err := r.GetOCR("nonexistent"); err == nil {
		t.Error("expected error for unknown OCR provider")
	}
}

func TestRegistryReload(t *testing.T) {
	cfg := testRegistryConfig()
	r := NewRegistryFromConfig(cfg)

	// Remove openai, change the claude key
	delete(cfg.LLMProviders, "openai")
	cfg.LLMProviders["claude"] = LLMProviderConfig{
		Type:    "claude",
		Model:   "claude-sonnet-4-20250514",
		APIKey:  "rotated-key",
		Enabled: true,
	}
	r.Reload(cfg)

	if r.HasLLM("openai") {
		t.Error("openai should have been unregistered")
	}
	client, err := r.GetLLM("claude")
	if err != nil {
		t.Fatalf("GetLLM failed after reload: %v", err)
	}
	cc, ok := client.(*ClaudeClient)
	if !ok {
		t.Fatalf("expected *ClaudeClient, got %T", client)
	}
	if cc.apiKey != "rotated-key" {
		t.Errorf("expected rotated key, got %q", cc.apiKey)
	}
}

func TestRegistryReloadKeepsUnchangedClients(t *testing.T) {
	cfg := testRegistryConfig()
	r := NewRegistryFromConfig(cfg)

	before, _ := r.GetLLM("claude")
	r.Reload(cfg)
	after, _ := r.GetLLM("claude")

	if before != after {
		t.Error("unchanged client should not be recreated on reload")
	}
}

func TestRegistryMockProviders(t *testing.T) {
	r := NewRegistryFromConfig(RegistryConfig{
		LLMProviders: map[string]LLMProviderConfig{
			"mock": {Type: "mock", APIKey: "x", Enabled: true},
		},
	})

	client, err := r.GetLLM("mock")
	if err != nil {
		t.Fatalf("GetLLM failed: %v", err)
	}
	result, err := client.Generate(context.Background(), &GenerateRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("mock Generate failed: %v", err)
	}
	if !result.Success {
		t.Error("mock generation should succeed")
	}
}

func TestRegistryUnknownTypeIgnored(t *testing.T) {
	r := NewRegistryFromConfig(RegistryConfig{
		LLMProviders: map[string]LLMProviderConfig{
			"weird": {Type: "weird", APIKey: "x", Enabled: true},
		},
	})
	if r.HasLLM("weird") {
		t.Error("unknown provider type should not be registered")
	}
}
