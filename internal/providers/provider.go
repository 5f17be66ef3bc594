package providers

import (
	"context"
	"time"
)

// Generator is the code-generation capability the retry loop consumes.
// Implementations wrap one LLM vendor API and normalize its errors into
// ProviderError values so callers can distinguish fatal from transient.
type Generator interface {
	// Generate sends a prompt and returns the generated text.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error)

	// Name returns the provider identifier (e.g., "claude", "openai").
	Name() string
}

// Synthesizer converts text to speech audio.
// Separate from Generator because it has different request shapes,
// rate limits, and result handling (audio bytes vs text).
type Synthesizer interface {
	// Synthesize converts text to audio bytes.
	Synthesize(ctx context.Context, req *SpeechRequest) (*SpeechResult, error)

	// Name returns the provider identifier (e.g., "elevenlabs", "openai").
	Name() string
}

// OCRProvider extracts markdown text from a page image.
type OCRProvider interface {
	// Name returns the provider identifier (e.g., "mistral").
	Name() string

	// ProcessPage extracts text from a rendered page image.
	ProcessPage(ctx context.Context, image []byte, pageNum int) (*OCRResult, error)
}

// GenerateRequest is a request to an LLM.
type GenerateRequest struct {
	// System is the system prompt (uses provider default if empty).
	System string `json:"system,omitempty"`

	// Prompt is the user prompt. Required.
	Prompt string `json:"prompt"`

	// Model selection (uses provider default if empty)
	Model string `json:"model,omitempty"`

	// Generation parameters
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`

	// Request tracking
	RequestID string `json:"-"`
}

// GenerateResult is the complete response from an LLM call.
type GenerateResult struct {
	// Response content
	Text string `json:"text"`

	// Token counts
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`

	// Timing
	ExecutionTime time.Duration `json:"execution_time"`

	// Provider info
	Provider  string `json:"provider"`
	ModelUsed string `json:"model_used"`

	// Request tracking
	RequestID string `json:"request_id"`

	// Success/error
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// SpeechRequest is a request to a TTS provider.
type SpeechRequest struct {
	// Text to synthesize. Required.
	Text string `json:"text"`

	// Voice selection (uses provider default if empty)
	Voice string `json:"voice,omitempty"`

	// Format is the output audio format (default: mp3)
	Format string `json:"format,omitempty"`

	// Speed multiplier (provider-specific range, default: 1.0)
	Speed float64 `json:"speed,omitempty"`
}

// SpeechResult is the response from a TTS synthesis call.
type SpeechResult struct {
	// Success/content
	Success bool   `json:"success"`
	Audio   []byte `json:"-"`

	// Audio metadata
	Format     string `json:"format"`
	DurationMS int    `json:"duration_ms"` // Estimated, not decoded

	// Timing
	CharCount     int           `json:"char_count"`
	ExecutionTime time.Duration `json:"execution_time"`

	// Error info
	ErrorMessage string `json:"error_message,omitempty"`
}

// OCRResult is the response from an OCR provider.
type OCRResult struct {
	// Success/content
	Success bool   `json:"success"`
	Text    string `json:"text"` // Markdown formatted

	// Metadata from provider (dimensions, detected images, etc.)
	Metadata map[string]any `json:"metadata,omitempty"`

	// Timing
	ExecutionTime time.Duration `json:"execution_time"`

	// Error info
	ErrorMessage string `json:"error_message,omitempty"`
}
