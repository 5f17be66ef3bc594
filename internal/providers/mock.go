package providers

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

const MockGeneratorName = "mock"

// MockGenerator is a Generator for testing.
type MockGenerator struct {
	// Configurable behavior
	Latency      time.Duration
	ResponseText string

	// Responses, if non-empty, is returned in order; when exhausted the
	// last entry repeats. Overrides ResponseText.
	Responses []string

	// Err, if set, is returned on every call.
	Err error

	// FailFirst fails the first N requests with a transient error.
	FailFirst int

	// State
	requestCount atomic.Int64

	// Prompts records every prompt received, for assertions.
	prompts []string
}

// NewMockGenerator creates a new mock generator with sensible defaults.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{
		Latency:      time.Millisecond,
		ResponseText: "mock response",
	}
}

// Name returns the client identifier.
func (c *MockGenerator) Name() string {
	return MockGeneratorName
}

// Generate returns the configured response.
func (c *MockGenerator) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	start := time.Now()
	count := c.requestCount.Add(1)
	c.prompts = append(c.prompts, req.Prompt)

	result := &GenerateResult{
		RequestID: fmt.Sprintf("mock-%d", count),
		Provider:  MockGeneratorName,
		ModelUsed: req.Model,
	}

	if c.Err != nil {
		result.ErrorMessage = c.Err.Error()
		result.ExecutionTime = time.Since(start)
		return result, c.Err
	}
	if c.FailFirst > 0 && int(count) <= c.FailFirst {
		err := &ProviderError{
			Provider: MockGeneratorName,
			Kind:     KindTransient,
			Message:  fmt.Sprintf("mock transient failure %d", count),
		}
		result.ErrorMessage = err.Error()
		result.ExecutionTime = time.Since(start)
		return result, err
	}

	select {
	case <-time.After(c.Latency):
	case <-ctx.Done():
		result.ErrorMessage = ctx.Err().Error()
		result.ExecutionTime = time.Since(start)
		return result, ctx.Err()
	}

	text := c.ResponseText
	if len(c.Responses) > 0 {
		idx := int(count) - 1
		if idx >= len(c.Responses) {
			idx = len(c.Responses) - 1
		}
		text = c.Responses[idx]
	}

	result.Success = true
	result.Text = text
	result.PromptTokens = len(req.Prompt) / 4 // Rough estimate
	result.CompletionTokens = len(text) / 4
	result.TotalTokens = result.PromptTokens + result.CompletionTokens
	result.ExecutionTime = time.Since(start)

	return result, nil
}

// RequestCount returns the number of requests made.
func (c *MockGenerator) RequestCount() int64 {
	return c.requestCount.Load()
}

// Prompts returns every prompt received, in order.
func (c *MockGenerator) Prompts() []string {
	return c.prompts
}

// Reset resets the request counter and prompt log.
func (c *MockGenerator) Reset() {
	c.requestCount.Store(0)
	c.prompts = nil
}

// Verify interface
var _ Generator = (*MockGenerator)(nil)

// MockSynthesizer is a Synthesizer for testing.
type MockSynthesizer struct {
	ProviderName string
	Latency      time.Duration
	Audio        []byte
	Err          error

	// FailOnText fails synthesis for cues containing this substring.
	FailOnText string

	requestCount atomic.Int64
}

// NewMockSynthesizer creates a new mock synthesizer.
func NewMockSynthesizer() *MockSynthesizer {
	return &MockSynthesizer{
		ProviderName: "mock-tts",
		Latency:      time.Millisecond,
		Audio:        []byte("mock-audio"),
	}
}

// Name returns the provider identifier.
func (p *MockSynthesizer) Name() string {
	return p.ProviderName
}

// Synthesize returns the configured audio bytes.
func (p *MockSynthesizer) Synthesize(ctx context.Context, req *SpeechRequest) (*SpeechResult, error) {
	start := time.Now()
	p.requestCount.Add(1)

	if p.Err != nil {
		return &SpeechResult{
			Success:       false,
			ErrorMessage:  p.Err.Error(),
			CharCount:     len(req.Text),
			ExecutionTime: time.Since(start),
		}, p.Err
	}
	if p.FailOnText != "" && contains(req.Text, p.FailOnText) {
		err := fmt.Errorf("mock synthesis failure for %q", req.Text)
		return &SpeechResult{
			Success:       false,
			ErrorMessage:  err.Error(),
			CharCount:     len(req.Text),
			ExecutionTime: time.Since(start),
		}, err
	}

	select {
	case <-time.After(p.Latency):
	case <-ctx.Done():
		return &SpeechResult{
			Success:       false,
			ErrorMessage:  ctx.Err().Error(),
			ExecutionTime: time.Since(start),
		}, ctx.Err()
	}

	return &SpeechResult{
		Success:       true,
		Audio:         p.Audio,
		Format:        "mp3",
		DurationMS:    estimateSpeechDurationMS(req.Text),
		CharCount:     len(req.Text),
		ExecutionTime: time.Since(start),
	}, nil
}

// RequestCount returns the number of requests made.
func (p *MockSynthesizer) RequestCount() int64 {
	return p.requestCount.Load()
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

// Verify interface
var _ Synthesizer = (*MockSynthesizer)(nil)

// MockOCRProvider is an OCRProvider for testing.
type MockOCRProvider struct {
	ProviderName string
	Latency      time.Duration
	ResponseText string
	Err          error

	requestCount atomic.Int64
}

// NewMockOCRProvider creates a new mock OCR provider.
func NewMockOCRProvider() *MockOCRProvider {
	return &MockOCRProvider{
		ProviderName: "mock-ocr",
		Latency:      time.Millisecond,
		ResponseText: "# Mock Page",
	}
}

// Name returns the provider identifier.
func (p *MockOCRProvider) Name() string {
	return p.ProviderName
}

// ProcessPage returns the configured markdown.
func (p *MockOCRProvider) ProcessPage(ctx context.Context, image []byte, pageNum int) (*OCRResult, error) {
	start := time.Now()
	p.requestCount.Add(1)

	if p.Err != nil {
		return &OCRResult{
			Success:       false,
			ErrorMessage:  p.Err.Error(),
			ExecutionTime: time.Since(start),
		}, p.Err
	}

	select {
	case <-time.After(p.Latency):
	case <-ctx.Done():
		return &OCRResult{
			Success:       false,
			ErrorMessage:  ctx.Err().Error(),
			ExecutionTime: time.Since(start),
		}, ctx.Err()
	}

	return &OCRResult{
		Success:       true,
		Text:          fmt.Sprintf("%s %d", p.ResponseText, pageNum),
		ExecutionTime: time.Since(start),
		Metadata: map[string]any{
			"page_num":    pageNum,
			"image_bytes": len(image),
		},
	}, nil
}

// RequestCount returns the number of requests made.
func (p *MockOCRProvider) RequestCount() int64 {
	return p.requestCount.Load()
}

// Verify interface
var _ OCRProvider = (*MockOCRProvider)(nil)
