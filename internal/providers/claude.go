package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	ClaudeName             = "claude"
	ClaudeBaseURL          = "https://api.anthropic.com/v1"
	ClaudeDefaultModel     = "claude-sonnet-4-20250514"
	claudeAnthropicVersion = "2023-06-01"
)

// ClaudeConfig holds configuration for the Claude client.
type ClaudeConfig struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	MaxTokens    int // Default max tokens per response (default: 4096)
	Timeout      time.Duration
}

// ClaudeClient implements Generator using the Anthropic Messages API.
type ClaudeClient struct {
	apiKey       string
	baseURL      string
	defaultModel string
	maxTokens    int
	client       *http.Client
}

// NewClaudeClient creates a new Claude client.
func NewClaudeClient(cfg ClaudeConfig) *ClaudeClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = ClaudeBaseURL
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = ClaudeDefaultModel
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 4096
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	return &ClaudeClient{
		apiKey:       cfg.APIKey,
		baseURL:      cfg.BaseURL,
		defaultModel: cfg.DefaultModel,
		maxTokens:    cfg.MaxTokens,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Name returns the client identifier.
func (c *ClaudeClient) Name() string {
	return ClaudeName
}

// Generate sends a prompt to the Anthropic Messages API.
func (c *ClaudeClient) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	start := time.Now()

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}

	result := &GenerateResult{
		RequestID: requestID,
		Provider:  ClaudeName,
	}

	if c.apiKey == "" {
		err := &ProviderError{
			Provider: ClaudeName,
			Kind:     KindFatal,
			Message:  "API key is not configured",
		}
		result.ErrorMessage = err.Error()
		result.ExecutionTime = time.Since(start)
		return result, err
	}

	model := req.Model
	if model == "" {
		model = c.defaultModel
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}

	payload := claudeRequest{
		Model:     model,
		MaxTokens: maxTokens,
		System:    req.System,
		Messages: []claudeMessage{
			{
				Role: "user",
				Content: []claudeContent{
					{Type: "text", Text: req.Prompt},
				},
			},
		},
	}
	if req.Temperature > 0 {
		payload.Temperature = &req.Temperature
	}

	resp, err := c.doRequest(ctx, payload)
	if err != nil {
		result.ErrorMessage = err.Error()
		result.ExecutionTime = time.Since(start)
		return result, err
	}

	result.Success = true
	result.Text = resp.FirstText()
	result.ModelUsed = resp.Model
	result.PromptTokens = resp.Usage.InputTokens
	result.CompletionTokens = resp.Usage.OutputTokens
	result.TotalTokens = resp.Usage.InputTokens + resp.Usage.OutputTokens
	result.ExecutionTime = time.Since(start)

	return result, nil
}

// doRequest makes a single HTTP request to the Messages endpoint.
// Retry policy belongs to the caller; this adapter classifies errors only.
func (c *ClaudeClient) doRequest(ctx context.Context, payload claudeRequest) (*claudeResponse, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/messages", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", claudeAnthropicVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &ProviderError{
			Provider: ClaudeName,
			Kind:     KindTransient,
			Message:  fmt.Sprintf("request failed: %v", err),
			Err:      err,
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{
			Provider: ClaudeName,
			Kind:     KindTransient,
			Message:  fmt.Sprintf("failed to read response: %v", err),
			Err:      err,
		}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitError{
			Message:    fmt.Sprintf("Claude rate limited: %s", claudeErrorMessage(respBody)),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			StatusCode: resp.StatusCode,
		}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{
			Provider:   ClaudeName,
			Kind:       classifyStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Message:    claudeErrorMessage(respBody),
		}
	}

	var decoded claudeResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, &ProviderError{
			Provider: ClaudeName,
			Kind:     KindTransient,
			Message:  fmt.Sprintf("failed to unmarshal response: %v", err),
			Err:      err,
		}
	}

	return &decoded, nil
}

// claudeErrorMessage extracts the error message from an API error body.
func claudeErrorMessage(body []byte) string {
	var errResp claudeErrorResponse
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		return errResp.Error.Message
	}
	return strings.TrimSpace(string(body))
}

// Anthropic Messages API types

type claudeRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	System      string          `json:"system,omitempty"`
	Temperature *float64        `json:"temperature,omitempty"`
	Messages    []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string          `json:"role"`
	Content []claudeContent `json:"content"`
}

type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type claudeResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (r *claudeResponse) FirstText() string {
	for _, c := range r.Content {
		if c.Type == "text" {
			return c.Text
		}
	}
	return ""
}

type claudeErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Verify interface
var _ Generator = (*ClaudeClient)(nil)
