package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	ElevenLabsTTSName      = "elevenlabs"
	ElevenLabsAPIBaseURL   = "https://api.elevenlabs.io/v1"
	ElevenLabsDefaultModel = "eleven_turbo_v2_5"
)

// ElevenLabsTTSConfig holds configuration for the ElevenLabs TTS client.
type ElevenLabsTTSConfig struct {
	APIKey     string
	BaseURL    string
	Model      string  // e.g., "eleven_multilingual_v2", "eleven_turbo_v2_5"
	Voice      string  // Default voice ID
	Format     string  // Output format: mp3_44100_128, pcm_16000, etc.
	Stability  float64 // Voice stability (0.0-1.0, default: 0.5)
	Similarity float64 // Similarity boost (0.0-1.0, default: 0.75)
	Speed      float64 // Speaking speed (0.7-1.2, default: 1.0)
	Timeout    time.Duration
}

// ElevenLabsTTSClient implements Synthesizer using the ElevenLabs API.
type ElevenLabsTTSClient struct {
	apiKey     string
	baseURL    string
	model      string
	voice      string
	format     string
	stability  float64
	similarity float64
	speed      float64
	client     *http.Client
}

// NewElevenLabsTTSClient creates a new ElevenLabs TTS client.
func NewElevenLabsTTSClient(cfg ElevenLabsTTSConfig) *ElevenLabsTTSClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = ElevenLabsAPIBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = ElevenLabsDefaultModel
	}
	if cfg.Format == "" {
		cfg.Format = "mp3_44100_128"
	}
	if cfg.Stability == 0 {
		cfg.Stability = 0.5
	}
	if cfg.Similarity == 0 {
		cfg.Similarity = 0.75
	}
	if cfg.Speed == 0 {
		cfg.Speed = 1.0
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 300 * time.Second // TTS can be slow for long text
	}

	return &ElevenLabsTTSClient{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		voice:      cfg.Voice,
		format:     cfg.Format,
		stability:  cfg.Stability,
		similarity: cfg.Similarity,
		speed:      cfg.Speed,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Name returns the provider identifier.
func (c *ElevenLabsTTSClient) Name() string {
	return ElevenLabsTTSName
}

// Synthesize converts text to audio using the ElevenLabs API.
func (c *ElevenLabsTTSClient) Synthesize(ctx context.Context, req *SpeechRequest) (*SpeechResult, error) {
	start := time.Now()

	voice := req.Voice
	if voice == "" {
		voice = c.voice
	}
	if voice == "" {
		err := fmt.Errorf("voice_id is required")
		return &SpeechResult{
			Success:       false,
			ErrorMessage:  err.Error(),
			CharCount:     len(req.Text),
			ExecutionTime: time.Since(start),
		}, err
	}

	format := c.format
	if req.Format != "" {
		format = req.Format
	}
	speed := c.speed
	if req.Speed > 0 {
		speed = req.Speed
	}

	ttsReq := elevenLabsTTSRequest{
		Text:    req.Text,
		ModelID: c.model,
		VoiceSettings: elevenLabsVoiceSettings{
			Stability:       c.stability,
			SimilarityBoost: c.similarity,
			Speed:           speed,
			UseSpeakerBoost: true,
		},
	}

	audioBytes, err := c.doRequest(ctx, voice, format, ttsReq)
	if err != nil {
		return &SpeechResult{
			Success:       false,
			ErrorMessage:  err.Error(),
			CharCount:     len(req.Text),
			ExecutionTime: time.Since(start),
		}, err
	}

	container, _ := parseOutputFormat(format)

	return &SpeechResult{
		Success:       true,
		Audio:         audioBytes,
		Format:        container,
		DurationMS:    estimateSpeechDurationMS(req.Text),
		CharCount:     len(req.Text),
		ExecutionTime: time.Since(start),
	}, nil
}

// doRequest makes an HTTP request to the ElevenLabs TTS API.
func (c *ElevenLabsTTSClient) doRequest(ctx context.Context, voiceID, format string, body elevenLabsTTSRequest) ([]byte, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/text-to-speech/%s?output_format=%s", c.baseURL, voiceID, format)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &ProviderError{
			Provider: ElevenLabsTTSName,
			Kind:     KindTransient,
			Message:  fmt.Sprintf("request failed: %v", err),
			Err:      err,
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp elevenLabsErrorResponse
		errMsg := string(respBody)
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Detail.Message != "" {
			errMsg = errResp.Detail.Message
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, &RateLimitError{
				Message:    fmt.Sprintf("ElevenLabs rate limited: %s", errMsg),
				RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
				StatusCode: resp.StatusCode,
			}
		}

		return nil, &ProviderError{
			Provider:   ElevenLabsTTSName,
			Kind:       classifyStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Message:    errMsg,
		}
	}

	return respBody, nil
}

// ElevenLabs API types

type elevenLabsTTSRequest struct {
	Text          string                  `json:"text"`
	ModelID       string                  `json:"model_id"`
	VoiceSettings elevenLabsVoiceSettings `json:"voice_settings"`
}

type elevenLabsVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Speed           float64 `json:"speed,omitempty"`
	UseSpeakerBoost bool    `json:"use_speaker_boost,omitempty"`
}

type elevenLabsErrorResponse struct {
	Detail struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"detail"`
}

// parseOutputFormat extracts container format and sample rate from output_format.
// Examples: mp3_44100_128 -> (mp3, 44100), pcm_16000 -> (wav, 16000).
func parseOutputFormat(format string) (container string, sampleRate int) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		return "mp3", 0
	}

	parts := strings.Split(format, "_")
	container = parts[0]
	if container == "pcm" || container == "ulaw" || container == "alaw" {
		container = "wav"
	}

	if len(parts) >= 2 {
		if sr, err := strconv.Atoi(parts[1]); err == nil {
			sampleRate = sr
		}
	}

	return container, sampleRate
}

// Verify interface
var _ Synthesizer = (*ElevenLabsTTSClient)(nil)
