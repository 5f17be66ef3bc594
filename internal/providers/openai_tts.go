package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	OpenAITTSName         = "openai-tts"
	openAITTSDefaultModel = openai.SpeechModelTTS1HD
	openAITTSDefaultVoice = "onyx"
)

// OpenAITTSConfig holds configuration for the OpenAI TTS client.
type OpenAITTSConfig struct {
	APIKey     string
	Model      string        // "tts-1-hd" (default), "tts-1", "gpt-4o-mini-tts"
	Voice      string        // "onyx" (default)
	Speed      float64       // 0.25-4.0
	Timeout    time.Duration // HTTP timeout
	BaseURL    string        // Optional (tests)
	HTTPClient *http.Client  // Optional (tests)
}

// OpenAITTSClient implements Synthesizer using the official OpenAI SDK.
type OpenAITTSClient struct {
	apiKey string
	model  string
	voice  string
	speed  float64
	client openai.Client
}

// NewOpenAITTSClient creates a new OpenAI TTS client.
func NewOpenAITTSClient(cfg OpenAITTSConfig) *OpenAITTSClient {
	if cfg.Model == "" {
		cfg.Model = openAITTSDefaultModel
	}
	if cfg.Voice == "" {
		cfg.Voice = openAITTSDefaultVoice
	}
	if cfg.Speed <= 0 {
		cfg.Speed = 1.0
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 300 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAITTSClient{
		apiKey: cfg.APIKey,
		model:  cfg.Model,
		voice:  cfg.Voice,
		speed:  cfg.Speed,
		client: openai.NewClient(opts...),
	}
}

// Name returns the provider identifier.
func (c *OpenAITTSClient) Name() string {
	return OpenAITTSName
}

// Synthesize converts text to audio using the OpenAI TTS API.
func (c *OpenAITTSClient) Synthesize(ctx context.Context, req *SpeechRequest) (*SpeechResult, error) {
	start := time.Now()

	text := strings.TrimSpace(req.Text)
	if text == "" {
		err := fmt.Errorf("text is required")
		return &SpeechResult{
			Success:       false,
			ErrorMessage:  err.Error(),
			ExecutionTime: time.Since(start),
		}, err
	}

	voice := strings.TrimSpace(req.Voice)
	if voice == "" {
		voice = c.voice
	}
	speed := req.Speed
	if speed <= 0 {
		speed = c.speed
	}

	format := normalizeOpenAIFormat(req.Format)
	params := openai.AudioSpeechNewParams{
		Input:          text,
		Model:          openai.SpeechModel(c.model),
		Voice:          openai.AudioSpeechNewParamsVoice(voice),
		ResponseFormat: format,
		Speed:          openai.Float(speed),
	}

	resp, err := c.client.Audio.Speech.New(ctx, params)
	if err != nil {
		err = mapOpenAIError(err)
		return &SpeechResult{
			Success:       false,
			ErrorMessage:  err.Error(),
			CharCount:     len(text),
			ExecutionTime: time.Since(start),
		}, err
	}
	defer resp.Body.Close()

	audioBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("failed reading openai audio response: %w", err)
		return &SpeechResult{
			Success:       false,
			ErrorMessage:  err.Error(),
			CharCount:     len(text),
			ExecutionTime: time.Since(start),
		}, err
	}

	return &SpeechResult{
		Success:       true,
		Audio:         audioBytes,
		Format:        openAIResultFormat(format),
		DurationMS:    estimateSpeechDurationMS(text),
		CharCount:     len(text),
		ExecutionTime: time.Since(start),
	}, nil
}

// estimateSpeechDurationMS estimates clip length from text.
// ~150 words per minute, ~5 chars per word; AudioSpeech responses carry no usage.
func estimateSpeechDurationMS(text string) int {
	return (len(text) * 60 * 1000) / (150 * 5)
}

func normalizeOpenAIFormat(format string) openai.AudioSpeechNewParamsResponseFormat {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "mp3":
		return openai.AudioSpeechNewParamsResponseFormatMP3
	case "opus":
		return openai.AudioSpeechNewParamsResponseFormatOpus
	case "aac":
		return openai.AudioSpeechNewParamsResponseFormatAAC
	case "flac":
		return openai.AudioSpeechNewParamsResponseFormatFLAC
	case "wav":
		return openai.AudioSpeechNewParamsResponseFormatWAV
	case "pcm":
		return openai.AudioSpeechNewParamsResponseFormatPCM
	default:
		return openai.AudioSpeechNewParamsResponseFormatMP3
	}
}

func openAIResultFormat(format openai.AudioSpeechNewParamsResponseFormat) string {
	switch format {
	case openai.AudioSpeechNewParamsResponseFormatOpus:
		return "opus"
	case openai.AudioSpeechNewParamsResponseFormatAAC:
		return "aac"
	case openai.AudioSpeechNewParamsResponseFormatFLAC:
		return "flac"
	case openai.AudioSpeechNewParamsResponseFormatWAV:
		return "wav"
	case openai.AudioSpeechNewParamsResponseFormatPCM:
		return "wav"
	default:
		return "mp3"
	}
}

// Verify interface
var _ Synthesizer = (*OpenAITTSClient)(nil)
