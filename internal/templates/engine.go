package templates

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MRenAIAgent/math-content-engine-sub000/internal/render"
)

// AnswerRequest asks the engine to answer a math question with a
// pre-authored animation.
type AnswerRequest struct {
	ID         string // Result ID; generated when empty
	Question   string
	Quality    render.Quality
	OutputPath string
}

// AnswerResult is the terminal outcome of one Answer call. A question
// no parser could map is Matched=false with Success=false, not an
// error.
type AnswerResult struct {
	ID           string         `json:"id"`
	Question     string         `json:"question"`
	Matched      bool           `json:"matched"`
	TemplateID   string         `json:"template_id,omitempty"`
	Params       map[string]any `json:"params,omitempty"`
	Confidence   float64        `json:"confidence"`
	ParserUsed   string         `json:"parser_used,omitempty"` // "regex" or "llm"
	Success      bool           `json:"success"`
	Source       string         `json:"source,omitempty"`
	ArtifactPath string         `json:"artifact_path,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Duration     time.Duration  `json:"duration"`
}

// EngineConfig wires the template engine's collaborators.
type EngineConfig struct {
	Registry  *Registry
	Parser    *Parser
	LLMParser *LLMParser // Optional fallback for unmatched questions
	Renderer  render.Renderer
	Quality   render.Quality
	Logger    *slog.Logger
}

// Engine is the deterministic counterpart to the LLM generation loop:
// parse a question, resolve template parameters, render. Rendering
// goes through the same renderer the generation loop uses.
type Engine struct {
	registry       *Registry
	parser         *Parser
	llmParser      *LLMParser
	renderer       render.Renderer
	defaultQuality render.Quality
	logger         *slog.Logger
}

// NewEngine validates the configuration and builds the engine.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("template engine: registry is required")
	}
	if cfg.Parser == nil {
		return nil, fmt.Errorf("template engine: parser is required")
	}
	if cfg.Renderer == nil {
		return nil, fmt.Errorf("template engine: renderer is required")
	}
	if cfg.Quality == "" {
		cfg.Quality = render.DefaultQuality
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Engine{
		registry:       cfg.Registry,
		parser:         cfg.Parser,
		llmParser:      cfg.LLMParser,
		renderer:       cfg.Renderer,
		defaultQuality: cfg.Quality,
		logger:         cfg.Logger,
	}, nil
}

// Registry exposes the template registry for listing endpoints.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Answer parses the question, resolves the matched template, and
// renders the scene.
func (e *Engine) Answer(ctx context.Context, req *AnswerRequest) (*AnswerResult, error) {
	if req == nil || strings.TrimSpace(req.Question) == "" {
		return nil, fmt.Errorf("template engine: question is required")
	}
	if req.OutputPath == "" {
		return nil, fmt.Errorf("template engine: output path is required")
	}

	start := time.Now()
	id := req.ID
	if id == "" {
		id = uuid.New().String()
	}
	result := &AnswerResult{
		ID:       id,
		Question: req.Question,
	}

	parsed := e.parser.Parse(req.Question)
	result.ParserUsed = "regex"

	if !parsed.Matched && e.llmParser != nil {
		e.logger.Info("regex parse missed, trying llm parser", "id", result.ID)
		llmParsed, err := e.llmParser.Parse(ctx, req.Question)
		if err != nil {
			e.logger.Warn("llm parse failed", "id", result.ID, "error", err)
		} else {
			parsed = llmParsed
			result.ParserUsed = "llm"
		}
	}

	if !parsed.Matched {
		result.ErrorMessage = "no template matches the question"
		result.Duration = time.Since(start)
		e.logger.Info("question not understood", "id", result.ID, "question", req.Question)
		return result, nil
	}

	result.Matched = true
	result.TemplateID = parsed.TemplateID
	result.Params = parsed.Params
	result.Confidence = parsed.Confidence

	source, err := e.registry.Render(parsed.TemplateID, parsed.Params)
	if err != nil {
		result.ErrorMessage = err.Error()
		result.Duration = time.Since(start)
		return result, err
	}
	result.Source = source

	tmpl, err := e.registry.Get(parsed.TemplateID)
	if err != nil {
		return nil, err
	}

	quality := req.Quality
	if quality == "" {
		quality = e.defaultQuality
	}

	outcome, err := e.renderer.Render(ctx, &render.Job{
		Source:     source,
		SceneName:  tmpl.SceneName,
		Quality:    quality,
		OutputPath: req.OutputPath,
	})
	if err != nil {
		return nil, err
	}
	if !outcome.Success {
		result.ErrorMessage = outcome.ErrorText
		result.Duration = time.Since(start)
		return result, nil
	}

	result.Success = true
	result.ArtifactPath = outcome.ArtifactPath
	result.Duration = time.Since(start)

	e.logger.Info("template answer rendered",
		"id", result.ID,
		"template", parsed.TemplateID,
		"parser", result.ParserUsed,
		"artifact", outcome.ArtifactPath)
	return result, nil
}
