package templates

import (
	"context"
	"testing"

	"github.com/MRenAIAgent/math-content-engine-sub000/internal/providers"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/render"
)

func newFallbackGenerator() *providers.MockGenerator {
	gen := providers.NewMockGenerator()
	gen.ResponseText = `{"matched": true, "template_id": "linear_equation_graph", "params": {"a": 3, "b": 5, "c": 14}, "confidence": 0.7}`
	return gen
}

type stubRenderer struct {
	outcome *render.Outcome
	calls   int
	lastJob *render.Job
}

func (s *stubRenderer) Name() string { return "stub" }

func (s *stubRenderer) Render(ctx context.Context, job *render.Job) (*render.Outcome, error) {
	s.calls++
	s.lastJob = job
	out := *s.outcome
	if out.Success && out.ArtifactPath == "" {
		out.ArtifactPath = job.OutputPath
	}
	return &out, nil
}

func newTestEngine(t *testing.T, renderer render.Renderer) *Engine {
	t.Helper()
	registry, parser := libraryParser(t)
	e, err := NewEngine(EngineConfig{
		Registry: registry,
		Parser:   parser,
		Renderer: renderer,
	})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return e
}

func TestAnswerEndToEnd(t *testing.T) {
	renderer := &stubRenderer{outcome: &render.Outcome{Success: true}}
	e := newTestEngine(t, renderer)

	result, err := e.Answer(context.Background(), &AnswerRequest{
		Question:   "Solve 3x + 5 = 14",
		OutputPath: "/tmp/answer.mp4",
	})
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success: %s", result.ErrorMessage)
	}
	if result.TemplateID != "linear_equation_graph" {
		t.Errorf("unexpected template: %q", result.TemplateID)
	}
	if result.ParserUsed != "regex" {
		t.Errorf("expected regex parser, got %q", result.ParserUsed)
	}
	if renderer.lastJob.SceneName != "LinearEquationScene" {
		t.Errorf("unexpected scene name: %q", renderer.lastJob.SceneName)
	}
	if result.ArtifactPath != "/tmp/answer.mp4" {
		t.Errorf("unexpected artifact: %q", result.ArtifactPath)
	}
}

func TestAnswerUnmatchedQuestion(t *testing.T) {
	renderer := &stubRenderer{outcome: &render.Outcome{Success: true}}
	e := newTestEngine(t, renderer)

	result, err := e.Answer(context.Background(), &AnswerRequest{
		Question:   "Tell me a joke",
		OutputPath: "/tmp/answer.mp4",
	})
	if err != nil {
		t.Fatalf("unmatched questions are not errors: %v", err)
	}
	if result.Matched || result.Success {
		t.Error("expected unmatched, unsuccessful result")
	}
	if renderer.calls != 0 {
		t.Error("renderer must not run for unmatched questions")
	}
}

func TestAnswerRenderFailure(t *testing.T) {
	renderer := &stubRenderer{outcome: &render.Outcome{
		Success:   false,
		ErrorText: "latex not found",
	}}
	e := newTestEngine(t, renderer)

	result, err := e.Answer(context.Background(), &AnswerRequest{
		Question:   "Solve 3x + 5 = 14",
		OutputPath: "/tmp/answer.mp4",
	})
	if err != nil {
		t.Fatalf("render failure is an unsuccessful result, not an error: %v", err)
	}
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.ErrorMessage != "latex not found" {
		t.Errorf("unexpected error message: %q", result.ErrorMessage)
	}
	// The parse still succeeded; that part of the result is kept.
	if !result.Matched || result.Source == "" {
		t.Error("expected matched result with rendered source")
	}
}

func TestAnswerLLMFallback(t *testing.T) {
	registry, parser := libraryParser(t)

	gen := newFallbackGenerator()
	llmParser, err := NewLLMParser(gen, registry)
	if err != nil {
		t.Fatalf("NewLLMParser failed: %v", err)
	}

	renderer := &stubRenderer{outcome: &render.Outcome{Success: true}}
	e, err := NewEngine(EngineConfig{
		Registry:  registry,
		Parser:    parser,
		LLMParser: llmParser,
		Renderer:  renderer,
	})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	// Phrased so no regex pattern matches; the LLM fallback does.
	result, err := e.Answer(context.Background(), &AnswerRequest{
		Question:   "I need the x that makes three x plus five equal fourteen",
		OutputPath: "/tmp/answer.mp4",
	})
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success: %s", result.ErrorMessage)
	}
	if result.ParserUsed != "llm" {
		t.Errorf("expected llm parser, got %q", result.ParserUsed)
	}
	if result.TemplateID != "linear_equation_graph" {
		t.Errorf("unexpected template: %q", result.TemplateID)
	}
}

func TestAnswerInputValidation(t *testing.T) {
	renderer := &stubRenderer{outcome: &render.Outcome{Success: true}}
	e := newTestEngine(t, renderer)

	if _, err := e.Answer(context.Background(), &AnswerRequest{OutputPath: "/tmp/x.mp4"}); err == nil {
		t.Error("expected error for empty question")
	}
	if _, err := e.Answer(context.Background(), &AnswerRequest{Question: "Solve 3x + 5 = 14"}); err == nil {
		t.Error("expected error for empty output path")
	}
}
