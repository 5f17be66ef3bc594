package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MRenAIAgent/math-content-engine-sub000/internal/engine"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/home"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/providers"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/render"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/store"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/svcctx"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/templates"
)

const testScene = `from manim import *

class TestScene(Scene):
    def construct(self):
        circle = Circle()
        self.play(Create(circle))
`

type stubRenderer struct {
	calls int
}

func (s *stubRenderer) Name() string { return "stub" }

func (s *stubRenderer) Render(ctx context.Context, job *render.Job) (*render.Outcome, error) {
	s.calls++
	return &render.Outcome{Success: true, ArtifactPath: job.OutputPath}, nil
}

// newTestServer builds a server with mock providers and a stub
// renderer, bypassing config loading.
func newTestServer(t *testing.T) (*httptest.Server, *providers.MockGenerator, *store.Store) {
	t.Helper()

	homeDir, err := home.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := homeDir.EnsureExists(); err != nil {
		t.Fatal(err)
	}

	s, err := New(Config{Home: homeDir})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	gen := providers.NewMockGenerator()
	gen.ResponseText = "```python\n" + testScene + "```"
	s.registry.RegisterLLM("mock", gen)
	s.registry.RegisterTTS("mock-tts", providers.NewMockSynthesizer())

	renderer := &stubRenderer{}

	st, err := store.New(homeDir.DBPath())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	tmplRegistry, err := templates.NewLibraryRegistry()
	if err != nil {
		t.Fatal(err)
	}
	tmplParser, err := templates.NewLibraryParser(tmplRegistry)
	if err != nil {
		t.Fatal(err)
	}
	tmplEngine, err := templates.NewEngine(templates.EngineConfig{
		Registry: tmplRegistry,
		Parser:   tmplParser,
		Renderer: renderer,
	})
	if err != nil {
		t.Fatal(err)
	}

	eng, err := engine.New(engine.Config{
		Generator:   gen,
		Renderer:    renderer,
		MaxAttempts: 3,
	})
	if err != nil {
		t.Fatal(err)
	}

	s.services = &svcctx.Services{
		Engine:    eng,
		Templates: tmplEngine,
		Registry:  s.registry,
		Store:     st,
		Home:      homeDir,
		Logger:    s.logger,
	}

	ts := httptest.NewServer(s.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts, gen, st
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	var health map[string]string
	decodeBody(t, resp, &health)
	if health["status"] != "ok" {
		t.Errorf("unexpected health: %v", health)
	}
}

func TestStatusEndpoint(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/status")
	if err != nil {
		t.Fatalf("GET /status failed: %v", err)
	}
	var status struct {
		Server    string `json:"server"`
		Templates int    `json:"templates"`
		Providers struct {
			LLM []string `json:"llm"`
		} `json:"providers"`
		Qualities []struct {
			Name       string `json:"name"`
			Resolution int    `json:"resolution"`
			FPS        int    `json:"fps"`
		} `json:"qualities"`
	}
	decodeBody(t, resp, &status)
	if status.Server != "running" {
		t.Errorf("unexpected server status: %q", status.Server)
	}
	if status.Templates != 5 {
		t.Errorf("expected 5 templates, got %d", status.Templates)
	}
	if len(status.Providers.LLM) != 1 || status.Providers.LLM[0] != "mock" {
		t.Errorf("unexpected providers: %v", status.Providers.LLM)
	}
	if len(status.Qualities) != 4 {
		t.Fatalf("expected 4 quality presets, got %d", len(status.Qualities))
	}
	if q := status.Qualities[1]; q.Name != "medium" || q.Resolution != 720 || q.FPS != 30 {
		t.Errorf("unexpected medium preset: %+v", q)
	}
}

func TestGenerateEndpoint(t *testing.T) {
	ts, _, st := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/generate", map[string]string{
		"topic": "pythagorean theorem",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var result engine.Result
	decodeBody(t, resp, &result)
	if !result.Success {
		t.Fatalf("expected success: %s", result.ErrorMessage)
	}
	if result.SceneName != "TestScene" {
		t.Errorf("unexpected scene: %q", result.SceneName)
	}

	// The run is persisted under the same ID.
	rec, err := st.Get(context.Background(), result.ID)
	if err != nil {
		t.Fatalf("result not persisted: %v", err)
	}
	if rec.Mode != store.ModeGenerate || rec.Topic != "pythagorean theorem" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.ArtifactPath != result.ArtifactPath {
		t.Errorf("artifact mismatch: %q vs %q", rec.ArtifactPath, result.ArtifactPath)
	}
}

func TestGenerateEndpointValidation(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/generate", map[string]string{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty topic: status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/api/generate", map[string]string{
		"topic":   "circles",
		"quality": "ultra",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad quality: status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAnswerEndpoint(t *testing.T) {
	ts, _, st := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/answer", map[string]string{
		"question": "Solve 3x + 5 = 14",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var result templates.AnswerResult
	decodeBody(t, resp, &result)
	if !result.Success || result.TemplateID != "linear_equation_graph" {
		t.Fatalf("unexpected result: %+v", result)
	}

	rec, err := st.Get(context.Background(), result.ID)
	if err != nil {
		t.Fatalf("result not persisted: %v", err)
	}
	if rec.Mode != store.ModeAnswer || rec.TemplateID != "linear_equation_graph" {
		t.Errorf("unexpected record: %+v", rec)
	}
}

func TestAnswerEndpointUnmatched(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/answer", map[string]string{
		"question": "Tell me a joke",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unmatched questions are 200s: got %d", resp.StatusCode)
	}
	var result templates.AnswerResult
	decodeBody(t, resp, &result)
	if result.Matched || result.Success {
		t.Errorf("expected unmatched result: %+v", result)
	}
}

func TestTemplatesEndpoints(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/templates")
	if err != nil {
		t.Fatal(err)
	}
	var list struct {
		Count     int `json:"count"`
		Templates []struct {
			ID string `json:"id"`
		} `json:"templates"`
	}
	decodeBody(t, resp, &list)
	if list.Count != 5 {
		t.Errorf("expected 5 templates, got %d", list.Count)
	}

	resp, err = http.Get(ts.URL + "/api/templates/linear_equation_graph")
	if err != nil {
		t.Fatal(err)
	}
	var tmpl templates.Template
	decodeBody(t, resp, &tmpl)
	if tmpl.SceneName != "LinearEquationScene" {
		t.Errorf("unexpected template: %+v", tmpl)
	}

	resp, err = http.Get(ts.URL + "/api/templates/nope")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing template: status = %d, want 404", resp.StatusCode)
	}
}

func TestResultsEndpoints(t *testing.T) {
	ts, _, st := newTestServer(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := st.Save(ctx, &store.Record{
			ID:      fmt.Sprintf("res-%d", i),
			Mode:    store.ModeGenerate,
			Topic:   "limits",
			Success: true,
		}); err != nil {
			t.Fatal(err)
		}
	}

	resp, err := http.Get(ts.URL + "/api/results?limit=2")
	if err != nil {
		t.Fatal(err)
	}
	var list struct {
		Count int `json:"count"`
	}
	decodeBody(t, resp, &list)
	if list.Count != 2 {
		t.Errorf("expected 2 results, got %d", list.Count)
	}

	resp, err = http.Get(ts.URL + "/api/results/res-1")
	if err != nil {
		t.Fatal(err)
	}
	var rec store.Record
	decodeBody(t, resp, &rec)
	if rec.Topic != "limits" {
		t.Errorf("unexpected record: %+v", rec)
	}

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/results/res-1", nil)
	if err != nil {
		t.Fatal(err)
	}
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", delResp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/api/results/res-1")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("deleted result: status = %d, want 404", resp.StatusCode)
	}
}

func TestGenerateRetriesSurfaceInResult(t *testing.T) {
	ts, gen, _ := newTestServer(t)

	// First response fails validation, second is clean.
	gen.ResponseText = ""
	gen.Responses = []string{
		"```python\nprint('not a scene')\n```",
		"```python\n" + testScene + "```",
	}

	resp := postJSON(t, ts.URL+"/api/generate", map[string]string{
		"topic": "quadratic equations",
	})
	var result engine.Result
	decodeBody(t, resp, &result)
	if !result.Success {
		t.Fatalf("expected eventual success: %s", result.ErrorMessage)
	}
	if result.AttemptCount() != 2 {
		t.Errorf("expected 2 attempts, got %d", result.AttemptCount())
	}
	if len(result.Attempts[0].ValidationReasons) == 0 {
		t.Error("first attempt should carry validation reasons")
	}
}

func TestRequireInitMiddleware(t *testing.T) {
	homeDir, err := home.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s, err := New(Config{Home: homeDir})
	if err != nil {
		t.Fatal(err)
	}
	// No services built: API endpoints must 503, health must not.
	ts := httptest.NewServer(s.httpServer.Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health: status = %d, want 200", resp.StatusCode)
	}

	resp = postJSON(t, ts.URL+"/api/generate", map[string]string{"topic": "x"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("generate before init: status = %d, want 503", resp.StatusCode)
	}
}
