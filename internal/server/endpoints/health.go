// Package endpoints implements the HTTP API surface and its paired
// CLI commands.
package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/MRenAIAgent/math-content-engine-sub000/internal/api"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/render"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/svcctx"
)

// HealthResponse is the response for health check endpoints.
type HealthResponse struct {
	Status string `json:"status"`
}

// HealthEndpoint handles GET /health.
type HealthEndpoint struct{}

func (e *HealthEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/health", e.handler
}

func (e *HealthEndpoint) RequiresInit() bool { return false }

func (e *HealthEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (e *HealthEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp HealthResponse
			if err := client.Get(cmd.Context(), "/health", &resp); err != nil {
				return err
			}
			fmt.Printf("Status: %s\n", resp.Status)
			return nil
		},
	}
}

// StatusResponse is the detailed status response.
type StatusResponse struct {
	Server    string          `json:"server"`
	Providers ProvidersStatus `json:"providers"`
	Templates int             `json:"templates"`
	Qualities []QualityStatus `json:"qualities"`
}

// QualityStatus describes one render quality preset.
type QualityStatus struct {
	Name       string `json:"name"`
	Resolution int    `json:"resolution"`
	FPS        int    `json:"fps"`
}

// ProvidersStatus shows registered LLM, TTS, and OCR providers.
type ProvidersStatus struct {
	LLM []string `json:"llm"`
	TTS []string `json:"tts"`
	OCR []string `json:"ocr"`
}

// StatusEndpoint handles GET /status.
type StatusEndpoint struct{}

func (e *StatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/status", e.handler
}

func (e *StatusEndpoint) RequiresInit() bool { return false }

func (e *StatusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Server: "running",
	}

	registry := svcctx.RegistryFrom(r.Context())
	if registry != nil {
		resp.Providers.LLM = registry.ListLLM()
		resp.Providers.TTS = registry.ListTTS()
		resp.Providers.OCR = registry.ListOCR()
	}

	if tmpl := svcctx.TemplatesFrom(r.Context()); tmpl != nil {
		resp.Templates = len(tmpl.Registry().IDs())
	}

	for _, q := range render.Qualities() {
		resp.Qualities = append(resp.Qualities, QualityStatus{
			Name:       string(q),
			Resolution: q.Resolution(),
			FPS:        q.FPS(),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *StatusEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Get detailed server status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp StatusResponse
			if err := client.Get(cmd.Context(), "/status", &resp); err != nil {
				return err
			}
			fmt.Printf("Server: %s\n", resp.Server)
			fmt.Printf("Templates: %d\n", resp.Templates)
			fmt.Printf("Providers:\n")
			fmt.Printf("  LLM: %v\n", resp.Providers.LLM)
			fmt.Printf("  TTS: %v\n", resp.Providers.TTS)
			fmt.Printf("  OCR: %v\n", resp.Providers.OCR)
			fmt.Printf("Qualities:\n")
			for _, q := range resp.Qualities {
				fmt.Printf("  %s: %dp%d\n", q.Name, q.Resolution, q.FPS)
			}
			return nil
		},
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
