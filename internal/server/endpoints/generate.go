package endpoints

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/MRenAIAgent/math-content-engine-sub000/internal/api"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/engine"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/render"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/store"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/svcctx"
)

// GenerateRequest is the request body for topic-driven generation.
type GenerateRequest struct {
	Topic        string `json:"topic"`
	Requirements string `json:"requirements,omitempty"`
	Audience     string `json:"audience,omitempty"`
	Style        string `json:"style,omitempty"`
	Model        string `json:"model,omitempty"`
	Quality      string `json:"quality,omitempty"`
}

// GenerateEndpoint handles POST /api/generate.
type GenerateEndpoint struct{}

func (e *GenerateEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/generate", e.handler
}

func (e *GenerateEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Generate an animation from a topic
//	@Description	Run the generate-validate-render loop for a math topic and return the terminal result
//	@Tags			generate
//	@Accept			json
//	@Produce		json
//	@Param			request	body		GenerateRequest	true	"Generation request"
//	@Success		200		{object}	engine.Result
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/generate [post]
func (e *GenerateEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		writeError(w, http.StatusBadRequest, "topic is required")
		return
	}

	quality, err := render.ParseQuality(req.Quality)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	eng := svcctx.EngineFrom(r.Context())
	homeDir := svcctx.HomeFrom(r.Context())
	if eng == nil || homeDir == nil {
		writeError(w, http.StatusServiceUnavailable, "engine not initialized")
		return
	}

	id := uuid.New().String()
	result, runErr := eng.Run(r.Context(), &engine.Request{
		ID:           id,
		Topic:        req.Topic,
		Requirements: req.Requirements,
		Audience:     req.Audience,
		Style:        req.Style,
		Model:        req.Model,
		Quality:      quality,
		OutputPath:   homeDir.OutputPath(id),
	})
	if result == nil {
		writeError(w, http.StatusInternalServerError, runErr.Error())
		return
	}

	saveResult(r, &store.Record{
		ID:           result.ID,
		Mode:         store.ModeGenerate,
		Topic:        result.Topic,
		Success:      result.Success,
		Attempts:     result.AttemptCount(),
		Source:       result.Source,
		SceneName:    result.SceneName,
		ArtifactPath: result.ArtifactPath,
		ErrorMessage: result.ErrorMessage,
		DurationMS:   result.Duration.Milliseconds(),
	})

	if runErr != nil {
		writeError(w, http.StatusInternalServerError, runErr.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (e *GenerateEndpoint) Command(getServerURL func() string) *cobra.Command {
	var requirements, audience, style, model, quality string
	cmd := &cobra.Command{
		Use:   "generate <topic>",
		Short: "Generate an animation from a math topic",
		Long: `Generate a Manim animation for a free-text math topic.

The server drives a bounded generate-validate-render loop and returns
once the loop reaches a terminal state. The rendered video is stored
under the server's home directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp engine.Result
			if err := client.Post(cmd.Context(), "/api/generate", GenerateRequest{
				Topic:        args[0],
				Requirements: requirements,
				Audience:     audience,
				Style:        style,
				Model:        model,
				Quality:      quality,
			}, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&requirements, "requirements", "", "Extra requirements for the animation")
	cmd.Flags().StringVar(&audience, "audience", "", "Audience level (e.g. \"middle school\")")
	cmd.Flags().StringVar(&style, "style", "", "Style preferences")
	cmd.Flags().StringVar(&model, "model", "", "LLM model override")
	cmd.Flags().StringVar(&quality, "quality", "", "Render quality: low, medium, high, 4k")
	return cmd
}

// saveResult persists a record, logging rather than failing the
// request when the store is unavailable.
func saveResult(r *http.Request, rec *store.Record) {
	st := svcctx.StoreFrom(r.Context())
	if st == nil {
		return
	}
	if err := st.Save(r.Context(), rec); err != nil {
		if logger := svcctx.LoggerFrom(r.Context()); logger != nil {
			logger.Error("failed to persist result", "id", rec.ID, "error", err)
		}
	}
}
