package endpoints

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/MRenAIAgent/math-content-engine-sub000/internal/api"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/render"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/store"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/svcctx"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/templates"
)

// AnswerRequest is the request body for question answering.
type AnswerRequest struct {
	Question string `json:"question"`
	Quality  string `json:"quality,omitempty"`
}

// AnswerEndpoint handles POST /api/answer.
type AnswerEndpoint struct{}

func (e *AnswerEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/answer", e.handler
}

func (e *AnswerEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Answer a math question with a templated animation
//	@Description	Parse the question, resolve a pre-authored template, and render it
//	@Tags			answer
//	@Accept			json
//	@Produce		json
//	@Param			request	body		AnswerRequest	true	"Answer request"
//	@Success		200		{object}	templates.AnswerResult
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/answer [post]
func (e *AnswerEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	quality, err := render.ParseQuality(req.Quality)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tmplEngine := svcctx.TemplatesFrom(r.Context())
	homeDir := svcctx.HomeFrom(r.Context())
	if tmplEngine == nil || homeDir == nil {
		writeError(w, http.StatusServiceUnavailable, "template engine not initialized")
		return
	}

	id := uuid.New().String()
	result, runErr := tmplEngine.Answer(r.Context(), &templates.AnswerRequest{
		ID:         id,
		Question:   req.Question,
		Quality:    quality,
		OutputPath: homeDir.OutputPath(id),
	})
	if result == nil {
		writeError(w, http.StatusInternalServerError, runErr.Error())
		return
	}

	saveResult(r, &store.Record{
		ID:           result.ID,
		Mode:         store.ModeAnswer,
		Question:     result.Question,
		TemplateID:   result.TemplateID,
		Success:      result.Success,
		Source:       result.Source,
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

func (e *AnswerEndpoint) Command(getServerURL func() string) *cobra.Command {
	var quality string
	cmd := &cobra.Command{
		Use:   "answer <question>",
		Short: "Answer a math question with a templated animation",
		Long: `Answer a concrete math question using the deterministic template
engine. Questions that match a known pattern ("Solve 3x + 5 = 14")
render without any LLM involvement.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp templates.AnswerResult
			if err := client.Post(cmd.Context(), "/api/answer", AnswerRequest{
				Question: args[0],
				Quality:  quality,
			}, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&quality, "quality", "", "Render quality: low, medium, high, 4k")
	return cmd
}
