package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MRenAIAgent/math-content-engine-sub000/internal/api"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/narrate"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/store"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/svcctx"
)

// NarrateRequest is the request body for narrating a rendered video.
type NarrateRequest struct {
	ResultID string        `json:"result_id"`
	Cues     []narrate.Cue `json:"cues"`
}

// NarrateEndpoint handles POST /api/narrate.
type NarrateEndpoint struct{}

func (e *NarrateEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/narrate", e.handler
}

func (e *NarrateEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Narrate a rendered video
//	@Description	Synthesize speech for timed cues and mux it over a stored result's video
//	@Tags			narrate
//	@Accept			json
//	@Produce		json
//	@Param			request	body		NarrateRequest	true	"Narration request"
//	@Success		200		{object}	narrate.Result
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/narrate [post]
func (e *NarrateEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req NarrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ResultID == "" {
		writeError(w, http.StatusBadRequest, "result_id is required")
		return
	}
	if len(req.Cues) == 0 {
		writeError(w, http.StatusBadRequest, "cues is required")
		return
	}

	narrator := svcctx.NarratorFrom(r.Context())
	st := svcctx.StoreFrom(r.Context())
	homeDir := svcctx.HomeFrom(r.Context())
	if narrator == nil || st == nil || homeDir == nil {
		writeError(w, http.StatusServiceUnavailable, "narrator not initialized")
		return
	}

	rec, err := st.Get(r.Context(), req.ResultID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("result not found: %s", req.ResultID))
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !rec.Success || rec.ArtifactPath == "" {
		writeError(w, http.StatusBadRequest, "result has no rendered video")
		return
	}

	result, err := narrator.Narrate(r.Context(), rec.ArtifactPath, req.Cues, homeDir.NarratedPath(rec.ID))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (e *NarrateEndpoint) Command(getServerURL func() string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "narrate <result-id> <at-seconds>:<text> [...]",
		Short: "Narrate a rendered video",
		Long: `Narrate a stored result's video with synthesized speech.

Each cue is given as OFFSET:TEXT, where OFFSET is seconds from the
start of the video:

  mathengine api narrate 4f1c... "0:We start with the equation" "5.5:Subtract five"`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cues := make([]narrate.Cue, 0, len(args)-1)
			for _, arg := range args[1:] {
				at, text, ok := strings.Cut(arg, ":")
				if !ok {
					return fmt.Errorf("invalid cue %q, want OFFSET:TEXT", arg)
				}
				offset, err := strconv.ParseFloat(at, 64)
				if err != nil {
					return fmt.Errorf("invalid cue offset %q: %w", at, err)
				}
				cues = append(cues, narrate.Cue{AtSeconds: offset, Text: text})
			}

			client := api.NewClient(getServerURL())
			var resp narrate.Result
			if err := client.Post(cmd.Context(), "/api/narrate", NarrateRequest{
				ResultID: args[0],
				Cues:     cues,
			}, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	return cmd
}
