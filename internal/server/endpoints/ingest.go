package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/MRenAIAgent/math-content-engine-sub000/internal/api"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/ingest"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/svcctx"
)

// IngestRequest is the request body for ingesting a worksheet PDF.
type IngestRequest struct {
	PDFPath string `json:"pdf_path"`
	Title   string `json:"title,omitempty"`
}

// IngestEndpoint handles POST /api/ingest.
type IngestEndpoint struct{}

func (e *IngestEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/ingest", e.handler
}

func (e *IngestEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Ingest a worksheet PDF
//	@Description	OCR a scanned worksheet into per-page markdown and suggest topics
//	@Tags			ingest
//	@Accept			json
//	@Produce		json
//	@Param			request	body		IngestRequest	true	"Ingest request"
//	@Success		200		{object}	ingest.Result
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/ingest [post]
func (e *IngestEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PDFPath == "" {
		writeError(w, http.StatusBadRequest, "pdf_path is required")
		return
	}

	ingestor := svcctx.IngestorFrom(r.Context())
	if ingestor == nil {
		writeError(w, http.StatusServiceUnavailable, "ingestor not initialized")
		return
	}

	logger := svcctx.LoggerFrom(r.Context())
	result, err := ingestor.Ingest(r.Context(), ingest.Request{
		PDFPath: req.PDFPath,
		Title:   req.Title,
		Logger:  logger,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (e *IngestEndpoint) Command(getServerURL func() string) *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "ingest <pdf-file>",
		Short: "Ingest a worksheet PDF",
		Long: `OCR a scanned math worksheet into per-page markdown stored under
the server's home directory. The response includes topic suggestions
extracted from the worksheet headings, ready to feed to generate.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			abs, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("invalid path %s: %w", args[0], err)
			}

			client := api.NewClient(getServerURL())
			var resp ingest.Result
			if err := client.Post(cmd.Context(), "/api/ingest", IngestRequest{
				PDFPath: abs,
				Title:   title,
			}, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Worksheet title (derived from filename if not provided)")
	return cmd
}
