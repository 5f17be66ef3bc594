package endpoints

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/MRenAIAgent/math-content-engine-sub000/internal/api"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/svcctx"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/templates"
)

// TemplateSummary is a template without its scene source.
type TemplateSummary struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Category         string   `json:"category,omitempty"`
	Description      string   `json:"description,omitempty"`
	ParamCount       int      `json:"param_count"`
	ExampleQuestions []string `json:"example_questions,omitempty"`
}

// ListTemplatesResponse is the response for GET /api/templates.
type ListTemplatesResponse struct {
	Templates []TemplateSummary `json:"templates"`
	Count     int               `json:"count"`
}

// ListTemplatesEndpoint handles GET /api/templates.
type ListTemplatesEndpoint struct{}

func (e *ListTemplatesEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/templates", e.handler
}

func (e *ListTemplatesEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List animation templates
//	@Description	List registered templates without their scene source
//	@Tags			templates
//	@Produce		json
//	@Success		200	{object}	ListTemplatesResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/templates [get]
func (e *ListTemplatesEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	tmplEngine := svcctx.TemplatesFrom(r.Context())
	if tmplEngine == nil {
		writeError(w, http.StatusServiceUnavailable, "template engine not initialized")
		return
	}

	list := tmplEngine.Registry().List()
	resp := ListTemplatesResponse{Count: len(list)}
	for _, tmpl := range list {
		resp.Templates = append(resp.Templates, TemplateSummary{
			ID:               tmpl.ID,
			Name:             tmpl.Name,
			Category:         tmpl.Category,
			Description:      tmpl.Description,
			ParamCount:       len(tmpl.Params),
			ExampleQuestions: tmpl.ExampleQuestions,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *ListTemplatesEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List animation templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ListTemplatesResponse
			if err := client.Get(cmd.Context(), "/api/templates", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// GetTemplateEndpoint handles GET /api/templates/{id}.
type GetTemplateEndpoint struct{}

func (e *GetTemplateEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/templates/{id}", e.handler
}

func (e *GetTemplateEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Get a template
//	@Description	Get a single template including parameter specs and scene source
//	@Tags			templates
//	@Produce		json
//	@Param			id	path		string	true	"Template ID"
//	@Success		200	{object}	templates.Template
//	@Failure		404	{object}	ErrorResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/templates/{id} [get]
func (e *GetTemplateEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	tmplEngine := svcctx.TemplatesFrom(r.Context())
	if tmplEngine == nil {
		writeError(w, http.StatusServiceUnavailable, "template engine not initialized")
		return
	}

	id := r.PathValue("id")
	tmpl, err := tmplEngine.Registry().Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("template not found: %s", id))
		return
	}
	writeJSON(w, http.StatusOK, tmpl)
}

func (e *GetTemplateEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "template <id>",
		Short: "Get a single template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp templates.Template
			if err := client.Get(cmd.Context(), "/api/templates/"+args[0], &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
