package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/MRenAIAgent/math-content-engine-sub000/internal/api"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/store"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/svcctx"
)

// ListResultsResponse is the response for GET /api/results.
type ListResultsResponse struct {
	Results []*store.Record `json:"results"`
	Count   int             `json:"count"`
}

// ListResultsEndpoint handles GET /api/results.
type ListResultsEndpoint struct{}

func (e *ListResultsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/results", e.handler
}

func (e *ListResultsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List stored results
//	@Description	List generation and answer results, newest first
//	@Tags			results
//	@Produce		json
//	@Param			mode	query		string	false	"Filter by mode (generate or answer)"
//	@Param			limit	query		int		false	"Maximum number of results"
//	@Success		200		{object}	ListResultsResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/results [get]
func (e *ListResultsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	st := svcctx.StoreFrom(r.Context())
	if st == nil {
		writeError(w, http.StatusServiceUnavailable, "store not initialized")
		return
	}

	filter := store.ListFilter{Mode: r.URL.Query().Get("mode")}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = limit
	}

	results, err := st.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ListResultsResponse{Results: results, Count: len(results)})
}

func (e *ListResultsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var mode string
	var limit int
	cmd := &cobra.Command{
		Use:   "results",
		Short: "List stored results",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			path := "/api/results"
			sep := "?"
			if mode != "" {
				path += sep + "mode=" + mode
				sep = "&"
			}
			if limit > 0 {
				path += sep + "limit=" + strconv.Itoa(limit)
			}
			var resp ListResultsResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "Filter by mode: generate or answer")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")
	return cmd
}

// GetResultEndpoint handles GET /api/results/{id}.
type GetResultEndpoint struct{}

func (e *GetResultEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/results/{id}", e.handler
}

func (e *GetResultEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Get a result
//	@Description	Get one stored result by ID
//	@Tags			results
//	@Produce		json
//	@Param			id	path		string	true	"Result ID"
//	@Success		200	{object}	store.Record
//	@Failure		404	{object}	ErrorResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/results/{id} [get]
func (e *GetResultEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	st := svcctx.StoreFrom(r.Context())
	if st == nil {
		writeError(w, http.StatusServiceUnavailable, "store not initialized")
		return
	}

	id := r.PathValue("id")
	rec, err := st.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("result not found: %s", id))
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (e *GetResultEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "result <id>",
		Short: "Get a stored result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp store.Record
			if err := client.Get(cmd.Context(), "/api/results/"+args[0], &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// DeleteResultEndpoint handles DELETE /api/results/{id}.
type DeleteResultEndpoint struct{}

func (e *DeleteResultEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/results/{id}", e.handler
}

func (e *DeleteResultEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Delete a result
//	@Description	Delete one stored result by ID
//	@Tags			results
//	@Produce		json
//	@Param			id	path	string	true	"Result ID"
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/results/{id} [delete]
func (e *DeleteResultEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	st := svcctx.StoreFrom(r.Context())
	if st == nil {
		writeError(w, http.StatusServiceUnavailable, "store not initialized")
		return
	}

	id := r.PathValue("id")
	if err := st.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("result not found: %s", id))
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (e *DeleteResultEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			if err := client.Delete(cmd.Context(), "/api/results/"+args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted %s\n", args[0])
			return nil
		},
	}
}
