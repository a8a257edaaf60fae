package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/primer/internal/api"
	"github.com/jackzampolin/primer/internal/catalog"
	"github.com/jackzampolin/primer/internal/home"
	"github.com/jackzampolin/primer/internal/pipeline"
	"github.com/jackzampolin/primer/internal/pipeline/stages"
	"github.com/jackzampolin/primer/internal/svcctx"
)

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// loadBookCatalog loads catalog.json, or the segments file when segments
// is set.
func loadBookCatalog(h *home.Dir, book string, segments bool) (*catalog.Node, error) {
	path := h.CatalogPath(book)
	if segments {
		path = h.SegmentsPath(book)
	}
	root, err := catalog.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &notFoundError{what: fmt.Sprintf("%s has no %s", book, pathLabel(segments))}
	}
	return root, err
}

func pathLabel(segments bool) string {
	if segments {
		return "segments"
	}
	return "catalog"
}

type notFoundError struct{ what string }

func (e *notFoundError) Error() string { return e.what }

func writeLoadErr(w http.ResponseWriter, err error) {
	var nf *notFoundError
	if errors.As(err, &nf) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeErr(w, err)
}

// GetCatalogEndpoint handles GET /api/books/{book}/catalog.
type GetCatalogEndpoint struct{}

func (e *GetCatalogEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/books/{book}/catalog", e.handler
}

// handler godoc
//
//	@Summary		Get catalog
//	@Description	The reconciled catalog tree. With segments=true, the tree with knowledge points.
//	@Tags			catalog
//	@Produce		json
//	@Param			book		path		string	true	"Book name"
//	@Param			segments	query		bool	false	"Return catalog_with_segments.json"
//	@Success		200			{object}	map[string]any
//	@Failure		404			{object}	ErrorResponse
//	@Router			/api/books/{book}/catalog [get]
func (e *GetCatalogEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	book, h, err := bookFrom(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	root, err := loadBookCatalog(h, book, r.URL.Query().Get("segments") == "true")
	if err != nil {
		writeLoadErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, root)
}

func (e *GetCatalogEndpoint) Command(getServerURL func() string) *cobra.Command {
	var segments bool
	cmd := &cobra.Command{
		Use:   "catalog <book>",
		Short: "Fetch a book's catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			path := bookPath(args[0], "catalog")
			if segments {
				path += "?segments=true"
			}
			var raw json.RawMessage
			if err := client.Get(cmd.Context(), path, &raw); err != nil {
				return err
			}
			root, err := catalog.Unmarshal(raw)
			if err != nil {
				return err
			}
			return api.Output(root)
		},
	}
	cmd.Flags().BoolVar(&segments, "segments", false, "Fetch the catalog with knowledge points")
	return cmd
}

// CatalogHTMLEndpoint handles GET /api/books/{book}/catalog.html.
type CatalogHTMLEndpoint struct{}

func (e *CatalogHTMLEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/books/{book}/catalog.html", e.handler
}

// handler godoc
//
//	@Summary		Catalog as HTML
//	@Description	The catalog outline rendered from Markdown
//	@Tags			catalog
//	@Produce		html
//	@Param			book		path	string	true	"Book name"
//	@Param			segments	query	bool	false	"Render catalog_with_segments.json"
//	@Success		200
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/books/{book}/catalog.html [get]
func (e *CatalogHTMLEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	book, h, err := bookFrom(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	root, err := loadBookCatalog(h, book, r.URL.Query().Get("segments") == "true")
	if err != nil {
		writeLoadErr(w, err)
		return
	}
	body, err := catalog.HTML(root)
	if err != nil {
		writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<!DOCTYPE html>\n<html>\n<head><meta charset=\"utf-8\"><title>%s</title></head>\n<body>\n", html.EscapeString(book))
	w.Write(body)
	fmt.Fprint(w, "</body>\n</html>\n")
}

// Command returns nil; the HTML view is for browsers.
func (e *CatalogHTMLEndpoint) Command(getServerURL func() string) *cobra.Command {
	return nil
}

// DiagnosticsResponse lists the problems recorded during reconciliation.
type DiagnosticsResponse struct {
	Book        string               `json:"book" yaml:"book"`
	Stats       catalog.Stats        `json:"stats" yaml:"stats"`
	Diagnostics []catalog.Diagnostic `json:"diagnostics" yaml:"diagnostics"`
}

// DiagnosticsEndpoint handles GET /api/books/{book}/diagnostics.
type DiagnosticsEndpoint struct{}

func (e *DiagnosticsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/books/{book}/diagnostics", e.handler
}

// handler godoc
//
//	@Summary		Catalog diagnostics
//	@Description	Node-level errors and warnings from the last reconciliation
//	@Tags			catalog
//	@Produce		json
//	@Param			book	path		string	true	"Book name"
//	@Success		200		{object}	DiagnosticsResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/api/books/{book}/diagnostics [get]
func (e *DiagnosticsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	book, h, err := bookFrom(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	root, err := loadBookCatalog(h, book, false)
	if err != nil {
		writeLoadErr(w, err)
		return
	}
	diags := root.Errors
	if diags == nil {
		diags = []catalog.Diagnostic{}
	}
	writeJSON(w, http.StatusOK, DiagnosticsResponse{Book: book, Stats: catalog.Summarize(root), Diagnostics: diags})
}

func (e *DiagnosticsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "diagnostics <book>",
		Short: "Show reconciliation diagnostics for a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp DiagnosticsResponse
			if err := client.Get(cmd.Context(), bookPath(args[0], "diagnostics"), &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// RunRequest is the optional body of stage run requests.
type RunRequest struct {
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

// RunResponse reports the stages a request ran.
type RunResponse struct {
	Results []*pipeline.Result `json:"results" yaml:"results"`
}

// runStage decodes the request and runs stage for the {book} parameter.
func runStage(w http.ResponseWriter, r *http.Request, stage string) {
	book, _, err := bookFrom(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	var req RunRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}
	runner := svcctx.RunnerFrom(r.Context())
	if runner == nil {
		writeError(w, http.StatusInternalServerError, "pipeline runner not configured")
		return
	}

	results, err := runner.RunStage(r.Context(), book, stage, pipeline.StageOptions{Provider: req.Provider, Model: req.Model})
	if err != nil {
		svcctx.LoggerFrom(r.Context()).Warn("stage run failed", "book", book, "stage", stage, "error", err)
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RunResponse{Results: results})
}

func runCommand(use, short, suffix string, getServerURL func() string) *cobra.Command {
	var req RunRequest
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp RunResponse
			if err := client.Post(cmd.Context(), bookPath(args[0], suffix), req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&req.Provider, "provider", "", "LLM provider name (default: defaults.llm_provider)")
	cmd.Flags().StringVar(&req.Model, "model", "", "Model override")
	return cmd
}

// RunCatalogEndpoint handles POST /api/books/{book}/catalog.
type RunCatalogEndpoint struct{}

func (e *RunCatalogEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/books/{book}/catalog", e.handler
}

// handler godoc
//
//	@Summary		Build catalog
//	@Description	Extract the outline from the first pages, reconcile it against the page files and save catalog.json
//	@Tags			catalog
//	@Accept			json
//	@Produce		json
//	@Param			book	path		string		true	"Book name"
//	@Param			request	body		RunRequest	false	"Provider overrides"
//	@Success		200		{object}	RunResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/api/books/{book}/catalog [post]
func (e *RunCatalogEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	runStage(w, r, stages.CatalogStageName)
}

func (e *RunCatalogEndpoint) Command(getServerURL func() string) *cobra.Command {
	return runCommand("run-catalog <book>", "Build a book's catalog on the server", "catalog", getServerURL)
}

// RunSegmentsEndpoint handles POST /api/books/{book}/segments.
type RunSegmentsEndpoint struct{}

func (e *RunSegmentsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/books/{book}/segments", e.handler
}

// handler godoc
//
//	@Summary		Extract knowledge points
//	@Description	Attach knowledge points to every resolved leaf and save catalog_with_segments.json. Builds the catalog first if it is missing.
//	@Tags			catalog
//	@Accept			json
//	@Produce		json
//	@Param			book	path		string		true	"Book name"
//	@Param			request	body		RunRequest	false	"Provider overrides"
//	@Success		200		{object}	RunResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Router			/api/books/{book}/segments [post]
func (e *RunSegmentsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	runStage(w, r, stages.SegmentStageName)
}

func (e *RunSegmentsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return runCommand("run-segments <book>", "Extract knowledge points for a book on the server", "segments", getServerURL)
}
