package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/primer/internal/api"
	"github.com/jackzampolin/primer/internal/pipeline/stages"
)

// GetMindmapEndpoint handles GET /api/books/{book}/mindmap.
type GetMindmapEndpoint struct{}

func (e *GetMindmapEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/books/{book}/mindmap", e.handler
}

// handler godoc
//
//	@Summary		Get mind map
//	@Description	The merged Mermaid mind map of the book
//	@Tags			mindmap
//	@Produce		plain
//	@Param			book	path	string	true	"Book name"
//	@Success		200		{string}	string
//	@Failure		404		{object}	ErrorResponse
//	@Router			/api/books/{book}/mindmap [get]
func (e *GetMindmapEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	book, h, err := bookFrom(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	data, err := os.ReadFile(h.MindmapPath(book))
	if errors.Is(err, os.ErrNotExist) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("%s has no mind map", book))
		return
	}
	if err != nil {
		writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write(data)
}

func (e *GetMindmapEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "mindmap <book>",
		Short: "Print a book's merged Mermaid mind map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			data, err := client.GetRaw(cmd.Context(), bookPath(args[0], "mindmap"))
			if err != nil {
				return err
			}
			fmt.Print(string(data))
			return nil
		},
	}
}

// RunMindmapEndpoint handles POST /api/books/{book}/mindmap.
type RunMindmapEndpoint struct{}

func (e *RunMindmapEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/books/{book}/mindmap", e.handler
}

// handler godoc
//
//	@Summary		Build mind map
//	@Description	Draw a mind map for every resolved leaf and merge them into mindmap.mmd. Builds the catalog first if it is missing.
//	@Tags			mindmap
//	@Accept			json
//	@Produce		json
//	@Param			book	path		string		true	"Book name"
//	@Param			request	body		RunRequest	false	"Provider overrides"
//	@Success		200		{object}	RunResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Router			/api/books/{book}/mindmap [post]
func (e *RunMindmapEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	runStage(w, r, stages.MindmapStageName)
}

func (e *RunMindmapEndpoint) Command(getServerURL func() string) *cobra.Command {
	return runCommand("run-mindmap <book>", "Build a book's mind map on the server", "mindmap", getServerURL)
}
