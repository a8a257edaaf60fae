package endpoints

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/primer/internal/api"
	"github.com/jackzampolin/primer/internal/catalog"
	"github.com/jackzampolin/primer/internal/pagestore"
)

// LeafTextResponse is the text of one catalog leaf.
type LeafTextResponse struct {
	Path      string `json:"path" yaml:"path"`
	Title     string `json:"title" yaml:"title"`
	StartPage string `json:"start_page" yaml:"start_page"`
	EndPage   string `json:"end_page" yaml:"end_page"`
	Text      string `json:"text" yaml:"text"`
}

// LeafTextEndpoint handles GET /api/books/{book}/leaves/{path}/text.
type LeafTextEndpoint struct{}

func (e *LeafTextEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/books/{book}/leaves/{path}/text", e.handler
}

// handler godoc
//
//	@Summary		Leaf text
//	@Description	Concatenated page text for a catalog leaf, addressed by its dotted path (e.g. 1.2)
//	@Tags			catalog
//	@Produce		json
//	@Param			book	path		string	true	"Book name"
//	@Param			path	path		string	true	"Dotted node path"
//	@Success		200		{object}	LeafTextResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/api/books/{book}/leaves/{path}/text [get]
func (e *LeafTextEndpoint) handler(w http.ResponseWriter, r *http.Request) {
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

	path := chi.URLParam(r, "path")
	node, ok := catalog.Find(root, path)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no node at path %q", path))
		return
	}
	if !node.IsLeaf() {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("node %q is not a leaf", path))
		return
	}
	if !node.Resolved() {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("leaf %q has no physical page range", path))
		return
	}

	cfg := configFrom(r)
	store, err := pagestore.Open(h.TextDir(book), cfg.PageKeyFormat(), cfg.Catalog.TextExt)
	if err != nil {
		writeErr(w, err)
		return
	}
	text, err := store.RangeText(*node.ActualStartingPage, *node.ActualEndingPage)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, LeafTextResponse{
		Path:      path,
		Title:     node.Title,
		StartPage: *node.ActualStartingPage,
		EndPage:   *node.ActualEndingPage,
		Text:      text,
	})
}

func (e *LeafTextEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "leaf-text <book> <path>",
		Short: "Print the page text of a catalog leaf",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp LeafTextResponse
			if err := client.Get(cmd.Context(), bookPath(args[0], "leaves", args[1], "text"), &resp); err != nil {
				return err
			}
			if api.IsStructuredOutput() {
				return api.Output(resp)
			}
			fmt.Printf("%s (%s to %s)\n\n%s\n", resp.Title, resp.StartPage, resp.EndPage, resp.Text)
			return nil
		},
	}
}
