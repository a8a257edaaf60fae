package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/primer/internal/api"
	"github.com/jackzampolin/primer/internal/pagestore"
	"github.com/jackzampolin/primer/internal/pipeline"
	"github.com/jackzampolin/primer/internal/svcctx"
)

// BookSummary is one entry in the book list.
type BookSummary struct {
	Name        string `json:"name" yaml:"name"`
	Pages       int    `json:"pages" yaml:"pages"`
	HasCatalog  bool   `json:"has_catalog" yaml:"has_catalog"`
	HasSegments bool   `json:"has_segments" yaml:"has_segments"`
}

// ListBooksResponse is the response for listing books.
type ListBooksResponse struct {
	Books []BookSummary `json:"books" yaml:"books"`
}

// ListBooksEndpoint handles GET /api/books.
type ListBooksEndpoint struct{}

func (e *ListBooksEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/books", e.handler
}

// handler godoc
//
//	@Summary		List books
//	@Description	List book directories under the uploads folder
//	@Tags			books
//	@Produce		json
//	@Success		200	{object}	ListBooksResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/books [get]
func (e *ListBooksEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	h := svcctx.HomeFrom(r.Context())
	if h == nil {
		writeError(w, http.StatusInternalServerError, "home directory not configured")
		return
	}
	names, err := h.ListBooks()
	if err != nil {
		writeErr(w, err)
		return
	}

	cfg := configFrom(r)
	books := make([]BookSummary, 0, len(names))
	for _, name := range names {
		summary := BookSummary{
			Name:        name,
			HasCatalog:  fileExists(h.CatalogPath(name)),
			HasSegments: fileExists(h.SegmentsPath(name)),
		}
		if store, err := pagestore.Open(h.TextDir(name), cfg.PageKeyFormat(), cfg.Catalog.TextExt); err == nil {
			summary.Pages = store.Len()
		}
		books = append(books, summary)
	}
	writeJSON(w, http.StatusOK, ListBooksResponse{Books: books})
}

func (e *ListBooksEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "books",
		Short: "List all books",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ListBooksResponse
			if err := client.Get(cmd.Context(), "/api/books", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// BookResponse is the response for a single book.
type BookResponse struct {
	Name   string                 `json:"name" yaml:"name"`
	Stages []pipeline.StageReport `json:"stages" yaml:"stages"`
}

// GetBookEndpoint handles GET /api/books/{book}.
type GetBookEndpoint struct{}

func (e *GetBookEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/books/{book}", e.handler
}

// handler godoc
//
//	@Summary		Get book
//	@Description	Pipeline stage status for a book
//	@Tags			books
//	@Produce		json
//	@Param			book	path		string	true	"Book name"
//	@Success		200		{object}	BookResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/api/books/{book} [get]
func (e *GetBookEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	book, _, err := bookFrom(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	runner := svcctx.RunnerFrom(r.Context())
	if runner == nil {
		writeError(w, http.StatusInternalServerError, "pipeline runner not configured")
		return
	}
	reports, err := runner.Status(r.Context(), book)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BookResponse{Name: book, Stages: reports})
}

func (e *GetBookEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "book <name>",
		Short: "Show a book's pipeline status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp BookResponse
			if err := client.Get(cmd.Context(), bookPath(args[0]), &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
