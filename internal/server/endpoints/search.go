package endpoints

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/primer/internal/api"
	"github.com/jackzampolin/primer/internal/pipeline/stages"
	"github.com/jackzampolin/primer/internal/search"
	"github.com/jackzampolin/primer/internal/svcctx"
)

// RunIndexEndpoint handles POST /api/books/{book}/index.
type RunIndexEndpoint struct{}

func (e *RunIndexEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/books/{book}/index", e.handler
}

// handler godoc
//
//	@Summary		Build knowledge index
//	@Description	Embed the knowledge points of catalog_with_segments.json. Runs catalog and segment first when missing. The provider overrides search.embedding_provider.
//	@Tags			search
//	@Accept			json
//	@Produce		json
//	@Param			book	path		string		true	"Book name"
//	@Param			request	body		RunRequest	false	"Provider overrides"
//	@Success		200		{object}	RunResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/api/books/{book}/index [post]
func (e *RunIndexEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	runStage(w, r, stages.IndexStageName)
}

func (e *RunIndexEndpoint) Command(getServerURL func() string) *cobra.Command {
	return runCommand("run-index <book>", "Build a book's knowledge index on the server", "index", getServerURL)
}

// SearchResponse lists the knowledge points closest to a query.
type SearchResponse struct {
	Book  string       `json:"book" yaml:"book"`
	Query string       `json:"query" yaml:"query"`
	Hits  []search.Hit `json:"hits" yaml:"hits"`
}

// SearchEndpoint handles GET /api/books/{book}/search.
type SearchEndpoint struct{}

func (e *SearchEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/books/{book}/search", e.handler
}

// handler godoc
//
//	@Summary		Search knowledge points
//	@Description	Rank the book's knowledge points by cosine similarity to the query
//	@Tags			search
//	@Produce		json
//	@Param			book		path		string	true	"Book name"
//	@Param			q			query		string	true	"Query text"
//	@Param			k			query		int		false	"Number of hits (default: search.top_k)"
//	@Param			provider	query		string	false	"Embedding provider (default: the one that built the index)"
//	@Success		200			{object}	SearchResponse
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		409			{object}	ErrorResponse
//	@Router			/api/books/{book}/search [get]
func (e *SearchEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	book, _, err := bookFrom(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	q := r.URL.Query()
	k := 0
	if v := q.Get("k"); v != "" {
		if k, err = strconv.Atoi(v); err != nil || k < 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid k %q", v))
			return
		}
	}
	searcher := svcctx.SearcherFrom(r.Context())
	if searcher == nil {
		writeError(w, http.StatusInternalServerError, "search not configured")
		return
	}

	query := q.Get("q")
	hits, err := searcher.Search(r.Context(), book, query, q.Get("provider"), k)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Book: book, Query: query, Hits: hits})
}

func (e *SearchEndpoint) Command(getServerURL func() string) *cobra.Command {
	var k int
	var provider string
	cmd := &cobra.Command{
		Use:   "search <book> <query>...",
		Short: "Search a book's knowledge points",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := url.Values{"q": {strings.Join(args[1:], " ")}}
			if k > 0 {
				params.Set("k", strconv.Itoa(k))
			}
			if provider != "" {
				params.Set("provider", provider)
			}
			client := api.NewClient(getServerURL())
			var resp SearchResponse
			if err := client.Get(cmd.Context(), bookPath(args[0], "search")+"?"+params.Encode(), &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().IntVarP(&k, "top", "k", 0, "Number of hits (default: search.top_k)")
	cmd.Flags().StringVar(&provider, "provider", "", "Embedding provider override")
	return cmd
}
