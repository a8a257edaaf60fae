package endpoints

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/primer/internal/api"
	"github.com/jackzampolin/primer/internal/llmcall"
	"github.com/jackzampolin/primer/internal/metrics"
	"github.com/jackzampolin/primer/internal/svcctx"
)

// ListLLMCallsResponse is the response for listing a book's LLM calls.
type ListLLMCallsResponse struct {
	Calls []llmcall.Call `json:"calls" yaml:"calls"`
}

func recorderFrom(w http.ResponseWriter, r *http.Request) *llmcall.Recorder {
	rec := svcctx.CallsFrom(r.Context())
	if rec == nil {
		writeError(w, http.StatusInternalServerError, "call log not available")
	}
	return rec
}

// ListLLMCallsEndpoint handles GET /api/books/{book}/llmcalls.
type ListLLMCallsEndpoint struct{}

func (e *ListLLMCallsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/books/{book}/llmcalls", e.handler
}

// handler godoc
//
//	@Summary		List LLM calls
//	@Description	Calls recorded for a book, newest first
//	@Tags			llmcalls
//	@Produce		json
//	@Param			book		path		string	true	"Book name"
//	@Param			stage		query		string	false	"Filter by stage"
//	@Param			prompt_key	query		string	false	"Filter by prompt key"
//	@Param			success		query		bool	false	"Filter by outcome"
//	@Param			limit		query		int		false	"Maximum results"
//	@Success		200			{object}	ListLLMCallsResponse
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Router			/api/books/{book}/llmcalls [get]
func (e *ListLLMCallsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	book, _, err := bookFrom(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	rec := recorderFrom(w, r)
	if rec == nil {
		return
	}

	q := r.URL.Query()
	filter := llmcall.QueryFilter{
		Stage:     q.Get("stage"),
		PromptKey: q.Get("prompt_key"),
	}
	if v := q.Get("success"); v != "" {
		ok, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid success value")
			return
		}
		filter.Success = &ok
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}

	calls, err := rec.List(book, filter)
	if err != nil {
		writeErr(w, err)
		return
	}
	if calls == nil {
		calls = []llmcall.Call{}
	}
	writeJSON(w, http.StatusOK, ListLLMCallsResponse{Calls: calls})
}

func (e *ListLLMCallsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var stage string
	var limit int
	cmd := &cobra.Command{
		Use:   "llmcalls <book>",
		Short: "List a book's recorded LLM calls",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := url.Values{}
			if stage != "" {
				params.Set("stage", stage)
			}
			if limit > 0 {
				params.Set("limit", strconv.Itoa(limit))
			}
			path := bookPath(args[0], "llmcalls")
			if len(params) > 0 {
				path += "?" + params.Encode()
			}
			client := api.NewClient(getServerURL())
			var resp ListLLMCallsResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&stage, "stage", "", "Filter by stage")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum results")
	return cmd
}

// BookUsageEndpoint handles GET /api/books/{book}/usage.
type BookUsageEndpoint struct{}

func (e *BookUsageEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/books/{book}/usage", e.handler
}

// handler godoc
//
//	@Summary		Book LLM usage
//	@Description	Token and latency totals for a book, broken down by stage, model and provider
//	@Tags			llmcalls
//	@Produce		json
//	@Param			book	path		string	true	"Book name"
//	@Success		200		{object}	metrics.Report
//	@Failure		404		{object}	ErrorResponse
//	@Router			/api/books/{book}/usage [get]
func (e *BookUsageEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	book, _, err := bookFrom(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	rec := recorderFrom(w, r)
	if rec == nil {
		return
	}
	calls, err := rec.List(book, llmcall.QueryFilter{})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, metrics.BookReport(book, calls))
}

func (e *BookUsageEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "usage <book>",
		Short: "Show a book's LLM token and latency usage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp metrics.Report
			if err := client.Get(cmd.Context(), bookPath(args[0], "usage"), &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
