package endpoints

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/primer/internal/api"
	"github.com/jackzampolin/primer/internal/prompts"
	"github.com/jackzampolin/primer/internal/svcctx"
)

// BookPromptResponse represents a resolved prompt for a book.
type BookPromptResponse struct {
	Key         string   `json:"key" yaml:"key"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Text        string   `json:"text" yaml:"text"`
	Variables   []string `json:"variables,omitempty" yaml:"variables,omitempty"`
	IsOverride  bool     `json:"is_override" yaml:"is_override"`
	Hash        string   `json:"hash" yaml:"hash"`
}

// BookPromptsListResponse contains all prompts resolved for a book.
type BookPromptsListResponse struct {
	Book    string               `json:"book" yaml:"book"`
	Prompts []BookPromptResponse `json:"prompts" yaml:"prompts"`
}

// SetPromptRequest is the request body for setting a book prompt override.
type SetPromptRequest struct {
	Text string `json:"text"`
}

func resolverFrom(w http.ResponseWriter, r *http.Request) *prompts.Resolver {
	resolver := svcctx.PromptsFrom(r.Context())
	if resolver == nil {
		writeError(w, http.StatusInternalServerError, "prompt resolver not available")
	}
	return resolver
}

// ListBookPromptsEndpoint handles GET /api/books/{book}/prompts.
type ListBookPromptsEndpoint struct{}

func (e *ListBookPromptsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/books/{book}/prompts", e.handler
}

// handler godoc
//
//	@Summary		List book prompts
//	@Description	Every registered prompt resolved for the book, marking per-book overrides
//	@Tags			prompts
//	@Produce		json
//	@Param			book	path		string	true	"Book name"
//	@Success		200		{object}	BookPromptsListResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/api/books/{book}/prompts [get]
func (e *ListBookPromptsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	book, _, err := bookFrom(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	resolver := resolverFrom(w, r)
	if resolver == nil {
		return
	}

	resp := BookPromptsListResponse{Book: book, Prompts: []BookPromptResponse{}}
	for _, p := range resolver.AllEmbedded() {
		resolved, err := resolver.Resolve(p.Key, book)
		if err != nil {
			writeErr(w, err)
			return
		}
		resp.Prompts = append(resp.Prompts, BookPromptResponse{
			Key:         p.Key,
			Description: p.Description,
			Text:        resolved.Text,
			Variables:   resolved.Variables,
			IsOverride:  resolved.IsOverride,
			Hash:        resolved.Hash,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *ListBookPromptsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "prompts <book>",
		Short: "List prompts resolved for a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp BookPromptsListResponse
			if err := client.Get(cmd.Context(), bookPath(args[0], "prompts"), &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// SetBookPromptEndpoint handles PUT /api/books/{book}/prompts/{key}.
type SetBookPromptEndpoint struct{}

func (e *SetBookPromptEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PUT", "/api/books/{book}/prompts/{key}", e.handler
}

// handler godoc
//
//	@Summary		Override a prompt for a book
//	@Description	The text is a Go template checked against the embedded prompt's variables at render time
//	@Tags			prompts
//	@Accept			json
//	@Produce		json
//	@Param			book	path		string				true	"Book name"
//	@Param			key		path		string				true	"Prompt key"
//	@Param			request	body		SetPromptRequest	true	"Override text"
//	@Success		200		{object}	BookPromptResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/api/books/{book}/prompts/{key} [put]
func (e *SetBookPromptEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	book, _, err := bookFrom(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	resolver := resolverFrom(w, r)
	if resolver == nil {
		return
	}
	key := chi.URLParam(r, "key")
	embedded, ok := resolver.GetEmbedded(key)
	if !ok {
		writeError(w, http.StatusNotFound, "prompt not found: "+key)
		return
	}

	var req SetPromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	store := resolver.Store()
	if store == nil {
		writeError(w, http.StatusInternalServerError, "prompt overrides are disabled")
		return
	}
	if err := store.SetBookOverride(book, key, req.Text); err != nil {
		writeErr(w, err)
		return
	}

	writeJSON(w, http.StatusOK, BookPromptResponse{
		Key:         key,
		Description: embedded.Description,
		Text:        req.Text,
		Variables:   prompts.ExtractVariables(req.Text),
		IsOverride:  true,
		Hash:        prompts.HashText(req.Text),
	})
}

func (e *SetBookPromptEndpoint) Command(getServerURL func() string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "set-prompt <book> <key>",
		Short: "Override a prompt for a book from a template file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			client := api.NewClient(getServerURL())
			var resp BookPromptResponse
			if err := client.Put(cmd.Context(), bookPath(args[0], "prompts", args[1]), SetPromptRequest{Text: string(text)}, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Template file")
	cmd.MarkFlagRequired("file")
	return cmd
}

// ClearBookPromptEndpoint handles DELETE /api/books/{book}/prompts/{key}.
type ClearBookPromptEndpoint struct{}

func (e *ClearBookPromptEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/books/{book}/prompts/{key}", e.handler
}

// handler godoc
//
//	@Summary		Clear a book prompt override
//	@Tags			prompts
//	@Param			book	path	string	true	"Book name"
//	@Param			key		path	string	true	"Prompt key"
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/books/{book}/prompts/{key} [delete]
func (e *ClearBookPromptEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	book, _, err := bookFrom(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	resolver := resolverFrom(w, r)
	if resolver == nil {
		return
	}
	store := resolver.Store()
	if store == nil {
		writeError(w, http.StatusInternalServerError, "prompt overrides are disabled")
		return
	}
	if err := store.ClearBookOverride(book, chi.URLParam(r, "key")); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (e *ClearBookPromptEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-prompt <book> <key>",
		Short: "Remove a book's prompt override",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			return client.Delete(cmd.Context(), bookPath(args[0], "prompts", args[1]))
		},
	}
}
