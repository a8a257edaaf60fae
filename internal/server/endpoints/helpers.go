package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/jackzampolin/primer/internal/api"
	"github.com/jackzampolin/primer/internal/catalog"
	"github.com/jackzampolin/primer/internal/config"
	"github.com/jackzampolin/primer/internal/home"
	"github.com/jackzampolin/primer/internal/outline"
	"github.com/jackzampolin/primer/internal/pipeline"
	"github.com/jackzampolin/primer/internal/providers"
	"github.com/jackzampolin/primer/internal/search"
	"github.com/jackzampolin/primer/internal/svcctx"
)

// ErrorResponse is the JSON body of every error response.
type ErrorResponse = api.ErrorResponse

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeErr maps domain errors onto HTTP status codes.
func writeErr(w http.ResponseWriter, err error) {
	writeError(w, errorStatus(err), err.Error())
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, home.ErrInvalidBookName), errors.Is(err, search.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrBookNotFound), errors.Is(err, pipeline.ErrStageNotFound):
		return http.StatusNotFound
	case errors.Is(err, pipeline.ErrBookBusy), errors.Is(err, pipeline.ErrDependencyNotMet):
		return http.StatusConflict
	case errors.Is(err, catalog.ErrNoPages),
		errors.Is(err, catalog.ErrEmptyOutline),
		errors.Is(err, catalog.ErrInvalidAnchor),
		errors.Is(err, catalog.ErrMalformedTree),
		errors.Is(err, outline.ErrUnparseable),
		errors.Is(err, search.ErrEmptyIndex),
		errors.Is(err, providers.ErrEmbeddingUnsupported):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// bookFrom validates the {book} route parameter and checks it exists.
func bookFrom(r *http.Request) (string, *home.Dir, error) {
	book := chi.URLParam(r, "book")
	if err := home.ValidateBookName(book); err != nil {
		return "", nil, err
	}
	h := svcctx.HomeFrom(r.Context())
	if h == nil {
		return "", nil, errors.New("home directory not configured")
	}
	if !h.BookExists(book) {
		return "", nil, &bookNotFoundError{book: book}
	}
	return book, h, nil
}

type bookNotFoundError struct{ book string }

func (e *bookNotFoundError) Error() string { return pipeline.ErrBookNotFound.Error() + ": " + e.book }
func (e *bookNotFoundError) Unwrap() error { return pipeline.ErrBookNotFound }

func configFrom(r *http.Request) *config.Config {
	if cfg := svcctx.ConfigFrom(r.Context()); cfg != nil {
		return cfg
	}
	return config.DefaultConfig()
}

// bookPath builds an escaped /api/books/{book} path for CLI commands.
func bookPath(book string, parts ...string) string {
	p := "/api/books/" + url.PathEscape(book)
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}
