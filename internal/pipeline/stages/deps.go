// Package stages implements the built-in pipeline stages. "catalog" extracts
// and reconciles a book's outline and "segment" attaches knowledge points to
// its leaves. "mindmap" draws a Mermaid mind map per leaf and merges them;
// "index" embeds the knowledge points for similarity search.
package stages

import (
	"fmt"
	"log/slog"

	"github.com/jackzampolin/primer/internal/catalog"
	"github.com/jackzampolin/primer/internal/config"
	"github.com/jackzampolin/primer/internal/home"
	"github.com/jackzampolin/primer/internal/llmcall"
	"github.com/jackzampolin/primer/internal/pagestore"
	"github.com/jackzampolin/primer/internal/pipeline"
	"github.com/jackzampolin/primer/internal/prompts"
	"github.com/jackzampolin/primer/internal/providers"
)

// LLMSource looks up LLM clients and embedders by name.
// *providers.Registry implements it.
type LLMSource interface {
	GetLLM(name string) (providers.LLMClient, error)
	GetEmbedder(name string) (providers.Embedder, error)
}

// Deps are the services the stages read from.
type Deps struct {
	Home *home.Dir
	// Config returns the live configuration.
	Config  func() *config.Config
	LLM     LLMSource
	Prompts *prompts.Resolver // optional; nil uses embedded prompts
	Calls   *llmcall.Recorder // optional; nil disables the call log
	Logger  *slog.Logger
}

// NewRegistry returns a stage registry holding the built-in stages.
func NewRegistry(deps Deps) *pipeline.Registry {
	return pipeline.NewRegistry().MustRegister(
		NewCatalogStage(deps),
		NewSegmentStage(deps),
		NewMindmapStage(deps),
		NewIndexStage(deps),
	)
}

func (d Deps) config() *config.Config {
	if d.Config != nil {
		if cfg := d.Config(); cfg != nil {
			return cfg
		}
	}
	return config.DefaultConfig()
}

func (d Deps) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

func (d Deps) checkBook(book string) error {
	if err := home.ValidateBookName(book); err != nil {
		return err
	}
	if !d.Home.BookExists(book) {
		return fmt.Errorf("%w: %s", pipeline.ErrBookNotFound, book)
	}
	return nil
}

func (d Deps) client(opts pipeline.StageOptions) (providers.LLMClient, error) {
	if d.LLM == nil {
		return nil, fmt.Errorf("no LLM providers configured")
	}
	name := opts.Provider
	if name == "" {
		name = d.config().Defaults.LLMProvider
	}
	if name == "" {
		return nil, fmt.Errorf("no LLM provider selected: set defaults.llm_provider")
	}
	return d.LLM.GetLLM(name)
}

// embedder looks up name, falling back to search.embedding_provider.
func (d Deps) embedder(name string) (providers.Embedder, string, error) {
	if d.LLM == nil {
		return nil, "", fmt.Errorf("no LLM providers configured")
	}
	if name == "" {
		name = d.config().EmbeddingProvider()
	}
	if name == "" {
		return nil, "", fmt.Errorf("no embedding provider selected: set search.embedding_provider")
	}
	e, err := d.LLM.GetEmbedder(name)
	return e, name, err
}

// recorded wraps client so its calls land in the book's call log, tagged
// with the system prompt actually sent.
func (d Deps) recorded(client providers.LLMClient, book, stage, key, text, embedded string) providers.LLMClient {
	if d.Calls == nil {
		return client
	}
	if text == "" {
		text = embedded
	}
	return d.Calls.Wrap(client, llmcall.RecordOptions{
		Book:       book,
		Stage:      stage,
		PromptKey:  key,
		PromptHash: prompts.HashText(text),
	})
}

// prompt returns the book's resolved prompt text, or "" to fall back to
// the embedded default.
func (d Deps) prompt(key, book string) string {
	if d.Prompts == nil {
		return ""
	}
	resolved, err := d.Prompts.Resolve(key, book)
	if err != nil {
		d.logger().Debug("prompt not resolved, using built-in default", "key", key, "error", err)
		return ""
	}
	return resolved.Text
}

func (d Deps) openPages(book string) (*pagestore.Store, error) {
	cfg := d.config()
	store, err := pagestore.Open(d.Home.TextDir(book), cfg.PageKeyFormat(), cfg.Catalog.TextExt)
	if err != nil {
		return nil, err
	}
	if store.Len() == 0 {
		return nil, fmt.Errorf("%w in %s", catalog.ErrNoPages, store.Dir())
	}
	return store, nil
}
