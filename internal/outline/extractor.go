// Package outline turns the first pages of a book into an unverified outline
// tree and anchor by asking an LLM to read the table of contents.
package outline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jackzampolin/primer/internal/catalog"
	"github.com/jackzampolin/primer/internal/prompts"
	"github.com/jackzampolin/primer/internal/prompts/extract_outline"
	"github.com/jackzampolin/primer/internal/providers"
)

// ErrUnparseable is returned when the model output could not be turned into
// an outline.
var ErrUnparseable = errors.New("outline output could not be parsed")

// Extractor returns an outline and the first-leaf anchor for the given page
// texts.
type Extractor interface {
	Extract(ctx context.Context, pages []string) (*catalog.Node, catalog.Anchor, error)
}

// Config configures an LLMExtractor.
type Config struct {
	Client providers.LLMClient
	Format catalog.PageKeyFormat
	Model  string

	// Prompt overrides; empty uses the embedded defaults.
	SystemPrompt       string
	UserPromptTemplate string

	// ErrorOutputPath receives the raw model output when it cannot be parsed.
	ErrorOutputPath string
	// Label identifies the book in saved error output and logs.
	Label string

	Logger *slog.Logger
}

// LLMExtractor implements Extractor over an LLMClient.
type LLMExtractor struct {
	cfg    Config
	logger *slog.Logger
}

// NewExtractor creates an LLMExtractor.
func NewExtractor(cfg Config) (*LLMExtractor, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("outline extractor requires an LLM client")
	}
	if cfg.Format.Prefix == "" {
		cfg.Format = catalog.DefaultPageKeyFormat
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMExtractor{cfg: cfg, logger: logger.With("component", "outline", "book", cfg.Label)}, nil
}

// Extract sends pages (already rendered as page blocks) to the model and
// parses the outline.
func (e *LLMExtractor) Extract(ctx context.Context, pages []string) (*catalog.Node, catalog.Anchor, error) {
	if len(pages) == 0 {
		return nil, catalog.Anchor{}, fmt.Errorf("%w: no page text to extract from", catalog.ErrNoPages)
	}

	input := extract_outline.Input{
		PageBlocks:   pages,
		SystemPrompt: e.cfg.SystemPrompt,
		Model:        e.cfg.Model,
	}
	if e.cfg.UserPromptTemplate != "" {
		rendered, err := prompts.Render(extract_outline.UserPromptKey, e.cfg.UserPromptTemplate, extract_outline.NewUserPromptData(pages))
		if err != nil {
			return nil, catalog.Anchor{}, err
		}
		input.UserPrompt = rendered
	}
	req, err := extract_outline.BuildRequest(input)
	if err != nil {
		return nil, catalog.Anchor{}, err
	}

	start := time.Now()
	e.logger.Info("extracting outline", "pages", len(pages), "provider", e.cfg.Client.Name())

	result, err := providers.ChatStructured(ctx, e.cfg.Client, req)
	if err != nil {
		if errors.Is(err, providers.ErrStructuredOutput) && result != nil {
			e.saveRawOutput(result.Content)
			return nil, catalog.Anchor{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
		}
		return nil, catalog.Anchor{}, fmt.Errorf("outline request failed: %w", err)
	}

	root, anchor, err := extract_outline.ParseResult(result.ParsedJSON, e.cfg.Format)
	if err != nil {
		e.saveRawOutput(result.Content)
		if errors.Is(err, catalog.ErrEmptyOutline) {
			return nil, catalog.Anchor{}, err
		}
		return nil, catalog.Anchor{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}

	e.logger.Info("outline extracted",
		"chapters", len(root.Children),
		"first_leaf_printed_page", anchor.FirstLeafPrintedPage,
		"first_leaf_actual_file_page", anchor.FirstLeafActualFilePage,
		"attempts", result.Attempts,
		"tokens", result.TotalTokens,
		"duration", time.Since(start))

	return root, anchor, nil
}

func (e *LLMExtractor) saveRawOutput(content string) {
	if e.cfg.ErrorOutputPath == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(e.cfg.ErrorOutputPath), 0o755); err != nil {
		e.logger.Warn("failed to create directory for raw output", "error", err)
		return
	}
	body := fmt.Sprintf("LLM output that failed parsing for textbook '%s':\n%s", e.cfg.Label, content)
	if err := os.WriteFile(e.cfg.ErrorOutputPath, []byte(body), 0o644); err != nil {
		e.logger.Warn("failed to save raw output", "path", e.cfg.ErrorOutputPath, "error", err)
		return
	}
	e.logger.Warn("saved unparseable model output", "path", e.cfg.ErrorOutputPath)
}

// ErrorOutputPath returns the raw output path for a catalog file:
// catalog.json becomes catalog.llm_error_output.txt.
func ErrorOutputPath(catalogPath string) string {
	ext := filepath.Ext(catalogPath)
	return catalogPath[:len(catalogPath)-len(ext)] + ".llm_error_output.txt"
}

// Verify interface
var _ Extractor = (*LLMExtractor)(nil)
