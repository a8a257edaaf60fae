// Package mindmap builds Mermaid mind maps for a reconciled catalog: one
// per resolved leaf from its text, merged into a single map for the book.
package mindmap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jackzampolin/primer/internal/catalog"
	"github.com/jackzampolin/primer/internal/prompts/mermaid"
	"github.com/jackzampolin/primer/internal/providers"
)

const defaultMaxWorkers = 4

// TextSource returns the concatenated text of a physical page range.
type TextSource interface {
	RangeText(startKey, endKey string) (string, error)
}

// Config configures a Generator.
type Config struct {
	Client     providers.LLMClient
	Source     TextSource
	MaxWorkers int
	Model      string

	SystemPrompt       string
	UserPromptTemplate string

	Logger *slog.Logger
}

// Generator produces leaf mind maps.
type Generator struct {
	cfg    Config
	logger *slog.Logger
}

// LeafMap is the mind map of one catalog leaf.
type LeafMap struct {
	Path     string `json:"path"`
	Title    string `json:"title"`
	StartKey string `json:"actual_starting_page"`
	EndKey   string `json:"actual_ending_page"`
	Code     string `json:"mermaid_code"`
}

// LeafFailure records a leaf whose mind map could not be generated.
type LeafFailure struct {
	Path  string `json:"path" yaml:"path"`
	Title string `json:"title" yaml:"title"`
	Error string `json:"error" yaml:"error"`
}

// Report summarises a generation run.
type Report struct {
	Leaves    int           `json:"leaves" yaml:"leaves"`
	Generated int           `json:"generated" yaml:"generated"`
	Skipped   int           `json:"skipped" yaml:"skipped"`
	Failed    []LeafFailure `json:"failed,omitempty" yaml:"failed,omitempty"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
}

// New creates a Generator.
func New(cfg Config) (*Generator, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("mind map generator requires an LLM client")
	}
	if cfg.Source == nil {
		return nil, fmt.Errorf("mind map generator requires a text source")
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = defaultMaxWorkers
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{cfg: cfg, logger: logger.With("component", "mindmap")}, nil
}

type leafOutcome struct {
	leaf    *LeafMap
	skipped bool
	err     error
}

// Run generates a mind map for every resolved leaf with text. The returned
// slice is in document order and holds only successful leaves. Failures are
// reported, not returned; only context cancellation aborts the run.
func (g *Generator) Run(ctx context.Context, root *catalog.Node) ([]LeafMap, Report, error) {
	start := time.Now()
	leaves := catalog.Leaves(root)

	report := Report{Leaves: len(leaves)}
	outcomes := make([]leafOutcome, len(leaves))

	sem := make(chan struct{}, g.cfg.MaxWorkers)
	var wg sync.WaitGroup

	for i, leaf := range leaves {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return nil, report, ctx.Err()
		}

		wg.Add(1)
		go func(idx int, pn catalog.PathNode) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[idx] = g.processLeaf(ctx, pn)
		}(i, leaf)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, report, err
	}

	maps := make([]LeafMap, 0, len(leaves))
	for i, leaf := range leaves {
		o := outcomes[i]
		switch {
		case o.err != nil:
			report.Failed = append(report.Failed, LeafFailure{Path: leaf.Path, Title: leaf.Node.Title, Error: o.err.Error()})
		case o.skipped:
			report.Skipped++
		default:
			report.Generated++
			maps = append(maps, *o.leaf)
		}
	}
	report.Duration = time.Since(start)

	g.logger.Info("mind maps generated",
		"leaves", report.Leaves,
		"generated", report.Generated,
		"skipped", report.Skipped,
		"failed", len(report.Failed),
		"duration", report.Duration)

	return maps, report, nil
}

func (g *Generator) processLeaf(ctx context.Context, pn catalog.PathNode) leafOutcome {
	n := pn.Node
	if !n.Resolved() {
		return leafOutcome{skipped: true}
	}
	startKey, endKey := *n.ActualStartingPage, *n.ActualEndingPage

	text, err := g.cfg.Source.RangeText(startKey, endKey)
	if err != nil {
		g.logger.Warn("failed to read leaf text", "path", pn.Path, "error", err)
		return leafOutcome{err: fmt.Errorf("read text: %w", err)}
	}
	if strings.TrimSpace(text) == "" {
		return leafOutcome{skipped: true}
	}

	req, err := mermaid.BuildRequest(mermaid.Input{
		ChapterID:          pn.Path,
		ChapterName:        n.Title,
		StartKey:           startKey,
		EndKey:             endKey,
		Content:            text,
		SystemPrompt:       g.cfg.SystemPrompt,
		UserPromptTemplate: g.cfg.UserPromptTemplate,
		Model:              g.cfg.Model,
	})
	if err != nil {
		return leafOutcome{err: err}
	}

	result, err := providers.ChatStructured(ctx, g.cfg.Client, req)
	if err != nil {
		g.logger.Warn("mind map generation failed", "path", pn.Path, "title", n.Title, "error", err)
		return leafOutcome{err: err}
	}
	parsed, err := mermaid.ParseResult(result.ParsedJSON)
	if err != nil {
		return leafOutcome{err: err}
	}

	return leafOutcome{leaf: &LeafMap{
		Path:     pn.Path,
		Title:    n.Title,
		StartKey: startKey,
		EndKey:   endKey,
		Code:     parsed.MermaidCode,
	}}
}
