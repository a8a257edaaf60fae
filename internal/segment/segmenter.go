// Package segment attaches knowledge points to every resolved leaf of a
// reconciled catalog.
package segment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jackzampolin/primer/internal/catalog"
	segprompt "github.com/jackzampolin/primer/internal/prompts/segment"
	"github.com/jackzampolin/primer/internal/providers"
)

const defaultMaxWorkers = 4

// TextSource returns the concatenated text of a physical page range.
type TextSource interface {
	RangeText(startKey, endKey string) (string, error)
}

// Config configures a Segmenter.
type Config struct {
	Client     providers.LLMClient
	Source     TextSource
	MaxWorkers int
	Model      string

	// Prompt overrides; empty uses the embedded defaults.
	SystemPrompt       string
	UserPromptTemplate string

	Logger *slog.Logger
}

// Segmenter extracts knowledge points leaf by leaf.
type Segmenter struct {
	cfg    Config
	logger *slog.Logger
}

// LeafFailure records a leaf whose extraction failed.
type LeafFailure struct {
	Path  string `json:"path" yaml:"path"`
	Title string `json:"title" yaml:"title"`
	Error string `json:"error" yaml:"error"`
}

// Report summarises a segmentation run.
type Report struct {
	Leaves    int           `json:"leaves" yaml:"leaves"`
	Extracted int           `json:"extracted" yaml:"extracted"`
	Skipped   int           `json:"skipped" yaml:"skipped"` // unresolved or empty text
	Failed    []LeafFailure `json:"failed,omitempty" yaml:"failed,omitempty"`
	Points    int           `json:"knowledge_points" yaml:"knowledge_points"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
}

// New creates a Segmenter.
func New(cfg Config) (*Segmenter, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("segmenter requires an LLM client")
	}
	if cfg.Source == nil {
		return nil, fmt.Errorf("segmenter requires a text source")
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = defaultMaxWorkers
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Segmenter{cfg: cfg, logger: logger.With("component", "segment")}, nil
}

type leafOutcome struct {
	points  []string
	skipped bool
	err     error
}

// Run returns a copy of root with KnowledgePoints set on every leaf.
// Leaves without a physical range, without text, or whose extraction fails
// get an empty list. Failures are reported, not returned; only context
// cancellation aborts the run.
func (s *Segmenter) Run(ctx context.Context, root *catalog.Node) (*catalog.Node, Report, error) {
	start := time.Now()
	out := root.Clone()
	leaves := catalog.Leaves(out)

	report := Report{Leaves: len(leaves)}
	outcomes := make([]leafOutcome, len(leaves))

	sem := make(chan struct{}, s.cfg.MaxWorkers)
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
			outcomes[idx] = s.processLeaf(ctx, pn)
		}(i, leaf)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, report, err
	}

	for i, leaf := range leaves {
		o := outcomes[i]
		points := o.points
		if points == nil {
			points = []string{}
		}
		leaf.Node.KnowledgePoints = points

		switch {
		case o.err != nil:
			report.Failed = append(report.Failed, LeafFailure{Path: leaf.Path, Title: leaf.Node.Title, Error: o.err.Error()})
		case o.skipped:
			report.Skipped++
		default:
			report.Extracted++
			report.Points += len(points)
		}
	}
	report.Duration = time.Since(start)

	s.logger.Info("segmentation complete",
		"leaves", report.Leaves,
		"extracted", report.Extracted,
		"skipped", report.Skipped,
		"failed", len(report.Failed),
		"knowledge_points", report.Points,
		"duration", report.Duration)

	return out, report, nil
}

func (s *Segmenter) processLeaf(ctx context.Context, pn catalog.PathNode) leafOutcome {
	n := pn.Node
	if !n.Resolved() {
		s.logger.Debug("skipping unresolved leaf", "path", pn.Path, "title", n.Title)
		return leafOutcome{skipped: true}
	}

	text, err := s.cfg.Source.RangeText(*n.ActualStartingPage, *n.ActualEndingPage)
	if err != nil {
		s.logger.Warn("failed to read leaf text", "path", pn.Path, "error", err)
		return leafOutcome{err: fmt.Errorf("read text: %w", err)}
	}
	if strings.TrimSpace(text) == "" {
		s.logger.Debug("skipping leaf without text", "path", pn.Path)
		return leafOutcome{skipped: true}
	}

	req, err := segprompt.BuildRequest(segprompt.Input{
		ChapterID:          pn.Path,
		ChapterName:        n.Title,
		Content:            text,
		SystemPrompt:       s.cfg.SystemPrompt,
		UserPromptTemplate: s.cfg.UserPromptTemplate,
		Model:              s.cfg.Model,
	})
	if err != nil {
		return leafOutcome{err: err}
	}

	result, err := providers.ChatStructured(ctx, s.cfg.Client, req)
	if err != nil {
		s.logger.Warn("knowledge point extraction failed", "path", pn.Path, "title", n.Title, "error", err)
		return leafOutcome{err: err}
	}
	parsed, err := segprompt.ParseResult(result.ParsedJSON)
	if err != nil {
		return leafOutcome{err: err}
	}

	s.logger.Debug("extracted knowledge points", "path", pn.Path, "count", len(parsed.KnowledgePoints))
	return leafOutcome{points: parsed.KnowledgePoints}
}
