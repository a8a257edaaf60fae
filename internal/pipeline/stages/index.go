package stages

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackzampolin/primer/internal/catalog"
	"github.com/jackzampolin/primer/internal/pipeline"
	"github.com/jackzampolin/primer/internal/search"
)

// IndexStageName is the name of the knowledge point index stage.
const IndexStageName = "index"

// IndexStage embeds a segmented catalog's knowledge points.
type IndexStage struct {
	deps Deps
}

// NewIndexStage creates the index stage.
func NewIndexStage(deps Deps) *IndexStage {
	return &IndexStage{deps: deps}
}

func (s *IndexStage) Name() string           { return IndexStageName }
func (s *IndexStage) Dependencies() []string { return []string{SegmentStageName} }
func (s *IndexStage) Description() string {
	return "Embed knowledge points for similarity search"
}

// IndexStatus reports the state of the embedding index.
type IndexStatus struct {
	Exists    bool      `json:"exists" yaml:"exists"`
	Path      string    `json:"path" yaml:"path"`
	UpdatedAt time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	Entries   int       `json:"entries" yaml:"entries"`
	Model     string    `json:"model,omitempty" yaml:"model,omitempty"`
}

func (s IndexStatus) IsComplete() bool { return s.Exists }
func (s IndexStatus) Data() any        { return s }

// IndexReport summarises an index run.
type IndexReport struct {
	Provider string        `json:"provider" yaml:"provider"`
	Model    string        `json:"model" yaml:"model"`
	Entries  int           `json:"entries" yaml:"entries"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// GetStatus inspects the index file.
func (s *IndexStage) GetStatus(ctx context.Context, book string) (pipeline.StageStatus, error) {
	path := s.deps.Home.IndexPath(book)
	status := IndexStatus{Path: path}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return status, nil
	}
	if err != nil {
		return status, err
	}
	idx, err := search.Load(path)
	if err != nil {
		return status, err
	}
	status.Exists = true
	status.UpdatedAt = info.ModTime()
	status.Entries = len(idx.Entries)
	status.Model = idx.Model
	return status, nil
}

// Run embeds the segments file and writes the index. opts.Provider
// overrides search.embedding_provider.
func (s *IndexStage) Run(ctx context.Context, book string, opts pipeline.StageOptions) (*pipeline.Result, error) {
	if err := s.deps.checkBook(book); err != nil {
		return nil, err
	}
	cfg := s.deps.config()

	root, err := catalog.Load(s.deps.Home.SegmentsPath(book))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s has no %s", pipeline.ErrDependencyNotMet, book, SegmentStageName)
		}
		return nil, err
	}

	embedder, provider, err := s.deps.embedder(opts.Provider)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	idx, err := search.Build(ctx, embedder, root, search.BuildOptions{
		Model:     cfg.Search.EmbeddingModel,
		BatchSize: cfg.Search.BatchSize,
	})
	if err != nil {
		return nil, err
	}
	idx.Provider = provider

	outputPath := s.deps.Home.IndexPath(book)
	if err := search.Save(outputPath, idx); err != nil {
		return nil, err
	}
	report := IndexReport{Provider: provider, Model: idx.Model, Entries: len(idx.Entries), Duration: time.Since(start)}
	s.deps.logger().Info("knowledge index built", "book", book, "provider", provider, "entries", report.Entries)

	return &pipeline.Result{
		OutputPath: outputPath,
		Stats:      catalog.Summarize(root),
		Details:    report,
	}, nil
}

// Search answers a similarity query against a book's saved index. The
// query is embedded with provider, or the provider that built the index
// when empty. k <= 0 uses search.top_k.
func (s *IndexStage) Search(ctx context.Context, book, query, provider string, k int) ([]search.Hit, error) {
	if err := s.deps.checkBook(book); err != nil {
		return nil, err
	}
	idx, err := search.Load(s.deps.Home.IndexPath(book))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s has no %s", pipeline.ErrDependencyNotMet, book, IndexStageName)
		}
		return nil, err
	}
	if provider == "" {
		provider = idx.Provider
	}
	embedder, _, err := s.deps.embedder(provider)
	if err != nil {
		return nil, err
	}
	if k <= 0 {
		k = s.deps.config().Search.TopK
	}
	return idx.Search(ctx, embedder, query, k)
}
