package stages

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackzampolin/primer/internal/catalog"
	"github.com/jackzampolin/primer/internal/pipeline"
	segprompt "github.com/jackzampolin/primer/internal/prompts/segment"
	"github.com/jackzampolin/primer/internal/segment"
)

// SegmentStageName is the name of the knowledge point stage.
const SegmentStageName = "segment"

// SegmentStage extracts knowledge points for every resolved leaf.
type SegmentStage struct {
	deps Deps
}

// NewSegmentStage creates the segment stage.
func NewSegmentStage(deps Deps) *SegmentStage {
	return &SegmentStage{deps: deps}
}

func (s *SegmentStage) Name() string           { return SegmentStageName }
func (s *SegmentStage) Dependencies() []string { return []string{CatalogStageName} }
func (s *SegmentStage) Description() string {
	return "Extract knowledge points for each chapter leaf"
}

// SegmentStatus reports the state of catalog_with_segments.json.
type SegmentStatus struct {
	Exists          bool      `json:"exists" yaml:"exists"`
	Path            string    `json:"path" yaml:"path"`
	UpdatedAt       time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	Leaves          int       `json:"leaves" yaml:"leaves"`
	WithPoints      int       `json:"leaves_with_points" yaml:"leaves_with_points"`
	KnowledgePoints int       `json:"knowledge_points" yaml:"knowledge_points"`
}

func (s SegmentStatus) IsComplete() bool { return s.Exists }
func (s SegmentStatus) Data() any        { return s }

// GetStatus inspects the segments file.
func (s *SegmentStage) GetStatus(ctx context.Context, book string) (pipeline.StageStatus, error) {
	path := s.deps.Home.SegmentsPath(book)
	status := SegmentStatus{Path: path}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return status, nil
	}
	if err != nil {
		return status, err
	}
	root, err := catalog.Load(path)
	if err != nil {
		return status, err
	}
	status.Exists = true
	status.UpdatedAt = info.ModTime()
	for _, leaf := range catalog.Leaves(root) {
		status.Leaves++
		if n := len(leaf.Node.KnowledgePoints); n > 0 {
			status.WithPoints++
			status.KnowledgePoints += n
		}
	}
	return status, nil
}

// Run segments the saved catalog and writes the segments file.
func (s *SegmentStage) Run(ctx context.Context, book string, opts pipeline.StageOptions) (*pipeline.Result, error) {
	if err := s.deps.checkBook(book); err != nil {
		return nil, err
	}
	cfg := s.deps.config()

	catalogPath := s.deps.Home.CatalogPath(book)
	root, err := catalog.Load(catalogPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s has no %s", pipeline.ErrDependencyNotMet, book, CatalogStageName)
		}
		return nil, err
	}

	store, err := s.deps.openPages(book)
	if err != nil {
		return nil, err
	}
	client, err := s.deps.client(opts)
	if err != nil {
		return nil, err
	}
	systemPrompt := s.deps.prompt(segprompt.SystemPromptKey, book)
	client = s.deps.recorded(client, book, SegmentStageName, segprompt.SystemPromptKey, systemPrompt, segprompt.SystemPrompt)

	seg, err := segment.New(segment.Config{
		Client:             client,
		Source:             store,
		MaxWorkers:         cfg.Defaults.MaxWorkers,
		Model:              opts.Model,
		SystemPrompt:       systemPrompt,
		UserPromptTemplate: s.deps.prompt(segprompt.UserPromptKey, book),
		Logger:             s.deps.logger().With("book", book),
	})
	if err != nil {
		return nil, err
	}

	out, report, err := seg.Run(ctx, root)
	if err != nil {
		return nil, err
	}

	outputPath := s.deps.Home.SegmentsPath(book)
	if err := catalog.Save(outputPath, out); err != nil {
		return nil, err
	}

	return &pipeline.Result{
		OutputPath: outputPath,
		Stats:      catalog.Summarize(out),
		Root:       out,
		Details:    report,
	}, nil
}
