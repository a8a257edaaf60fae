package stages

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackzampolin/primer/internal/catalog"
	"github.com/jackzampolin/primer/internal/mindmap"
	"github.com/jackzampolin/primer/internal/pipeline"
	"github.com/jackzampolin/primer/internal/prompts/mermaid"
)

// MindmapStageName is the name of the mind map stage.
const MindmapStageName = "mindmap"

// MindmapStage draws a mind map for every resolved leaf and merges them
// into one map following the catalog.
type MindmapStage struct {
	deps Deps
}

// NewMindmapStage creates the mind map stage.
func NewMindmapStage(deps Deps) *MindmapStage {
	return &MindmapStage{deps: deps}
}

func (s *MindmapStage) Name() string           { return MindmapStageName }
func (s *MindmapStage) Dependencies() []string { return []string{CatalogStageName} }
func (s *MindmapStage) Description() string {
	return "Draw Mermaid mind maps per chapter leaf and merge them"
}

// MindmapStatus reports the state of the merged mind map.
type MindmapStatus struct {
	Exists     bool      `json:"exists" yaml:"exists"`
	Path       string    `json:"path" yaml:"path"`
	UpdatedAt  time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	LeafMaps   int       `json:"leaf_maps" yaml:"leaf_maps"`
	LeavesPath string    `json:"leaves_path" yaml:"leaves_path"`
}

func (s MindmapStatus) IsComplete() bool { return s.Exists }
func (s MindmapStatus) Data() any        { return s }

// GetStatus inspects the merged mind map and the leaf maps.
func (s *MindmapStage) GetStatus(ctx context.Context, book string) (pipeline.StageStatus, error) {
	path := s.deps.Home.MindmapPath(book)
	status := MindmapStatus{Path: path, LeavesPath: s.deps.Home.LeafMindmapsPath(book)}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return status, nil
	}
	if err != nil {
		return status, err
	}
	status.Exists = true
	status.UpdatedAt = info.ModTime()
	if leaves, err := mindmap.LoadLeaves(status.LeavesPath); err == nil {
		status.LeafMaps = len(leaves)
	}
	return status, nil
}

// Run generates the leaf maps, then writes them and the merged map.
func (s *MindmapStage) Run(ctx context.Context, book string, opts pipeline.StageOptions) (*pipeline.Result, error) {
	if err := s.deps.checkBook(book); err != nil {
		return nil, err
	}
	cfg := s.deps.config()

	root, err := catalog.Load(s.deps.Home.CatalogPath(book))
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
	systemPrompt := s.deps.prompt(mermaid.SystemPromptKey, book)
	client = s.deps.recorded(client, book, MindmapStageName, mermaid.SystemPromptKey, systemPrompt, mermaid.SystemPrompt)

	gen, err := mindmap.New(mindmap.Config{
		Client:             client,
		Source:             store,
		MaxWorkers:         cfg.Defaults.MaxWorkers,
		Model:              opts.Model,
		SystemPrompt:       systemPrompt,
		UserPromptTemplate: s.deps.prompt(mermaid.UserPromptKey, book),
		Logger:             s.deps.logger().With("book", book),
	})
	if err != nil {
		return nil, err
	}

	leaves, report, err := gen.Run(ctx, root)
	if err != nil {
		return nil, err
	}

	if err := mindmap.SaveLeaves(s.deps.Home.LeafMindmapsPath(book), leaves); err != nil {
		return nil, err
	}
	outputPath := s.deps.Home.MindmapPath(book)
	if err := mindmap.SaveMerged(outputPath, mindmap.Merge(root, book, leaves)); err != nil {
		return nil, err
	}

	return &pipeline.Result{
		OutputPath: outputPath,
		Stats:      catalog.Summarize(root),
		Details:    report,
	}, nil
}
