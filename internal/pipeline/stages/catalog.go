package stages

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackzampolin/primer/internal/catalog"
	"github.com/jackzampolin/primer/internal/outline"
	"github.com/jackzampolin/primer/internal/pagestore"
	"github.com/jackzampolin/primer/internal/pipeline"
	"github.com/jackzampolin/primer/internal/prompts/extract_outline"
)

// CatalogStageName is the name of the outline stage.
const CatalogStageName = "catalog"

// CatalogStage extracts the outline from a book's first pages and maps
// every leaf onto physical page files.
type CatalogStage struct {
	deps Deps
	// newExtractor is replaced in tests.
	newExtractor func(outline.Config) (outline.Extractor, error)
}

// NewCatalogStage creates the catalog stage.
func NewCatalogStage(deps Deps) *CatalogStage {
	return &CatalogStage{
		deps: deps,
		newExtractor: func(cfg outline.Config) (outline.Extractor, error) {
			return outline.NewExtractor(cfg)
		},
	}
}

func (s *CatalogStage) Name() string           { return CatalogStageName }
func (s *CatalogStage) Dependencies() []string { return nil }
func (s *CatalogStage) Description() string {
	return "Extract the table of contents and map printed pages to page files"
}

// CatalogStatus reports whether catalog.json exists and what it holds.
type CatalogStatus struct {
	Exists    bool          `json:"exists" yaml:"exists"`
	Path      string        `json:"path" yaml:"path"`
	UpdatedAt time.Time     `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	Stats     catalog.Stats `json:"stats" yaml:"stats"`
}

func (s CatalogStatus) IsComplete() bool { return s.Exists }
func (s CatalogStatus) Data() any        { return s }

// GetStatus inspects catalog.json.
func (s *CatalogStage) GetStatus(ctx context.Context, book string) (pipeline.StageStatus, error) {
	path := s.deps.Home.CatalogPath(book)
	return catalogFileStatus(path)
}

func catalogFileStatus(path string) (CatalogStatus, error) {
	status := CatalogStatus{Path: path}
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
	status.Stats = catalog.Summarize(root)
	return status, nil
}

// Run extracts, reconciles and saves the catalog.
func (s *CatalogStage) Run(ctx context.Context, book string, opts pipeline.StageOptions) (*pipeline.Result, error) {
	if err := s.deps.checkBook(book); err != nil {
		return nil, err
	}
	cfg := s.deps.config()
	logger := s.deps.logger().With("stage", CatalogStageName, "book", book)

	store, err := s.deps.openPages(book)
	if err != nil {
		return nil, err
	}
	client, err := s.deps.client(opts)
	if err != nil {
		return nil, err
	}
	systemPrompt := s.deps.prompt(extract_outline.SystemPromptKey, book)
	client = s.deps.recorded(client, book, CatalogStageName, extract_outline.SystemPromptKey, systemPrompt, extract_outline.SystemPrompt)

	outputPath := s.deps.Home.CatalogPath(book)
	extractor, err := s.newExtractor(outline.Config{
		Client:             client,
		Format:             cfg.PageKeyFormat(),
		Model:              opts.Model,
		SystemPrompt:       systemPrompt,
		UserPromptTemplate: s.deps.prompt(extract_outline.UserPromptKey, book),
		ErrorOutputPath:    outline.ErrorOutputPath(outputPath),
		Label:              book,
		Logger:             s.deps.Logger,
	})
	if err != nil {
		return nil, err
	}

	pages := store.FirstPages(cfg.Catalog.PagesForCatalog)
	blocks := make([]string, len(pages))
	for i, p := range pages {
		blocks[i] = p.PromptBlock()
	}
	logger.Info("sending pages for outline extraction", "pages", len(blocks), "total_pages", store.Len())

	root, anchor, err := extractor.Extract(ctx, blocks)
	if err != nil {
		return nil, err
	}

	var verify *VerifyOptions
	if cfg.Catalog.VerifyAnchor {
		verify = &VerifyOptions{Radius: cfg.Catalog.AnchorSearchRadius}
	}
	out, offset, err := ReconcileOutline(store, root, anchor, verify)
	if err != nil {
		return nil, err
	}
	if err := catalog.Save(outputPath, out); err != nil {
		return nil, err
	}

	stats := catalog.Summarize(out)
	logger.Info("catalog saved",
		"path", outputPath,
		"offset", offset,
		"max_physical_page", store.MaxPhysicalPage(),
		"resolved_leaves", stats.ResolvedLeaves,
		"leaves", stats.Leaves)

	return &pipeline.Result{
		OutputPath: outputPath,
		Stats:      stats,
		Root:       out,
		Details:    map[string]any{"offset": offset, "anchor": anchor},
	}, nil
}

// VerifyOptions enables the advisory anchor check.
type VerifyOptions struct {
	Radius int
}

// ReconcileOutline resolves the offset from anchor and reconciles root
// against the pages in store. With verify set, an anchor whose first leaf
// title is not found on the anchor page adds an AnchorUnverified warning.
func ReconcileOutline(store *pagestore.Store, root *catalog.Node, anchor catalog.Anchor, verify *VerifyOptions) (*catalog.Node, int, error) {
	offset, err := catalog.ResolveOffset(anchor)
	if err != nil {
		return nil, 0, err
	}
	out, err := catalog.Reconcile(root, offset, store.MaxPhysicalPage(), catalog.WithPageKey(store.PageFileKey))
	if err != nil {
		return nil, offset, err
	}
	if verify == nil {
		return out, offset, nil
	}

	check, err := catalog.VerifyAnchor(store, root, anchor, verify.Radius)
	if err != nil {
		out.Errors = append(out.Errors, catalog.Diagnostic{
			Kind:    catalog.KindAnchorUnverified,
			Message: fmt.Sprintf("anchor check failed: %v", err),
		})
		return out, offset, nil
	}
	if d := check.Diagnostic(); d != nil {
		out.Errors = append(out.Errors, *d)
	}
	return out, offset, nil
}
