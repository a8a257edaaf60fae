package pipeline

import (
	"context"
	"time"

	"github.com/jackzampolin/primer/internal/catalog"
)

// Stage is the interface that all pipeline stages must implement.
// A stage reads a book's files, does its work and writes its output file.
type Stage interface {
	// Identity
	Name() string           // e.g., "catalog", "segment"
	Dependencies() []string // Stages that must complete first

	// Metadata
	Description() string

	// GetStatus inspects the book directory for this stage's output.
	// Each stage returns its own status type implementing StageStatus.
	GetStatus(ctx context.Context, book string) (StageStatus, error)

	// Run performs the stage for one book and persists its output.
	Run(ctx context.Context, book string, opts StageOptions) (*Result, error)
}

// StageStatus is implemented by each stage's status type.
// Each stage defines its own struct with stage-specific fields.
type StageStatus interface {
	// IsComplete returns whether this stage is done for this book.
	IsComplete() bool

	// Data returns stage-specific structured data.
	// The shape depends on the stage implementation.
	Data() any
}

// StageOptions configures a single stage run.
type StageOptions struct {
	// Provider names the registry LLM client; empty uses defaults.llm_provider.
	Provider string `json:"provider,omitempty"`
	// Model overrides the provider's default model.
	Model string `json:"model,omitempty"`
	// Force reruns stages whose output already exists.
	Force bool `json:"force,omitempty"`
}

// Result is what a stage run produced.
type Result struct {
	RunID      string        `json:"run_id" yaml:"run_id"`
	Stage      string        `json:"stage" yaml:"stage"`
	Book       string        `json:"book" yaml:"book"`
	OutputPath string        `json:"output_path" yaml:"output_path"`
	Stats      catalog.Stats `json:"stats" yaml:"stats"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
	Skipped    bool          `json:"skipped,omitempty" yaml:"skipped,omitempty"`

	// Root is the catalog the stage wrote.
	Root *catalog.Node `json:"-" yaml:"-"`
	// Details holds stage-specific output (e.g. a segment report).
	Details any `json:"details,omitempty" yaml:"details,omitempty"`
}
