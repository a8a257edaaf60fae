package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Runner executes registered stages for one book at a time.
type Runner struct {
	registry *Registry
	logger   *slog.Logger

	mu     sync.Mutex
	active map[string]string // book -> run ID
}

// NewRunner creates a runner over registry.
func NewRunner(registry *Registry, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		registry: registry,
		logger:   logger.With("component", "pipeline"),
		active:   make(map[string]string),
	}
}

// Registry returns the stage registry.
func (r *Runner) Registry() *Registry {
	return r.registry
}

// StageReport describes one stage's state for a book.
type StageReport struct {
	Name         string   `json:"name" yaml:"name"`
	Description  string   `json:"description" yaml:"description"`
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Complete     bool     `json:"complete" yaml:"complete"`
	Data         any      `json:"data,omitempty" yaml:"data,omitempty"`
}

// Status reports every stage's status for book in execution order.
func (r *Runner) Status(ctx context.Context, book string) ([]StageReport, error) {
	ordered, err := r.registry.Ordered()
	if err != nil {
		return nil, err
	}
	reports := make([]StageReport, 0, len(ordered))
	for _, s := range ordered {
		status, err := s.GetStatus(ctx, book)
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", s.Name(), err)
		}
		reports = append(reports, StageReport{
			Name:         s.Name(),
			Description:  s.Description(),
			Dependencies: s.Dependencies(),
			Complete:     status.IsComplete(),
			Data:         status.Data(),
		})
	}
	return reports, nil
}

// Active returns the run IDs currently in progress, keyed by book.
func (r *Runner) Active() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(r.active))
	for k, v := range r.active {
		out[k] = v
	}
	return out
}

// ActiveBooks returns the books with a run in progress, sorted.
func (r *Runner) ActiveBooks() []string {
	active := r.Active()
	books := make([]string, 0, len(active))
	for b := range active {
		books = append(books, b)
	}
	sort.Strings(books)
	return books
}

// RunStage runs the named stage for book. Dependencies are run first
// when their output is missing; the named stage always runs.
func (r *Runner) RunStage(ctx context.Context, book, name string, opts StageOptions) ([]*Result, error) {
	plan, err := r.registry.Plan(name)
	if err != nil {
		return nil, err
	}
	return r.run(ctx, book, plan, name, opts)
}

// RunAll runs every stage for book in dependency order, skipping stages
// whose output already exists unless opts.Force is set.
func (r *Runner) RunAll(ctx context.Context, book string, opts StageOptions) ([]*Result, error) {
	plan, err := r.registry.Ordered()
	if err != nil {
		return nil, err
	}
	return r.run(ctx, book, plan, "", opts)
}

func (r *Runner) run(ctx context.Context, book string, plan []Stage, target string, opts StageOptions) ([]*Result, error) {
	runID := uuid.New().String()
	if err := r.acquire(book, runID); err != nil {
		return nil, err
	}
	defer r.release(book)

	logger := r.logger.With("run_id", runID, "book", book)
	logger.Info("pipeline run started", "stages", len(plan), "target", target)
	start := time.Now()

	results := make([]*Result, 0, len(plan))
	for _, s := range plan {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		always := s.Name() == target || (target == "" && opts.Force)
		if !always {
			status, err := s.GetStatus(ctx, book)
			if err != nil {
				return results, fmt.Errorf("stage %s: %w", s.Name(), err)
			}
			if status.IsComplete() {
				logger.Info("stage already complete", "stage", s.Name())
				results = append(results, &Result{RunID: runID, Stage: s.Name(), Book: book, Skipped: true})
				continue
			}
		}

		stageStart := time.Now()
		logger.Info("stage started", "stage", s.Name())
		res, err := s.Run(ctx, book, opts)
		if err != nil {
			logger.Error("stage failed", "stage", s.Name(), "error", err, "duration", time.Since(stageStart))
			return results, fmt.Errorf("stage %s: %w", s.Name(), err)
		}
		if res == nil {
			res = &Result{}
		}
		res.RunID = runID
		res.Stage = s.Name()
		res.Book = book
		res.Duration = time.Since(stageStart)
		results = append(results, res)

		logger.Info("stage completed",
			"stage", s.Name(),
			"output", res.OutputPath,
			"leaves", res.Stats.Leaves,
			"errors", res.Stats.Errors,
			"warnings", res.Stats.Warnings,
			"duration", res.Duration)
	}

	logger.Info("pipeline run finished", "duration", time.Since(start))
	return results, nil
}

func (r *Runner) acquire(book, runID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.active[book]; ok {
		return fmt.Errorf("%w: %s (run %s)", ErrBookBusy, book, existing)
	}
	r.active[book] = runID
	return nil
}

func (r *Runner) release(book string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, book)
}
