package pipeline

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrStageAlreadyRegistered = errors.New("stage already registered")
	ErrStageNotFound          = errors.New("stage not found")
	ErrDependencyCycle        = errors.New("dependency cycle detected")

	// ErrDependencyNotMet is returned when a stage runs before its inputs exist.
	ErrDependencyNotMet = errors.New("stage dependency not complete")

	ErrBookNotFound = errors.New("book not found")

	// ErrBookBusy is returned when another run holds the book.
	ErrBookBusy = errors.New("book has a run in progress")
)

// Registry holds the stages a Runner can execute, keyed by name.
type Registry struct {
	mu     sync.RWMutex
	stages map[string]Stage
	order  []string
}

func NewRegistry() *Registry {
	return &Registry{stages: make(map[string]Stage)}
}

// Register adds s. Names are unique.
func (r *Registry) Register(s Stage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := s.Name()
	if _, exists := r.stages[name]; exists {
		return fmt.Errorf("%w: %s", ErrStageAlreadyRegistered, name)
	}
	r.stages[name] = s
	r.order = append(r.order, name)
	return nil
}

// MustRegister registers stages and panics on a duplicate name.
func (r *Registry) MustRegister(stages ...Stage) *Registry {
	for _, s := range stages {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
	return r
}

func (r *Registry) Get(name string) (Stage, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.stages[name]
	return s, ok
}

// List returns all stages in registration order.
func (r *Registry) List() []Stage {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Stage, len(r.order))
	for i, name := range r.order {
		out[i] = r.stages[name]
	}
	return out
}

// Names returns all stage names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Ordered returns every stage with dependencies ahead of their dependents.
// Independent stages keep registration order.
func (r *Registry) Ordered() ([]Stage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w := r.newWalk()
	for _, name := range r.order {
		if err := w.visit(name, ""); err != nil {
			return nil, err
		}
	}
	return w.out, nil
}

// Plan returns name and its transitive dependencies in execution order.
func (r *Registry) Plan(name string) ([]Stage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.stages[name]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrStageNotFound, name)
	}
	w := r.newWalk()
	if err := w.visit(name, ""); err != nil {
		return nil, err
	}
	return w.out, nil
}

// Validate checks that every dependency is registered and none form a cycle.
func (r *Registry) Validate() error {
	_, err := r.Ordered()
	return err
}

type visitState int

const (
	unvisited visitState = iota
	visiting
	done
)

// walk is a depth-first topological sort over the registry.
// Callers hold r.mu.
type walk struct {
	r     *Registry
	state map[string]visitState
	out   []Stage
}

func (r *Registry) newWalk() *walk {
	return &walk{r: r, state: make(map[string]visitState, len(r.stages))}
}

func (w *walk) visit(name, from string) error {
	s, ok := w.r.stages[name]
	if !ok {
		return fmt.Errorf("%w: stage %q depends on %q", ErrStageNotFound, from, name)
	}
	switch w.state[name] {
	case done:
		return nil
	case visiting:
		return fmt.Errorf("%w: %s", ErrDependencyCycle, name)
	}
	w.state[name] = visiting
	for _, dep := range s.Dependencies() {
		if err := w.visit(dep, name); err != nil {
			return err
		}
	}
	w.state[name] = done
	w.out = append(w.out, s)
	return nil
}
