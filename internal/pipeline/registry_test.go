package pipeline

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

// mockStageStatus implements StageStatus for testing.
type mockStageStatus struct {
	complete bool
	data     map[string]int
}

func (s *mockStageStatus) IsComplete() bool { return s.complete }
func (s *mockStageStatus) Data() any        { return s.data }

// mockStage implements Stage for testing.
type mockStage struct {
	name         string
	dependencies []string
	description  string

	complete bool
	runErr   error
	runs     int
	onRun    func()
}

func newMockStage(name string, deps ...string) *mockStage {
	return &mockStage{
		name:         name,
		dependencies: deps,
		description:  "test stage",
	}
}

func (m *mockStage) Name() string           { return m.name }
func (m *mockStage) Dependencies() []string { return m.dependencies }
func (m *mockStage) Description() string    { return m.description }

func (m *mockStage) GetStatus(ctx context.Context, book string) (StageStatus, error) {
	return &mockStageStatus{complete: m.complete, data: map[string]int{"runs": m.runs}}, nil
}

func (m *mockStage) Run(ctx context.Context, book string, opts StageOptions) (*Result, error) {
	m.runs++
	if m.onRun != nil {
		m.onRun()
	}
	if m.runErr != nil {
		return nil, m.runErr
	}
	m.complete = true
	return &Result{OutputPath: book + "/" + m.name + ".json"}, nil
}

func stageNames(stages []Stage) []string {
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.Name()
	}
	return names
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"catalog", "segment", "export"} {
		if err := r.Register(newMockStage(name)); err != nil {
			t.Fatalf("Register(%s): %v", name, err)
		}
	}

	err := r.Register(newMockStage("segment"))
	if !errors.Is(err, ErrStageAlreadyRegistered) {
		t.Errorf("duplicate Register error = %v, want ErrStageAlreadyRegistered", err)
	}

	if got := r.Names(); !reflect.DeepEqual(got, []string{"catalog", "segment", "export"}) {
		t.Errorf("Names() = %v", got)
	}
	if got := stageNames(r.List()); !reflect.DeepEqual(got, r.Names()) {
		t.Errorf("List() = %v, want registration order", got)
	}

	if s, ok := r.Get("segment"); !ok || s.Name() != "segment" {
		t.Errorf("Get(segment) = %v, %v", s, ok)
	}
	if _, ok := r.Get("missing"); ok {
		t.Error("Get(missing) found a stage")
	}

	// Names returns a copy.
	names := r.Names()
	names[0] = "changed"
	if r.Names()[0] != "catalog" {
		t.Error("Names() exposed internal slice")
	}
}

func TestRegistry_Ordered(t *testing.T) {
	type def struct {
		name string
		deps []string
	}
	tests := []struct {
		name    string
		stages  []def
		want    []string
		wantErr error
	}{
		{
			name:   "independent stages keep registration order",
			stages: []def{{"a", nil}, {"b", nil}, {"c", nil}},
			want:   []string{"a", "b", "c"},
		},
		{
			name:   "chain registered backwards",
			stages: []def{{"c", []string{"b"}}, {"b", []string{"a"}}, {"a", nil}},
			want:   []string{"a", "b", "c"},
		},
		{
			name: "diamond",
			stages: []def{
				{"d", []string{"b", "c"}},
				{"b", []string{"a"}},
				{"c", []string{"a"}},
				{"a", nil},
			},
			want: []string{"a", "b", "c", "d"},
		},
		{
			name:    "cycle",
			stages:  []def{{"a", []string{"b"}}, {"b", []string{"a"}}},
			wantErr: ErrDependencyCycle,
		},
		{
			name:    "self cycle",
			stages:  []def{{"a", []string{"a"}}},
			wantErr: ErrDependencyCycle,
		},
		{
			name:    "unknown dependency",
			stages:  []def{{"a", []string{"nonexistent"}}},
			wantErr: ErrStageNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			for _, s := range tt.stages {
				r.MustRegister(newMockStage(s.name, s.deps...))
			}

			ordered, err := r.Ordered()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Ordered() error = %v, want %v", err, tt.wantErr)
				}
				if verr := r.Validate(); !errors.Is(verr, tt.wantErr) {
					t.Errorf("Validate() error = %v, want %v", verr, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Ordered() error = %v", err)
			}
			if got := stageNames(ordered); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Ordered() = %v, want %v", got, tt.want)
			}
			if err := r.Validate(); err != nil {
				t.Errorf("Validate() error = %v", err)
			}
		})
	}
}

func TestRegistry_Plan(t *testing.T) {
	r := NewRegistry().MustRegister(
		newMockStage("catalog"),
		newMockStage("segment", "catalog"),
		newMockStage("export", "segment"),
		newMockStage("unrelated"),
	)

	tests := []struct {
		target string
		want   []string
	}{
		{"catalog", []string{"catalog"}},
		{"segment", []string{"catalog", "segment"}},
		{"export", []string{"catalog", "segment", "export"}},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			plan, err := r.Plan(tt.target)
			if err != nil {
				t.Fatalf("Plan() error = %v", err)
			}
			if got := stageNames(plan); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Plan(%s) = %v, want %v", tt.target, got, tt.want)
			}
		})
	}

	if _, err := r.Plan("nope"); !errors.Is(err, ErrStageNotFound) {
		t.Errorf("Plan(nope) error = %v, want ErrStageNotFound", err)
	}
}

func TestStage_GetStatus(t *testing.T) {
	stage := newMockStage("catalog")
	ctx := context.Background()

	status, err := stage.GetStatus(ctx, "algebra")
	if err != nil {
		t.Fatalf("GetStatus failed: %v", err)
	}
	if status.IsComplete() {
		t.Error("fresh stage reports complete")
	}

	if _, err := stage.Run(ctx, "algebra", StageOptions{}); err != nil {
		t.Fatal(err)
	}
	status, _ = stage.GetStatus(ctx, "algebra")
	if !status.IsComplete() {
		t.Error("stage not complete after Run")
	}
	if data := status.Data().(map[string]int); data["runs"] != 1 {
		t.Errorf("status data = %v", data)
	}
}

func TestRegistry_MustRegisterPanicsOnDuplicate(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for duplicate stage")
		}
	}()
	NewRegistry().MustRegister(newMockStage("catalog"), newMockStage("catalog"))
}
