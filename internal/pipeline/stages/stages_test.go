package stages

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/jackzampolin/primer/internal/catalog"
	"github.com/jackzampolin/primer/internal/config"
	"github.com/jackzampolin/primer/internal/home"
	"github.com/jackzampolin/primer/internal/llmcall"
	"github.com/jackzampolin/primer/internal/mindmap"
	"github.com/jackzampolin/primer/internal/pipeline"
	"github.com/jackzampolin/primer/internal/prompts"
	"github.com/jackzampolin/primer/internal/prompts/extract_outline"
	"github.com/jackzampolin/primer/internal/prompts/mermaid"
	"github.com/jackzampolin/primer/internal/providers"
	"github.com/jackzampolin/primer/internal/search"
	"github.com/jackzampolin/primer/internal/segment"
)

const testOutline = `{"chapters":[
  {"index":1,"name":"1 Numbers","type":"tree","starting_page":1,"ending_page":4,"children":[
    {"index":1,"name":"1.1 Counting","type":"leaf","starting_page":1,"ending_page":2,"actual_starting_page":"page0003.txt","children":""},
    {"index":2,"name":"1.2 Adding","type":"leaf","starting_page":3,"ending_page":4,"children":""}
  ]}
]}`

var testPages = map[string]string{
	"page0001.txt": "Contents\n1 Numbers\n1.1 Counting .... 1\n1.2 Adding .... 3",
	"page0002.txt": "Preface",
	"page0003.txt": "1.1 Counting\nwe count things",
	"page0004.txt": "more counting",
	"page0005.txt": "1.2 Adding\nsums",
	"page0006.txt": "more sums",
}

func bookHandler(req *providers.ChatRequest) (string, error) {
	if req.Messages[0].Content == extract_outline.SystemPrompt {
		return testOutline, nil
	}
	user := req.Messages[1].Content
	if req.Messages[0].Content == mermaid.SystemPrompt {
		switch {
		case strings.Contains(user, "we count things"):
			return `{"chapter":"1.1","name":"1.1 Counting","mermaid_code":"mindmap\n\troot((Counting))\n\t\tObjects\n\t\t\tTally"}`, nil
		case strings.Contains(user, "sums"):
			return `{"chapter":"1.2","name":"1.2 Adding","mermaid_code":"mindmap\n\troot((Adding))\n\t\tSums"}`, nil
		}
		return "{}", nil
	}
	switch {
	case strings.Contains(user, "we count things"):
		return `{"chapter_id":"1.1","chapter_name":"1.1 Counting","knowledge_points":["Counting assigns numbers to objects."]}`, nil
	case strings.Contains(user, "sums"):
		return `{"chapter_id":"1.2","chapter_name":"1.2 Adding","knowledge_points":["Addition combines counts.","Addition is commutative."]}`, nil
	}
	return "{}", nil
}

type fixture struct {
	home *home.Dir
	cfg  *config.Config
	mock *providers.MockClient
	deps Deps
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	h, err := home.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := h.EnsureBookDir("algebra"); err != nil {
		t.Fatal(err)
	}
	for name, text := range testPages {
		if err := os.WriteFile(filepath.Join(h.TextDir("algebra"), name), []byte(text), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := config.DefaultConfig()
	cfg.Defaults.LLMProvider = "mock"
	cfg.Defaults.MaxWorkers = 2

	mock := providers.NewMockClient()
	mock.Handler = bookHandler
	reg := providers.NewRegistry()
	reg.RegisterLLM("mock", mock)

	return &fixture{
		home: h,
		cfg:  cfg,
		mock: mock,
		deps: Deps{
			Home:   h,
			Config: func() *config.Config { return cfg },
			LLM:    reg,
		},
	}
}

func TestCatalogStage_Run(t *testing.T) {
	f := newFixture(t)
	stage := NewCatalogStage(f.deps)

	status, err := stage.GetStatus(context.Background(), "algebra")
	if err != nil {
		t.Fatal(err)
	}
	if status.IsComplete() {
		t.Fatal("catalog should not be complete before running")
	}

	res, err := stage.Run(context.Background(), "algebra", pipeline.StageOptions{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.OutputPath != f.home.CatalogPath("algebra") {
		t.Errorf("OutputPath = %q", res.OutputPath)
	}

	saved, err := catalog.Load(res.OutputPath)
	if err != nil {
		t.Fatalf("catalog not saved: %v", err)
	}
	leaves := catalog.Leaves(saved)
	want := [][2]string{{"page0003", "page0004"}, {"page0005", "page0006"}}
	if len(leaves) != len(want) {
		t.Fatalf("got %d leaves, want %d", len(leaves), len(want))
	}
	for i, leaf := range leaves {
		got := [2]string{*leaf.Node.ActualStartingPage, *leaf.Node.ActualEndingPage}
		if got != want[i] {
			t.Errorf("leaf %d range = %v, want %v", i, got, want[i])
		}
	}
	if len(saved.Errors) != 0 {
		t.Errorf("unexpected diagnostics: %+v", saved.Errors)
	}
	if details := res.Details.(map[string]any); details["offset"] != 2 {
		t.Errorf("offset = %v, want 2", details["offset"])
	}

	status, err = stage.GetStatus(context.Background(), "algebra")
	if err != nil {
		t.Fatal(err)
	}
	if !status.IsComplete() || status.(CatalogStatus).Stats.ResolvedLeaves != 2 {
		t.Errorf("status after run = %+v", status.Data())
	}
}

func TestCatalogStage_AnchorUnverified(t *testing.T) {
	f := newFixture(t)
	// The first leaf's heading actually starts one page later.
	if err := os.WriteFile(filepath.Join(f.home.TextDir("algebra"), "page0003.txt"), []byte("blank"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(f.home.TextDir("algebra"), "page0004.txt"), []byte("1.1 Counting"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := NewCatalogStage(f.deps).Run(context.Background(), "algebra", pipeline.StageOptions{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(res.Root.Errors) != 1 {
		t.Fatalf("diagnostics = %+v, want one AnchorUnverified", res.Root.Errors)
	}
	d := res.Root.Errors[0]
	if d.Kind != catalog.KindAnchorUnverified || !strings.Contains(d.Message, "page 4") {
		t.Errorf("diagnostic = %+v", d)
	}
	// Advisory only: ranges still come from the anchor.
	if got := *catalog.Leaves(res.Root)[0].Node.ActualStartingPage; got != "page0003" {
		t.Errorf("first leaf start = %q, want page0003", got)
	}

	f.cfg.Catalog.VerifyAnchor = false
	res, err = NewCatalogStage(f.deps).Run(context.Background(), "algebra", pipeline.StageOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Root.Errors) != 0 {
		t.Errorf("verification disabled but got %+v", res.Root.Errors)
	}
}

func TestCatalogStage_PromptOverride(t *testing.T) {
	f := newFixture(t)
	store := prompts.NewStore(f.home.BookDir, nil)
	if err := store.SetBookOverride("algebra", extract_outline.UserPromptKey, "Custom outline request for {{.PageCount}} pages\n{{.Pages}}"); err != nil {
		t.Fatal(err)
	}
	resolver := prompts.NewResolver(store, nil)
	for _, p := range extract_outline.Prompts() {
		resolver.Register(p)
	}
	f.deps.Prompts = resolver

	if _, err := NewCatalogStage(f.deps).Run(context.Background(), "algebra", pipeline.StageOptions{Model: "qwen-plus"}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	req := f.mock.Requests()[0]
	if !strings.HasPrefix(req.Messages[1].Content, "Custom outline request for 6 pages") {
		t.Errorf("user prompt = %q", req.Messages[1].Content)
	}
	if req.Model != "qwen-plus" {
		t.Errorf("model = %q, want qwen-plus", req.Model)
	}
}

func TestCatalogStage_Errors(t *testing.T) {
	t.Run("unknown book", func(t *testing.T) {
		f := newFixture(t)
		_, err := NewCatalogStage(f.deps).Run(context.Background(), "geometry", pipeline.StageOptions{})
		if !errors.Is(err, pipeline.ErrBookNotFound) {
			t.Errorf("error = %v, want ErrBookNotFound", err)
		}
	})

	t.Run("no pages", func(t *testing.T) {
		f := newFixture(t)
		if err := f.home.EnsureBookDir("empty"); err != nil {
			t.Fatal(err)
		}
		_, err := NewCatalogStage(f.deps).Run(context.Background(), "empty", pipeline.StageOptions{})
		if !errors.Is(err, catalog.ErrNoPages) {
			t.Errorf("error = %v, want ErrNoPages", err)
		}
	})

	t.Run("unknown provider", func(t *testing.T) {
		f := newFixture(t)
		_, err := NewCatalogStage(f.deps).Run(context.Background(), "algebra", pipeline.StageOptions{Provider: "nope"})
		if err == nil {
			t.Error("expected error for unknown provider")
		}
	})

	t.Run("outline without anchor", func(t *testing.T) {
		f := newFixture(t)
		f.mock.Handler = outlineHandler(strings.Replace(testOutline, `,"actual_starting_page":"page0003.txt"`, "", 1))
		_, err := NewCatalogStage(f.deps).Run(context.Background(), "algebra", pipeline.StageOptions{})
		if !errors.Is(err, catalog.ErrInvalidAnchor) {
			t.Fatalf("error = %v, want ErrInvalidAnchor", err)
		}
		if _, err := os.Stat(f.home.CatalogPath("algebra")); !os.IsNotExist(err) {
			t.Errorf("catalog.json written despite invalid anchor: %v", err)
		}
	})

	t.Run("leaf beyond last page", func(t *testing.T) {
		f := newFixture(t)
		f.mock.Handler = outlineHandler(strings.Replace(testOutline, `"starting_page":3,"ending_page":4`, `"starting_page":3,"ending_page":40`, 1))
		res, err := NewCatalogStage(f.deps).Run(context.Background(), "algebra", pipeline.StageOptions{})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		saved, err := catalog.Load(f.home.CatalogPath("algebra"))
		if err != nil {
			t.Fatalf("catalog.json not written: %v", err)
		}
		var found bool
		for _, d := range saved.Errors {
			if d.NodePath == "1.2" && d.Kind == catalog.KindPageOutOfBounds {
				found = true
			}
		}
		if !found {
			t.Errorf("diagnostics = %+v, want PageOutOfBounds at 1.2", saved.Errors)
		}
		if res.Stats.ResolvedLeaves != 1 {
			t.Errorf("resolved leaves = %d, want 1", res.Stats.ResolvedLeaves)
		}
	})
}

// chatOnly hides the mock's Embed method.
type chatOnly struct{ mock *providers.MockClient }

func (c chatOnly) Chat(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResult, error) {
	return c.mock.Chat(ctx, req)
}
func (c chatOnly) Name() string { return "chat-only" }

func outlineHandler(outline string) func(*providers.ChatRequest) (string, error) {
	return func(req *providers.ChatRequest) (string, error) {
		if req.Messages[0].Content == extract_outline.SystemPrompt {
			return outline, nil
		}
		return bookHandler(req)
	}
}

func TestSegmentStage_RequiresCatalog(t *testing.T) {
	f := newFixture(t)
	_, err := NewSegmentStage(f.deps).Run(context.Background(), "algebra", pipeline.StageOptions{})
	if !errors.Is(err, pipeline.ErrDependencyNotMet) {
		t.Fatalf("error = %v, want ErrDependencyNotMet", err)
	}
}

func TestPipeline_CatalogThenSegment(t *testing.T) {
	f := newFixture(t)
	runner := pipeline.NewRunner(NewRegistry(f.deps), nil)

	results, err := runner.RunStage(context.Background(), "algebra", SegmentStageName, pipeline.StageOptions{})
	if err != nil {
		t.Fatalf("RunStage() error = %v", err)
	}
	if len(results) != 2 || results[0].Stage != CatalogStageName || results[1].Stage != SegmentStageName {
		t.Fatalf("results = %+v", results)
	}

	report := results[1].Details.(segment.Report)
	if report.Extracted != 2 || report.Points != 3 {
		t.Errorf("report = %+v", report)
	}

	saved, err := catalog.Load(f.home.SegmentsPath("algebra"))
	if err != nil {
		t.Fatal(err)
	}
	var got [][]string
	for _, leaf := range catalog.Leaves(saved) {
		got = append(got, leaf.Node.KnowledgePoints)
	}
	want := [][]string{
		{"Counting assigns numbers to objects."},
		{"Addition combines counts.", "Addition is commutative."},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("knowledge points = %v, want %v", got, want)
	}

	reports, err := runner.Status(context.Background(), "algebra")
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range reports {
		want := r.Name == CatalogStageName || r.Name == SegmentStageName
		if r.Complete != want {
			t.Errorf("stage %s complete = %v, want %v", r.Name, r.Complete, want)
		}
	}
	if seg := reports[1].Data.(SegmentStatus); seg.KnowledgePoints != 3 || seg.WithPoints != 2 {
		t.Errorf("segment status = %+v", seg)
	}
}

func TestPipeline_RecordsCalls(t *testing.T) {
	f := newFixture(t)
	f.deps.Calls = llmcall.NewRecorder(f.home.BookDir, nil)
	runner := pipeline.NewRunner(NewRegistry(f.deps), nil)

	if _, err := runner.RunAll(context.Background(), "algebra", pipeline.StageOptions{}); err != nil {
		t.Fatalf("RunAll() error = %v", err)
	}

	calls, err := f.deps.Calls.List("algebra", llmcall.QueryFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(calls) != int(f.mock.RequestCount()) {
		t.Fatalf("recorded %d calls, mock saw %d", len(calls), f.mock.RequestCount())
	}

	byStage := map[string]int{}
	for _, c := range calls {
		byStage[c.Stage]++
		if c.Book != "algebra" || !c.Success || c.PromptHash == "" {
			t.Errorf("call = %+v", c)
		}
	}
	if byStage[CatalogStageName] != 1 || byStage[SegmentStageName] != 2 || byStage[MindmapStageName] != 2 {
		t.Errorf("calls by stage = %v", byStage)
	}

	catalogCalls, err := f.deps.Calls.List("algebra", llmcall.QueryFilter{Stage: CatalogStageName})
	if err != nil {
		t.Fatal(err)
	}
	if len(catalogCalls) != 1 || catalogCalls[0].PromptHash != prompts.HashText(extract_outline.SystemPrompt) {
		t.Errorf("catalog calls = %+v", catalogCalls)
	}
}

func TestMindmapStage_Run(t *testing.T) {
	f := newFixture(t)
	if _, err := NewMindmapStage(f.deps).Run(context.Background(), "algebra", pipeline.StageOptions{}); !errors.Is(err, pipeline.ErrDependencyNotMet) {
		t.Fatalf("error = %v, want ErrDependencyNotMet", err)
	}
	if _, err := NewCatalogStage(f.deps).Run(context.Background(), "algebra", pipeline.StageOptions{}); err != nil {
		t.Fatal(err)
	}

	stage := NewMindmapStage(f.deps)
	res, err := stage.Run(context.Background(), "algebra", pipeline.StageOptions{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report := res.Details.(mindmap.Report); report.Generated != 2 || len(report.Failed) != 0 {
		t.Errorf("report = %+v", report)
	}

	data, err := os.ReadFile(f.home.MindmapPath("algebra"))
	if err != nil {
		t.Fatalf("merged mind map not written: %v", err)
	}
	want := strings.Join([]string{
		"mindmap",
		"\troot((algebra))",
		"\t\t1 Numbers",
		"\t\t\t1.1 Counting",
		"\t\t\t\tObjects",
		"\t\t\t\t\tTally",
		"\t\t\t1.2 Adding",
		"\t\t\t\tSums",
	}, "\n") + "\n"
	if string(data) != want {
		t.Errorf("merged mind map =\n%s\nwant\n%s", data, want)
	}

	status, err := stage.GetStatus(context.Background(), "algebra")
	if err != nil {
		t.Fatal(err)
	}
	if !status.IsComplete() || status.(MindmapStatus).LeafMaps != 2 {
		t.Errorf("status = %+v", status.Data())
	}
}

func TestIndexStage_RunAndSearch(t *testing.T) {
	f := newFixture(t)
	runner := pipeline.NewRunner(NewRegistry(f.deps), nil)

	results, err := runner.RunStage(context.Background(), "algebra", IndexStageName, pipeline.StageOptions{})
	if err != nil {
		t.Fatalf("RunStage() error = %v", err)
	}
	last := results[len(results)-1]
	if last.Stage != IndexStageName || last.OutputPath != f.home.IndexPath("algebra") {
		t.Fatalf("last result = %+v", last)
	}
	if report := last.Details.(IndexReport); report.Entries != 3 || report.Provider != "mock" {
		t.Errorf("report = %+v", report)
	}
	if f.mock.EmbedCount() != 1 {
		t.Errorf("embed calls = %d, want 1", f.mock.EmbedCount())
	}

	stage := NewIndexStage(f.deps)
	hits, err := stage.Search(context.Background(), "algebra", "Addition is commutative", "", 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 2 || hits[0].Text != "Addition is commutative." || hits[0].Path != "1.2" {
		t.Errorf("hits = %+v", hits)
	}

	if _, err := stage.Search(context.Background(), "algebra", " ", "mock", 0); !errors.Is(err, search.ErrEmptyQuery) {
		t.Errorf("error = %v, want ErrEmptyQuery", err)
	}
}

func TestIndexStage_Errors(t *testing.T) {
	t.Run("no segments", func(t *testing.T) {
		f := newFixture(t)
		_, err := NewIndexStage(f.deps).Run(context.Background(), "algebra", pipeline.StageOptions{})
		if !errors.Is(err, pipeline.ErrDependencyNotMet) {
			t.Errorf("error = %v, want ErrDependencyNotMet", err)
		}
	})

	t.Run("no index", func(t *testing.T) {
		f := newFixture(t)
		_, err := NewIndexStage(f.deps).Search(context.Background(), "algebra", "sums", "", 1)
		if !errors.Is(err, pipeline.ErrDependencyNotMet) {
			t.Errorf("error = %v, want ErrDependencyNotMet", err)
		}
	})

	t.Run("provider without embeddings", func(t *testing.T) {
		f := newFixture(t)
		runner := pipeline.NewRunner(NewRegistry(f.deps), nil)
		if _, err := runner.RunStage(context.Background(), "algebra", SegmentStageName, pipeline.StageOptions{}); err != nil {
			t.Fatal(err)
		}
		reg := providers.NewRegistry()
		reg.RegisterLLM("mock", f.mock)
		reg.RegisterLLM("gemini", chatOnly{f.mock})
		f.cfg.Search.EmbeddingProvider = "gemini"
		f.deps.LLM = reg
		_, err := NewIndexStage(f.deps).Run(context.Background(), "algebra", pipeline.StageOptions{})
		if !errors.Is(err, providers.ErrEmbeddingUnsupported) {
			t.Errorf("error = %v, want ErrEmbeddingUnsupported", err)
		}
	})
}
