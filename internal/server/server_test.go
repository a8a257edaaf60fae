package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackzampolin/primer/internal/catalog"
	"github.com/jackzampolin/primer/internal/home"
	"github.com/jackzampolin/primer/internal/metrics"
	"github.com/jackzampolin/primer/internal/prompts/extract_outline"
	"github.com/jackzampolin/primer/internal/prompts/mermaid"
	"github.com/jackzampolin/primer/internal/providers"
	"github.com/jackzampolin/primer/internal/server/endpoints"
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
		if strings.Contains(user, "we count things") {
			return `{"chapter":"1.1","name":"1.1 Counting","mermaid_code":"mindmap\n\troot((Counting))\n\t\tObjects"}`, nil
		}
		return `{"chapter":"1.2","name":"1.2 Adding","mermaid_code":"mindmap\n\troot((Adding))\n\t\tSums"}`, nil
	}
	switch {
	case strings.Contains(user, "we count things"):
		return `{"chapter_id":"1.1","chapter_name":"1.1 Counting","knowledge_points":["Counting assigns numbers to objects."]}`, nil
	case strings.Contains(user, "sums"):
		return `{"chapter_id":"1.2","chapter_name":"1.2 Adding","knowledge_points":["Addition combines counts."]}`, nil
	}
	return "{}", nil
}

func newTestServer(t *testing.T) (*httptest.Server, *home.Dir, *providers.MockClient) {
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

	mock := providers.NewMockClient()
	mock.Handler = bookHandler
	reg := providers.NewRegistry()
	reg.RegisterLLM("mock", mock)

	srv, err := New(Config{
		Home:     h,
		Registry: reg,
		Logger:   slog.New(slog.DiscardHandler),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, h, mock
}

func do(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatal(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, data
}

func decode(t *testing.T, data []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
}

func TestServer_Health(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, body := do(t, "GET", ts.URL+"/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var health endpoints.HealthResponse
	decode(t, body, &health)
	if health.Status != "ok" {
		t.Errorf("Status = %q, want ok", health.Status)
	}

	resp, body = do(t, "GET", ts.URL+"/status", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var status endpoints.StatusResponse
	decode(t, body, &status)
	if len(status.LLMProviders) != 1 || status.LLMProviders[0] != "mock" {
		t.Errorf("LLMProviders = %v, want [mock]", status.LLMProviders)
	}
	if len(status.Stages) != 4 {
		t.Errorf("Stages = %v, want catalog, segment, mindmap and index", status.Stages)
	}
}

func TestServer_CatalogFlow(t *testing.T) {
	ts, h, mock := newTestServer(t)
	base := ts.URL + "/api/books/algebra"

	t.Run("list before run", func(t *testing.T) {
		resp, body := do(t, "GET", ts.URL+"/api/books", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d: %s", resp.StatusCode, body)
		}
		var list endpoints.ListBooksResponse
		decode(t, body, &list)
		if len(list.Books) != 1 {
			t.Fatalf("Books = %+v", list.Books)
		}
		b := list.Books[0]
		if b.Name != "algebra" || b.Pages != 6 || b.HasCatalog || b.HasSegments {
			t.Errorf("book = %+v", b)
		}
	})

	t.Run("catalog missing", func(t *testing.T) {
		resp, _ := do(t, "GET", base+"/catalog", nil)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d, want 404", resp.StatusCode)
		}
	})

	t.Run("run catalog", func(t *testing.T) {
		resp, body := do(t, "POST", base+"/catalog", endpoints.RunRequest{Provider: "mock"})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d: %s", resp.StatusCode, body)
		}
		if _, err := os.Stat(h.CatalogPath("algebra")); err != nil {
			t.Fatalf("catalog.json not written: %v", err)
		}
		if mock.RequestCount() != 1 {
			t.Errorf("requests = %d, want 1", mock.RequestCount())
		}
	})

	t.Run("get catalog", func(t *testing.T) {
		resp, body := do(t, "GET", base+"/catalog", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d: %s", resp.StatusCode, body)
		}
		root, err := catalog.Unmarshal(body)
		if err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		leaf, ok := catalog.Find(root, "1.2")
		if !ok || leaf.Title != "1.2 Adding" {
			t.Fatalf("leaf 1.2 = %+v", leaf)
		}
		if !leaf.Resolved() || *leaf.ActualStartingPage != "page0005" {
			t.Errorf("leaf 1.2 start = %v", leaf.ActualStartingPage)
		}
	})

	t.Run("catalog html", func(t *testing.T) {
		resp, body := do(t, "GET", base+"/catalog.html", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Errorf("Content-Type = %q", ct)
		}
		if !strings.Contains(string(body), "1.1 Counting") {
			t.Errorf("html missing leaf title: %s", body)
		}
	})

	t.Run("leaf text", func(t *testing.T) {
		resp, body := do(t, "GET", base+"/leaves/1.1/text", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d: %s", resp.StatusCode, body)
		}
		var leaf endpoints.LeafTextResponse
		decode(t, body, &leaf)
		if !strings.Contains(leaf.Text, "we count things") || !strings.Contains(leaf.Text, "more counting") {
			t.Errorf("Text = %q", leaf.Text)
		}
		if strings.Contains(leaf.Text, "sums") {
			t.Errorf("Text leaks the next leaf: %q", leaf.Text)
		}
	})

	t.Run("leaf errors", func(t *testing.T) {
		if resp, _ := do(t, "GET", base+"/leaves/9/text", nil); resp.StatusCode != http.StatusNotFound {
			t.Errorf("missing path status = %d, want 404", resp.StatusCode)
		}
		if resp, _ := do(t, "GET", base+"/leaves/1/text", nil); resp.StatusCode != http.StatusUnprocessableEntity {
			t.Errorf("non-leaf status = %d, want 422", resp.StatusCode)
		}
	})

	t.Run("run segments", func(t *testing.T) {
		resp, body := do(t, "POST", base+"/segments", endpoints.RunRequest{Provider: "mock"})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d: %s", resp.StatusCode, body)
		}
		var run endpoints.RunResponse
		decode(t, body, &run)
		if len(run.Results) != 2 || !run.Results[0].Skipped || run.Results[1].Stage != "segment" {
			t.Errorf("Results = %+v, want skipped catalog then segment", run.Results)
		}

		resp, body = do(t, "GET", base+"/catalog?segments=true", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d: %s", resp.StatusCode, body)
		}
		root, err := catalog.Unmarshal(body)
		if err != nil {
			t.Fatal(err)
		}
		leaf, _ := catalog.Find(root, "1.1")
		if len(leaf.KnowledgePoints) != 1 {
			t.Errorf("KnowledgePoints = %v", leaf.KnowledgePoints)
		}
	})

	t.Run("mind map", func(t *testing.T) {
		resp, body := do(t, "POST", base+"/mindmap", endpoints.RunRequest{Provider: "mock"})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d: %s", resp.StatusCode, body)
		}
		resp, body = do(t, "GET", base+"/mindmap", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d: %s", resp.StatusCode, body)
		}
		if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
			t.Errorf("Content-Type = %q", ct)
		}
		for _, want := range []string{"mindmap\n", "\troot((algebra))\n", "\t\t\t1.1 Counting\n\t\t\t\tObjects\n", "\t\t\t\tSums\n"} {
			if !strings.Contains(string(body), want) {
				t.Errorf("mind map missing %q:\n%s", want, body)
			}
		}
	})

	t.Run("index and search", func(t *testing.T) {
		resp, body := do(t, "POST", base+"/index", endpoints.RunRequest{Provider: "mock"})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d: %s", resp.StatusCode, body)
		}
		var run endpoints.RunResponse
		decode(t, body, &run)
		if len(run.Results) != 3 || !run.Results[0].Skipped || !run.Results[1].Skipped || run.Results[2].Stage != "index" {
			t.Errorf("Results = %+v, want skipped catalog and segment then index", run.Results)
		}

		resp, body = do(t, "GET", base+"/search?q=Addition+combines+counts&k=1", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d: %s", resp.StatusCode, body)
		}
		var res endpoints.SearchResponse
		decode(t, body, &res)
		if len(res.Hits) != 1 || res.Hits[0].Path != "1.2" || res.Hits[0].Text != "Addition combines counts." {
			t.Errorf("Hits = %+v", res.Hits)
		}

		if resp, _ := do(t, "GET", base+"/search?q=", nil); resp.StatusCode != http.StatusBadRequest {
			t.Errorf("empty query status = %d, want 400", resp.StatusCode)
		}
		if resp, _ := do(t, "GET", base+"/search?q=x&k=-1", nil); resp.StatusCode != http.StatusBadRequest {
			t.Errorf("bad k status = %d, want 400", resp.StatusCode)
		}
	})

	t.Run("diagnostics", func(t *testing.T) {
		resp, body := do(t, "GET", base+"/diagnostics", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d: %s", resp.StatusCode, body)
		}
		var diag endpoints.DiagnosticsResponse
		decode(t, body, &diag)
		if diag.Stats.Leaves != 2 || diag.Stats.ResolvedLeaves != 2 {
			t.Errorf("Stats = %+v", diag.Stats)
		}
	})

	t.Run("llm calls and usage", func(t *testing.T) {
		resp, body := do(t, "GET", base+"/llmcalls?stage=catalog", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d: %s", resp.StatusCode, body)
		}
		var list endpoints.ListLLMCallsResponse
		decode(t, body, &list)
		if len(list.Calls) != 1 {
			t.Fatalf("catalog calls = %d, want 1", len(list.Calls))
		}
		if c := list.Calls[0]; c.PromptKey != extract_outline.SystemPromptKey || c.PromptHash == "" || !c.Success {
			t.Errorf("call = %+v", c)
		}

		if resp, _ := do(t, "GET", base+"/llmcalls?limit=x", nil); resp.StatusCode != http.StatusBadRequest {
			t.Errorf("bad limit status = %d, want 400", resp.StatusCode)
		}

		resp, body = do(t, "GET", base+"/usage", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d: %s", resp.StatusCode, body)
		}
		var usage metrics.Report
		decode(t, body, &usage)
		if usage.ByStage["catalog"].Count != 1 || usage.ByStage["segment"].Count < 2 {
			t.Errorf("ByStage = %+v", usage.ByStage)
		}
		if usage.Total.Count != int(mock.RequestCount()) {
			t.Errorf("Total.Count = %d, want %d", usage.Total.Count, mock.RequestCount())
		}
	})
}

func TestServer_Errors(t *testing.T) {
	ts, _, _ := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unknown book", "GET", "/api/books/missing", nil, http.StatusNotFound},
		{"invalid book name", "GET", "/api/books/a..b/catalog", nil, http.StatusBadRequest},
		{"unknown provider", "POST", "/api/books/algebra/catalog", endpoints.RunRequest{Provider: "nope"}, http.StatusInternalServerError},
		{"bad run body", "POST", "/api/books/algebra/catalog", "not an object", http.StatusBadRequest},
		{"no mind map", "GET", "/api/books/algebra/mindmap", nil, http.StatusNotFound},
		{"search without index", "GET", "/api/books/algebra/search?q=sums", nil, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, tt.method, ts.URL+tt.path, tt.body)
			if resp.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d: %s", resp.StatusCode, tt.want, body)
			}
			var e endpoints.ErrorResponse
			decode(t, body, &e)
			if e.Error == "" {
				t.Error("error message is empty")
			}
		})
	}
}

func TestServer_Prompts(t *testing.T) {
	ts, h, _ := newTestServer(t)
	base := ts.URL + "/api/books/algebra/prompts"

	list := func() endpoints.BookPromptsListResponse {
		t.Helper()
		resp, body := do(t, "GET", base, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d: %s", resp.StatusCode, body)
		}
		var out endpoints.BookPromptsListResponse
		decode(t, body, &out)
		return out
	}
	isOverride := func(l endpoints.BookPromptsListResponse, key string) bool {
		for _, p := range l.Prompts {
			if p.Key == key {
				return p.IsOverride
			}
		}
		t.Fatalf("prompt %s not listed", key)
		return false
	}

	if got := len(list().Prompts); got != 6 {
		t.Fatalf("prompts = %d, want 6", got)
	}

	resp, body := do(t, "PUT", base+"/"+extract_outline.SystemPromptKey, endpoints.SetPromptRequest{Text: "Return the outline."})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d: %s", resp.StatusCode, body)
	}
	override := filepath.Join(h.BookDir("algebra"), "prompts", extract_outline.SystemPromptKey+".tmpl")
	if _, err := os.Stat(override); err != nil {
		t.Fatalf("override file not written: %v", err)
	}
	if !isOverride(list(), extract_outline.SystemPromptKey) {
		t.Error("override not reported")
	}

	if resp, _ := do(t, "PUT", base+"/no.such.key", endpoints.SetPromptRequest{Text: "x"}); resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown key status = %d, want 404", resp.StatusCode)
	}
	if resp, _ := do(t, "PUT", base+"/"+extract_outline.SystemPromptKey, endpoints.SetPromptRequest{}); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty text status = %d, want 400", resp.StatusCode)
	}

	if resp, _ := do(t, "DELETE", base+"/"+extract_outline.SystemPromptKey, nil); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE status = %d", resp.StatusCode)
	}
	if isOverride(list(), extract_outline.SystemPromptKey) {
		t.Error("override still reported after delete")
	}
}

func TestServer_Settings(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, body := do(t, "GET", ts.URL+"/api/settings", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var settings endpoints.SettingsResponse
	decode(t, body, &settings)
	if settings.Config == nil || settings.Config.Catalog.PagesForCatalog != 30 {
		t.Errorf("Config = %+v", settings.Config)
	}
	if key := settings.Config.LLMProviders["dashscope"].APIKey; key != "${DASHSCOPE_API_KEY}" {
		t.Errorf("env reference should be shown as-is, got %q", key)
	}
}

func TestServer_StaticAndSwagger(t *testing.T) {
	ts, _, _ := newTestServer(t)

	for _, path := range []string{"/", "/books/algebra"} {
		resp, body := do(t, "GET", ts.URL+path, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s status = %d", path, resp.StatusCode)
		}
		if !strings.Contains(string(body), "<title>Primer</title>") {
			t.Errorf("%s did not serve index.html", path)
		}
	}

	resp, body := do(t, "GET", ts.URL+"/swagger.json", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("swagger.json status = %d: %s", resp.StatusCode, body)
	}
	var spec map[string]any
	decode(t, body, &spec)
	if _, ok := spec["paths"]; !ok {
		t.Error("swagger spec has no paths")
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestServer_StartShutdown(t *testing.T) {
	h, err := home.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	port := freePort(t)
	srv, err := New(Config{Home: h, Port: port, Registry: providers.NewRegistry(), Logger: slog.New(slog.DiscardHandler)})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	url := fmt.Sprintf("http://127.0.0.1:%d/health", port)
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			break
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("server did not start: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}
	if !srv.IsRunning() {
		t.Error("IsRunning() = false while serving")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	if srv.IsRunning() {
		t.Error("IsRunning() = true after shutdown")
	}
}

func TestNew_RequiresHome(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("New() without home should fail")
	}
}
