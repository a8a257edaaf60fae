package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"testing"

	"github.com/jackzampolin/primer/internal/catalog"
	"github.com/jackzampolin/primer/internal/providers"
)

var vectors = map[string][]float32{
	"A set is a collection.": {1, 0, 0},
	"A map relates sets.":    {0, 1, 0},
	"Maps compose.":          {0, 1, 1},
	"collection":             {1, 0.1, 0},
	"composition of maps":    {0, 0.2, 1},
}

func fixedEmbedder(calls *[]int) func(texts []string) ([][]float32, error) {
	return func(texts []string) ([][]float32, error) {
		if calls != nil {
			*calls = append(*calls, len(texts))
		}
		out := make([][]float32, len(texts))
		for i, t := range texts {
			v, ok := vectors[t]
			if !ok {
				return nil, fmt.Errorf("no vector for %q", t)
			}
			out[i] = v
		}
		return out, nil
	}
}

func segmented() *catalog.Node {
	sets := catalog.Leaf("Sets", 1, 2)
	sets.KnowledgePoints = []string{"A set is a collection.", "  "}
	maps := catalog.Leaf("Maps", 3, 4)
	maps.KnowledgePoints = []string{"A map relates sets.", "Maps compose."}
	again := catalog.Leaf("Review", 5, 5)
	again.KnowledgePoints = []string{"Maps compose."}
	return catalog.Section("Book", catalog.Section("Ch1", sets, maps), again)
}

func TestBuild(t *testing.T) {
	var calls []int
	mock := providers.NewMockClient()
	mock.EmbedHandler = fixedEmbedder(&calls)

	idx, err := Build(context.Background(), mock, segmented(), BuildOptions{Model: "m", BatchSize: 2})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(idx.Entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(idx.Entries))
	}
	want := []struct{ text, path string }{
		{"A set is a collection.", "1.1"},
		{"A map relates sets.", "1.2"},
		{"Maps compose.", "1.2"},
	}
	for i, w := range want {
		e := idx.Entries[i]
		if e.ID != i || e.Text != w.text || e.Path != w.path || len(e.Vector) != 3 {
			t.Errorf("entry %d = %+v, want %s at %s", i, e, w.text, w.path)
		}
	}
	if len(calls) != 2 || calls[0] != 2 || calls[1] != 1 {
		t.Errorf("batches = %v, want [2 1]", calls)
	}
	if idx.Model != "m" || idx.Provider != providers.MockClientName {
		t.Errorf("index metadata = %s/%s", idx.Provider, idx.Model)
	}
}

func TestBuild_Errors(t *testing.T) {
	mock := providers.NewMockClient()
	if _, err := Build(context.Background(), mock, catalog.Section("Book", catalog.Leaf("Empty", 1, 1)), BuildOptions{}); !errors.Is(err, ErrEmptyIndex) {
		t.Errorf("error = %v, want ErrEmptyIndex", err)
	}

	mock.EmbedHandler = func(texts []string) ([][]float32, error) { return [][]float32{{1}}, nil }
	if _, err := Build(context.Background(), mock, segmented(), BuildOptions{}); err == nil {
		t.Error("expected error for vector count mismatch")
	}

	mock.EmbedHandler = nil
	mock.ShouldFail = true
	if _, err := Build(context.Background(), mock, segmented(), BuildOptions{}); err == nil {
		t.Error("expected embedder error")
	}
}

func TestIndex_Search(t *testing.T) {
	mock := providers.NewMockClient()
	mock.EmbedHandler = fixedEmbedder(nil)
	idx, err := Build(context.Background(), mock, segmented(), BuildOptions{})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		query string
		k     int
		top   string
		count int
	}{
		{"collection", 1, "A set is a collection.", 1},
		{"composition of maps", 2, "Maps compose.", 2},
		{"collection", 0, "A set is a collection.", 3},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/k=%d", tt.query, tt.k), func(t *testing.T) {
			hits, err := idx.Search(context.Background(), mock, tt.query, tt.k)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(hits) != tt.count {
				t.Fatalf("hits = %d, want %d", len(hits), tt.count)
			}
			if hits[0].Text != tt.top {
				t.Errorf("top hit = %q, want %q", hits[0].Text, tt.top)
			}
			for i := 1; i < len(hits); i++ {
				if hits[i].Score > hits[i-1].Score {
					t.Errorf("hits not sorted: %+v", hits)
				}
			}
		})
	}

	if _, err := idx.Search(context.Background(), mock, "   ", 1); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("error = %v, want ErrEmptyQuery", err)
	}
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2}, []float32{1, 2}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero", []float32{0, 0}, []float32{1, 0}, 0},
		{"length mismatch", []float32{1}, []float32{1, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Cosine(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Cosine() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSaveLoad(t *testing.T) {
	mock := providers.NewMockClient()
	mock.EmbedHandler = fixedEmbedder(nil)
	idx, err := Build(context.Background(), mock, segmented(), BuildOptions{})
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "book", "knowledge_index.json")
	if err := Save(path, idx); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Entries) != 3 || got.Entries[2].Vector[2] != 1 {
		t.Errorf("loaded index = %+v", got.Entries)
	}
}
