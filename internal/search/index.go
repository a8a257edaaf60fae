// Package search embeds the knowledge points of a segmented catalog and
// answers similarity queries over them.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jackzampolin/primer/internal/catalog"
	"github.com/jackzampolin/primer/internal/providers"
)

const (
	defaultBatchSize = 10
	defaultTopK      = 5
)

var (
	// ErrEmptyIndex is returned when there is nothing to index or search.
	ErrEmptyIndex = errors.New("no knowledge points to index")
	// ErrEmptyQuery is returned for a blank query.
	ErrEmptyQuery = errors.New("empty query")
)

// Entry is one indexed knowledge point.
type Entry struct {
	ID     int       `json:"id"`
	Text   string    `json:"text"`
	Path   string    `json:"path"`
	Title  string    `json:"title"`
	Vector []float32 `json:"vector"`
}

// Index holds embedded knowledge points.
type Index struct {
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
	Entries   []Entry   `json:"entries"`
}

// Hit is a search result.
type Hit struct {
	ID    int     `json:"id"`
	Text  string  `json:"text"`
	Path  string  `json:"path"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// BuildOptions tunes Build.
type BuildOptions struct {
	Model     string
	BatchSize int
}

// Build embeds every distinct knowledge point in root. A point that appears
// under several leaves is indexed once, at its first leaf in document order.
func Build(ctx context.Context, embedder providers.Embedder, root *catalog.Node, opts BuildOptions) (*Index, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}

	seen := make(map[string]bool)
	var entries []Entry
	for _, leaf := range catalog.Leaves(root) {
		for _, p := range leaf.Node.KnowledgePoints {
			p = strings.TrimSpace(p)
			if p == "" || seen[p] {
				continue
			}
			seen[p] = true
			entries = append(entries, Entry{ID: len(entries), Text: p, Path: leaf.Path, Title: leaf.Node.Title})
		}
	}
	if len(entries) == 0 {
		return nil, ErrEmptyIndex
	}

	idx := &Index{Provider: embedder.Name(), Model: opts.Model, CreatedAt: time.Now().UTC(), Entries: entries}
	for start := 0; start < len(entries); start += opts.BatchSize {
		end := min(start+opts.BatchSize, len(entries))
		texts := make([]string, 0, end-start)
		for _, e := range entries[start:end] {
			texts = append(texts, e.Text)
		}
		res, err := embedder.Embed(ctx, &providers.EmbedRequest{Texts: texts, Model: opts.Model})
		if err != nil {
			return nil, fmt.Errorf("embed batch %d-%d: %w", start, end, err)
		}
		if len(res.Vectors) != len(texts) {
			return nil, fmt.Errorf("embed batch %d-%d: got %d vectors for %d texts", start, end, len(res.Vectors), len(texts))
		}
		for i, v := range res.Vectors {
			entries[start+i].Vector = v
		}
		if idx.Model == "" {
			idx.Model = res.ModelUsed
		}
	}
	return idx, nil
}

// Search embeds query and returns the k entries with the highest cosine
// similarity, best first. k <= 0 uses the default.
func (idx *Index) Search(ctx context.Context, embedder providers.Embedder, query string, k int) ([]Hit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if len(idx.Entries) == 0 {
		return nil, ErrEmptyIndex
	}
	res, err := embedder.Embed(ctx, &providers.EmbedRequest{Texts: []string{query}, Model: idx.Model})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(res.Vectors) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors", len(res.Vectors))
	}
	return idx.Nearest(res.Vectors[0], k), nil
}

// Nearest ranks entries by cosine similarity to vec.
func (idx *Index) Nearest(vec []float32, k int) []Hit {
	if k <= 0 {
		k = defaultTopK
	}
	hits := make([]Hit, 0, len(idx.Entries))
	for _, e := range idx.Entries {
		hits = append(hits, Hit{ID: e.ID, Text: e.Text, Path: e.Path, Title: e.Title, Score: Cosine(vec, e.Vector)})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// Cosine returns the cosine similarity of a and b, or 0 when either is a
// zero vector or their lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Save writes the index as JSON.
func Save(path string, idx *Index) error {
	data, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("failed to encode index: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}
	return nil
}

// Load reads an index written by Save.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("failed to decode index: %w", err)
	}
	return &idx, nil
}
