package catalog

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
)

type memPages map[int]string

func (m memPages) MaxPhysicalPage() int {
	max := 0
	for p := range m {
		if p > max {
			max = p
		}
	}
	return max
}

func (m memPages) ReadPage(page int) (string, error) {
	text, ok := m[page]
	if !ok {
		return "", fmt.Errorf("page %d missing", page)
	}
	return text, nil
}

func TestRoundTrip(t *testing.T) {
	root := Section("微积分",
		Section("第一章 函数与极限",
			Leaf("第一节 映射与函数", 1, 12),
			Leaf("第二节 数列的极限", 13, 20),
		),
		Leaf("附录 <A & B>", 300, 320),
	)
	rec, err := Reconcile(root, 8, 200)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "book_dir", "catalog.json")
	if err := Save(path, rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	var want, got []string
	describe := func(dst *[]string) WalkFunc {
		return func(p string, n *Node) error {
			s, e := "<nil>", "<nil>"
			if n.ActualStartingPage != nil {
				s = *n.ActualStartingPage
			}
			if n.ActualEndingPage != nil {
				e = *n.ActualEndingPage
			}
			*dst = append(*dst, fmt.Sprintf("%s|%s|%s|%s", p, n.Title, s, e))
			return nil
		}
	}
	_ = Walk(rec, describe(&want))
	_ = Walk(loaded, describe(&got))

	if len(want) != len(got) {
		t.Fatalf("node count = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if want[i] != got[i] {
			t.Errorf("node %d = %s, want %s", i, got[i], want[i])
		}
	}
	if len(loaded.Errors) != len(rec.Errors) {
		t.Errorf("len(_errors) = %d, want %d", len(loaded.Errors), len(rec.Errors))
	}
}

func TestMarshal_Shape(t *testing.T) {
	rec, err := Reconcile(Section("Book", Leaf("a", 1, 2), Leaf("b", 50, 60)), 0, 10)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	data, err := Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	s := string(data)

	for _, want := range []string{
		`"children": []`,
		`"printed_page_start": null`,
		`"actual_ending_page": null`,
		`"_errors": [`,
		`"node_path": "2"`,
		`"kind": "PageOutOfBounds"`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("encoded catalog missing %s:\n%s", want, s)
		}
	}
	if strings.Count(s, `"_errors"`) != 1 {
		t.Errorf("_errors should only appear on the root:\n%s", s)
	}
	if strings.Contains(s, "knowledge_points") {
		t.Errorf("knowledge_points should be omitted when unset:\n%s", s)
	}
}

func TestMarshal_KnowledgePoints(t *testing.T) {
	root := Section("Book", Leaf("empty", 1, 1), Leaf("full", 2, 2))
	root.Children[0].KnowledgePoints = []string{}
	root.Children[1].KnowledgePoints = []string{"a point"}

	data, err := Marshal(root)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	s := string(data)
	if !strings.Contains(s, `"knowledge_points": []`) || !strings.Contains(s, `"a point"`) {
		t.Errorf("knowledge points not encoded:\n%s", s)
	}

	back, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if kp := back.Children[0].KnowledgePoints; kp == nil || len(kp) != 0 {
		t.Errorf("empty knowledge points should survive a round trip, got %#v", kp)
	}
}

func TestWalkAndFind(t *testing.T) {
	root := Section("Book",
		Section("Ch1", Leaf("a", 1, 2), Leaf("b", 3, 4)),
		Leaf("c", 5, 6),
	)

	var paths []string
	err := Walk(root, func(p string, n *Node) error {
		paths = append(paths, p)
		if n.Title == "Ch1" {
			return SkipChildren
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	if got := strings.Join(paths, ","); got != ",1,2" {
		t.Errorf("paths = %q, want %q", got, ",1,2")
	}

	leaves := Leaves(root)
	if len(leaves) != 3 || leaves[1].Path != "1.2" || leaves[2].Node.Title != "c" {
		t.Errorf("Leaves() = %+v", leaves)
	}

	n, ok := Find(root, "1.2")
	if !ok || n.Title != "b" {
		t.Errorf("Find(1.2) = %v, %v", n, ok)
	}
	for _, bad := range []string{"3", "1.0", "x", "1.2.1"} {
		if _, ok := Find(root, bad); ok {
			t.Errorf("Find(%q) should fail", bad)
		}
	}

	stop := errors.New("stop")
	if err := Walk(root, func(string, *Node) error { return stop }); !errors.Is(err, stop) {
		t.Errorf("Walk() error = %v, want stop", err)
	}
}

func TestChildPath(t *testing.T) {
	tests := []struct {
		parent string
		i      int
		want   string
	}{
		{"", 0, "1"},
		{"", 2, "3"},
		{"1", 1, "1.2"},
		{"2.3", 0, "2.3.1"},
	}
	for _, tt := range tests {
		if got := ChildPath(tt.parent, tt.i); got != tt.want {
			t.Errorf("ChildPath(%q, %d) = %q, want %q", tt.parent, tt.i, got, tt.want)
		}
	}
}

func TestSummarize(t *testing.T) {
	rec, err := Reconcile(Section("Book", Leaf("a", 1, 5), Leaf("b", 4, 6), Leaf("c", 90, 99)), 0, 10)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	got := Summarize(rec)
	want := Stats{Nodes: 4, Leaves: 3, ResolvedLeaves: 2, Errors: 1, Warnings: 1}
	if got != want {
		t.Errorf("Summarize() = %+v, want %+v", got, want)
	}
}

func TestVerifyAnchor(t *testing.T) {
	root := Section("Book", Section("Chapter 1", Leaf("Sets and  Functions", 1, 4)))
	pages := memPages{
		1: "Contents\nSets and Functions ........ 1",
		2: "Preface",
		3: "1.1 SETS AND\nFUNCTIONS\nA set is a collection",
		4: "more text",
	}

	tests := []struct {
		name     string
		page     int
		verified bool
		foundAt  int
	}{
		{"on anchor page", 3, true, 0},
		{"next page", 2, false, 3},
		{"not nearby", 4, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Anchor{FirstLeafPrintedPage: 1, FirstLeafActualFilePage: tt.page}
			radius := 1
			if tt.name == "not nearby" {
				radius = 0
			}
			check, err := VerifyAnchor(pages, root, a, radius)
			if err != nil {
				t.Fatalf("VerifyAnchor() error = %v", err)
			}
			if check.Verified != tt.verified || check.FoundAt != tt.foundAt {
				t.Errorf("VerifyAnchor() = %+v, want verified=%v foundAt=%d", check, tt.verified, tt.foundAt)
			}
			d := check.Diagnostic()
			if tt.verified && d != nil {
				t.Errorf("verified anchor should have no diagnostic, got %+v", d)
			}
			if !tt.verified && (d == nil || d.Kind != KindAnchorUnverified || !d.Kind.IsWarning()) {
				t.Errorf("Diagnostic() = %+v, want AnchorUnverified warning", d)
			}
		})
	}
}

func TestMarkdownAndHTML(t *testing.T) {
	rec, err := Reconcile(Section("Book", Section("Ch1", Leaf("Intro", 1, 2))), 2, 10)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	md := Markdown(rec)
	for _, want := range []string{"# Book", "- **Ch1**", "  - **Intro** (pp. 1-2, `page0003`..`page0004`)"} {
		if !strings.Contains(md, want) {
			t.Errorf("Markdown() missing %q:\n%s", want, md)
		}
	}

	html, err := HTML(rec)
	if err != nil {
		t.Fatalf("HTML() error = %v", err)
	}
	if !strings.Contains(string(html), "<h1>Book</h1>") || !strings.Contains(string(html), "<strong>Intro</strong>") {
		t.Errorf("HTML() = %s", html)
	}
}
