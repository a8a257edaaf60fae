package catalog

import (
	"fmt"
)

// Option configures Reconcile.
type Option func(*reconciler)

// WithPageKey sets the function that turns a physical page index into a
// page file key. Defaults to DefaultPageKeyFormat.Key.
func WithPageKey(fn func(int) string) Option {
	return func(r *reconciler) {
		if fn != nil {
			r.pageKey = fn
		}
	}
}

// Reconcile converts every leaf's printed range into physical page keys
// using a single global offset, aggregates internal nodes from their
// descendants and checks leaf ordering.
//
// The input tree is not modified. Node-level problems are recorded in the
// returned root's Errors and leave that node's actual fields nil; only a
// structurally unusable outline returns an error.
func Reconcile(root *Node, offset, maxPhysicalPage int, opts ...Option) (*Node, error) {
	if root == nil {
		return nil, ErrEmptyOutline
	}
	if err := checkStructure(root); err != nil {
		return nil, err
	}
	if root.IsLeaf() && root.PrintedPageStart == nil && root.PrintedPageEnd == nil {
		return nil, ErrEmptyOutline
	}
	if maxPhysicalPage < 1 {
		return nil, fmt.Errorf("%w: max physical page is %d", ErrNoPages, maxPhysicalPage)
	}

	r := &reconciler{
		offset:  offset,
		maxPage: maxPhysicalPage,
		pageKey: DefaultPageKeyFormat.Key,
	}
	for _, opt := range opts {
		opt(r)
	}

	out, _, _, _ := r.visit(root, "")
	r.checkOrder()
	out.Errors = r.diags
	return out, nil
}

type reconciler struct {
	offset  int
	maxPage int
	pageKey func(int) string

	leaves []leafSpan
	diags  []Diagnostic
}

type leafSpan struct {
	path       string
	title      string
	start, end int
}

// visit returns a reconciled copy of n along with its physical range.
// ok is false when nothing under n resolved.
func (r *reconciler) visit(n *Node, path string) (out *Node, lo, hi int, ok bool) {
	out = &Node{
		Title:            n.Title,
		PrintedPageStart: cloneInt(n.PrintedPageStart),
		PrintedPageEnd:   cloneInt(n.PrintedPageEnd),
	}
	if n.KnowledgePoints != nil {
		out.KnowledgePoints = append([]string{}, n.KnowledgePoints...)
	}

	if n.IsLeaf() {
		lo, hi, ok = r.resolveLeaf(n, path)
		if ok {
			out.ActualStartingPage = r.key(lo)
			out.ActualEndingPage = r.key(hi)
		}
		return out, lo, hi, ok
	}

	out.Children = make([]*Node, 0, len(n.Children))
	for i, child := range n.Children {
		c, clo, chi, cok := r.visit(child, ChildPath(path, i))
		out.Children = append(out.Children, c)
		if !cok {
			continue
		}
		if !ok || clo < lo {
			lo = clo
		}
		if !ok || chi > hi {
			hi = chi
		}
		ok = true
	}
	if ok {
		out.ActualStartingPage = r.key(lo)
		out.ActualEndingPage = r.key(hi)
	}
	return out, lo, hi, ok
}

func (r *reconciler) resolveLeaf(n *Node, path string) (int, int, bool) {
	if n.PrintedPageStart == nil || n.PrintedPageEnd == nil {
		r.addf(path, KindMissingPrintedPage, "leaf %q has no printed page range", n.Title)
		return 0, 0, false
	}

	start := *n.PrintedPageStart + r.offset
	end := *n.PrintedPageEnd + r.offset

	if !r.inBounds(start) || !r.inBounds(end) {
		r.addf(path, KindPageOutOfBounds,
			"leaf %q resolves to physical pages %d-%d, outside [1, %d] (printed %d-%d, offset %d)",
			n.Title, start, end, r.maxPage, *n.PrintedPageStart, *n.PrintedPageEnd, r.offset)
		return 0, 0, false
	}
	if start > end {
		r.addf(path, KindInvertedRange,
			"leaf %q starts on physical page %d after it ends on page %d",
			n.Title, start, end)
		return 0, 0, false
	}

	r.leaves = append(r.leaves, leafSpan{path: path, title: n.Title, start: start, end: end})
	return start, end, true
}

// checkOrder walks resolved leaves in document order and flags overlaps
// and uncovered pages between neighbours.
func (r *reconciler) checkOrder() {
	for i := 1; i < len(r.leaves); i++ {
		prev, next := r.leaves[i-1], r.leaves[i]
		switch {
		case prev.end > next.start:
			r.addf(next.path, KindMonotonicityWarning,
				"leaf %q starts on page %d but previous leaf %q ends on page %d (overlap of %d page(s))",
				next.title, next.start, prev.title, prev.end, prev.end-next.start)
		case next.start > prev.end+1:
			r.addf(next.path, KindPageGap,
				"pages %d-%d between %q and %q are not covered by any leaf",
				prev.end+1, next.start-1, prev.title, next.title)
		}
	}
}

func (r *reconciler) inBounds(page int) bool {
	return page >= 1 && page <= r.maxPage
}

func (r *reconciler) key(page int) *string {
	k := r.pageKey(page)
	return &k
}

func (r *reconciler) addf(path string, kind Kind, format string, args ...any) {
	r.diags = append(r.diags, Diagnostic{
		NodePath: path,
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
	})
}

// checkStructure rejects trees in which a node is reached twice, which
// covers both cycles and nodes shared between parents.
func checkStructure(root *Node) error {
	seen := make(map[*Node]string)
	var walk func(n *Node, path string) error
	walk = func(n *Node, path string) error {
		if n == nil {
			return fmt.Errorf("%w: nil node at %q", ErrMalformedTree, path)
		}
		if first, dup := seen[n]; dup {
			return fmt.Errorf("%w: node %q at %q already appears at %q", ErrMalformedTree, n.Title, path, first)
		}
		seen[n] = path
		for i, c := range n.Children {
			if err := walk(c, ChildPath(path, i)); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(root, "")
}
