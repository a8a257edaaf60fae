// Package catalog holds the textbook outline tree and the logic that binds
// printed page numbers to physical page files.
package catalog

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Node is one entry of a textbook outline.
// A node without children is a leaf.
type Node struct {
	Title            string `json:"title"`
	PrintedPageStart *int   `json:"printed_page_start"`
	PrintedPageEnd   *int   `json:"printed_page_end"`

	// Physical page file keys. Nil until reconciled.
	ActualStartingPage *string `json:"actual_starting_page"`
	ActualEndingPage   *string `json:"actual_ending_page"`

	Children []*Node `json:"children"`

	// Set by segment extraction on leaves.
	KnowledgePoints []string `json:"knowledge_points,omitempty"`

	// Diagnostics collected during reconciliation. Root only.
	Errors []Diagnostic `json:"_errors,omitempty"`
}

// nodeJSON breaks the MarshalJSON recursion.
type nodeJSON Node

// MarshalJSON always emits children as an array so leaves serialize as [].
// Knowledge points are omitted only when never set; a segmented leaf with
// nothing extracted serializes as [].
func (n Node) MarshalJSON() ([]byte, error) {
	out := struct {
		nodeJSON
		KnowledgePoints *[]string `json:"knowledge_points,omitempty"`
	}{nodeJSON: nodeJSON(n)}
	if out.Children == nil {
		out.Children = []*Node{}
	}
	if n.KnowledgePoints != nil {
		out.KnowledgePoints = &n.KnowledgePoints
	}
	return json.Marshal(out)
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Resolved reports whether both physical page keys are set.
func (n *Node) Resolved() bool {
	return n.ActualStartingPage != nil && n.ActualEndingPage != nil
}

// Clone returns a deep copy of the subtree rooted at n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	cp := &Node{
		Title:              n.Title,
		PrintedPageStart:   cloneInt(n.PrintedPageStart),
		PrintedPageEnd:     cloneInt(n.PrintedPageEnd),
		ActualStartingPage: cloneString(n.ActualStartingPage),
		ActualEndingPage:   cloneString(n.ActualEndingPage),
	}
	if n.KnowledgePoints != nil {
		cp.KnowledgePoints = append([]string{}, n.KnowledgePoints...)
	}
	if n.Errors != nil {
		cp.Errors = append([]Diagnostic{}, n.Errors...)
	}
	if len(n.Children) > 0 {
		cp.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			cp.Children[i] = c.Clone()
		}
	}
	return cp
}

// Leaf builds a leaf with the given printed range.
func Leaf(title string, start, end int) *Node {
	return &Node{Title: title, PrintedPageStart: &start, PrintedPageEnd: &end}
}

// Section builds an internal node with the given children.
func Section(title string, children ...*Node) *Node {
	return &Node{Title: title, Children: children}
}

// Diagnostic is a problem found while reconciling one node.
type Diagnostic struct {
	NodePath string `json:"node_path"`
	Kind     Kind   `json:"kind"`
	Message  string `json:"message"`
}

// Kind classifies a diagnostic.
type Kind string

const (
	KindPageOutOfBounds     Kind = "PageOutOfBounds"
	KindInvertedRange       Kind = "InvertedRange"
	KindMissingPrintedPage  Kind = "MissingPrintedPage"
	KindMonotonicityWarning Kind = "MonotonicityWarning"
	KindPageGap             Kind = "PageGap"
	KindAnchorUnverified    Kind = "AnchorUnverified"
)

// IsWarning reports whether the kind is advisory. Warnings never null out
// a node's page fields.
func (k Kind) IsWarning() bool {
	switch k {
	case KindMonotonicityWarning, KindPageGap, KindAnchorUnverified:
		return true
	default:
		return false
	}
}

// ChildPath returns the dotted 1-based path of the i-th (0-based) child of
// the node at parent. The root path is "".
func ChildPath(parent string, i int) string {
	idx := strconv.Itoa(i + 1)
	if parent == "" {
		return idx
	}
	return parent + "." + idx
}

// Find returns the node at a dotted 1-based path.
func Find(root *Node, path string) (*Node, bool) {
	if root == nil {
		return nil, false
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return root, true
	}
	n := root
	for _, part := range strings.Split(path, ".") {
		i, err := strconv.Atoi(part)
		if err != nil || i < 1 || i > len(n.Children) {
			return nil, false
		}
		n = n.Children[i-1]
	}
	return n, true
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
