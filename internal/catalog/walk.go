package catalog

import "errors"

// SkipChildren can be returned from a WalkFunc to skip a node's subtree.
var SkipChildren = errors.New("skip children")

// WalkFunc is called for every node in pre-order.
type WalkFunc func(path string, n *Node) error

// Walk visits root and its descendants depth-first in document order.
func Walk(root *Node, fn WalkFunc) error {
	if root == nil {
		return nil
	}
	err := walk(root, "", fn)
	if errors.Is(err, SkipChildren) {
		return nil
	}
	return err
}

func walk(n *Node, path string, fn WalkFunc) error {
	if err := fn(path, n); err != nil {
		return err
	}
	for i, c := range n.Children {
		err := walk(c, ChildPath(path, i), fn)
		if errors.Is(err, SkipChildren) {
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// PathNode pairs a node with its dotted path.
type PathNode struct {
	Path string
	Node *Node
}

// Leaves returns all leaves in document order.
func Leaves(root *Node) []PathNode {
	var out []PathNode
	_ = Walk(root, func(path string, n *Node) error {
		if n.IsLeaf() {
			out = append(out, PathNode{Path: path, Node: n})
		}
		return nil
	})
	return out
}

// FirstLeaf returns the first leaf in document order.
func FirstLeaf(root *Node) (PathNode, bool) {
	leaves := Leaves(root)
	if len(leaves) == 0 {
		return PathNode{}, false
	}
	return leaves[0], true
}

// Stats summarizes a catalog.
type Stats struct {
	Nodes          int `json:"nodes" yaml:"nodes"`
	Leaves         int `json:"leaves" yaml:"leaves"`
	ResolvedLeaves int `json:"resolved_leaves" yaml:"resolved_leaves"`
	Errors         int `json:"errors" yaml:"errors"`
	Warnings       int `json:"warnings" yaml:"warnings"`
}

// Summarize counts nodes, leaves and diagnostics.
func Summarize(root *Node) Stats {
	var s Stats
	_ = Walk(root, func(_ string, n *Node) error {
		s.Nodes++
		if n.IsLeaf() {
			s.Leaves++
			if n.Resolved() {
				s.ResolvedLeaves++
			}
		}
		return nil
	})
	if root != nil {
		for _, d := range root.Errors {
			if d.Kind.IsWarning() {
				s.Warnings++
			} else {
				s.Errors++
			}
		}
	}
	return s
}
