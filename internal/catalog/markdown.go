package catalog

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
)

// Markdown renders the catalog as a nested list with printed and physical
// ranges, followed by its diagnostics.
func Markdown(root *Node) string {
	var b strings.Builder
	if root == nil {
		return ""
	}
	title := root.Title
	if title == "" {
		title = "Catalog"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	var write func(n *Node, depth int)
	write = func(n *Node, depth int) {
		for _, c := range n.Children {
			fmt.Fprintf(&b, "%s- **%s**%s\n", strings.Repeat("  ", depth), c.Title, rangeLabel(c))
			write(c, depth+1)
		}
	}
	if root.IsLeaf() {
		fmt.Fprintf(&b, "- **%s**%s\n", title, rangeLabel(root))
	} else {
		write(root, 0)
	}

	if len(root.Errors) > 0 {
		b.WriteString("\n## Diagnostics\n\n")
		for _, d := range root.Errors {
			path := d.NodePath
			if path == "" {
				path = "root"
			}
			fmt.Fprintf(&b, "- `%s` %s: %s\n", path, d.Kind, d.Message)
		}
	}
	return b.String()
}

// HTML renders the Markdown form of the catalog.
func HTML(root *Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(Markdown(root)), &buf); err != nil {
		return nil, fmt.Errorf("failed to render catalog: %w", err)
	}
	return buf.Bytes(), nil
}

func rangeLabel(n *Node) string {
	var parts []string
	if n.PrintedPageStart != nil && n.PrintedPageEnd != nil {
		parts = append(parts, fmt.Sprintf("pp. %d-%d", *n.PrintedPageStart, *n.PrintedPageEnd))
	}
	if n.Resolved() {
		parts = append(parts, fmt.Sprintf("`%s`..`%s`", *n.ActualStartingPage, *n.ActualEndingPage))
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}
