package mindmap

import (
	"strings"

	"github.com/jackzampolin/primer/internal/catalog"
	"github.com/jackzampolin/primer/internal/prompts/mermaid"
)

const defaultRootTitle = "Book"

// Merge combines leaf mind maps into one map following the catalog tree.
// Sections become branches named by their titles and each leaf's body is
// grafted under its own title. Leaves without a map appear as bare titles.
// The root node uses the catalog's title, then fallback.
func Merge(root *catalog.Node, fallback string, leaves []LeafMap) string {
	byPath := make(map[string]string, len(leaves))
	for _, l := range leaves {
		byPath[l.Path] = l.Code
	}

	title := defaultRootTitle
	switch {
	case root != nil && strings.TrimSpace(root.Title) != "":
		title = root.Title
	case strings.TrimSpace(fallback) != "":
		title = fallback
	}

	var b strings.Builder
	b.WriteString("mindmap\n")
	writeLine(&b, 1, "root(("+label(title)+"))")

	_ = catalog.Walk(root, func(path string, n *catalog.Node) error {
		if path == "" {
			return nil
		}
		depth := strings.Count(path, ".") + 2
		writeLine(&b, depth, label(n.Title))
		if !n.IsLeaf() {
			return nil
		}
		for _, line := range mermaid.Body(byPath[path]) {
			writeLine(&b, depth+1, line)
		}
		return nil
	})
	return b.String()
}

func writeLine(b *strings.Builder, depth int, text string) {
	b.WriteString(strings.Repeat("\t", depth))
	b.WriteString(text)
	b.WriteByte('\n')
}

// Bracket characters would otherwise be read as node shapes.
var labelReplacer = strings.NewReplacer("(", " ", ")", " ", "[", " ", "]", " ", "{", " ", "}", " ")

// label makes a title safe as a plain Mermaid node.
func label(title string) string {
	s := strings.Join(strings.Fields(labelReplacer.Replace(title)), " ")
	if s == "" {
		return "Untitled"
	}
	return s
}
