package catalog

import (
	"fmt"
	"strings"
	"unicode"
)

// PageReader reads physical page text.
type PageReader interface {
	MaxPhysicalPage() int
	ReadPage(page int) (string, error)
}

// AnchorCheck is the outcome of VerifyAnchor.
type AnchorCheck struct {
	Title    string `json:"title"`
	Page     int    `json:"page"`
	Verified bool   `json:"verified"`
	// FoundAt is the nearby page containing the title when the anchor page
	// does not. Zero if the title was not found.
	FoundAt int `json:"found_at,omitempty"`
}

// VerifyAnchor checks that the first leaf's title appears on the anchor's
// physical page, searching up to radius pages either side when it does not.
// It never changes the anchor.
func VerifyAnchor(pages PageReader, root *Node, a Anchor, radius int) (AnchorCheck, error) {
	first, ok := FirstLeaf(root)
	if !ok {
		return AnchorCheck{}, ErrEmptyOutline
	}
	check := AnchorCheck{Title: first.Node.Title, Page: a.FirstLeafActualFilePage}

	found, err := pageContains(pages, check.Page, check.Title)
	if err != nil {
		return check, err
	}
	if found {
		check.Verified = true
		return check, nil
	}

	for d := 1; d <= radius; d++ {
		for _, p := range []int{check.Page + d, check.Page - d} {
			found, err := pageContains(pages, p, check.Title)
			if err != nil {
				return check, err
			}
			if found {
				check.FoundAt = p
				return check, nil
			}
		}
	}
	return check, nil
}

// Diagnostic returns an AnchorUnverified warning, or nil if verified.
func (c AnchorCheck) Diagnostic() *Diagnostic {
	if c.Verified {
		return nil
	}
	msg := fmt.Sprintf("first leaf %q not found on anchor page %d", c.Title, c.Page)
	if c.FoundAt > 0 {
		msg += fmt.Sprintf("; it appears on page %d", c.FoundAt)
	}
	return &Diagnostic{NodePath: "", Kind: KindAnchorUnverified, Message: msg}
}

func pageContains(pages PageReader, page int, title string) (bool, error) {
	if page < 1 || page > pages.MaxPhysicalPage() {
		return false, nil
	}
	text, err := pages.ReadPage(page)
	if err != nil {
		return false, fmt.Errorf("read page %d: %w", page, err)
	}
	return containsFuzzy(text, title), nil
}

// containsFuzzy matches ignoring case and all whitespace, since OCR output
// breaks headings across lines and inserts stray spaces.
func containsFuzzy(text, title string) bool {
	t := squash(title)
	if t == "" {
		return false
	}
	return strings.Contains(squash(text), t)
}

func squash(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
}
