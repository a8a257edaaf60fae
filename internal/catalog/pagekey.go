package catalog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// PageKeyFormat renders physical page indices as page file keys,
// e.g. Prefix "page" and Width 4 give "page0026".
type PageKeyFormat struct {
	Prefix string
	Width  int
}

// DefaultPageKeyFormat matches the OCR output layout.
var DefaultPageKeyFormat = PageKeyFormat{Prefix: "page", Width: 4}

// Key formats a physical page index.
func (f PageKeyFormat) Key(page int) string {
	return fmt.Sprintf("%s%0*d", f.Prefix, f.Width, page)
}

// keyPatterns caches the compiled Parse pattern per prefix.
var keyPatterns sync.Map // string -> *regexp.Regexp

func keyPattern(prefix string) *regexp.Regexp {
	if p, ok := keyPatterns.Load(prefix); ok {
		return p.(*regexp.Regexp)
	}
	p, _ := keyPatterns.LoadOrStore(prefix, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(prefix)+`(\d+)`))
	return p.(*regexp.Regexp)
}

// Parse extracts the page index from a key or file name such as
// "page0009" or "page0009.txt".
func (f PageKeyFormat) Parse(s string) (int, bool) {
	m := keyPattern(f.Prefix).FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
