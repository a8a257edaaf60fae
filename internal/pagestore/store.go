// Package pagestore provides read access to per-page text files produced
// by OCR or PDF text extraction.
package pagestore

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/jackzampolin/primer/internal/catalog"
)

// DefaultExt is the page text file extension.
const DefaultExt = ".txt"

// ErrPageNotFound is returned for page indices with no text file.
var ErrPageNotFound = errors.New("page not found")

// Store is a directory of page text files named <prefix><index><ext>,
// e.g. page0001.txt.
type Store struct {
	dir    string
	format catalog.PageKeyFormat
	ext    string

	// page index -> file name
	files map[int]string
	order []int
	// files skipped because another file has the same page index
	duplicates []string
}

// Page is one page of text with its file name.
type Page struct {
	Number int
	Name   string
	Text   string
	Err    error
}

// PromptBlock renders the page the way the outline prompt expects.
func (p Page) PromptBlock() string {
	if p.Err != nil {
		return fmt.Sprintf("--- page text from %s ---\n[error: could not read page]", p.Name)
	}
	return fmt.Sprintf("--- page text from %s ---\n%s", p.Name, p.Text)
}

// Open indexes the page files in dir. When several files share a page
// index (page0001.txt, page00001.txt, PAGE0001.TXT) only one is kept,
// preferring the exact key name.
func Open(dir string, format catalog.PageKeyFormat, ext string) (*Store, error) {
	if ext == "" {
		ext = DefaultExt
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read text directory: %w", err)
	}

	pattern := regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(format.Prefix) + `(\d+)` + regexp.QuoteMeta(ext) + `$`)
	s := &Store{
		dir:    dir,
		format: format,
		ext:    ext,
		files:  make(map[int]string),
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := pattern.FindStringSubmatch(entry.Name())
		if m == nil || len(m[1]) < format.Width {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			continue
		}
		name := entry.Name()
		if prev, ok := s.files[n]; ok {
			if name == format.Key(n)+ext {
				name, prev = prev, name
				s.files[n] = prev
			}
			s.duplicates = append(s.duplicates, name)
			slog.Default().Warn("duplicate page file ignored", "dir", dir, "page", n, "file", name, "kept", s.files[n])
			continue
		}
		s.files[n] = name
		s.order = append(s.order, n)
	}
	sort.Ints(s.order)
	return s, nil
}

// Duplicates returns the file names ignored because their page index was
// already taken.
func (s *Store) Duplicates() []string { return s.duplicates }

// Dir returns the directory the store reads from.
func (s *Store) Dir() string { return s.dir }

// Len returns the number of page files.
func (s *Store) Len() int { return len(s.order) }

// MaxPhysicalPage returns the highest page index present, or 0 if empty.
func (s *Store) MaxPhysicalPage() int {
	if len(s.order) == 0 {
		return 0
	}
	return s.order[len(s.order)-1]
}

// PageFileKey returns the key for a physical page index.
func (s *Store) PageFileKey(page int) string {
	return s.format.Key(page)
}

// Missing returns page indices between 1 and MaxPhysicalPage with no file.
func (s *Store) Missing() []int {
	var missing []int
	for i := 1; i <= s.MaxPhysicalPage(); i++ {
		if _, ok := s.files[i]; !ok {
			missing = append(missing, i)
		}
	}
	return missing
}

// ReadPage returns the text of one page.
func (s *Store) ReadPage(page int) (string, error) {
	name, ok := s.files[page]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrPageNotFound, s.format.Key(page))
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	return string(data), nil
}

// FirstPages returns up to n pages in index order. Unreadable pages are
// returned with Err set.
func (s *Store) FirstPages(n int) []Page {
	if n > len(s.order) || n <= 0 {
		n = len(s.order)
	}
	pages := make([]Page, 0, n)
	for _, idx := range s.order[:n] {
		text, err := s.ReadPage(idx)
		pages = append(pages, Page{Number: idx, Name: s.files[idx], Text: text, Err: err})
	}
	return pages
}

// RangeText joins the text of every page from startKey to endKey inclusive.
// An inverted range reads only the start page.
func (s *Store) RangeText(startKey, endKey string) (string, error) {
	start, ok := s.format.Parse(startKey)
	if !ok {
		return "", fmt.Errorf("invalid page key %q", startKey)
	}
	end, ok := s.format.Parse(endKey)
	if !ok {
		return "", fmt.Errorf("invalid page key %q", endKey)
	}
	if _, ok := s.files[start]; !ok {
		return "", fmt.Errorf("%w: %s", ErrPageNotFound, startKey)
	}
	if _, ok := s.files[end]; !ok {
		return "", fmt.Errorf("%w: %s", ErrPageNotFound, endKey)
	}
	if start > end {
		end = start
	}

	var parts []string
	for i := start; i <= end; i++ {
		if _, ok := s.files[i]; !ok {
			continue
		}
		text, err := s.ReadPage(i)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n\n"), nil
}
