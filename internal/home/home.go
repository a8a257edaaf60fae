package home

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	// DefaultDirName is the default name for the primer home directory.
	DefaultDirName = ".primer"

	// UploadsDirName is the subdirectory holding one directory per book.
	UploadsDirName = "uploads"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"

	// BookDirSuffix is appended to a book name to form its directory.
	BookDirSuffix = "_dir"
)

// ErrInvalidBookName is returned for names that would escape the uploads
// directory.
var ErrInvalidBookName = errors.New("invalid book name")

// Layout names the files inside a book directory.
type Layout struct {
	TextDir          string
	CatalogFile      string
	SegmentsFile     string
	MindmapFile      string
	LeafMindmapsFile string
	IndexFile        string
}

// DefaultLayout matches the OCR pipeline output.
var DefaultLayout = Layout{
	TextDir:          "text_dir",
	CatalogFile:      "catalog.json",
	SegmentsFile:     "catalog_with_segments.json",
	MindmapFile:      "mindmap.mmd",
	LeafMindmapsFile: "mindmap_leaves.json",
	IndexFile:        "knowledge_index.json",
}

// Dir represents the primer home directory structure.
type Dir struct {
	path   string
	layout Layout
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.primer).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path, layout: DefaultLayout}, nil
}

// WithLayout returns a copy of d using layout. Empty fields keep their
// defaults.
func (d *Dir) WithLayout(layout Layout) *Dir {
	if layout.TextDir == "" {
		layout.TextDir = DefaultLayout.TextDir
	}
	if layout.CatalogFile == "" {
		layout.CatalogFile = DefaultLayout.CatalogFile
	}
	if layout.SegmentsFile == "" {
		layout.SegmentsFile = DefaultLayout.SegmentsFile
	}
	if layout.MindmapFile == "" {
		layout.MindmapFile = DefaultLayout.MindmapFile
	}
	if layout.LeafMindmapsFile == "" {
		layout.LeafMindmapsFile = DefaultLayout.LeafMindmapsFile
	}
	if layout.IndexFile == "" {
		layout.IndexFile = DefaultLayout.IndexFile
	}
	return &Dir{path: d.path, layout: layout}
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// Layout returns the book directory layout.
func (d *Dir) Layout() Layout {
	return d.layout
}

// UploadsPath returns the path to the uploads directory.
func (d *Dir) UploadsPath() string {
	return filepath.Join(d.path, UploadsDirName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	if err := os.MkdirAll(d.UploadsPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create uploads directory: %w", err)
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}

// ValidateBookName rejects empty names and names containing path elements.
func ValidateBookName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidBookName, name)
	}
	return nil
}

// BookDir returns the directory for a book: uploads/<name>_dir.
func (d *Dir) BookDir(name string) string {
	return filepath.Join(d.UploadsPath(), name+BookDirSuffix)
}

// TextDir returns the directory of per-page text files for a book.
func (d *Dir) TextDir(name string) string {
	return filepath.Join(d.BookDir(name), d.layout.TextDir)
}

// CatalogPath returns the reconciled catalog file for a book.
func (d *Dir) CatalogPath(name string) string {
	return filepath.Join(d.BookDir(name), d.layout.CatalogFile)
}

// SegmentsPath returns the catalog-with-knowledge-points file for a book.
func (d *Dir) SegmentsPath(name string) string {
	return filepath.Join(d.BookDir(name), d.layout.SegmentsFile)
}

// MindmapPath returns the merged Mermaid mind map for a book.
func (d *Dir) MindmapPath(name string) string {
	return filepath.Join(d.BookDir(name), d.layout.MindmapFile)
}

// LeafMindmapsPath returns the per-leaf mind maps for a book.
func (d *Dir) LeafMindmapsPath(name string) string {
	return filepath.Join(d.BookDir(name), d.layout.LeafMindmapsFile)
}

// IndexPath returns the knowledge point embedding index for a book.
func (d *Dir) IndexPath(name string) string {
	return filepath.Join(d.BookDir(name), d.layout.IndexFile)
}

// EnsureBookDir creates the book and text directories.
func (d *Dir) EnsureBookDir(name string) error {
	if err := ValidateBookName(name); err != nil {
		return err
	}
	return os.MkdirAll(d.TextDir(name), 0o755)
}

// BookExists returns true if the book directory exists.
func (d *Dir) BookExists(name string) bool {
	if ValidateBookName(name) != nil {
		return false
	}
	info, err := os.Stat(d.BookDir(name))
	return err == nil && info.IsDir()
}

// ListBooks returns the names of all book directories, sorted.
// A missing uploads directory yields no books.
func (d *Dir) ListBooks() ([]string, error) {
	entries, err := os.ReadDir(d.UploadsPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}

	var books []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() || !strings.HasSuffix(name, BookDirSuffix) {
			continue
		}
		if book := strings.TrimSuffix(name, BookDirSuffix); book != "" {
			books = append(books, book)
		}
	}
	sort.Strings(books)
	return books, nil
}
