package home

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("with explicit path", func(t *testing.T) {
		dir, err := New("/tmp/test-primer")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dir.Path() != "/tmp/test-primer" {
			t.Errorf("expected path /tmp/test-primer, got %s", dir.Path())
		}
	})

	t.Run("with empty path uses default", func(t *testing.T) {
		dir, err := New("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		home, _ := os.UserHomeDir()
		expected := filepath.Join(home, DefaultDirName)
		if dir.Path() != expected {
			t.Errorf("expected path %s, got %s", expected, dir.Path())
		}
	})
}

func TestDir_Paths(t *testing.T) {
	dir, _ := New("/tmp/test-primer")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"UploadsPath", dir.UploadsPath(), "/tmp/test-primer/uploads"},
		{"ConfigPath", dir.ConfigPath(), "/tmp/test-primer/config.yaml"},
		{"BookDir", dir.BookDir("algebra"), "/tmp/test-primer/uploads/algebra_dir"},
		{"TextDir", dir.TextDir("algebra"), "/tmp/test-primer/uploads/algebra_dir/text_dir"},
		{"CatalogPath", dir.CatalogPath("algebra"), "/tmp/test-primer/uploads/algebra_dir/catalog.json"},
		{"SegmentsPath", dir.SegmentsPath("algebra"), "/tmp/test-primer/uploads/algebra_dir/catalog_with_segments.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, tt.got)
			}
		})
	}
}

func TestDir_WithLayout(t *testing.T) {
	dir, _ := New("/tmp/test-primer")
	custom := dir.WithLayout(Layout{TextDir: "ocr"})

	if got := custom.TextDir("b"); got != "/tmp/test-primer/uploads/b_dir/ocr" {
		t.Errorf("TextDir = %s", got)
	}
	if got := custom.CatalogPath("b"); got != "/tmp/test-primer/uploads/b_dir/catalog.json" {
		t.Errorf("CatalogPath should keep default, got %s", got)
	}
	if got := custom.MindmapPath("b"); got != "/tmp/test-primer/uploads/b_dir/mindmap.mmd" {
		t.Errorf("MindmapPath = %s", got)
	}
	if got := custom.LeafMindmapsPath("b"); got != "/tmp/test-primer/uploads/b_dir/mindmap_leaves.json" {
		t.Errorf("LeafMindmapsPath = %s", got)
	}
	if got := custom.IndexPath("b"); got != "/tmp/test-primer/uploads/b_dir/knowledge_index.json" {
		t.Errorf("IndexPath = %s", got)
	}
	if dir.TextDir("b") != "/tmp/test-primer/uploads/b_dir/text_dir" {
		t.Error("WithLayout modified the original")
	}
}

func TestDir_EnsureExists(t *testing.T) {
	dir, err := New(filepath.Join(t.TempDir(), "primer-test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if dir.Exists() {
		t.Error("directory should not exist before EnsureExists")
	}
	if err := dir.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists failed: %v", err)
	}
	if !dir.Exists() {
		t.Error("directory should exist after EnsureExists")
	}
	if _, err := os.Stat(dir.UploadsPath()); os.IsNotExist(err) {
		t.Error("uploads directory should exist after EnsureExists")
	}
	if dir.ConfigExists() {
		t.Error("config should not exist yet")
	}
}

func TestDir_Books(t *testing.T) {
	dir, _ := New(t.TempDir())

	books, err := dir.ListBooks()
	if err != nil || len(books) != 0 {
		t.Fatalf("ListBooks() on missing uploads = %v, %v", books, err)
	}

	for _, name := range []string{"geometry", "algebra"} {
		if err := dir.EnsureBookDir(name); err != nil {
			t.Fatalf("EnsureBookDir(%s) error = %v", name, err)
		}
	}
	// Noise that is not a book.
	os.WriteFile(filepath.Join(dir.UploadsPath(), "stray_dir"), nil, 0o644)
	os.Mkdir(filepath.Join(dir.UploadsPath(), "other"), 0o755)

	books, err = dir.ListBooks()
	if err != nil {
		t.Fatalf("ListBooks() error = %v", err)
	}
	if !reflect.DeepEqual(books, []string{"algebra", "geometry"}) {
		t.Errorf("ListBooks() = %v", books)
	}
	if !dir.BookExists("algebra") || dir.BookExists("calculus") {
		t.Error("BookExists mismatch")
	}
	if _, err := os.Stat(dir.TextDir("algebra")); err != nil {
		t.Errorf("text dir not created: %v", err)
	}
}

func TestValidateBookName(t *testing.T) {
	for _, name := range []string{"", ".", "..", "a/b", `a\b`, "../x"} {
		if err := ValidateBookName(name); !errors.Is(err, ErrInvalidBookName) {
			t.Errorf("ValidateBookName(%q) = %v, want ErrInvalidBookName", name, err)
		}
	}
	if err := ValidateBookName("linear-algebra_2e"); err != nil {
		t.Errorf("ValidateBookName() error = %v", err)
	}
}
