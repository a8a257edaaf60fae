package prompts

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// validKeyPattern matches valid prompt keys (alphanumeric with dots, underscores).
var validKeyPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9._]*$`)

const (
	overrideDir = "prompts"
	overrideExt = ".tmpl"
)

// Store reads and writes book-level prompt overrides as files under
// <book dir>/prompts/<key>.tmpl.
type Store struct {
	bookDir func(book string) string
	logger  *slog.Logger
}

// NewStore creates a new prompt store. bookDir maps a book name to its
// directory.
func NewStore(bookDir func(book string) string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{bookDir: bookDir, logger: logger}
}

func (s *Store) overridePath(book, key string) (string, error) {
	if !validKeyPattern.MatchString(key) {
		return "", fmt.Errorf("invalid prompt key: %s", key)
	}
	if book == "" {
		return "", fmt.Errorf("book name is required")
	}
	return filepath.Join(s.bookDir(book), overrideDir, key+overrideExt), nil
}

// GetBookOverride retrieves a book-specific prompt override.
// Returns nil, nil when the book has no override for key.
func (s *Store) GetBookOverride(book, key string) (*BookPromptOverride, error) {
	path, err := s.overridePath(book, key)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat override: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read override: %w", err)
	}
	return &BookPromptOverride{
		Book:      book,
		PromptKey: key,
		Text:      string(data),
		Path:      path,
		UpdatedAt: info.ModTime(),
	}, nil
}

// ListBookOverrides retrieves all prompt overrides for a book, sorted by key.
func (s *Store) ListBookOverrides(book string) ([]BookPromptOverride, error) {
	dir := filepath.Join(s.bookDir(book), overrideDir)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list overrides: %w", err)
	}

	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, overrideExt) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, overrideExt))
	}
	sort.Strings(keys)

	overrides := make([]BookPromptOverride, 0, len(keys))
	for _, key := range keys {
		o, err := s.GetBookOverride(book, key)
		if err != nil {
			s.logger.Warn("skipping unreadable prompt override", "book", book, "key", key, "error", err)
			continue
		}
		if o != nil {
			overrides = append(overrides, *o)
		}
	}
	return overrides, nil
}

// SetBookOverride creates or replaces a book-specific prompt override.
func (s *Store) SetBookOverride(book, key, text string) error {
	path, err := s.overridePath(book, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create prompts directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write override: %w", err)
	}
	s.logger.Debug("set prompt override", "book", book, "key", key)
	return nil
}

// ClearBookOverride removes a book-specific prompt override.
func (s *Store) ClearBookOverride(book, key string) error {
	path, err := s.overridePath(book, key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove override: %w", err)
	}
	return nil
}
