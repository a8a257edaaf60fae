// Package prompts provides prompt management with embedded defaults and
// book-level overrides.
//
// Each prompt package (extract_outline, segment) registers its embedded
// default text under a hierarchical key. A book can override any key by
// placing a file named <key>.tmpl in its prompts directory.
//
// Resolution order for a specific book:
//  1. Book override file (if it exists)
//  2. Embedded default
//
// Prompt text is a Go text/template; Render executes it with caller data.
package prompts

import (
	"time"
)

// BookPromptOverride represents a per-book prompt customization.
type BookPromptOverride struct {
	Book      string    `json:"book"`
	PromptKey string    `json:"prompt_key"`
	Text      string    `json:"text"`
	Path      string    `json:"path"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ResolvedPrompt is the result of resolving a prompt for a specific book.
type ResolvedPrompt struct {
	Key        string   `json:"key"`
	Text       string   `json:"text"`
	Variables  []string `json:"variables,omitempty"`
	IsOverride bool     `json:"is_override"`
	Hash       string   `json:"hash"` // SHA256 of Text, recorded with outputs for traceability
}

// EmbeddedPrompt represents a prompt compiled into the binary.
type EmbeddedPrompt struct {
	Key         string   // Hierarchical key: catalog.extract_outline.system
	Text        string   // The prompt text (Go template)
	Description string   // Human-readable description
	Variables   []string // Extracted template variables
	Hash        string   // SHA256 hash of the text for change detection
}
