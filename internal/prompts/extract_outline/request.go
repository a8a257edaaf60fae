package extract_outline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackzampolin/primer/internal/catalog"
	"github.com/jackzampolin/primer/internal/providers"
)

// Input contains the data needed for an outline extraction request.
type Input struct {
	// PageBlocks are the rendered "--- page text from ... ---" blocks.
	PageBlocks []string

	// Overrides for book-level prompts. Empty uses the embedded default.
	SystemPrompt string
	UserPrompt   string

	Model string
}

// BuildRequest creates the outline extraction chat request.
func BuildRequest(input Input) (*providers.ChatRequest, error) {
	systemPrompt := input.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = SystemPrompt
	}
	userPrompt := input.UserPrompt
	if userPrompt == "" {
		var err error
		userPrompt, err = BuildUserPrompt(input.PageBlocks)
		if err != nil {
			return nil, err
		}
	}

	return &providers.ChatRequest{
		Messages: []providers.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Model:          input.Model,
		ResponseFormat: ResponseFormat(),
		Temperature:    0.1,
		MaxTokens:      8192, // long outlines
	}, nil
}

// ResponseFormat requests a JSON object and carries ExtractionSchema for
// local validation. A recursive schema is not accepted by every
// OpenAI-compatible endpoint, so it is not sent as json_schema.
func ResponseFormat() *providers.ResponseFormat {
	jsonSchema, _ := json.Marshal(ExtractionSchema["json_schema"])
	return &providers.ResponseFormat{
		Type:       "json_object",
		JSONSchema: jsonSchema,
	}
}

// Entry is one outline entry as returned by the model.
type Entry struct {
	Index              any           `json:"index,omitempty"`
	Name               string        `json:"name"`
	Type               string        `json:"type"`
	StartingPage       PageNumber    `json:"starting_page"`
	EndingPage         PageNumber    `json:"ending_page"`
	ActualStartingPage string        `json:"actual_starting_page,omitempty"`
	Children           EntryChildren `json:"children"`
}

// Result is the parsed model output.
type Result struct {
	Chapters []Entry `json:"chapters"`
}

// PageNumber is a printed page number that tolerates numeric strings.
// Roman numerals and other non-numeric values decode as absent.
type PageNumber struct {
	Value *int
}

// UnmarshalJSON accepts numbers, numeric strings, null, and empty strings.
func (p *PageNumber) UnmarshalJSON(data []byte) error {
	p.Value = nil
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			p.Value = &n
		}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("page number: %w", err)
	}
	if f != float64(int(f)) {
		return nil
	}
	n := int(f)
	p.Value = &n
	return nil
}

// MarshalJSON emits the number or null.
func (p PageNumber) MarshalJSON() ([]byte, error) {
	if p.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*p.Value)
}

// EntryChildren tolerates "" and null for leaves.
type EntryChildren []Entry

// UnmarshalJSON accepts an array, a single object, a string, or null.
func (c *EntryChildren) UnmarshalJSON(data []byte) error {
	*c = nil
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '[':
		var entries []Entry
		if err := json.Unmarshal(data, &entries); err != nil {
			return err
		}
		*c = entries
	case '{':
		var e Entry
		if err := json.Unmarshal(data, &e); err != nil {
			return err
		}
		*c = EntryChildren{e}
	}
	return nil
}

// ParseResult converts model output into an outline tree and the anchor
// read from the first leaf. format parses actual_starting_page values.
//
// The anchor comes from the first leaf in pre-order. If the model placed
// actual_starting_page on a different entry, the first entry carrying it is
// used together with that entry's starting page.
func ParseResult(raw json.RawMessage, format catalog.PageKeyFormat) (*catalog.Node, catalog.Anchor, error) {
	var result Result
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &result.Chapters); err != nil {
			return nil, catalog.Anchor{}, fmt.Errorf("failed to decode outline: %w", err)
		}
	} else if err := json.Unmarshal(trimmed, &result); err != nil {
		return nil, catalog.Anchor{}, fmt.Errorf("failed to decode outline: %w", err)
	}

	if len(result.Chapters) == 0 {
		return nil, catalog.Anchor{}, fmt.Errorf("%w: model returned no chapters", catalog.ErrEmptyOutline)
	}

	root := &catalog.Node{}
	for _, e := range result.Chapters {
		root.Children = append(root.Children, toNode(e))
	}

	return root, findAnchor(result.Chapters, format), nil
}

func toNode(e Entry) *catalog.Node {
	n := &catalog.Node{
		Title:            strings.TrimSpace(e.Name),
		PrintedPageStart: e.StartingPage.Value,
		PrintedPageEnd:   e.EndingPage.Value,
	}
	for _, c := range e.Children {
		n.Children = append(n.Children, toNode(c))
	}
	return n
}

func findAnchor(entries []Entry, format catalog.PageKeyFormat) catalog.Anchor {
	var anchor catalog.Anchor
	if leaf := firstLeaf(entries); leaf != nil {
		if leaf.StartingPage.Value != nil {
			anchor.FirstLeafPrintedPage = *leaf.StartingPage.Value
		}
		if page, ok := format.Parse(leaf.ActualStartingPage); ok {
			anchor.FirstLeafActualFilePage = page
			return anchor
		}
	}
	if marked := firstMarked(entries); marked != nil && marked.StartingPage.Value != nil {
		if page, ok := format.Parse(marked.ActualStartingPage); ok {
			return catalog.Anchor{
				FirstLeafPrintedPage:    *marked.StartingPage.Value,
				FirstLeafActualFilePage: page,
			}
		}
	}
	return anchor
}

func firstLeaf(entries []Entry) *Entry {
	for i := range entries {
		if len(entries[i].Children) == 0 {
			return &entries[i]
		}
		if leaf := firstLeaf(entries[i].Children); leaf != nil {
			return leaf
		}
	}
	return nil
}

func firstMarked(entries []Entry) *Entry {
	for i := range entries {
		if strings.TrimSpace(entries[i].ActualStartingPage) != "" {
			return &entries[i]
		}
		if m := firstMarked(entries[i].Children); m != nil {
			return m
		}
	}
	return nil
}
