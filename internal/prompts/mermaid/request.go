package mermaid

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackzampolin/primer/internal/prompts"
	"github.com/jackzampolin/primer/internal/providers"
)

// ErrEmptyMindmap is returned when the model produced no mind map body.
var ErrEmptyMindmap = errors.New("empty mind map")

// Input contains the data needed for a mind map request.
type Input struct {
	ChapterID   string
	ChapterName string
	StartKey    string
	EndKey      string
	Content     string

	SystemPrompt       string
	UserPromptTemplate string

	Model string
}

// BuildRequest creates the mind map chat request.
func BuildRequest(input Input) (*providers.ChatRequest, error) {
	systemPrompt := input.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = SystemPrompt
	}
	tmpl := input.UserPromptTemplate
	if tmpl == "" {
		tmpl = UserPromptTemplate
	}
	userPrompt, err := prompts.Render(UserPromptKey, tmpl, UserPromptData{
		ChapterID:   input.ChapterID,
		ChapterName: input.ChapterName,
		StartKey:    input.StartKey,
		EndKey:      input.EndKey,
		Content:     input.Content,
	})
	if err != nil {
		return nil, err
	}

	jsonSchema, _ := json.Marshal(MindmapSchema["json_schema"])
	return &providers.ChatRequest{
		Messages: []providers.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Model:       input.Model,
		Temperature: 0.3,
		MaxTokens:   4096,
		ResponseFormat: &providers.ResponseFormat{
			Type:       "json_object",
			JSONSchema: jsonSchema,
		},
	}, nil
}

// ParseResult decodes the model output and normalises the Mermaid code.
// Models sometimes return the escapes literally ("\\n", "\\t"); those are
// turned into real newlines and tabs.
func ParseResult(raw json.RawMessage) (*Result, error) {
	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to decode mind map: %w", err)
	}
	code := result.MermaidCode
	if !strings.Contains(code, "\n") && strings.Contains(code, `\n`) {
		code = strings.NewReplacer(`\n`, "\n", `\t`, "\t").Replace(code)
	}
	code = strings.TrimSpace(strings.ReplaceAll(code, "\r\n", "\n"))
	if len(Body(code)) == 0 {
		return nil, ErrEmptyMindmap
	}
	result.MermaidCode = code
	return &result, nil
}

// Body returns the node lines of a mind map without the "mindmap" header
// and root line, with their common leading indentation removed.
func Body(code string) []string {
	lines := strings.Split(code, "\n")
	i := 0
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	if i < len(lines) && strings.EqualFold(strings.TrimSpace(lines[i]), "mindmap") {
		i++
	}
	if i < len(lines) && strings.HasPrefix(strings.ToLower(strings.TrimSpace(lines[i])), "root") {
		i++
	}

	var body []string
	for _, line := range lines[i:] {
		if strings.TrimSpace(line) != "" {
			body = append(body, strings.TrimRight(line, " \t"))
		}
	}
	return dedent(body)
}

// dedent removes the smallest indentation shared by all lines. A tab counts
// as one level; four spaces are treated as a tab.
func dedent(lines []string) []string {
	const tab = "\t"
	norm := make([]string, len(lines))
	least := -1
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		indent := line[:len(line)-len(trimmed)]
		level := strings.Count(indent, tab) + strings.Count(indent, " ")/4
		norm[i] = strings.Repeat(tab, level) + trimmed
		if least < 0 || level < least {
			least = level
		}
	}
	for i := range norm {
		norm[i] = norm[i][least:]
	}
	return norm
}
