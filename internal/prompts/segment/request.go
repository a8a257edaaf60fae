package segment

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackzampolin/primer/internal/prompts"
	"github.com/jackzampolin/primer/internal/providers"
)

// Input contains the data needed for a knowledge point request.
type Input struct {
	ChapterID   string // node path of the leaf
	ChapterName string
	Content     string

	// Overrides for book-level prompts. Empty uses the embedded default.
	SystemPrompt       string
	UserPromptTemplate string

	Model string
}

// BuildRequest creates the knowledge point chat request.
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
		Content:     input.Content,
	})
	if err != nil {
		return nil, err
	}

	jsonSchema, _ := json.Marshal(ExtractionSchema["json_schema"])
	return &providers.ChatRequest{
		Messages: []providers.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Model:       input.Model,
		Temperature: 0.2,
		MaxTokens:   4096,
		ResponseFormat: &providers.ResponseFormat{
			Type:       "json_object",
			JSONSchema: jsonSchema,
		},
	}, nil
}

// ParseResult decodes the model output. Blank knowledge points are dropped
// and a missing list decodes as empty.
func ParseResult(raw json.RawMessage) (*Result, error) {
	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to decode knowledge points: %w", err)
	}
	points := make([]string, 0, len(result.KnowledgePoints))
	for _, p := range result.KnowledgePoints {
		if p = strings.TrimSpace(p); p != "" {
			points = append(points, p)
		}
	}
	result.KnowledgePoints = points
	return &result, nil
}
