package segment

// ExtractionSchema is the JSON schema for knowledge point extraction.
var ExtractionSchema = map[string]any{
	"type": "json_schema",
	"json_schema": map[string]any{
		"name":   "knowledge_points",
		"strict": true,
		"schema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"chapter_id": map[string]any{
					"type":        "string",
					"description": "Chapter identifier echoed from the request",
				},
				"chapter_name": map[string]any{
					"type":        "string",
					"description": "Chapter title echoed from the request",
				},
				"knowledge_points": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Independent knowledge points in reading order",
				},
			},
			"required":             []string{"chapter_id", "chapter_name", "knowledge_points"},
			"additionalProperties": false,
		},
	},
}

// Result represents the parsed knowledge point extraction.
type Result struct {
	ChapterID       string   `json:"chapter_id"`
	ChapterName     string   `json:"chapter_name"`
	KnowledgePoints []string `json:"knowledge_points"`
}
