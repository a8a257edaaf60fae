package mermaid

// MindmapSchema is the JSON schema for a chapter mind map.
var MindmapSchema = map[string]any{
	"type": "json_schema",
	"json_schema": map[string]any{
		"name":   "chapter_mindmap",
		"strict": true,
		"schema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"chapter":              map[string]any{"type": "string"},
				"name":                 map[string]any{"type": "string"},
				"actual_starting_page": map[string]any{"type": "string"},
				"actual_ending_page":   map[string]any{"type": "string"},
				"mermaid_code": map[string]any{
					"type":        "string",
					"description": "Mermaid mindmap source, tab indented",
				},
			},
			"required":             []string{"chapter", "name", "mermaid_code"},
			"additionalProperties": false,
		},
	},
}

// Result is a parsed chapter mind map.
type Result struct {
	Chapter     string `json:"chapter"`
	Name        string `json:"name"`
	MermaidCode string `json:"mermaid_code"`
}
