package extract_outline

// ExtractionSchema is the JSON schema for outline extraction output.
// Page fields accept numeric strings and null because models emit both;
// ParseResult normalises them.
var ExtractionSchema = map[string]any{
	"type": "json_schema",
	"json_schema": map[string]any{
		"name":   "outline_extraction",
		"strict": false,
		"schema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"chapters": map[string]any{
					"type":        "array",
					"items":       map[string]any{"$ref": "#/$defs/entry"},
					"description": "Top-level outline entries in reading order",
				},
			},
			"required": []string{"chapters"},
			"$defs": map[string]any{
				"entry": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"index": map[string]any{
							"type": []string{"integer", "string", "null"},
						},
						"name": map[string]any{
							"type":        "string",
							"description": "Full entry title as printed",
						},
						"type": map[string]any{
							"type": "string",
							"enum": []string{"tree", "leaf"},
						},
						"starting_page": map[string]any{
							"type":        []string{"integer", "string", "null"},
							"description": "Printed starting page",
						},
						"ending_page": map[string]any{
							"type":        []string{"integer", "string", "null"},
							"description": "Printed ending page",
						},
						"actual_starting_page": map[string]any{
							"type":        "string",
							"description": "Page file where the first leaf's content begins, e.g. page0009.txt",
						},
						"children": map[string]any{
							"anyOf": []any{
								map[string]any{"type": "string"},
								map[string]any{"type": "null"},
								map[string]any{"type": "array", "items": map[string]any{"$ref": "#/$defs/entry"}},
							},
						},
					},
					"required": []string{"name"},
				},
			},
		},
	},
}
