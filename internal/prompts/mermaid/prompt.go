package mermaid

import "github.com/jackzampolin/primer/internal/prompts"

const (
	SystemPromptKey = "mindmap.leaf.system"
	UserPromptKey   = "mindmap.leaf.user"
)

// SystemPrompt is the system prompt for per-chapter mind maps.
const SystemPrompt = `You are an assistant who summarises textbook chapters as Mermaid mind maps. Hierarchy is expressed by indentation only. Reply with a single JSON object.`

// UserPromptTemplate carries one leaf's identity and text.
const UserPromptTemplate = `You will receive the title of a chapter and its complete text.

1. Read and understand the chapter.
2. Write a detailed Mermaid mind map of it. The code starts with the line "mindmap", followed by a root node "root(({{.ChapterName}}))". Every deeper level is indented by one more tab than its parent.
3. Put the code in the "mermaid_code" field. Use real newlines and tabs inside the string; JSON escaping takes care of them.

The values of "chapter", "name", "actual_starting_page" and "actual_ending_page" are given below. Echo them unchanged and focus on "mermaid_code".

{
  "chapter": "{{.ChapterID}}",
  "name": "{{.ChapterName}}",
  "actual_starting_page": "{{.StartKey}}",
  "actual_ending_page": "{{.EndKey}}",
  "mermaid_code": "mindmap\n\troot(({{.ChapterName}}))\n\t\tMain idea 1\n\t\t\tDetail 1.1\n\t\tMain idea 2"
}

Reply with ONLY this JSON object, with no other text or Markdown fences.

Chapter title: "{{.ChapterName}}"
Chapter text:
---
{{.Content}}
---`

// UserPromptData is the template data for UserPromptTemplate.
type UserPromptData struct {
	ChapterID   string
	ChapterName string
	StartKey    string
	EndKey      string
	Content     string
}

// Prompts returns the embedded defaults for registration.
func Prompts() []prompts.EmbeddedPrompt {
	return []prompts.EmbeddedPrompt{
		{Key: SystemPromptKey, Text: SystemPrompt, Description: "Chapter mind map instructions"},
		{Key: UserPromptKey, Text: UserPromptTemplate, Description: "Chapter mind map payload"},
	}
}
