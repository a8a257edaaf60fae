package segment

import "github.com/jackzampolin/primer/internal/prompts"

const (
	SystemPromptKey = "segment.knowledge_points.system"
	UserPromptKey   = "segment.knowledge_points.user"
)

// SystemPrompt is the system prompt for knowledge point extraction.
const SystemPrompt = `You are a text analysis assistant who distils core knowledge from academic text. You will receive the title of a chapter and its full text. Your tasks are: 1. clean the text; 2. split it semantically and extract knowledge points; 3. reply in JSON.`

// UserPromptTemplate carries one leaf's title and text.
const UserPromptTemplate = `You will receive the title of a chapter and its complete text. The text may contain noise introduced by OCR, such as running headers, footers, and stray page numbers, or redundant wording that does not affect the meaning.

1. **Clean the text**: remove content that does not help understanding: repeated headers and footers, isolated page numbers, garbled OCR fragments, and very short or incomplete sentences that add almost nothing.
2. **Split and extract**: split the cleaned text into independent, meaningful units of knowledge. Each knowledge point is a clear, concise statement of a concept, principle, argument, or important fact.
3. **Reply in JSON**: the values of "chapter_id" and "chapter_name" are given below; focus on "knowledge_points".

{
  "chapter_id": "{{.ChapterID}}",
  "chapter_name": "{{.ChapterName}}",
  "knowledge_points": [
    "Knowledge point 1: a definition or explanation of a concept.",
    "Knowledge point 2: an explanation of a principle.",
    "Knowledge point 3: a summary of an important argument or fact."
  ]
}

Make sure "knowledge_points" is a list of strings, one knowledge point each, and that the reply contains ONLY this JSON object with no other text, explanation, or Markdown fences.

Chapter title: "{{.ChapterName}}"
Chapter text:
---
{{.Content}}
---
Process the text above and reply in the JSON format given.`

// UserPromptData is the template data for UserPromptTemplate.
type UserPromptData struct {
	ChapterID   string
	ChapterName string
	Content     string
}

// Prompts returns the embedded defaults for registration.
func Prompts() []prompts.EmbeddedPrompt {
	return []prompts.EmbeddedPrompt{
		{Key: SystemPromptKey, Text: SystemPrompt, Description: "Knowledge point extraction instructions"},
		{Key: UserPromptKey, Text: UserPromptTemplate, Description: "Knowledge point extraction chapter payload"},
	}
}
