package extract_outline

import (
	"strings"

	"github.com/jackzampolin/primer/internal/prompts"
)

// Prompt keys registered with the resolver.
const (
	SystemPromptKey = "catalog.extract_outline.system"
	UserPromptKey   = "catalog.extract_outline.user"
)

// SystemPrompt is the system prompt for outline extraction.
const SystemPrompt = `You are an assistant that analyses text documents and extracts structured information.
You will receive the text of the first pages of a textbook. These pages most likely contain its table of contents.
Each page is delimited by a line of the form "--- page text from {file name} ---".
Your task is to recover the hierarchy of the table of contents: every chapter and section title together with the page numbers printed next to it.

**Instructions**

1. **Titles and printed pages**: for every chapter and section, extract the complete title ("name") and the page numbers written in the table of contents ("starting_page", "ending_page"). Use the printed numbers, never file positions. If an entry shows only a starting page, set "ending_page" to the page before the next entry starts.
2. **Node types**: an entry that contains sub-entries has "type": "tree" and its sub-entries in "children". The finest-grained entries have "type": "leaf" and "children": "".
3. **First leaf anchor**: find the FIRST leaf of the whole structure. Determine which page file its content actually begins in, and add "actual_starting_page" with that file name (for example "page0009.txt") to that leaf ONLY. No other node may carry this field.
4. **Output**: reply with one valid JSON object and nothing else.

The JSON must look like this (only the first leaf carries actual_starting_page):
{
  "chapters": [
    {
      "index": 1, "name": "Chapter 1 ...", "type": "tree", "starting_page": 5, "ending_page": 26,
      "children": [
        {"index": 1, "name": "Section 1.1 ...", "type": "leaf", "starting_page": 5, "ending_page": 13,
         "actual_starting_page": "page0006.txt", "children": ""},
        {"index": 2, "name": "Section 1.2 ...", "type": "leaf", "starting_page": 14, "ending_page": 26, "children": ""}
      ]
    }
  ]
}`

// UserPromptTemplate wraps the page blocks sent to the model.
const UserPromptTemplate = `<task>
Extract the table of contents from these {{.PageCount}} pages and return the JSON object described above.
</task>

<pages>
{{.Pages}}
</pages>`

// UserPromptData is the template data for UserPromptTemplate.
type UserPromptData struct {
	PageCount int
	Pages     string
}

// Prompts returns the embedded defaults for registration.
func Prompts() []prompts.EmbeddedPrompt {
	return []prompts.EmbeddedPrompt{
		{Key: SystemPromptKey, Text: SystemPrompt, Description: "Outline extraction instructions"},
		{Key: UserPromptKey, Text: UserPromptTemplate, Description: "Outline extraction page payload"},
	}
}

// NewUserPromptData joins rendered page blocks with blank lines.
func NewUserPromptData(pageBlocks []string) UserPromptData {
	return UserPromptData{
		PageCount: len(pageBlocks),
		Pages:     strings.Join(pageBlocks, "\n\n"),
	}
}

// BuildUserPrompt renders the default user prompt.
func BuildUserPrompt(pageBlocks []string) (string, error) {
	return prompts.Render(UserPromptKey, UserPromptTemplate, NewUserPromptData(pageBlocks))
}
