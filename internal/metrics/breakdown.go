package metrics

import "github.com/jackzampolin/primer/internal/llmcall"

// Report is a book's usage summary with per-stage, per-model and
// per-provider breakdowns.
type Report struct {
	Book       string             `json:"book" yaml:"book"`
	Total      Summary            `json:"total" yaml:"total"`
	ByStage    map[string]Summary `json:"by_stage,omitempty" yaml:"by_stage,omitempty"`
	ByModel    map[string]Summary `json:"by_model,omitempty" yaml:"by_model,omitempty"`
	ByProvider map[string]Summary `json:"by_provider,omitempty" yaml:"by_provider,omitempty"`
}

// BookReport builds a Report from a book's calls.
func BookReport(book string, calls []llmcall.Call) Report {
	return Report{
		Book:       book,
		Total:      Summarize(calls),
		ByStage:    breakdown(calls, func(c llmcall.Call) string { return c.Stage }),
		ByModel:    breakdown(calls, func(c llmcall.Call) string { return c.Model }),
		ByProvider: breakdown(calls, func(c llmcall.Call) string { return c.Provider }),
	}
}

func breakdown(calls []llmcall.Call, key func(llmcall.Call) string) map[string]Summary {
	groups := make(map[string][]llmcall.Call)
	for _, c := range calls {
		k := key(c)
		if k == "" {
			k = "unknown"
		}
		groups[k] = append(groups[k], c)
	}
	if len(groups) == 0 {
		return nil
	}
	out := make(map[string]Summary, len(groups))
	for k, g := range groups {
		out[k] = Summarize(g)
	}
	return out
}
