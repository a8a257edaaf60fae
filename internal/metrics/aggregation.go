// Package metrics aggregates recorded LLM calls into usage summaries.
package metrics

import (
	"sort"
	"time"

	"github.com/jackzampolin/primer/internal/llmcall"
)

// Summary provides a summary of a set of LLM calls.
type Summary struct {
	Count        int           `json:"count" yaml:"count"`
	SuccessCount int           `json:"success_count" yaml:"success_count"`
	ErrorCount   int           `json:"error_count" yaml:"error_count"`
	InputTokens  int           `json:"input_tokens" yaml:"input_tokens"`
	OutputTokens int           `json:"output_tokens" yaml:"output_tokens"`
	TotalTokens  int           `json:"total_tokens" yaml:"total_tokens"`
	TotalTime    time.Duration `json:"total_time" yaml:"total_time"`

	AvgTokens      float64 `json:"avg_tokens" yaml:"avg_tokens"`
	AvgTimeSeconds float64 `json:"avg_time_seconds" yaml:"avg_time_seconds"`
	P50LatencyMs   int     `json:"p50_latency_ms" yaml:"p50_latency_ms"`
	P95LatencyMs   int     `json:"p95_latency_ms" yaml:"p95_latency_ms"`
}

// Summarize aggregates calls.
func Summarize(calls []llmcall.Call) Summary {
	s := Summary{Count: len(calls)}
	latencies := make([]int, 0, len(calls))
	for _, c := range calls {
		if c.Success {
			s.SuccessCount++
		} else {
			s.ErrorCount++
		}
		s.InputTokens += c.InputTokens
		s.OutputTokens += c.OutputTokens
		s.TotalTime += time.Duration(c.LatencyMs) * time.Millisecond
		latencies = append(latencies, c.LatencyMs)
	}
	s.TotalTokens = s.InputTokens + s.OutputTokens

	if s.Count > 0 {
		s.AvgTokens = float64(s.TotalTokens) / float64(s.Count)
		s.AvgTimeSeconds = s.TotalTime.Seconds() / float64(s.Count)
		sort.Ints(latencies)
		s.P50LatencyMs = percentile(latencies, 50)
		s.P95LatencyMs = percentile(latencies, 95)
	}
	return s
}

// percentile uses nearest-rank on sorted values.
func percentile(sorted []int, p int) int {
	if len(sorted) == 0 {
		return 0
	}
	rank := (p*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}
