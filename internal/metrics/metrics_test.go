package metrics

import (
	"testing"
	"time"

	"github.com/jackzampolin/primer/internal/llmcall"
)

func TestSummarize(t *testing.T) {
	calls := []llmcall.Call{
		{Stage: "catalog", Model: "qwen-turbo", Provider: "dashscope", InputTokens: 1000, OutputTokens: 200, LatencyMs: 900, Success: true},
		{Stage: "segment", Model: "qwen-turbo", Provider: "dashscope", InputTokens: 300, OutputTokens: 50, LatencyMs: 100, Success: true},
		{Stage: "segment", Model: "qwen-turbo", Provider: "dashscope", InputTokens: 300, OutputTokens: 0, LatencyMs: 200, Success: false},
		{Stage: "segment", Model: "gemini-2.5-flash", Provider: "gemini", InputTokens: 400, OutputTokens: 50, LatencyMs: 300, Success: true},
	}

	s := Summarize(calls)
	if s.Count != 4 || s.SuccessCount != 3 || s.ErrorCount != 1 {
		t.Errorf("counts = %d/%d/%d, want 4/3/1", s.Count, s.SuccessCount, s.ErrorCount)
	}
	if s.InputTokens != 2000 || s.OutputTokens != 300 || s.TotalTokens != 2300 {
		t.Errorf("tokens = %d/%d/%d", s.InputTokens, s.OutputTokens, s.TotalTokens)
	}
	if s.TotalTime != 1500*time.Millisecond {
		t.Errorf("TotalTime = %v, want 1.5s", s.TotalTime)
	}
	if s.P50LatencyMs != 200 {
		t.Errorf("P50LatencyMs = %d, want 200", s.P50LatencyMs)
	}
	if s.P95LatencyMs != 900 {
		t.Errorf("P95LatencyMs = %d, want 900", s.P95LatencyMs)
	}

	r := BookReport("algebra", calls)
	if got := r.ByStage["segment"].Count; got != 3 {
		t.Errorf("ByStage[segment].Count = %d, want 3", got)
	}
	if got := r.ByProvider["gemini"].TotalTokens; got != 450 {
		t.Errorf("ByProvider[gemini].TotalTokens = %d, want 450", got)
	}
	if got := r.ByModel["qwen-turbo"].ErrorCount; got != 1 {
		t.Errorf("ByModel[qwen-turbo].ErrorCount = %d, want 1", got)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	if s.Count != 0 || s.AvgTokens != 0 || s.P95LatencyMs != 0 {
		t.Errorf("Summarize(nil) = %+v", s)
	}
	if r := BookReport("x", nil); r.ByStage != nil {
		t.Errorf("ByStage = %v, want nil", r.ByStage)
	}
}

func TestPercentile(t *testing.T) {
	tests := []struct {
		values []int
		p      int
		want   int
	}{
		{[]int{5}, 50, 5},
		{[]int{1, 2, 3, 4}, 50, 2},
		{[]int{1, 2, 3, 4}, 95, 4},
		{[]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 95, 10},
		{[]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 50, 5},
	}
	for _, tt := range tests {
		if got := percentile(tt.values, tt.p); got != tt.want {
			t.Errorf("percentile(%v, %d) = %d, want %d", tt.values, tt.p, got, tt.want)
		}
	}
}
