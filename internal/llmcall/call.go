// Package llmcall records every LLM call a stage makes to a per-book JSONL
// log for traceability.
package llmcall

import (
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/primer/internal/providers"
)

// Call represents a recorded LLM API call.
type Call struct {
	ID string `json:"id" yaml:"id"`

	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	LatencyMs int       `json:"latency_ms" yaml:"latency_ms"`

	Book  string `json:"book" yaml:"book"`
	Stage string `json:"stage,omitempty" yaml:"stage,omitempty"`

	// Prompt traceability
	PromptKey  string `json:"prompt_key,omitempty" yaml:"prompt_key,omitempty"`
	PromptHash string `json:"prompt_hash,omitempty" yaml:"prompt_hash,omitempty"` // hash of the exact prompt text used

	Provider string `json:"provider" yaml:"provider"`
	Model    string `json:"model" yaml:"model"`
	Attempts int    `json:"attempts,omitempty" yaml:"attempts,omitempty"`

	InputTokens  int `json:"input_tokens" yaml:"input_tokens"`
	OutputTokens int `json:"output_tokens" yaml:"output_tokens"`

	Response string `json:"response,omitempty" yaml:"response,omitempty"`

	Success bool   `json:"success" yaml:"success"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// RecordOptions provides context for recording an LLM call.
type RecordOptions struct {
	Book  string
	Stage string

	PromptKey  string
	PromptHash string
}

// FromChatResult creates a Call from a ChatResult. err is the error the
// client returned alongside it, if any. Returns nil if both are nil.
func FromChatResult(result *providers.ChatResult, err error, opts RecordOptions) *Call {
	if result == nil && err == nil {
		return nil
	}
	call := &Call{
		ID:         uuid.New().String(),
		Timestamp:  time.Now().UTC(),
		Book:       opts.Book,
		Stage:      opts.Stage,
		PromptKey:  opts.PromptKey,
		PromptHash: opts.PromptHash,
	}
	if result != nil {
		call.LatencyMs = int(result.ExecutionTime.Milliseconds())
		call.Provider = result.Provider
		call.Model = result.ModelUsed
		call.Attempts = result.Attempts
		call.InputTokens = result.PromptTokens
		call.OutputTokens = result.CompletionTokens
		call.Response = result.Content
		call.Success = result.Success && err == nil
		if !result.Success {
			call.Error = result.ErrorMessage
		}
	}
	if err != nil && call.Error == "" {
		call.Error = err.Error()
	}
	return call
}
