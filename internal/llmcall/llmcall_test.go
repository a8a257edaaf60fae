package llmcall

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackzampolin/primer/internal/providers"
)

func newRecorder(t *testing.T) (*Recorder, string) {
	t.Helper()
	dir := t.TempDir()
	bookDir := func(book string) string { return filepath.Join(dir, book+"_dir") }
	if err := os.MkdirAll(bookDir("algebra"), 0o755); err != nil {
		t.Fatal(err)
	}
	return NewRecorder(bookDir, slog.New(slog.DiscardHandler)), dir
}

func TestFromChatResult(t *testing.T) {
	opts := RecordOptions{Book: "algebra", Stage: "catalog", PromptKey: "catalog.extract_outline.system", PromptHash: "abc"}

	tests := []struct {
		name        string
		result      *providers.ChatResult
		err         error
		wantNil     bool
		wantSuccess bool
		wantError   string
	}{
		{name: "nil", wantNil: true},
		{
			name:        "success",
			result:      &providers.ChatResult{Content: "{}", Provider: "mock", ModelUsed: "m", PromptTokens: 10, CompletionTokens: 2, Success: true},
			wantSuccess: true,
		},
		{
			name:      "failed result",
			result:    &providers.ChatResult{Provider: "mock", ErrorMessage: "rate limited"},
			err:       errors.New("rate limited"),
			wantError: "rate limited",
		},
		{
			name:      "error only",
			err:       errors.New("no client"),
			wantError: "no client",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			call := FromChatResult(tt.result, tt.err, opts)
			if tt.wantNil {
				if call != nil {
					t.Fatalf("call = %+v, want nil", call)
				}
				return
			}
			if call == nil {
				t.Fatal("call is nil")
			}
			if call.ID == "" || call.Book != "algebra" || call.Stage != "catalog" || call.PromptHash != "abc" {
				t.Errorf("call attribution = %+v", call)
			}
			if call.Success != tt.wantSuccess {
				t.Errorf("Success = %v, want %v", call.Success, tt.wantSuccess)
			}
			if call.Error != tt.wantError {
				t.Errorf("Error = %q, want %q", call.Error, tt.wantError)
			}
		})
	}
}

func TestRecorder_WrapAndList(t *testing.T) {
	rec, _ := newRecorder(t)

	mock := providers.NewMockClient()
	mock.Queue("one", "two")
	client := rec.Wrap(mock, RecordOptions{Book: "algebra", Stage: "segment", PromptKey: "segment.knowledge_points.system"})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := client.Chat(ctx, &providers.ChatRequest{Model: "m", Messages: []providers.Message{{Role: "user", Content: "hi"}}}); err != nil {
			t.Fatal(err)
		}
	}
	mock.ShouldFail = true
	if _, err := client.Chat(ctx, &providers.ChatRequest{Model: "m"}); err == nil {
		t.Fatal("expected failure")
	}
	if client.Name() != providers.MockClientName {
		t.Errorf("Name() = %q", client.Name())
	}

	calls, err := rec.List("algebra", QueryFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(calls) != 3 {
		t.Fatalf("calls = %d, want 3", len(calls))
	}
	for _, c := range calls {
		if c.Stage != "segment" || c.Provider != providers.MockClientName {
			t.Errorf("call = %+v", c)
		}
	}

	ok := true
	succeeded, err := rec.List("algebra", QueryFilter{Success: &ok})
	if err != nil {
		t.Fatal(err)
	}
	if len(succeeded) != 2 {
		t.Errorf("successful calls = %d, want 2", len(succeeded))
	}

	limited, err := rec.List("algebra", QueryFilter{Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("limited = %d, want 1", len(limited))
	}

	got, err := rec.Get("algebra", calls[1].ID)
	if err != nil || got == nil || got.ID != calls[1].ID {
		t.Errorf("Get() = %v, %v", got, err)
	}
	if got, _ := rec.Get("algebra", "missing"); got != nil {
		t.Errorf("Get(missing) = %+v, want nil", got)
	}
}

func TestRecorder_NilAndMissing(t *testing.T) {
	var rec *Recorder
	mock := providers.NewMockClient()
	if rec.Wrap(mock, RecordOptions{}) != providers.LLMClient(mock) {
		t.Error("nil recorder should return the client unwrapped")
	}
	rec.RecordCall(&Call{Book: "x"})

	r, _ := newRecorder(t)
	calls, err := r.List("nobook", QueryFilter{})
	if err != nil || len(calls) != 0 {
		t.Errorf("List(nobook) = %v, %v", calls, err)
	}
}

func TestReadFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte("{\"id\":\"a\"}\n\nnot json\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(path); err == nil {
		t.Error("expected error for malformed line")
	}
}
