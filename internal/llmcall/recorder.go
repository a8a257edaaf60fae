package llmcall

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/jackzampolin/primer/internal/providers"
)

// FileName is the call log inside a book directory.
const FileName = "llm_calls.jsonl"

// Recorder appends calls to <book dir>/llm_calls.jsonl. Recording never
// fails the caller; write errors are logged.
type Recorder struct {
	bookDir func(book string) string
	logger  *slog.Logger

	mu sync.Mutex
}

// NewRecorder creates a recorder. bookDir maps a book name to its directory.
func NewRecorder(bookDir func(book string) string, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{bookDir: bookDir, logger: logger}
}

// Path returns the call log path for book.
func (r *Recorder) Path(book string) string {
	return filepath.Join(r.bookDir(book), FileName)
}

// Record captures a chat result.
func (r *Recorder) Record(result *providers.ChatResult, err error, opts RecordOptions) {
	r.RecordCall(FromChatResult(result, err, opts))
}

// RecordCall appends an already-constructed Call.
func (r *Recorder) RecordCall(call *Call) {
	if r == nil || call == nil || call.Book == "" {
		return
	}
	if err := r.append(call); err != nil {
		r.logger.Warn("failed to record LLM call", "book", call.Book, "stage", call.Stage, "error", err)
	}
}

func (r *Recorder) append(call *Call) error {
	data, err := json.Marshal(call)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.OpenFile(r.Path(call.Book), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open call log: %w", err)
	}
	defer f.Close()
	_, err = f.Write(data)
	return err
}

// Wrap returns a client that records every Chat call made through it.
func (r *Recorder) Wrap(client providers.LLMClient, opts RecordOptions) providers.LLMClient {
	if r == nil {
		return client
	}
	return &recordingClient{LLMClient: client, recorder: r, opts: opts}
}

type recordingClient struct {
	providers.LLMClient
	recorder *Recorder
	opts     RecordOptions
}

func (c *recordingClient) Chat(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResult, error) {
	result, err := c.LLMClient.Chat(ctx, req)
	c.recorder.Record(result, err, c.opts)
	return result, err
}

var _ providers.LLMClient = (*recordingClient)(nil)
