package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode"
)

const MockClientName = "mock"

// MockClient is an LLMClient for testing.
type MockClient struct {
	// Configurable behavior
	Latency      time.Duration
	ShouldFail   bool
	FailAfter    int // Fail after N requests (0 = never)
	ResponseText string
	ResponseJSON json.RawMessage

	// Responses, when non-empty, are returned in order (one per request)
	// before falling back to ResponseText. Use Queue to add them.
	Responses []string

	// Handler overrides all canned behavior when set.
	Handler func(req *ChatRequest) (string, error)

	// EmbedHandler overrides the default bag-of-words vectors.
	EmbedHandler func(texts []string) ([][]float32, error)

	mu       sync.Mutex
	requests []*ChatRequest

	requestCount atomic.Int64
	embedCount   atomic.Int64
}

// NewMockClient creates a new mock client with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{
		ResponseText: "mock response",
	}
}

// Queue appends canned responses returned one per request.
func (c *MockClient) Queue(responses ...string) *MockClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Responses = append(c.Responses, responses...)
	return c
}

// Name returns the client identifier.
func (c *MockClient) Name() string {
	return MockClientName
}

// Chat sends a mock chat request.
func (c *MockClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()
	count := c.requestCount.Add(1)

	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()

	result := &ChatResult{
		RequestID: fmt.Sprintf("mock-%d", count),
		Provider:  MockClientName,
		ModelUsed: req.Model,
		Attempts:  1,
	}

	if c.ShouldFail {
		return result, result.fail("mock_failure", fmt.Errorf("mock client configured to fail"), start)
	}
	if c.FailAfter > 0 && int(count) > c.FailAfter {
		return result, result.fail("mock_failure", fmt.Errorf("mock client failed after %d requests", c.FailAfter), start)
	}

	if c.Latency > 0 {
		select {
		case <-time.After(c.Latency):
		case <-ctx.Done():
			return result, result.fail("context_cancelled", ctx.Err(), start)
		}
	} else if err := ctx.Err(); err != nil {
		return result, result.fail("context_cancelled", err, start)
	}

	content, err := c.nextResponse(req)
	if err != nil {
		return result, result.fail("mock_failure", err, start)
	}

	result.Success = true
	result.Content = content
	result.ExecutionTime = time.Since(start)
	result.TotalTime = result.ExecutionTime

	promptTokens := 0
	for _, m := range req.Messages {
		promptTokens += len(m.Content) / 4 // Rough estimate
	}
	result.PromptTokens = promptTokens
	result.CompletionTokens = len(content) / 4
	result.TotalTokens = result.PromptTokens + result.CompletionTokens

	if req.ResponseFormat != nil {
		if parsed, err := parseStructuredJSON(content); err == nil {
			result.ParsedJSON = parsed
		}
	}

	return result, nil
}

func (c *MockClient) nextResponse(req *ChatRequest) (string, error) {
	if c.Handler != nil {
		return c.Handler(req)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.Responses) > 0 {
		next := c.Responses[0]
		c.Responses = c.Responses[1:]
		return next, nil
	}
	if req.ResponseFormat != nil && len(c.ResponseJSON) > 0 {
		return string(c.ResponseJSON), nil
	}
	return c.ResponseText, nil
}

// Requests returns the requests received so far.
func (c *MockClient) Requests() []*ChatRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*ChatRequest(nil), c.requests...)
}

// RequestCount returns the number of requests made.
func (c *MockClient) RequestCount() int64 {
	return c.requestCount.Load()
}

// Reset resets the request counter and recorded requests.
func (c *MockClient) Reset() {
	c.requestCount.Store(0)
	c.embedCount.Store(0)
	c.mu.Lock()
	c.requests = nil
	c.mu.Unlock()
}

// MockEmbeddingDims is the length of the mock's default vectors.
const MockEmbeddingDims = 64

// Embed returns one vector per text. Without EmbedHandler each vector
// counts hashed lowercase words, so texts sharing words score as similar.
func (c *MockClient) Embed(ctx context.Context, req *EmbedRequest) (*EmbedResult, error) {
	start := time.Now()
	c.embedCount.Add(1)
	if c.ShouldFail {
		return nil, fmt.Errorf("mock client configured to fail")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &EmbedResult{Provider: MockClientName, ModelUsed: req.Model}
	if c.EmbedHandler != nil {
		vectors, err := c.EmbedHandler(req.Texts)
		if err != nil {
			return nil, err
		}
		result.Vectors = vectors
	} else {
		result.Vectors = make([][]float32, len(req.Texts))
		for i, text := range req.Texts {
			result.Vectors[i] = bagOfWords(text)
		}
	}
	for _, text := range req.Texts {
		result.PromptTokens += len(text) / 4
	}
	result.ExecutionTime = time.Since(start)
	return result, nil
}

// EmbedCount returns the number of Embed calls made.
func (c *MockClient) EmbedCount() int64 {
	return c.embedCount.Load()
}

func bagOfWords(text string) []float32 {
	vec := make([]float32, MockEmbeddingDims)
	for _, word := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		h := fnv.New32a()
		h.Write([]byte(word))
		vec[h.Sum32()%MockEmbeddingDims]++
	}
	return vec
}

// Verify interface
var _ LLMClient = (*MockClient)(nil)
