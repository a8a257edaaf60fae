package providers

import (
	"context"
	"fmt"
	"time"

	openai "github.com/openai/openai-go/v3"
)

// Embedder turns texts into vectors. Clients that cannot embed simply do
// not implement it.
type Embedder interface {
	Embed(ctx context.Context, req *EmbedRequest) (*EmbedResult, error)
	Name() string
}

// EmbedRequest asks for one vector per input text.
type EmbedRequest struct {
	Texts []string `json:"texts"`
	Model string   `json:"model,omitempty"`
}

// EmbedResult holds vectors in input order.
type EmbedResult struct {
	Vectors       [][]float32   `json:"-"`
	Provider      string        `json:"provider"`
	ModelUsed     string        `json:"model_used"`
	PromptTokens  int           `json:"prompt_tokens"`
	ExecutionTime time.Duration `json:"execution_time"`
}

const (
	dashScopeEmbeddingModel = "text-embedding-v3"
	openAIEmbeddingModel    = "text-embedding-3-small"
)

func (c *OpenAIClient) embeddingModel(model string) string {
	switch {
	case model != "":
		return model
	case c.name == DashScopeName:
		return dashScopeEmbeddingModel
	default:
		return openAIEmbeddingModel
	}
}

// Embed calls the OpenAI-compatible embeddings endpoint.
func (c *OpenAIClient) Embed(ctx context.Context, req *EmbedRequest) (*EmbedResult, error) {
	start := time.Now()
	model := c.embeddingModel(req.Model)
	result := &EmbedResult{Provider: c.name, ModelUsed: model}
	if len(req.Texts) == 0 {
		return result, nil
	}

	resp, err := c.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input:          openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: req.Texts},
		Model:          openai.EmbeddingModel(model),
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	})
	if err != nil {
		return result, fmt.Errorf("%s embeddings failed: %w", c.name, err)
	}
	if len(resp.Data) != len(req.Texts) {
		return result, fmt.Errorf("%s returned %d embeddings for %d texts", c.name, len(resp.Data), len(req.Texts))
	}

	result.Vectors = make([][]float32, len(req.Texts))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(req.Texts) {
			return result, fmt.Errorf("%s returned embedding index %d out of range", c.name, d.Index)
		}
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		result.Vectors[d.Index] = vec
	}
	if resp.Model != "" {
		result.ModelUsed = resp.Model
	}
	result.PromptTokens = int(resp.Usage.PromptTokens)
	result.ExecutionTime = time.Since(start)
	return result, nil
}

// Embed waits for a token and delegates when the wrapped client embeds.
func (c *RateLimitedClient) Embed(ctx context.Context, req *EmbedRequest) (*EmbedResult, error) {
	e, ok := c.inner.(Embedder)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEmbeddingUnsupported, c.inner.Name())
	}
	start := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	c.totalWaited.Add(int64(time.Since(start)))
	return e.Embed(ctx, req)
}

var (
	_ Embedder = (*OpenAIClient)(nil)
	_ Embedder = (*RateLimitedClient)(nil)
	_ Embedder = (*MockClient)(nil)
)
