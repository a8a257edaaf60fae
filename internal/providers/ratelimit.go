package providers

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitedClient wraps an LLMClient with a token bucket limiter so that
// concurrent callers (segment workers, server handlers) share one budget per
// provider.
type RateLimitedClient struct {
	inner   LLMClient
	limiter *rate.Limiter
	rps     float64

	totalWaited atomic.Int64 // nanoseconds
}

// RateLimiterStatus reports current limiter state.
type RateLimiterStatus struct {
	RequestsPerSecond float64       `json:"requests_per_second"`
	Burst             int           `json:"burst"`
	TokensAvailable   float64       `json:"tokens_available"`
	TotalWaited       time.Duration `json:"total_waited"`
}

// WithRateLimit returns client limited to rps requests per second. A
// non-positive rps disables limiting and returns client unchanged.
func WithRateLimit(client LLMClient, rps float64) LLMClient {
	if rps <= 0 {
		return client
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedClient{
		inner:   client,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		rps:     rps,
	}
}

// Name returns the wrapped client's name.
func (c *RateLimitedClient) Name() string {
	return c.inner.Name()
}

// Chat waits for a token and then delegates to the wrapped client.
func (c *RateLimitedClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		result := &ChatResult{Provider: c.inner.Name(), RequestID: req.RequestID}
		return result, result.fail("rate_limit_wait", err, start)
	}
	waited := time.Since(start)
	c.totalWaited.Add(int64(waited))

	result, err := c.inner.Chat(ctx, req)
	if result != nil {
		result.TotalTime += waited
	}
	return result, err
}

// Status returns current limiter status.
func (c *RateLimitedClient) Status() RateLimiterStatus {
	return RateLimiterStatus{
		RequestsPerSecond: c.rps,
		Burst:             c.limiter.Burst(),
		TokensAvailable:   c.limiter.Tokens(),
		TotalWaited:       time.Duration(c.totalWaited.Load()),
	}
}

// Verify interface
var _ LLMClient = (*RateLimitedClient)(nil)
