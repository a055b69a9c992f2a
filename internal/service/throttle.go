package service

import (
	"context"

	"golang.org/x/time/rate"
)

// ThrottledEmbedder spaces calls to another Embedder with a token bucket, for
// batch jobs sharing a model host with live traffic.
type ThrottledEmbedder struct {
	inner   Embedder
	limiter *rate.Limiter
}

// NewThrottledEmbedder allows perSecond calls with the given burst. A
// non-positive rate disables throttling.
func NewThrottledEmbedder(inner Embedder, perSecond float64, burst int) *ThrottledEmbedder {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	return &ThrottledEmbedder{inner: inner, limiter: rate.NewLimiter(limit, max(burst, 1))}
}

func (e *ThrottledEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return e.inner.Embed(ctx, text)
}
