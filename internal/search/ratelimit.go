// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/Akshath47/deep-research/pkg/types"
)

// RateLimitedProvider throttles calls to Next with a token bucket shared by
// every task using this provider.
type RateLimitedProvider struct {
	Next    Provider
	limiter *rate.Limiter
}

// NewRateLimitedProvider allows rps sustained calls per second with the
// given burst. A non-positive rps returns next unwrapped.
func NewRateLimitedProvider(next Provider, rps float64, burst int) Provider {
	if rps <= 0 {
		return next
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimitedProvider{
		Next:    next,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Name returns the wrapped provider's name.
func (p *RateLimitedProvider) Name() string { return p.Next.Name() }

// Search waits for a token, then delegates. A wait that would outlast the
// context deadline fails at once with an error matching
// context.DeadlineExceeded.
func (p *RateLimitedProvider) Search(ctx context.Context, r Request) ([]types.SearchResult, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		if ctx.Err() == nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w (%v)", context.DeadlineExceeded, err)
		}
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}
	return p.Next.Search(ctx, r)
}
