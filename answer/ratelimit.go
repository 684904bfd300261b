package answer

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimited wraps a Service with a token-bucket limiter. Requests wait
// for a token or for their context to end.
type RateLimited struct {
	next    Service
	limiter *rate.Limiter
}

// NewRateLimited allows perSecond requests per second with a burst of one.
// A non-positive rate disables limiting.
func NewRateLimited(svc Service, perSecond float64) *RateLimited {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	return &RateLimited{next: svc, limiter: rate.NewLimiter(limit, 1)}
}

func (r *RateLimited) Answer(ctx context.Context, req Request) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("rate limit: %w", err)
	}
	return r.next.Answer(ctx, req)
}
