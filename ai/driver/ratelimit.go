package driver

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/teranos/prompttask/artifact"
	"github.com/teranos/prompttask/errors"
	"github.com/teranos/prompttask/promptstack"
)

// RateLimited wraps a driver so calls wait for a token before running.
type RateLimited struct {
	next    PromptDriver
	limiter *rate.Limiter
}

// WithRateLimit limits d to perMinute calls with a burst of one.
// perMinute <= 0 returns d unchanged.
func WithRateLimit(d PromptDriver, perMinute int) PromptDriver {
	if perMinute <= 0 {
		return d
	}
	return &RateLimited{
		next:    d,
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), 1),
	}
}

func (r *RateLimited) Run(ctx context.Context, stack *promptstack.Stack) (artifact.Artifact, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limit wait")
	}
	return r.next.Run(ctx, stack)
}

// Unwrap returns the wrapped driver.
func (r *RateLimited) Unwrap() PromptDriver {
	return r.next
}
