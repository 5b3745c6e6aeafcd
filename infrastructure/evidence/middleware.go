package evidence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/deklol/valorant-skirmish-nexus-sub000/internal/domain"
	"github.com/deklol/valorant-skirmish-nexus-sub000/internal/ports"
)

// Middleware wraps an EvidenceSource with additional behavior.
type Middleware func(ports.EvidenceSource) ports.EvidenceSource

// Chain composes middleware so the first listed wraps outermost.
func Chain(src ports.EvidenceSource, mws ...Middleware) ports.EvidenceSource {
	for i := len(mws) - 1; i >= 0; i-- {
		src = mws[i](src)
	}
	return src
}

// rateLimitedSource enforces request pacing with a token bucket, so a
// batch resolution cannot overwhelm an upstream stats API's limits.
type rateLimitedSource struct {
	next    ports.EvidenceSource
	limiter *rate.Limiter
}

// RateLimitMiddleware creates middleware that enforces a sustained
// request rate with burst headroom.
func RateLimitMiddleware(limit rate.Limit, burst int) Middleware {
	limiter := rate.NewLimiter(limit, burst)
	return func(next ports.EvidenceSource) ports.EvidenceSource {
		return &rateLimitedSource{next: next, limiter: limiter}
	}
}

// FetchEvidence waits for rate limit permission before forwarding.
// It blocks until a token is available or ctx is cancelled.
func (r *rateLimitedSource) FetchEvidence(ctx context.Context, competitor domain.Competitor) (ports.Evidence, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return ports.Evidence{}, fmt.Errorf("rate limit: %w", err)
	}
	return r.next.FetchEvidence(ctx, competitor)
}

// retrySource retries transient lookup failures with exponential
// backoff. Non-retryable failures (notably a plain missing record)
// pass through immediately.
type retrySource struct {
	next        ports.EvidenceSource
	maxAttempts int
	initialWait time.Duration
}

// RetryMiddleware creates middleware that retries retryable failures
// up to maxAttempts total attempts, doubling the wait between tries.
func RetryMiddleware(maxAttempts int, initialWait time.Duration) Middleware {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return func(next ports.EvidenceSource) ports.EvidenceSource {
		return &retrySource{next: next, maxAttempts: maxAttempts, initialWait: initialWait}
	}
}

// FetchEvidence forwards the lookup, retrying on retryable errors.
func (r *retrySource) FetchEvidence(ctx context.Context, competitor domain.Competitor) (ports.Evidence, error) {
	var lastErr error
	wait := r.initialWait
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ports.Evidence{}, ctx.Err()
			case <-time.After(wait):
			}
			wait *= 2
		}

		ev, err := r.next.FetchEvidence(ctx, competitor)
		if err == nil {
			return ev, nil
		}
		lastErr = err

		var evErr *ports.EvidenceError
		if !errors.As(err, &evErr) || !evErr.IsRetryable() {
			return ports.Evidence{}, err
		}
	}
	return ports.Evidence{}, fmt.Errorf("evidence lookup failed after %d attempts: %w", r.maxAttempts, lastErr)
}
