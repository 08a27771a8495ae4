package engine

import (
	"context"
	"math/rand"
	"time"
)

// Retry policy defaults. Both upstream call types share one policy but
// track their attempt counts independently.
const (
	defaultMaxRetries = 2
	defaultBaseDelay  = time.Second
	defaultMaxDelay   = 30 * time.Second
	defaultMaxJitter  = time.Second
)

// Policy decides retry-or-give-up and computes backoff delays. It is
// stateless: both decisions are pure functions of the classification
// and the attempt number, so a single Policy value can serve any
// number of concurrent call chains.
type Policy struct {
	MaxRetries int           // Retries allowed after the first try
	BaseDelay  time.Duration // Backoff for attempt zero
	MaxDelay   time.Duration // Cap on the deterministic backoff component
	MaxJitter  time.Duration // Upper bound of the uniform jitter added per delay

	jitter func(max time.Duration) time.Duration
}

// NewPolicy returns a Policy with the default bounds: 2 retries,
// exponential backoff from 1s capped at 30s, up to 1s of jitter.
func NewPolicy() *Policy {
	return &Policy{
		MaxRetries: defaultMaxRetries,
		BaseDelay:  defaultBaseDelay,
		MaxDelay:   defaultMaxDelay,
		MaxJitter:  defaultMaxJitter,
		jitter:     randomJitter,
	}
}

// ShouldRetry reports whether a failure with the given classification
// may be retried after the given zero-based attempt.
func (p *Policy) ShouldRetry(classification Classification, attempt int) bool {
	return classification.Retryable() && attempt < p.MaxRetries
}

// Delay computes the wait before retrying the given zero-based
// attempt. The deterministic component doubles per attempt from
// BaseDelay up to MaxDelay; jitter in [0, MaxJitter) is added after
// the cap. A rate limit hint from the upstream wins when it exceeds
// the computed backoff.
func (p *Policy) Delay(attempt int, retryAfter time.Duration) time.Duration {
	backoff := p.BaseDelay
	for i := 0; i < attempt && backoff < p.MaxDelay; i++ {
		backoff *= 2
	}
	if backoff > p.MaxDelay {
		backoff = p.MaxDelay
	}

	delay := backoff + p.jitterFor(p.MaxJitter)
	if retryAfter > delay {
		return retryAfter
	}
	return delay
}

// jitterFor returns a uniform random duration in [0, max).
func (p *Policy) jitterFor(max time.Duration) time.Duration {
	if p.jitter != nil {
		return p.jitter(max)
	}
	return randomJitter(max)
}

func randomJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(max)))
}

// sleep waits for the specified duration or until context is cancelled.
// Returns true if sleep completed, false if context was cancelled.
func sleep(ctx context.Context, duration time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(duration):
		return true
	}
}
