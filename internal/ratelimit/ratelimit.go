package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/amishk599/jobdigest/internal/model"
)

// SourceLimiter enforces a minimum delay between calls to the same source.
// Sources never block each other. A zero delay disables pacing.
type SourceLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*rate.Limiter // key: source name
	minDelay  time.Duration
	overrides map[string]time.Duration
}

// NewSourceLimiter creates a limiter with a default minDelay and optional
// per-source overrides keyed by source name.
func NewSourceLimiter(minDelay time.Duration, overrides map[string]time.Duration) *SourceLimiter {
	return &SourceLimiter{
		limiters:  make(map[string]*rate.Limiter),
		minDelay:  minDelay,
		overrides: overrides,
	}
}

func (l *SourceLimiter) delayFor(source string) time.Duration {
	if d, ok := l.overrides[source]; ok {
		return d
	}
	return l.minDelay
}

func (l *SourceLimiter) limiterFor(source string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.limiters[source]; ok {
		return lim
	}
	var lim *rate.Limiter
	if d := l.delayFor(source); d > 0 {
		lim = rate.NewLimiter(rate.Every(d), 1)
	}
	l.limiters[source] = lim
	return lim
}

// Wait blocks until the source may be called again. Returns an error if the
// context is cancelled or its deadline is too close to wait out.
func (l *SourceLimiter) Wait(ctx context.Context, source string) error {
	lim := l.limiterFor(source)
	if lim == nil {
		return nil
	}
	if err := lim.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait for %s: %w", source, err)
	}
	return nil
}

// Ensure RateLimitedSource implements model.Source.
var _ model.Source = (*RateLimitedSource)(nil)

// RateLimitedSource is a decorator that paces calls before delegating to the
// wrapped Source. All sources sharing a name should share one limiter.
type RateLimitedSource struct {
	inner   model.Source
	limiter *SourceLimiter
}

// NewRateLimitedSource wraps inner with source-level pacing.
func NewRateLimitedSource(inner model.Source, limiter *SourceLimiter) *RateLimitedSource {
	return &RateLimitedSource{inner: inner, limiter: limiter}
}

func (s *RateLimitedSource) Name() string         { return s.inner.Name() }
func (s *RateLimitedSource) Dimensions() []string { return s.inner.Dimensions() }

// Search waits for the limiter, then delegates. Time spent waiting counts
// against the caller's deadline.
func (s *RateLimitedSource) Search(ctx context.Context, keyword, dimension string) ([]model.JobRecord, error) {
	if err := s.limiter.Wait(ctx, s.inner.Name()); err != nil {
		return nil, err
	}
	return s.inner.Search(ctx, keyword, dimension)
}
