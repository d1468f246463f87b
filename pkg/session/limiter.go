package session

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Limiter bounds the number of in-flight external calls across all sessions.
// A nil *Limiter imposes no limit.
type Limiter struct {
	sem *semaphore.Weighted
	max int64
}

// NewLimiter returns a limiter admitting n concurrent calls, or nil when n <= 0.
func NewLimiter(n int) *Limiter {
	if n <= 0 {
		return nil
	}
	return &Limiter{sem: semaphore.NewWeighted(int64(n)), max: int64(n)}
}

// Acquire blocks until a slot is free or ctx is done. The returned
// function releases the slot and must be called exactly once.
func (l *Limiter) Acquire(ctx context.Context) (func(), error) {
	if l == nil {
		return func() {}, nil
	}
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { l.sem.Release(1) }, nil
}

// Max returns the configured capacity, 0 when unlimited.
func (l *Limiter) Max() int {
	if l == nil {
		return 0
	}
	return int(l.max)
}
