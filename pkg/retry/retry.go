package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// Backoff retries an operation with exponential delay and jitter
type Backoff struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// permanent marks an error that must not be retried
type permanent struct {
	err error
}

func (p *permanent) Error() string { return p.err.Error() }

func (p *permanent) Unwrap() error { return p.err }

// Permanent wraps err so Do returns it immediately
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanent{err: err}
}

// NewBackoff creates a new Backoff
func NewBackoff(maxRetries int, baseDelay time.Duration) *Backoff {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Backoff{
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		maxDelay:   baseDelay * 16, // Maximum 16x base delay
	}
}

// Do calls fn until it succeeds, returns a permanent error, the retries are
// exhausted or ctx is done. The last error is returned.
func (b *Backoff) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt <= b.maxRetries; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}

		var p *permanent
		if errors.As(err, &p) {
			return p.err
		}
		if attempt == b.maxRetries {
			break
		}

		timer := time.NewTimer(b.Delay(attempt + 1))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}

// Delay calculates exponential backoff delay with jitter for the given attempt
func (b *Backoff) Delay(attempt int) time.Duration {
	if b.baseDelay <= 0 {
		return 0
	}
	if attempt <= 1 {
		return b.baseDelay
	}

	// Exponential backoff: base * 2^(attempt-1)
	backoff := b.baseDelay * time.Duration(1<<(attempt-1))
	if backoff > b.maxDelay || backoff <= 0 {
		backoff = b.maxDelay
	}

	// Apply jitter (±25%)
	quarter := int64(backoff / 4)
	if quarter > 0 {
		backoff += time.Duration(rand.Int63n(2*quarter) - quarter)
	}

	if backoff > b.maxDelay {
		backoff = b.maxDelay
	}
	return backoff
}
