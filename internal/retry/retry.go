// Package retry runs an operation again with exponential backoff until it
// succeeds, fails permanently or the context ends.
package retry

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// Defaults applied to zero Backoff fields.
const (
	DefaultInitialBackoff = 50 * time.Millisecond
	DefaultMaxBackoff     = time.Second
	DefaultJitterFactor   = 0.25
)

// Backoff describes the retry schedule. MaxRetries counts retries after the
// first attempt, so zero means a single attempt.
type Backoff struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// JitterFactor randomizes each delay by up to this fraction (0..1).
	JitterFactor float64
}

// Options adjusts Do. Both hooks are optional.
type Options struct {
	// ShouldRetry reports whether err is transient. Nil retries every error.
	ShouldRetry func(err error) bool

	// OnRetry runs before sleeping ahead of retry number attempt.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// Do calls fn until it returns nil, returns a permanent error or the
// retries are used up. The last error is returned.
func Do(ctx context.Context, b Backoff, fn func(context.Context) error, opts Options) error {
	var err error
	for attempt := 0; ; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err != nil {
				return err
			}
			return ctxErr
		}

		err = fn(ctx)
		if err == nil {
			return nil
		}
		if opts.ShouldRetry != nil && !opts.ShouldRetry(err) {
			return err
		}
		if attempt >= b.MaxRetries {
			return err
		}

		wait := b.Delay(attempt)
		if opts.OnRetry != nil {
			opts.OnRetry(attempt+1, err, wait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
}

// Delay returns the wait before retry number attempt+1.
func (b Backoff) Delay(attempt int) time.Duration {
	initial := b.InitialBackoff
	if initial <= 0 {
		initial = DefaultInitialBackoff
	}
	maxBackoff := b.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = DefaultMaxBackoff
	}
	if maxBackoff < initial {
		maxBackoff = initial
	}

	delay := float64(initial) * math.Pow(2, float64(attempt))
	if delay > float64(maxBackoff) {
		delay = float64(maxBackoff)
	}

	jitter := b.JitterFactor
	if jitter > 1 {
		jitter = 1
	}
	if jitter > 0 {
		//nolint:gosec // jitter does not need a secure source
		delay += delay * jitter * (rand.Float64()*2 - 1)
	}
	if delay < 0 {
		delay = 0
	}

	return time.Duration(delay)
}
