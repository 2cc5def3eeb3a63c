package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")

func fastBackoff(retries int) Backoff {
	return Backoff{
		MaxRetries:     retries,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}
}

func TestDo_SucceedsAfterRetries(t *testing.T) {
	t.Parallel()

	calls := 0
	var retried []int
	err := Do(context.Background(), fastBackoff(3), func(context.Context) error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	}, Options{
		OnRetry: func(attempt int, err error, _ time.Duration) {
			retried = append(retried, attempt)
			assert.ErrorIs(t, err, errTransient)
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestDo_ExhaustsRetries(t *testing.T) {
	t.Parallel()

	calls := 0
	err := Do(context.Background(), fastBackoff(2), func(context.Context) error {
		calls++
		return errTransient
	}, Options{})

	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 3, calls)
}

func TestDo_ZeroRetriesIsSingleAttempt(t *testing.T) {
	t.Parallel()

	calls := 0
	err := Do(context.Background(), Backoff{}, func(context.Context) error {
		calls++
		return errTransient
	}, Options{})

	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 1, calls)
}

func TestDo_PermanentError(t *testing.T) {
	t.Parallel()

	permanent := errors.New("permanent")
	calls := 0
	err := Do(context.Background(), fastBackoff(5), func(context.Context) error {
		calls++
		return permanent
	}, Options{
		ShouldRetry: func(err error) bool { return !errors.Is(err, permanent) },
	})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Do(ctx, fastBackoff(3), func(context.Context) error {
		calls++
		return nil
	}, Options{})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestDo_ContextCancelledDuringWait(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	b := Backoff{MaxRetries: 3, InitialBackoff: time.Hour, MaxBackoff: time.Hour}

	calls := 0
	err := Do(ctx, b, func(context.Context) error {
		calls++
		cancel()
		return errTransient
	}, Options{})

	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 1, calls)
}

func TestBackoff_Delay(t *testing.T) {
	t.Parallel()

	b := Backoff{InitialBackoff: 10 * time.Millisecond, MaxBackoff: 50 * time.Millisecond}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 0, want: 10 * time.Millisecond},
		{attempt: 1, want: 20 * time.Millisecond},
		{attempt: 2, want: 40 * time.Millisecond},
		{attempt: 3, want: 50 * time.Millisecond},
		{attempt: 10, want: 50 * time.Millisecond},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, b.Delay(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestBackoff_DelayDefaultsAndJitter(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultInitialBackoff, Backoff{}.Delay(0))
	assert.Equal(t, DefaultMaxBackoff, Backoff{}.Delay(20))

	b := Backoff{InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second, JitterFactor: 0.5}
	for i := 0; i < 50; i++ {
		d := b.Delay(0)
		assert.GreaterOrEqual(t, d, 50*time.Millisecond)
		assert.LessOrEqual(t, d, 150*time.Millisecond)
	}
}
