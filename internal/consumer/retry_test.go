package consumer

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRetryer(interval time.Duration) (*Retryer, *[]time.Duration) {
	r := NewRetryer(interval, slog.Default())
	sleeps := &[]time.Duration{}
	r.sleep = func(d time.Duration) {
		*sleeps = append(*sleeps, d)
	}
	return r, sleeps
}

func TestRetryerSucceedsFirstAttempt(t *testing.T) {
	r, sleeps := newTestRetryer(5 * time.Second)

	calls := 0
	attempts := r.Do(context.Background(), "op", func(context.Context) error {
		calls++
		return nil
	})

	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *sleeps)
}

func TestRetryerRetriesUntilSuccess(t *testing.T) {
	const failures = 4
	r, sleeps := newTestRetryer(5 * time.Second)

	calls := 0
	attempts := r.Do(context.Background(), "op", func(context.Context) error {
		calls++
		if calls <= failures {
			return errors.New("transient")
		}
		return nil
	})

	// N failures then success: N+1 invocations, one wait between each pair.
	assert.Equal(t, failures+1, attempts)
	assert.Equal(t, failures+1, calls)
	require.Len(t, *sleeps, failures)
	for _, d := range *sleeps {
		assert.Equal(t, 5*time.Second, d)
	}
}

func TestRetryerHasNoAttemptCap(t *testing.T) {
	r, _ := newTestRetryer(time.Millisecond)

	calls := 0
	attempts := r.Do(context.Background(), "op", func(context.Context) error {
		calls++
		if calls < 1000 {
			return errors.New("still failing")
		}
		return nil
	})

	assert.Equal(t, 1000, attempts)
}
