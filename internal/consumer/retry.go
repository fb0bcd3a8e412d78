package consumer

import (
	"context"
	"log/slog"
	"time"

	"ha-bridge/internal/metrics"
)

// Retryer repeats a failing operation at a fixed interval until it
// succeeds. There is no attempt cap and no backoff growth: during a
// coordination-service outage the loop stalls on the current message
// rather than skip or reorder, trading throughput for strict ordering
// and eventual delivery.
type Retryer struct {
	Interval time.Duration

	logger *slog.Logger
	sleep  func(time.Duration)
}

func NewRetryer(interval time.Duration, logger *slog.Logger) *Retryer {
	return &Retryer{
		Interval: interval,
		logger:   logger.With("component", "retryer"),
		sleep:    time.Sleep,
	}
}

// Do runs fn until it returns nil, sleeping the configured interval
// after each failure, and reports how many attempts it took. It runs
// synchronously on the calling goroutine and is not interruptible.
func (r *Retryer) Do(ctx context.Context, operation string, fn func(context.Context) error) int {
	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return attempt
		}
		metrics.RetryAttemptsTotal.WithLabelValues(operation).Inc()
		r.logger.Warn("operation failed, retrying",
			"operation", operation,
			"attempt", attempt,
			"retry_in", r.Interval,
			"error", err,
		)
		r.sleep(r.Interval)
	}
}
