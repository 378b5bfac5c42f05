package delivery

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/Yosodog/Nexus-AMS-Discord/internal/discord"
)

// Retrier wraps a single outbound Discord operation. Only the rate-limit
// signal is retried: Discord names the exact wait, so the retrier sleeps
// that long (floored at one second) and tries again while attempts remain.
// Any other failure, or exhaustion of attempts, propagates immediately.
type Retrier struct {
	maxAttempts int
	logger      *zap.Logger

	// sleep is swapped out in tests to record requested durations
	// without actually waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

const minRateLimitSleep = time.Second

func NewRetrier(maxAttempts int, logger *zap.Logger) *Retrier {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Retrier{
		maxAttempts: maxAttempts,
		logger:      logger,
		sleep:       sleepCtx,
	}
}

// Do invokes op, honoring rate-limit waits between attempts.
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) error) error {
	for attempt := 1; ; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}

		retryAfter, ok := discord.RetryAfterSeconds(err)
		if !ok || attempt >= r.maxAttempts {
			return err
		}

		wait := rateLimitWait(retryAfter)
		r.logger.Warn("rate limited, backing off before retry",
			zap.Float64("retry_after_s", retryAfter),
			zap.Duration("wait", wait),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", r.maxAttempts),
		)
		if err := r.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// rateLimitWait converts the server's retry_after seconds into a sleep
// duration: ceil to whole milliseconds, never below one second.
func rateLimitWait(retryAfter float64) time.Duration {
	ms := math.Ceil(retryAfter * 1000)
	d := time.Duration(ms) * time.Millisecond
	if d < minRateLimitSleep {
		d = minRateLimitSleep
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
