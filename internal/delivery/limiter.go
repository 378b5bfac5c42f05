package delivery

import (
	"context"

	"golang.org/x/time/rate"
)

// SendLimiter enforces a steady-state cap on outbound Discord calls so the
// worker rarely hits the reactive 429 path in the first place. Burst equals
// the rate: no "saved up" burst beyond the per-second maximum.
type SendLimiter struct {
	limiter *rate.Limiter
}

func NewSendLimiter(ratePerSec int) *SendLimiter {
	if ratePerSec < 1 {
		ratePerSec = 1
	}
	return &SendLimiter{limiter: rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec)}
}

// Wait blocks until a token is available. Returns a non-nil error only if
// ctx is cancelled while waiting.
func (s *SendLimiter) Wait(ctx context.Context) error {
	return s.limiter.Wait(ctx)
}
