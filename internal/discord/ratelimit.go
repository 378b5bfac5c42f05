package discord

import (
	"errors"
	"fmt"
)

// RateLimitError is the rate-limit signal: Discord answered 429 and named
// how long to wait before retrying. RetryAfter is in seconds, as sent by
// the server (fractional values are common).
type RateLimitError struct {
	RetryAfter float64
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("discord: rate limited, retry after %.2fs", e.RetryAfter)
}

// RetryAfterSeconds extracts the server-specified delay if err carries a
// rate-limit signal anywhere in its chain.
func RetryAfterSeconds(err error) (float64, bool) {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return rl.RetryAfter, true
	}
	return 0, false
}
