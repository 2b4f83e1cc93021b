package executor

import (
	"time"
)

// RetryPolicy decides whether a failed task gets another computation and
// how long to wait before it. Re-polling alone would retry a permanently
// broken task every cycle forever; the policy bounds that.
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
}

// maxBackoff caps the exponential growth.
const maxBackoff = 10 * time.Minute

// Backoff returns the delay before the next attempt after the given
// number of failures: base * 2^(attempts-1), capped.
func (p RetryPolicy) Backoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	backoff := p.BaseBackoff
	for i := 1; i < attempts; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}

// Exhausted reports whether the attempt count has reached the dead-letter
// threshold.
func (p RetryPolicy) Exhausted(attempts int) bool {
	return p.MaxAttempts > 0 && attempts >= p.MaxAttempts
}
