package spotify

import "time"

// RetryPolicy bounds the attempts made against one upstream endpoint. The
// token exchange and each resource read carry independent attempt budgets.
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
}

// DefaultRetryPolicy is three attempts with exponential backoff on a one
// second base.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 3,
	BaseBackoff: time.Second,
}

// Backoff returns the wait after the given number of completed failed
// attempts: 2x base after the first failure, 4x after the second, doubling
// from there. No jitter.
func (p RetryPolicy) Backoff(failures int) time.Duration {
	return time.Duration(1<<failures) * p.BaseBackoff
}
