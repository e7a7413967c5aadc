package retry

import "time"

// ExponentialBackoff returns delay based on attempt number.
// The delay doubles with each attempt: base * 2^attempt, capped at max when max > 0.
func ExponentialBackoff(attempt int, base, max time.Duration) time.Duration {
	d := base * (1 << attempt)
	if max > 0 && (d > max || d <= 0) {
		return max
	}
	return d
}
