package domain

import "time"

// RateDecision is the outcome of one admission check against a fixed window.
type RateDecision struct {
	Allowed bool
	// Count is the post-increment request count in the current window,
	// including rejected requests.
	Count     int64
	Limit     int64
	Remaining int64
	// RetryAfter is the time left until the current window resets.
	RetryAfter time.Duration
}
