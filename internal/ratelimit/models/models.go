package models

import "time"

// Result is the outcome of a single rate limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time

	// RetryAfter is in seconds and only set when the request was denied.
	RetryAfter int
}

// RetryAfterSeconds rounds the wait until resetAt up to whole seconds, never below one.
func RetryAfterSeconds(now, resetAt time.Time) int {
	d := resetAt.Sub(now)
	secs := int(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	if secs < 1 {
		secs = 1
	}
	return secs
}
