package download

import "time"

// backoffFloor is added to every backoff interval so that even the first
// retry waits long enough for transient server-side hiccups to clear.
const backoffFloor = 5 * time.Second

// Backoff returns the wait before retrying a failed attempt. It is a pure
// function of the attempt number (1-based): 2^attempt seconds plus a fixed
// floor offset.
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 10 {
		attempt = 10 // cap the exponent, not the caller's budget
	}
	return time.Duration(1<<uint(attempt))*time.Second + backoffFloor
}
