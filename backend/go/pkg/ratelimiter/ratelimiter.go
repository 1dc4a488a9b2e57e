package ratelimiter

import (
	"fmt"
	"time"
)

// RateLimiter is the interface for rate limiting.
// It defines a single method, Allow, which returns true if a request is allowed,
// and false otherwise.
type RateLimiter interface {
	// Allow returns true if the request is allowed, otherwise returns false.
	Allow() bool
}

// New creates a rate limiter for the given algorithm name.
// rate: allowed requests per second. capacity: burst size.
// Supported algorithms are "tokenBucket" (the default when empty) and
// "slidingWindow".
func New(algorithm string, rate float64, capacity int) (RateLimiter, error) {
	switch algorithm {
	case "", "tokenBucket":
		return NewTokenBucket(rate, capacity), nil
	case "slidingWindow":
		return NewSlidingWindowCounter(int(rate), time.Second, 10), nil
	default:
		return nil, fmt.Errorf("unsupported rate limiter algorithm: %s", algorithm)
	}
}
