package ratelimiter

import (
	"testing"
	"time"
)

func TestNewSelectsAlgorithm(t *testing.T) {
	limiter, err := New("", 10, 5)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, ok := limiter.(*TokenBucket); !ok {
		t.Errorf("Expected default algorithm to be the token bucket, got %T", limiter)
	}

	limiter, err = New("slidingWindow", 10, 5)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, ok := limiter.(*SlidingWindowCounter); !ok {
		t.Errorf("Expected slidingWindow to select the sliding window counter, got %T", limiter)
	}

	if _, err = New("carrierPigeon", 10, 5); err == nil {
		t.Error("Expected an error for an unknown algorithm")
	}
}

func TestTokenBucketBurstAndExhaustion(t *testing.T) {
	tb := NewTokenBucket(1, 2)

	// The bucket starts full, so a burst of its capacity passes.
	for i := 0; i < 2; i++ {
		if !tb.Allow() {
			t.Fatalf("Request %d should have been allowed", i+1)
		}
	}
	if tb.Allow() {
		t.Error("Request beyond the bucket capacity should have been rejected")
	}
}

func TestTokenBucketRefills(t *testing.T) {
	tb := NewTokenBucket(100, 1)

	if !tb.Allow() {
		t.Fatal("First request should have been allowed")
	}
	if tb.Allow() {
		t.Fatal("Bucket should be empty immediately after the burst")
	}

	// At 100 tokens/second a token is back within a few milliseconds.
	time.Sleep(20 * time.Millisecond)
	if !tb.Allow() {
		t.Error("Expected the bucket to refill after waiting")
	}
}

func TestSlidingWindowCounterLimit(t *testing.T) {
	sw := NewSlidingWindowCounter(3, time.Second, 10)

	for i := 0; i < 3; i++ {
		if !sw.Allow() {
			t.Fatalf("Request %d should have been allowed", i+1)
		}
	}
	if sw.Allow() {
		t.Error("Request beyond the window limit should have been rejected")
	}
}
