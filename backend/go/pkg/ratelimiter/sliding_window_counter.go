package ratelimiter

import (
	"sync"
	"time"
)

// SlidingWindowCounter implements the RateLimiter interface using the sliding window counter algorithm.
// The window is divided into buckets; expired buckets are reset as the window slides,
// which smooths out the boundary bursts a fixed window counter would admit.
type SlidingWindowCounter struct {
	limit          int           // Maximum number of requests allowed in the window.
	window         time.Duration // The total duration of the sliding window.
	numBuckets     int           // The number of buckets the window is divided into.
	bucketSize     time.Duration // The duration of a single bucket.
	buckets        []int         // Stores the count of requests for each bucket.
	currentBucket  int           // Index of the current bucket.
	lastUpdateTime time.Time     // Timestamp of the last update.
	mutex          sync.Mutex
}

// NewSlidingWindowCounter creates a new SlidingWindowCounter.
// limit: the maximum number of requests allowed in the window.
// window: the duration of the time window.
// numBuckets: the number of buckets to divide the window into.
func NewSlidingWindowCounter(limit int, window time.Duration, numBuckets int) *SlidingWindowCounter {
	if numBuckets <= 0 {
		numBuckets = 10
	}
	return &SlidingWindowCounter{
		limit:          limit,
		window:         window,
		numBuckets:     numBuckets,
		bucketSize:     window / time.Duration(numBuckets),
		buckets:        make([]int, numBuckets),
		lastUpdateTime: time.Now(),
	}
}

// slideWindow advances the window, resetting every bucket that has fallen
// out of it. Assumes the mutex is held.
func (s *SlidingWindowCounter) slideWindow(now time.Time) {
	elapsed := now.Sub(s.lastUpdateTime)
	if elapsed < s.bucketSize {
		return
	}

	expired := int(elapsed / s.bucketSize)
	if expired >= s.numBuckets {
		for i := range s.buckets {
			s.buckets[i] = 0
		}
	} else {
		for i := 1; i <= expired; i++ {
			s.buckets[(s.currentBucket+i)%s.numBuckets] = 0
		}
	}
	s.currentBucket = (s.currentBucket + expired) % s.numBuckets
	s.lastUpdateTime = s.lastUpdateTime.Add(time.Duration(expired) * s.bucketSize)
}

// Allow checks if a request is allowed under the current window count.
func (s *SlidingWindowCounter) Allow() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.slideWindow(time.Now())

	total := 0
	for _, count := range s.buckets {
		total += count
	}
	if total >= s.limit {
		return false
	}

	s.buckets[s.currentBucket]++
	return true
}
