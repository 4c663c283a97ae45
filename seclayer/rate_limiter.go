package seclayer

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	lru "github.com/hashicorp/golang-lru/v2"
)

// rateLimiterMaxClients bounds the bucket map so that client-id churn
// cannot grow it forever. Least recently consulted buckets are evicted
// first; an evicted client simply starts over with a full bucket.
const rateLimiterMaxClients = 65536

type tokenBucket struct {
	tokens     uint32
	lastRefill time.Time
}

// RateLimiter is a per-client token bucket. A bucket is created full
// on a client's first request and snaps back to capacity at whole
// refill-interval boundaries; partial intervals never refill early.
//
// TryConsume is a pure admission check: it never blocks and never
// retries, and is safe for concurrent use against any mix of client
// ids.
type RateLimiter struct {
	maxTokens      uint32
	refillInterval time.Duration
	clock          clock.Clock

	mutex   sync.Mutex
	buckets *lru.Cache[string, *tokenBucket]
}

// NewRateLimiter makes a limiter giving every client maxTokens per
// refillInterval. A nil clk uses the wall clock.
func NewRateLimiter(maxTokens uint32, refillInterval time.Duration, clk clock.Clock) *RateLimiter {
	if clk == nil {
		clk = clock.New()
	}

	buckets, err := lru.New[string, *tokenBucket](rateLimiterMaxClients)
	if err != nil {
		panic(err) // only fails on a non-positive size
	}

	return &RateLimiter{
		maxTokens:      maxTokens,
		refillInterval: refillInterval,
		clock:          clk,
		buckets:        buckets,
	}
}

// TryConsume takes tokens from the client's bucket. It reports false —
// leaving the bucket untouched — when fewer than tokens are available.
func (r *RateLimiter) TryConsume(clientID string, tokens uint32) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	now := r.clock.Now()

	bucket, ok := r.buckets.Get(clientID)
	if !ok {
		bucket = &tokenBucket{
			tokens:     r.maxTokens,
			lastRefill: now,
		}
		r.buckets.Add(clientID, bucket)
	} else {
		r.refill(bucket, now)
	}

	if bucket.tokens < tokens {
		return false
	}

	bucket.tokens -= tokens

	return true
}

// ResetClient drops the client's bucket; the next request starts with
// a full one.
func (r *RateLimiter) ResetClient(clientID string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.buckets.Remove(clientID)
}

// ActiveClients returns the number of tracked buckets.
func (r *RateLimiter) ActiveClients() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return r.buckets.Len()
}

// refill restores the bucket to capacity once at least one whole
// interval has elapsed. lastRefill advances by whole intervals only so
// the remainder keeps accruing toward the next boundary.
func (r *RateLimiter) refill(bucket *tokenBucket, now time.Time) {
	elapsed := now.Sub(bucket.lastRefill)
	if elapsed < r.refillInterval {
		return
	}

	intervals := elapsed / r.refillInterval
	bucket.tokens = r.maxTokens
	bucket.lastRefill = bucket.lastRefill.Add(intervals * r.refillInterval)
}
