package seclayer

import (
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// IPLimiter throttles how fast a single source address may open new
// connections. It sits on the accept path, in front of the TLS
// handshake, so an abusive address cannot burn handshake CPU.
//
// This is independent of RateLimiter: RateLimiter charges admitted
// clients per message, IPLimiter charges raw addresses per connection.
type IPLimiter struct {
	limiters map[string]*rate.Limiter
	lastUsed map[string]time.Time
	mu       sync.RWMutex
	r        rate.Limit
	b        int
	cleanup  time.Duration
	stopCh   chan struct{}
}

// NewIPLimiter creates a limiter allowing r connections per second
// with bursts of b per address. Entries idle for two cleanup periods
// are dropped by a background sweeper.
func NewIPLimiter(r rate.Limit, b int, cleanup time.Duration) *IPLimiter {
	rl := &IPLimiter{
		limiters: make(map[string]*rate.Limiter),
		lastUsed: make(map[string]time.Time),
		r:        r,
		b:        b,
		cleanup:  cleanup,
		stopCh:   make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Allow checks if a connection from the given IP should be admitted.
func (rl *IPLimiter) Allow(ip net.IP) bool {
	// raw bytes are cheaper than ip.String() and unique enough for a
	// map key
	key := string(ip)

	// Fast path: existing addresses need only a read lock. lastUsed is
	// not refreshed here; worst case the limiter is recreated after a
	// sweep, which resets the budget in the client's favour.
	rl.mu.RLock()
	limiter, exists := rl.limiters[key]
	rl.mu.RUnlock()

	if exists {
		return limiter.Allow()
	}

	rl.mu.Lock()
	// Double-check after escalation, another goroutine may have added it.
	limiter, exists = rl.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(rl.r, rl.b)
		rl.limiters[key] = limiter
	}
	rl.lastUsed[key] = time.Now()
	rl.mu.Unlock()

	return limiter.Allow()
}

// Size returns the number of tracked addresses.
func (rl *IPLimiter) Size() int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	return len(rl.limiters)
}

// Stop terminates the cleanup goroutine.
func (rl *IPLimiter) Stop() {
	close(rl.stopCh)
}

func (rl *IPLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanup)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := time.Now()
			for key, lastUsed := range rl.lastUsed {
				if now.Sub(lastUsed) > rl.cleanup*2 {
					delete(rl.limiters, key)
					delete(rl.lastUsed, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}
