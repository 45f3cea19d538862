package ratelimiter

import (
	"sync"
	"time"
)

// Config controls the per-IP limiter applied in front of the public
// submission routes. This limiter is a shield against bursts; the daily
// submission quota in daily.go stays the authoritative count.
type Config struct {
	RequestsPerTimeFrame int
	TimeFrame            time.Duration
	Enabled              bool
}

type FixedWindowRateLimiter struct {
	sync.RWMutex
	clients map[string]int
	limit   int
	window  time.Duration
}

func NewFixedWindowLimiter(limit int, window time.Duration) *FixedWindowRateLimiter {
	rl := &FixedWindowRateLimiter{
		clients: make(map[string]int),
		limit:   limit,
		window:  window,
	}
	go rl.cleanup()
	return rl
}

func (rl *FixedWindowRateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	for range ticker.C {
		rl.Lock()
		rl.clients = make(map[string]int)
		rl.Unlock()
	}
}

// Allow reports whether another request from ip fits in the current
// window, and if not, how long until the window resets.
func (rl *FixedWindowRateLimiter) Allow(ip string) (bool, time.Duration) {
	rl.Lock()
	defer rl.Unlock()

	count := rl.clients[ip]
	if count >= rl.limit {
		return false, rl.window
	}
	rl.clients[ip] = count + 1
	return true, 0
}
