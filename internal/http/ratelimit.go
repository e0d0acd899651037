package http

import (
	"sync"
	"sync/atomic"
	"time"
)

// Mutating requests (ingest, overrides, mapping edits, recompute triggers)
// are limited per client IP; reads stay unthrottled since they are served
// from the analytics cache.
const (
	mutationLimit  = 60
	mutationWindow = time.Minute

	clientStaleAfter = 10 * time.Minute
	cleanupInterval  = 5 * time.Minute
)

type rateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientWindow
	stop     chan struct{}
	stopOnce sync.Once
}

type clientWindow struct {
	windowStart time.Time
	lastSeen    time.Time
	count       int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients: make(map[string]*clientWindow),
		stop:    make(chan struct{}),
	}
	go rl.runCleanup()
	return rl
}

// allow reports whether another mutating request from clientIP fits in the
// current window.
func (rl *rateLimiter) allow(clientIP string, metrics *securityMetrics) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, ok := rl.clients[clientIP]
	if !ok {
		rl.clients[clientIP] = &clientWindow{windowStart: now, lastSeen: now, count: 1}
		return true
	}

	client.lastSeen = now
	if now.Sub(client.windowStart) > mutationWindow {
		client.windowStart = now
		client.count = 1
		return true
	}

	client.count++
	if client.count > mutationLimit {
		if metrics != nil {
			atomic.AddInt64(&metrics.rateLimitHits, 1)
		}
		return false
	}
	return true
}

func (rl *rateLimiter) runCleanup() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.dropStaleClients()
		case <-rl.stop:
			return
		}
	}
}

// dropStaleClients forgets IPs that have been quiet long enough that their
// window no longer matters.
func (rl *rateLimiter) dropStaleClients() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-clientStaleAfter)
	for ip, client := range rl.clients {
		if client.lastSeen.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stopCleanup() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}
