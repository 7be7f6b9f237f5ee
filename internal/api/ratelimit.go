package api

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is a fixed-window per-client request counter. Windows are
// kept in memory and swept periodically; state does not survive restarts.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*rateWindow
	window  time.Duration
	stop    chan struct{}
	once    sync.Once
}

type rateWindow struct {
	count   int
	resetAt time.Time
}

// NewRateLimiter creates a limiter and starts its sweep goroutine
func NewRateLimiter(window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		windows: make(map[string]*rateWindow),
		window:  window,
		stop:    make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// Allow records a hit for the key and reports whether it is within the
// limit; retryAfter is how long until the window resets
func (rl *RateLimiter) Allow(key string, limit int) (allowed bool, retryAfter time.Duration) {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	if !ok || now.After(w.resetAt) {
		rl.windows[key] = &rateWindow{count: 1, resetAt: now.Add(rl.window)}
		return true, 0
	}

	w.count++
	if w.count > limit {
		return false, time.Until(w.resetAt)
	}
	return true, 0
}

// Stop terminates the sweep goroutine
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case now := <-ticker.C:
			rl.mu.Lock()
			for key, w := range rl.windows {
				if now.After(w.resetAt) {
					delete(rl.windows, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// rateLimitMiddleware throttles by client IP, scoped by route group so the
// auth endpoints get their own, tighter limit
func rateLimitMiddleware(rl *RateLimiter, scope string, limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := scope + ":" + c.ClientIP()
		allowed, retryAfter := rl.Allow(key, limit)
		if !allowed {
			seconds := int(retryAfter.Seconds()) + 1
			c.Header("Retry-After", fmt.Sprintf("%d", seconds))
			c.JSON(http.StatusTooManyRequests, envelope{
				Success: false,
				Message: "too many requests, please try again later",
				Data:    gin.H{"retryAfter": seconds},
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
