package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/Yashraj8888/Leetcode-Companion/internal/logger"
)

// RateLimiter holds one token bucket per client IP. Buckets refill at
// requests/window and allow a full window as burst, approximating a fixed
// window counter without storing timestamps.
type RateLimiter struct {
	log      *logger.Logger
	mu       sync.Mutex
	buckets  map[string]*bucketEntry
	limit    rate.Limit
	burst    int
	window   time.Duration
	lastSeen time.Duration
}

type bucketEntry struct {
	limiter *rate.Limiter
	seen    time.Time
}

func NewRateLimiter(log *logger.Logger, requests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		log:      log.With("Middleware", "RateLimiter"),
		buckets:  make(map[string]*bucketEntry),
		limit:    rate.Limit(float64(requests) / window.Seconds()),
		burst:    requests,
		window:   window,
		lastSeen: 2 * window,
	}
}

func (rl *RateLimiter) limiterFor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	entry, ok := rl.buckets[ip]
	if !ok {
		// Opportunistic sweep of idle buckets so the map stays bounded.
		for key, e := range rl.buckets {
			if now.Sub(e.seen) > rl.lastSeen {
				delete(rl.buckets, key)
			}
		}
		entry = &bucketEntry{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[ip] = entry
	}
	entry.seen = now
	return entry.limiter
}

func (rl *RateLimiter) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !rl.limiterFor(ip).Allow() {
			rl.log.Warn("Rate limit exceeded", "ip", ip, "path", c.FullPath())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":      "Too many requests, please try again later",
				"retryAfter": int(rl.window.Seconds()),
			})
			return
		}
		c.Next()
	}
}
