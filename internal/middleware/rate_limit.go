package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	bucketIdleTTL = 10 * time.Minute
	pruneInterval = time.Minute
)

// RateLimiter implements per-client token bucket rate limiting. Buckets for
// clients that have gone idle are pruned so the map does not grow without
// bound.
type RateLimiter struct {
	requestsPerMinute int
	burstSize         int
	clients           map[string]*TokenBucket
	lastPrune         time.Time
	mu                sync.Mutex
}

// TokenBucket holds the refill state for one client
type TokenBucket struct {
	tokens       float64
	lastRefill   time.Time
	tokensPerSec float64
	maxTokens    float64
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(requestsPerMinute, burstSize int) *RateLimiter {
	return &RateLimiter{
		requestsPerMinute: requestsPerMinute,
		burstSize:         burstSize,
		clients:           make(map[string]*TokenBucket),
		lastPrune:         time.Now(),
	}
}

// Allow checks if a request is allowed based on rate limits
func (r *RateLimiter) Allow(clientIP string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	r.pruneLocked(now)

	bucket, exists := r.clients[clientIP]
	if !exists {
		bucket = &TokenBucket{
			tokens:       float64(r.burstSize),
			lastRefill:   now,
			tokensPerSec: float64(r.requestsPerMinute) / 60.0,
			maxTokens:    float64(r.burstSize),
		}
		r.clients[clientIP] = bucket
	}

	elapsed := now.Sub(bucket.lastRefill).Seconds()
	bucket.lastRefill = now
	bucket.tokens += elapsed * bucket.tokensPerSec
	if bucket.tokens > bucket.maxTokens {
		bucket.tokens = bucket.maxTokens
	}

	if bucket.tokens >= 1.0 {
		bucket.tokens -= 1.0
		return true
	}
	return false
}

// pruneLocked drops buckets that have not been touched within the idle TTL.
// Caller must hold the mutex.
func (r *RateLimiter) pruneLocked(now time.Time) {
	if now.Sub(r.lastPrune) < pruneInterval {
		return
	}
	r.lastPrune = now

	for ip, bucket := range r.clients {
		if now.Sub(bucket.lastRefill) > bucketIdleTTL {
			delete(r.clients, ip)
		}
	}
}

// RateLimit creates middleware for rate limiting requests by client IP
func RateLimit(requestsPerMinute, burstSize int) gin.HandlerFunc {
	limiter := NewRateLimiter(requestsPerMinute, burstSize)

	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Try again later.",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
