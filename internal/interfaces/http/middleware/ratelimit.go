package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/erp/accounting/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client key
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*visitor
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows requests per window, refilled continuously, with a burst of requests
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	if requests <= 0 {
		requests = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		clients: make(map[string]*visitor),
		limit:   rate.Every(window / time.Duration(requests)),
		burst:   requests,
		idleTTL: 2 * window,
		now:     time.Now,
	}
}

// Allow consumes one token for key
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	now := rl.now()
	v, ok := rl.clients[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = v
	}
	v.lastSeen = now
	rl.mu.Unlock()
	return v.limiter.AllowN(now, 1)
}

// Sweep forgets clients idle for longer than two windows
func (rl *RateLimiter) Sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	removed := 0
	cutoff := rl.now().Add(-rl.idleTTL)
	for key, v := range rl.clients {
		if v.lastSeen.Before(cutoff) {
			delete(rl.clients, key)
			removed++
		}
	}
	return removed
}

// Middleware limits by client IP and answers 429 with Retry-After
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	retryAfter := strconv.Itoa(int(time.Duration(float64(time.Second)/float64(rl.limit)).Seconds()) + 1)
	return func(c *gin.Context) {
		if rl.clientCount() > 10000 {
			rl.Sweep()
		}
		if !rl.Allow(c.ClientIP()) {
			c.Header("Retry-After", retryAfter)
			c.Header("X-RateLimit-Limit", strconv.Itoa(rl.burst))
			abort(c, dto.ErrCodeRateLimited, "Too many requests, please slow down")
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) clientCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}
