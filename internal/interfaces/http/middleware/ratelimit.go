package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mar-ia/crm/internal/interfaces/http/dto"
)

// RateLimiter is an in-memory fixed-window limiter. The limit is passed per
// call so one limiter can serve keys with different quotas.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	period  time.Duration
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

type window struct {
	count   int
	resetAt time.Time
}

// NewRateLimiter creates a limiter and starts its cleanup loop. Call Close to
// stop it.
func NewRateLimiter(period time.Duration) *RateLimiter {
	rl := &RateLimiter{
		windows: make(map[string]*window),
		period:  period,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.period * 2)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for key, w := range rl.windows {
				if now.After(w.resetAt) {
					delete(rl.windows, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Close stops the cleanup loop
func (rl *RateLimiter) Close() {
	rl.once.Do(func() { close(rl.stop) })
}

// Allow counts a request for key and reports whether it fits in limit, the
// requests left in the window and when the window resets.
// A non-positive limit disables limiting.
func (rl *RateLimiter) Allow(key string, limit int) (ok bool, remaining int, resetAt time.Time) {
	now := rl.now()
	if limit <= 0 {
		return true, 0, now
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, exists := rl.windows[key]
	if !exists || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(rl.period)}
		rl.windows[key] = w
	}
	if w.count >= limit {
		return false, 0, w.resetAt
	}
	w.count++
	return true, limit - w.count, w.resetAt
}

// RateLimit limits requests per client IP
func RateLimit(limiter *RateLimiter, limit int) gin.HandlerFunc {
	return RateLimitByKey(limiter, limit, func(c *gin.Context) string { return "ip:" + c.ClientIP() })
}

// RateLimitByKey limits requests per key returned by keyFunc
func RateLimitByKey(limiter *RateLimiter, limit int, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !allowRequest(c, limiter, keyFunc(c), limit) {
			return
		}
		c.Next()
	}
}

// allowRequest applies the limit and writes the rate headers. On rejection it
// aborts with 429 and returns false.
func allowRequest(c *gin.Context, limiter *RateLimiter, key string, limit int) bool {
	ok, remaining, resetAt := limiter.Allow(key, limit)
	if limit <= 0 {
		return true
	}
	c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
	if !ok {
		retry := int(time.Until(resetAt).Seconds()) + 1
		c.Header("Retry-After", strconv.Itoa(retry))
		abortWithCode(c, dto.CodeRateLimited, "Demasiadas peticiones, inténtalo más tarde")
		return false
	}
	return true
}
