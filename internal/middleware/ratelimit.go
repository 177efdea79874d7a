package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/vetbook-api/internal/handler"
)

type RateLimiterConfig struct {
	RPS   float64
	Burst int
	// IdleTTL is how long an unused client limiter is kept.
	IdleTTL time.Duration
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	mu       sync.Mutex
	limiters *cache.Cache
	rps      rate.Limit
	burst    int
	ttl      time.Duration
}

func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.IdleTTL <= 0 {
		config.IdleTTL = 10 * time.Minute
	}
	if config.Burst <= 0 {
		config.Burst = 1
	}
	return &RateLimiter{
		limiters: cache.New(config.IdleTTL, 2*config.IdleTTL),
		rps:      rate.Limit(config.RPS),
		burst:    config.Burst,
		ttl:      config.IdleTTL,
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if v, ok := rl.limiters.Get(key); ok {
		l := v.(*rate.Limiter)
		rl.limiters.Set(key, l, rl.ttl)
		return l
	}
	l := rate.NewLimiter(rl.rps, rl.burst)
	rl.limiters.Set(key, l, rl.ttl)
	return l
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.limiter(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, handler.NewErrorResponse("rate limit exceeded"))
			return
		}
		c.Next()
	}
}
