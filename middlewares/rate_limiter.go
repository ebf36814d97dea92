package middlewares

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/vittermi/FastFood/utils"
	"golang.org/x/time/rate"
)

// maxTrackedClients bounds the bucket cache; the least recently seen client
// is dropped first.
const maxTrackedClients = 10000

// RateLimiter keeps one token bucket per client IP. Buckets of clients idle
// for longer than the TTL expire.
type RateLimiter struct {
	rate  rate.Limit
	burst int
	ips   *expirable.LRU[string, *rate.Limiter]
	mu    sync.Mutex
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return newRateLimiter(rps, burst, 3*time.Minute)
}

func newRateLimiter(rps float64, burst int, idleTTL time.Duration) *RateLimiter {
	return &RateLimiter{
		rate:  rate.Limit(rps),
		burst: burst,
		ips:   expirable.NewLRU[string, *rate.Limiter](maxTrackedClients, nil, idleTTL),
	}
}

// limiterFor returns the client's bucket and pushes back its expiry.
func (rl *RateLimiter) limiterFor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, ok := rl.ips.Get(ip)
	if !ok {
		limiter = rate.NewLimiter(rl.rate, rl.burst)
	}
	rl.ips.Add(ip, limiter)
	return limiter
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.limiterFor(c.ClientIP()).Allow() {
			utils.RespondErrorKind(c, http.StatusTooManyRequests, "rate_limited", errTooManyRequests)
			c.Abort()
			return
		}
		c.Next()
	}
}
