package mw

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// idleLimiterTTL is how long a client's limiter survives without requests.
const idleLimiterTTL = 10 * time.Minute

// ClientRateLimiter keeps one token bucket per client key. Buckets of idle
// clients are evicted.
type ClientRateLimiter struct {
	limiters *cache.Cache
	r        rate.Limit
	b        int
}

// NewClientRateLimiter creates a ClientRateLimiter.
func NewClientRateLimiter(r rate.Limit, b int) *ClientRateLimiter {
	return &ClientRateLimiter{
		limiters: cache.New(idleLimiterTTL, 2*idleLimiterTTL),
		r:        r,
		b:        b,
	}
}

// GetLimiter returns the limiter for key, creating it on first use.
func (l *ClientRateLimiter) GetLimiter(key string) *rate.Limiter {
	if v, found := l.limiters.Get(key); found {
		limiter := v.(*rate.Limiter)
		l.limiters.SetDefault(key, limiter)
		return limiter
	}
	limiter := rate.NewLimiter(l.r, l.b)
	// Add fails if a concurrent request created the limiter first
	if err := l.limiters.Add(key, limiter, cache.DefaultExpiration); err != nil {
		if v, found := l.limiters.Get(key); found {
			return v.(*rate.Limiter)
		}
	}
	return limiter
}

// ipBurstFactor sizes the per-IP bucket relative to the per-session one so
// several sessions behind one address can share it.
const ipBurstFactor = 4

// RateLimiter limits every request per client IP and, when the request
// carries sessionHeader, also per booking session. A client rotating session
// IDs is still bound by its IP bucket.
func RateLimiter(r rate.Limit, b int, sessionHeader string) gin.HandlerFunc {
	byIP := NewClientRateLimiter(r*ipBurstFactor, b*ipBurstFactor)
	bySession := NewClientRateLimiter(r, b)
	return func(c *gin.Context) {
		if !byIP.GetLimiter("ip:" + c.ClientIP()).Allow() {
			tooManyRequests(c)
			return
		}
		if sessionHeader != "" {
			if session := c.GetHeader(sessionHeader); session != "" {
				if !bySession.GetLimiter("session:" + session).Allow() {
					tooManyRequests(c)
					return
				}
			}
		}
		c.Next()
	}
}

func tooManyRequests(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
}
