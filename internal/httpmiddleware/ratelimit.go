package httpmiddleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"attendboard/internal/auth"
)

// PrincipalLimiter is an in-memory token bucket keyed by the authenticated
// principal, falling back to the client IP for anonymous routes.
type PrincipalLimiter struct {
	capacity int
	rate     int // tokens per minute

	mu    sync.Mutex
	state map[string]*bucket
}

type bucket struct {
	tokens int
	last   time.Time
}

// NewPrincipalLimiter creates a limiter refilling perMinute tokens.
func NewPrincipalLimiter(perMinute int) *PrincipalLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	return &PrincipalLimiter{
		capacity: perMinute,
		rate:     perMinute,
		state:    make(map[string]*bucket),
	}
}

// Middleware returns the gin handler enforcing the limit.
func (l *PrincipalLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if claims, ok := auth.ClaimsFrom(c); ok && claims.Subject != "" {
			key = claims.Subject
		}
		if key == "" {
			key = "unknown"
		}
		if !l.allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"detail": "too many requests, slow down"})
			return
		}
		c.Next()
	}
}

func (l *PrincipalLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.state[key]
	now := time.Now()
	if !ok {
		l.state[key] = &bucket{tokens: l.capacity - 1, last: now}
		return true
	}
	refill := int(now.Sub(b.last).Minutes() * float64(l.rate))
	if refill > 0 {
		b.tokens += refill
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.last = now
	}
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}
