package api

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// LoginRateLimiter throttles login attempts per client IP
type LoginRateLimiter struct {
	limit    int
	window   time.Duration
	mu       sync.Mutex
	limiters map[string]*ipLimiter
	now      func() time.Time
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLoginRateLimiter allows limit attempts per window, refilling evenly
func NewLoginRateLimiter(limit int, window time.Duration) *LoginRateLimiter {
	return &LoginRateLimiter{
		limit:    limit,
		window:   window,
		limiters: make(map[string]*ipLimiter),
		now:      time.Now,
	}
}

func (l *LoginRateLimiter) get(ip string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.limiters[ip]
	if !ok {
		entry = &ipLimiter{limiter: rate.NewLimiter(rate.Every(l.window/time.Duration(l.limit)), l.limit)}
		l.limiters[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// Allow consumes one attempt for ip and reports whether it was permitted.
// When refused, the second value is how long until the next attempt is allowed.
func (l *LoginRateLimiter) Allow(ip string) (bool, time.Duration) {
	now := l.now()
	limiter := l.get(ip, now)
	r := limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, l.window
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Cleanup drops limiters idle for longer than the window
func (l *LoginRateLimiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.window)
	for ip, entry := range l.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(l.limiters, ip)
		}
	}
}

// RunCleanup calls Cleanup every window until ctx is done
func (l *LoginRateLimiter) RunCleanup(ctx context.Context) {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Cleanup()
		}
	}
}

// Middleware rejects requests over the limit with 429
func (l *LoginRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, retry := l.Allow(c.ClientIP())
		if !ok {
			log.Warn().Str("ip", c.ClientIP()).Dur("retry_after", retry).Msg("login rate limit exceeded")
			c.Header("Retry-After", formatSeconds(retry))
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Muitas tentativas de login. Tente novamente mais tarde."})
			c.Abort()
			return
		}
		c.Next()
	}
}

func formatSeconds(d time.Duration) string {
	return strconv.Itoa(int(math.Ceil(d.Seconds())))
}
