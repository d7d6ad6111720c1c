package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// RateLimitConfig tunes the per-client request limiter.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

// DefaultRateLimitConfig returns the limits used when none are configured.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{RequestsPerSecond: 100, BurstSize: 200}
}

// bucket is a token bucket refilled lazily on each take. level may go
// fractional between refills; a request costs exactly one token.
type bucket struct {
	mu       sync.Mutex
	level    float64
	capacity float64
	rate     float64
	lastSeen time.Time
}

func (b *bucket) take(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.level = math.Min(b.capacity, b.level+now.Sub(b.lastSeen).Seconds()*b.rate)
	b.lastSeen = now

	if b.level < 1 {
		return false
	}
	b.level--
	return true
}

// secondsUntilToken reports how long until one full token is available,
// rounded up for the Retry-After header.
func (b *bucket) secondsUntilToken() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.rate <= 0 {
		return 1
	}
	return int(math.Ceil((1 - b.level) / b.rate))
}

type clientLimiter struct {
	mu      sync.Mutex
	clients map[string]*bucket
	cfg     RateLimitConfig
}

func (l *clientLimiter) bucketFor(key string, now time.Time) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.clients[key]
	if !ok {
		b = &bucket{
			level:    float64(l.cfg.BurstSize),
			capacity: float64(l.cfg.BurstSize),
			rate:     l.cfg.RequestsPerSecond,
			lastSeen: now,
		}
		l.clients[key] = b
	}
	return b
}

// RateLimit throttles requests per client IP with a token bucket. Rejected
// requests get a 429 with a Retry-After hint.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	limiter := &clientLimiter{clients: make(map[string]*bucket), cfg: cfg}
	limitHeader := strconv.FormatFloat(cfg.RequestsPerSecond, 'f', 0, 64)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			now := time.Now()
			b := limiter.bucketFor(c.RealIP(), now)

			c.Response().Header().Set("X-RateLimit-Limit", limitHeader)
			if !b.take(now) {
				c.Response().Header().Set("Retry-After", strconv.Itoa(b.secondsUntilToken()))
				c.Response().Header().Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
