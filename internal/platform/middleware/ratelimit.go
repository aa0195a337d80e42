package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// RateLimitConfig holds per-client rate limiting settings.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

// DefaultRateLimitConfig returns the settings applied to the API group.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{RequestsPerSecond: 100, BurstSize: 200}
}

// bucket is a token bucket refilled continuously at rate tokens/second.
type bucket struct {
	mu     sync.Mutex
	tokens float64
	max    float64
	rate   float64
	last   time.Time
}

func newBucket(rate float64, burst int) *bucket {
	return &bucket{tokens: float64(burst), max: float64(burst), rate: rate, last: time.Now()}
}

// take spends one token. When the bucket is empty it reports false together
// with the whole seconds until a token becomes available.
func (b *bucket) take() (bool, int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.tokens += now.Sub(b.last).Seconds() * b.rate
	if b.tokens > b.max {
		b.tokens = b.max
	}
	b.last = now

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	if b.rate <= 0 {
		return false, 1
	}
	return false, int((1-b.tokens)/b.rate) + 1
}

// limiterSet lazily creates one bucket per client key.
type limiterSet struct {
	mu      sync.RWMutex
	buckets map[string]*bucket
	cfg     RateLimitConfig
}

func newLimiterSet(cfg RateLimitConfig) *limiterSet {
	return &limiterSet{buckets: make(map[string]*bucket), cfg: cfg}
}

func (s *limiterSet) bucketFor(key string) *bucket {
	s.mu.RLock()
	b, ok := s.buckets[key]
	s.mu.RUnlock()
	if ok {
		return b
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.buckets[key]; ok {
		return b
	}
	b = newBucket(s.cfg.RequestsPerSecond, s.cfg.BurstSize)
	s.buckets[key] = b
	return b
}

// RateLimit returns token-bucket rate limiting middleware. Buckets are keyed
// on client IP, prefixed with the hospital branch when the token names one, so
// one busy branch cannot starve another behind the same proxy.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	limiters := newLimiterSet(cfg)
	limit := strconv.FormatFloat(cfg.RequestsPerSecond, 'f', 0, 64)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.RealIP()
			if branch, ok := c.Get("jwt_tenant_id").(string); ok && branch != "" {
				key = branch + ":" + key
			}

			ok, retryAfter := limiters.bucketFor(key).take()
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)
			if !ok {
				h.Set("Retry-After", strconv.Itoa(retryAfter))
				h.Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
