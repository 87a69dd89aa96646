package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pagemap/config"
	"github.com/use-agent/pagemap/models"
	"golang.org/x/time/rate"
)

const (
	limiterTTL   = time.Hour
	evictEvery   = 5 * time.Minute
	minRetryWait = time.Second
)

// limiterStore holds one token bucket per caller identity.
type limiterStore struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*limiterEntry
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterStore(cfg config.RateLimitConfig) *limiterStore {
	return &limiterStore{
		limit:    rate.Limit(cfg.RequestsPerSecond),
		burst:    max(cfg.Burst, 1),
		limiters: make(map[string]*limiterEntry),
	}
}

func (s *limiterStore) get(identity string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.limiters[identity]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.limiters[identity] = e
	}
	e.lastSeen = now
	return e.limiter
}

// evict drops buckets idle since before cutoff.
func (s *limiterStore) evict(cutoff time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(s.limiters, id)
		}
	}
}

// retryAfter is how long until the bucket holds a token again, in whole
// seconds.
func (s *limiterStore) retryAfter() int {
	if s.limit <= 0 {
		return int(limiterTTL.Seconds())
	}
	wait := max(time.Duration(float64(time.Second)/float64(s.limit)), minRetryWait)
	return int(math.Ceil(wait.Seconds()))
}

// RateLimit returns per-identity token-bucket rate limiting. The identity
// is the API key when Auth ran, the client IP otherwise. Buckets idle for
// an hour are evicted in the background.
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	store := newLimiterStore(cfg)

	go func() {
		ticker := time.NewTicker(evictEvery)
		defer ticker.Stop()
		for now := range ticker.C {
			store.evict(now.Add(-limiterTTL))
		}
	}()

	return func(c *gin.Context) {
		identity := c.GetString(identityKey)
		if identity == "" {
			identity = c.ClientIP()
		}

		if !store.get(identity, time.Now()).Allow() {
			c.Header("Retry-After", strconv.Itoa(store.retryAfter()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ScrapeResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeRateLimited,
					Message: "rate limit exceeded, please slow down",
				},
			})
			return
		}
		c.Next()
	}
}
