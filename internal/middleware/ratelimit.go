package middleware

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimiterConfig holds the per-session limits.
type RateLimiterConfig struct {
	// Rate is the sustained number of requests per second.
	Rate  rate.Limit
	Burst int
	// CleanupInterval is how often idle limiters are dropped. A limiter is
	// idle after two intervals without a request.
	CleanupInterval time.Duration
}

// DefaultRateLimiterConfig allows 30 requests per minute with bursts of 10.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Rate:            rate.Limit(30.0 / 60.0),
		Burst:           10,
		CleanupInterval: 5 * time.Minute,
	}
}

type sessionLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter limits requests per session. It runs a cleanup goroutine until
// Stop is called.
type RateLimiter struct {
	config RateLimiterConfig
	log    *zap.Logger

	mu       sync.Mutex
	limiters map[string]*sessionLimiter

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewRateLimiter starts a RateLimiter.
func NewRateLimiter(config RateLimiterConfig, log *zap.Logger) *RateLimiter {
	if log == nil {
		log = zap.NewNop()
	}
	rl := &RateLimiter{
		config:   config,
		log:      log,
		limiters: make(map[string]*sessionLimiter),
		stopCh:   make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Middleware rejects requests over the limit with 429. It must run after
// Session. Requests that came without a session cookie are limited by
// client address, since every one of them gets a fresh session.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := limiterKey(r)
		if !rl.limiter(key).Allow() {
			rl.log.Warn("rate limit exceeded", zap.String("key", key), zap.String("path", r.URL.Path))
			writeRateLimitResponse(w, rl.config.Rate)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// LimiterCount returns the number of sessions currently tracked.
func (rl *RateLimiter) LimiterCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

func limiterKey(r *http.Request) string {
	sid := GetSessionIDFromContext(r.Context())
	if sid != "" && !IsNewSession(r.Context()) {
		return "sid:" + sid
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

func (rl *RateLimiter) limiter(sid string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	sl, ok := rl.limiters[sid]
	if !ok {
		sl = &sessionLimiter{limiter: rate.NewLimiter(rl.config.Rate, rl.config.Burst)}
		rl.limiters[sid] = sl
	}
	sl.lastAccess = time.Now()
	return sl.limiter
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.cleanup(time.Now())
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RateLimiter) cleanup(now time.Time) {
	ttl := rl.config.CleanupInterval * 2
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for sid, sl := range rl.limiters {
		if now.Sub(sl.lastAccess) > ttl {
			delete(rl.limiters, sid)
		}
	}
}

func writeRateLimitResponse(w http.ResponseWriter, r rate.Limit) {
	retryAfter := 1
	if r > 0 {
		retryAfter = max(1, int(math.Ceil(1.0/float64(r))))
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    "rate_limited",
		"message": "too many requests, retry later",
	})
}
