package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"
)

type bucket struct {
	mu       sync.Mutex
	tokens   float64
	lastSeen time.Time
}

// RateLimiter applies a per-client token bucket keyed by remote IP.
type RateLimiter struct {
	buckets   sync.Map
	perMinute float64
	burst     float64
}

// NewRateLimiter creates a limiter allowing perMinute requests per client
// with a burst of the same size. Idle buckets are evicted in the
// background.
func NewRateLimiter(perMinute int) *RateLimiter {
	rl := &RateLimiter{
		perMinute: float64(perMinute),
		burst:     float64(perMinute),
	}
	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-10 * time.Minute)
		rl.buckets.Range(func(key, value any) bool {
			b := value.(*bucket)
			b.mu.Lock()
			stale := b.lastSeen.Before(cutoff)
			b.mu.Unlock()
			if stale {
				rl.buckets.Delete(key)
			}
			return true
		})
	}
}

func (rl *RateLimiter) allow(ip string) bool {
	now := time.Now()
	value, _ := rl.buckets.LoadOrStore(ip, &bucket{tokens: rl.burst, lastSeen: now})
	b := value.(*bucket)

	b.mu.Lock()
	defer b.mu.Unlock()

	elapsed := now.Sub(b.lastSeen).Minutes()
	b.tokens = min(rl.burst, b.tokens+elapsed*rl.perMinute)
	b.lastSeen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// Limit rejects clients exceeding their request budget with 429.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if !rl.allow(ip) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"success":false,"code":429,"message":"rate limit exceeded"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}
