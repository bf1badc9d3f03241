package httpapi

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/harborops/quayplan/internal/application/common"
)

// ipRateLimiter holds one token bucket per client IP. Buckets idle past the
// eviction age are dropped on the next sweep.
type ipRateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*ipBucket
	perMin   int
	lastSeen time.Duration
}

type ipBucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

func newIPRateLimiter(perMinute int) *ipRateLimiter {
	return &ipRateLimiter{
		buckets:  make(map[string]*ipBucket),
		perMin:   perMinute,
		lastSeen: 10 * time.Minute,
	}
}

func (l *ipRateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[ip]
	if !ok {
		b = &ipBucket{
			limiter: rate.NewLimiter(rate.Limit(float64(l.perMin)/60.0), l.perMin),
		}
		l.buckets[ip] = b
	}
	b.seen = time.Now()
	if len(l.buckets) > 1024 {
		l.sweepLocked()
	}
	return b.limiter.Allow()
}

func (l *ipRateLimiter) sweepLocked() {
	cutoff := time.Now().Add(-l.lastSeen)
	for ip, b := range l.buckets {
		if b.seen.Before(cutoff) {
			delete(l.buckets, ip)
		}
	}
}

// rateLimitMiddleware rejects clients past their per-minute budget with 429
func rateLimitMiddleware(perMinute int) func(http.Handler) http.Handler {
	limiter := newIPRateLimiter(perMinute)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if perMinute > 0 && !limiter.allow(clientIP(r)) {
				writeJSON(w, http.StatusTooManyRequests, map[string]string{
					"error": "rate limit exceeded",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// loggingMiddleware attaches the logger to the request context and records
// each request at DEBUG
func loggingMiddleware(logger common.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := common.WithLogger(r.Context(), logger)
			start := time.Now()
			next.ServeHTTP(w, r.WithContext(ctx))
			logger.Log("DEBUG", "HTTP request", map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start).String(),
			})
		})
	}
}
