package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	limiterSweepInterval = 10 * time.Minute
	limiterIdleCutoff    = 30 * time.Minute
)

// limiterPool keeps one token bucket per key and evicts buckets that have
// been idle past the cutoff so the map cannot grow without bound.
type limiterPool struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rps     rate.Limit
	burst   int
}

type bucket struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// newLimiterPool creates a pool and starts its sweep goroutine, which runs
// until ctx is done.
func newLimiterPool(ctx context.Context, requestsPerSecond float64, burst int) *limiterPool {
	p := &limiterPool{
		buckets: make(map[string]*bucket),
		rps:     rate.Limit(requestsPerSecond),
		burst:   burst,
	}
	go p.sweep(ctx)
	return p
}

// allow reports whether the request identified by key fits its bucket.
func (p *limiterPool) allow(key string) bool {
	p.mu.Lock()
	b, ok := p.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(p.rps, p.burst)}
		p.buckets[key] = b
	}
	b.lastAccess = time.Now()
	lim := b.limiter
	p.mu.Unlock()

	return lim.Allow()
}

func (p *limiterPool) sweep(ctx context.Context) {
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-limiterIdleCutoff)
			p.mu.Lock()
			for key, b := range p.buckets {
				if b.lastAccess.Before(cutoff) {
					delete(p.buckets, key)
				}
			}
			p.mu.Unlock()
		case <-ctx.Done():
			return
		}
	}
}

func tooManyRequests(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(`{"title":"Too Many Requests","status":429,"detail":"rate limit exceeded"}`))
}

// RateLimitByIP applies per-client-IP rate limiting for unauthenticated
// endpoints (the auth routes). chi's RealIP middleware has already rewritten
// r.RemoteAddr by the time this runs. ctx bounds the eviction goroutine.
func RateLimitByIP(ctx context.Context, requestsPerSecond float64, burst int) func(http.Handler) http.Handler {
	pool := newLimiterPool(ctx, requestsPerSecond, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !pool.allow(r.RemoteAddr) {
				tooManyRequests(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit applies rate limiting keyed by the tenant the session resolved
// for this request, so one noisy tenant cannot starve the others. Requests
// with no tenant selected pass through unlimited; they are already behind
// the authentication middleware. ctx bounds the eviction goroutine.
func RateLimit(ctx context.Context, requestsPerSecond float64, burst int) func(http.Handler) http.Handler {
	pool := newLimiterPool(ctx, requestsPerSecond, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID, ok := TenantIDFromContext(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			if !pool.allow(tenantID.String()) {
				tooManyRequests(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
