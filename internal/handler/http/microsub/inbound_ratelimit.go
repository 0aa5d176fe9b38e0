package microsub

import (
	"net/http"
	"time"

	"microsubd/internal/handler/http/respond"
	"microsubd/pkg/ratelimit"
)

// InboundRateLimiter throttles the unauthenticated push/mention endpoints
// (webmention receive, WebSub callback) per source IP, grounded on
// pkg/ratelimit's sliding-window algorithm (the teacher's general-purpose
// rate limiter, otherwise unwired once the auth-gated API it originally
// protected was dropped).
type InboundRateLimiter struct {
	store     *ratelimit.InMemoryRateLimitStore
	algorithm ratelimit.RateLimitAlgorithm
	limit     int
	window    time.Duration
}

// NewInboundRateLimiter builds a limiter allowing limit requests per window
// per remote IP.
func NewInboundRateLimiter(limit int, window time.Duration) *InboundRateLimiter {
	return &InboundRateLimiter{
		store:     ratelimit.NewInMemoryRateLimitStore(ratelimit.DefaultInMemoryStoreConfig()),
		algorithm: ratelimit.NewSlidingWindowAlgorithm(&ratelimit.SystemClock{}),
		limit:     limit,
		window:    window,
	}
}

// Store exposes the underlying store so the entrypoint can wire periodic
// cleanup (internal/handler/http.StartRateLimitCleanup), the same pattern
// the teacher uses for its own rate limiters.
func (rl *InboundRateLimiter) Store() *ratelimit.InMemoryRateLimitStore {
	return rl.store
}

// Window returns the configured sliding window, for cleanup cutoff sizing.
func (rl *InboundRateLimiter) Window() time.Duration {
	return rl.window
}

func (rl *InboundRateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r)
		decision, err := rl.algorithm.IsAllowed(r.Context(), key, rl.store, rl.limit, rl.window)
		if err != nil {
			// Fail open: a rate limiter outage must never block legitimate
			// webmention/websub traffic.
			next.ServeHTTP(w, r)
			return
		}
		if !decision.Allowed {
			w.Header().Set("Retry-After", decision.RetryAfter.Truncate(time.Second).String())
			respond.Error(w, http.StatusTooManyRequests, errRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return r.RemoteAddr
}
