package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Shalbulov/zentro-risk-prediction/internal/http/response"
)

// Limiter decides whether a caller identified by key may proceed.
type Limiter interface {
	Allow(r *http.Request, key string) (bool, error)
}

// RateLimit applies the limiter per client IP. Code-request endpoints sit
// behind a much tighter window than the rest of the API, so the limiter is
// chosen per route group at wiring time.
func RateLimit(limiter Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := limiter.Allow(r, clientIP(r))
			if err != nil {
				// Fail open. Losing the limiter backend should degrade
				// throttling, not availability.
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				w.Header().Set("Retry-After", "60")
				response.Error(w, http.StatusTooManyRequests, "Too many requests, try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LocalLimiter is a fixed-window in-memory limiter for single-instance
// deployments and tests.
type LocalLimiter struct {
	mu     sync.Mutex
	window time.Duration
	limit  int
	counts map[string]*windowCount

	now func() time.Time
}

type windowCount struct {
	start time.Time
	n     int
}

func NewLocalLimiter(limit int, window time.Duration) *LocalLimiter {
	return &LocalLimiter{
		window: window,
		limit:  limit,
		counts: make(map[string]*windowCount),
		now:    time.Now,
	}
}

func (l *LocalLimiter) Allow(_ *http.Request, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	wc, ok := l.counts[key]
	if !ok || now.Sub(wc.start) >= l.window {
		l.counts[key] = &windowCount{start: now, n: 1}
		l.gc(now)
		return true, nil
	}
	if wc.n >= l.limit {
		return false, nil
	}
	wc.n++
	return true, nil
}

// gc drops stale windows while the lock is held. The map stays small in
// practice so a full sweep is fine.
func (l *LocalLimiter) gc(now time.Time) {
	if len(l.counts) < 4096 {
		return
	}
	for k, wc := range l.counts {
		if now.Sub(wc.start) >= l.window {
			delete(l.counts, k)
		}
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
