package api

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// visitorIdle is how long an unused bucket is kept.
	visitorIdle = 10 * time.Minute
	pruneEvery  = time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiter keeps one token bucket per identity. Guests are keyed by address.
type limiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	now       func() time.Time
	lastPrune time.Time
}

func newLimiter(perMinute float64, burst int, now func() time.Time) *limiter {
	if burst < 1 {
		burst = 1
	}
	return &limiter{
		visitors:  make(map[string]*visitor),
		limit:     rate.Limit(perMinute / 60),
		burst:     burst,
		now:       now,
		lastPrune: now(),
	}
}

func (l *limiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastPrune) > pruneEvery {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > visitorIdle {
				delete(l.visitors, k)
			}
		}
		l.lastPrune = now
	}

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// retryAfter is the time until one token is refilled, in whole seconds.
func (l *limiter) retryAfter() int {
	return max(1, int(math.Ceil(1/float64(l.limit))))
}

func (l *limiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := OwnerFromContext(r.Context())
		if key == "" {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}
			key = "addr:" + host
		}
		if !l.allow(key) {
			w.Header().Set("Retry-After", strconv.Itoa(l.retryAfter()))
			writeErrorBody(w, http.StatusTooManyRequests, "Too many requests. Please slow down.", true)
			return
		}
		next.ServeHTTP(w, r)
	})
}
