package audio

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimiter caps uploads per client address in fixed windows.
type RateLimiter struct {
	mu        sync.Mutex
	windows   map[string]*window
	rate      int
	length    time.Duration
	lastPrune time.Time
	now       func() time.Time
}

type window struct {
	start time.Time
	used  int
}

// NewRateLimiter allows rate requests per client in each window of the
// given length. A rate of zero or less disables limiting.
func NewRateLimiter(rate int, length time.Duration) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string]*window),
		rate:    rate,
		length:  length,
		now:     time.Now,
	}
}

func (rl *RateLimiter) Allow(key string) bool {
	ok, _ := rl.take(key)
	return ok
}

// take consumes one request for key. When the window is exhausted it
// reports how long until the next one opens.
func (rl *RateLimiter) take(key string) (bool, time.Duration) {
	if rl.rate <= 0 {
		return true, 0
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastPrune) > rl.length {
		rl.pruneLocked(now)
	}

	w, ok := rl.windows[key]
	if !ok || now.Sub(w.start) >= rl.length {
		rl.windows[key] = &window{start: now, used: 1}
		return true, 0
	}

	if w.used < rl.rate {
		w.used++
		return true, 0
	}
	return false, w.start.Add(rl.length).Sub(now)
}

// Prune drops windows that have already closed.
func (rl *RateLimiter) Prune() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.pruneLocked(rl.now())
}

func (rl *RateLimiter) pruneLocked(now time.Time) {
	for key, w := range rl.windows {
		if now.Sub(w.start) >= rl.length {
			delete(rl.windows, key)
		}
	}
	rl.lastPrune = now
}

// Len reports how many clients are currently tracked.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.windows)
}

// Middleware rate limits by client address. Put it behind chi's RealIP
// middleware so proxied requests are keyed by the forwarded address.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, wait := rl.take(clientIP(r))
		if !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
