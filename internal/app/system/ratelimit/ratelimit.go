// Package ratelimit provides a per-device token-bucket limiter for the
// credential endpoints. Login and sign-up are the only routes worth
// brute-forcing, so they get a tight budget keyed by device; the rest of
// the API is left alone.
package ratelimit

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gymovoo/gymovoo/internal/app/system/auth"
	"golang.org/x/time/rate"
)

// Limiter hands out a token bucket per device key and reaps buckets
// that have been idle for a while.
type Limiter struct {
	rate  rate.Limit
	burst int

	mu      sync.Mutex
	buckets map[string]*bucket

	stop chan struct{}
	once sync.Once
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// New creates a limiter allowing r events per second with the given
// burst, per device. A background sweep drops idle buckets.
func New(r rate.Limit, burst int) *Limiter {
	l := &Limiter{
		rate:    r,
		burst:   burst,
		buckets: make(map[string]*bucket),
		stop:    make(chan struct{}),
	}
	go l.sweep()
	return l
}

// Allow reports whether the device may proceed.
func (l *Limiter) Allow(deviceKey string) bool {
	l.mu.Lock()
	b, ok := l.buckets[deviceKey]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.rate, l.burst)}
		l.buckets[deviceKey] = b
	}
	b.lastSeen = time.Now()
	l.mu.Unlock()

	return b.lim.Allow()
}

// Middleware rejects over-limit requests with a 429 JSON body. Requests
// with no device key (middleware misordering) pass through; the handler
// behind will reject them anyway.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, ok := auth.DeviceKey(r)
		if ok && !l.Allow(key) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error": "too many attempts, slow down",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Close stops the background sweep.
func (l *Limiter) Close() {
	l.once.Do(func() { close(l.stop) })
}

func (l *Limiter) sweep() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case now := <-ticker.C:
			l.mu.Lock()
			for key, b := range l.buckets {
				if now.Sub(b.lastSeen) > 30*time.Minute {
					delete(l.buckets, key)
				}
			}
			l.mu.Unlock()
		}
	}
}
