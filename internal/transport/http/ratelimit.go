package http

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

const rateWindow = time.Minute

// sweepThreshold bounds how many idle windows are kept before a cleanup pass.
const sweepThreshold = 4096

type rateWindowState struct {
	start time.Time
	count int
}

// rateLimiter counts calls per key in fixed one-minute windows.
type rateLimiter struct {
	limit int
	clock clock.Clock

	mu      sync.Mutex
	windows map[string]*rateWindowState
}

func newRateLimiter(limit int, clk clock.Clock) *rateLimiter {
	if limit <= 0 {
		return &rateLimiter{limit: 0}
	}
	if clk == nil {
		clk = clock.New()
	}
	return &rateLimiter{
		limit:   limit,
		clock:   clk,
		windows: make(map[string]*rateWindowState),
	}
}

func (r *rateLimiter) allow(key string) bool {
	if r == nil || r.limit <= 0 {
		return true
	}

	now := r.clock.Now()
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.windows[key]
	if !ok || now.Sub(w.start) >= rateWindow {
		if !ok && len(r.windows) >= sweepThreshold {
			r.sweep(now)
		}
		w = &rateWindowState{start: now}
		r.windows[key] = w
	}
	w.count++
	return w.count <= r.limit
}

func (r *rateLimiter) sweep(now time.Time) {
	for key, w := range r.windows {
		if now.Sub(w.start) >= rateWindow {
			delete(r.windows, key)
		}
	}
}
