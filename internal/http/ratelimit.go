package http

import (
	"sync"
	"time"
)

// Form submissions are the only writes this app accepts, so the limiter
// throttles POSTs only; dashboards, reports and static assets stay uncapped.
const (
	postLimit     = 60 // POSTs per window per client
	limitWindow   = time.Minute
	staleAfter    = 10 * time.Minute
	sweepInterval = 5 * time.Minute
)

// postLimiter counts POSTs per client IP over a fixed window. Windows for
// idle clients are swept periodically so the map stays bounded.
type postLimiter struct {
	mu      sync.Mutex
	windows map[string]*postWindow
	stop    chan struct{}
	once    sync.Once
}

type postWindow struct {
	startedAt time.Time
	posts     int
}

func newPostLimiter() *postLimiter {
	pl := &postLimiter{
		windows: make(map[string]*postWindow),
		stop:    make(chan struct{}),
	}
	go pl.sweepLoop()
	return pl
}

// allow records a POST from clientIP and reports whether it is within the
// current window's budget.
func (pl *postLimiter) allow(clientIP string) bool {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	now := time.Now()
	w, ok := pl.windows[clientIP]
	if !ok || now.Sub(w.startedAt) > limitWindow {
		pl.windows[clientIP] = &postWindow{startedAt: now, posts: 1}
		return true
	}

	w.posts++
	return w.posts <= postLimit
}

func (pl *postLimiter) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pl.sweep()
		case <-pl.stop:
			return
		}
	}
}

// sweep drops windows whose last activity predates staleAfter.
func (pl *postLimiter) sweep() {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	cutoff := time.Now().Add(-staleAfter)
	for ip, w := range pl.windows {
		if w.startedAt.Before(cutoff) {
			delete(pl.windows, ip)
		}
	}
}

// shutdown stops the sweep goroutine. Safe to call more than once.
func (pl *postLimiter) shutdown() {
	pl.once.Do(func() {
		close(pl.stop)
	})
}
