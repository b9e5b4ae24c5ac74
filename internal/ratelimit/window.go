// Package ratelimit implements sliding-window admission control for
// outbound provider calls. One Window instance guards one provider. The
// state is in-memory only, so a process restart forgets the window and the
// quota can briefly be exceeded right after; horizontally scaled
// deployments each count independently for the same reason.
package ratelimit

import (
	"sync"
	"time"
)

type Window struct {
	mu     sync.Mutex
	stamps []time.Time
	now    func() time.Time
}

type Option func(*Window)

// WithClock injects a time source; tests use it to step through the window
// without sleeping.
func WithClock(now func() time.Time) Option {
	return func(w *Window) { w.now = now }
}

func New(opts ...Option) *Window {
	w := &Window{}
	for _, opt := range opts {
		opt(w)
	}
	if w.now == nil {
		w.now = time.Now
	}
	return w
}

// Allow prunes stamps older than the window and, if fewer than max remain,
// records now and admits the request. A denied request records nothing.
func (w *Window) Allow(max int, window time.Duration) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	w.prune(now, window)
	if len(w.stamps) >= max {
		return false
	}
	w.stamps = append(w.stamps, now)
	return true
}

// WaitTime prunes and returns how long until the next request would be
// admitted: zero while under the limit, otherwise the time until the oldest
// counted stamp exits the window. Never negative, and never records a stamp.
func (w *Window) WaitTime(max int, window time.Duration) time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	w.prune(now, window)
	if len(w.stamps) < max {
		return 0
	}
	wait := window - now.Sub(w.stamps[0])
	if wait < 0 {
		return 0
	}
	return wait
}

func (w *Window) prune(now time.Time, window time.Duration) {
	keep := w.stamps[:0]
	for _, s := range w.stamps {
		if now.Sub(s) < window {
			keep = append(keep, s)
		}
	}
	w.stamps = keep
}
