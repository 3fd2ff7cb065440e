// Package admission applies per-caller request budgets ahead of the domain
// handlers. Budgets are fixed windows keyed by court and identity, so one
// noisy caller in one court cannot starve anyone else.
package admission

import (
	"sync"
	"time"
)

// Decision is the outcome of one admission check.
type Decision int

const (
	// Admit lets the request through and consumes one unit of budget.
	Admit Decision = iota
	// Reject refuses the request; no budget is consumed beyond the window
	// bookkeeping.
	Reject
)

// Config tunes the limiter.
type Config struct {
	// Limit is the number of requests admitted per key per window.
	Limit int
	// Window is the fixed window length.
	Window time.Duration
}

type window struct {
	count   int
	startAt time.Time
}

// Limiter is a fixed-window request counter. Checking and consuming are one
// atomic step under the mutex: concurrent requests for the same key can never
// both be admitted past the limit.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	cfg     Config
	now     func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithNow overrides the clock, primarily for tests.
func WithNow(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// NewLimiter constructs a limiter. Zero config fields get serviceable
// defaults.
func NewLimiter(cfg Config, opts ...Option) *Limiter {
	if cfg.Limit <= 0 {
		cfg.Limit = 60
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	l := &Limiter{
		windows: make(map[string]*window),
		cfg:     cfg,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CheckAndConsume decides admission for one request under key. A key seen for
// the first time, or first seen after its window lapsed, starts a fresh
// window with this request as its first unit.
func (l *Limiter) CheckAndConsume(key string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.Sub(w.startAt) >= l.cfg.Window {
		l.windows[key] = &window{count: 1, startAt: now}
		return Admit
	}
	if w.count >= l.cfg.Limit {
		return Reject
	}
	w.count++
	return Admit
}

// Sweep drops windows that lapsed before the current one could replace them,
// bounding memory under a churning key population. Returns the number removed.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, w := range l.windows {
		if now.Sub(w.startAt) >= l.cfg.Window {
			delete(l.windows, key)
			removed++
		}
	}
	return removed
}
