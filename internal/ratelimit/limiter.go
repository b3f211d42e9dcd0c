package ratelimit

import (
	"sync"
	"time"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is the time left until the window resets, rounded up to a second.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	wait := d.ResetAt.Sub(now)
	if wait <= 0 {
		return 0
	}
	if rounded := wait.Truncate(time.Second); rounded < wait {
		return rounded + time.Second
	}
	return wait
}

type window struct {
	count   int
	resetAt time.Time
}

// Limiter counts attempts per identity in fixed windows. Each limited action
// gets its own Limiter so quotas never leak between actions.
type Limiter struct {
	mu      sync.Mutex
	limit   int
	period  time.Duration
	windows map[string]*window
	now     func() time.Time

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

type Option func(*Limiter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New returns a limiter allowing limit attempts per period for each identity.
func New(limit int, period time.Duration, opts ...Option) *Limiter {
	if limit < 1 {
		limit = 1
	}
	if period <= 0 {
		period = time.Minute
	}
	l := &Limiter{
		limit:   limit,
		period:  period,
		windows: make(map[string]*window),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow records an attempt by identity.
func (l *Limiter) Allow(identity string) Decision {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[identity]
	if !ok || now.After(w.resetAt) {
		w = &window{count: 1, resetAt: now.Add(l.period)}
		l.windows[identity] = w
		return Decision{Allowed: true, Remaining: l.limit - 1, ResetAt: w.resetAt}
	}

	w.count++
	if w.count > l.limit {
		return Decision{Allowed: false, Remaining: 0, ResetAt: w.resetAt}
	}
	return Decision{Allowed: true, Remaining: l.limit - w.count, ResetAt: w.resetAt}
}

// Limit is the per-window ceiling.
func (l *Limiter) Limit() int { return l.limit }

// Sweep drops windows that have already reset and returns how many it removed.
func (l *Limiter) Sweep() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for id, w := range l.windows {
		if now.After(w.resetAt) {
			delete(l.windows, id)
			n++
		}
	}
	return n
}

// Len returns the number of tracked identities.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// StartSweeper runs Sweep every interval until Close.
// Windows also expire lazily on Allow, so the sweeper only bounds memory.
func (l *Limiter) StartSweeper(interval time.Duration) {
	if interval <= 0 || l.stop != nil {
		return
	}
	l.stop = make(chan struct{})
	l.done = make(chan struct{})

	go func() {
		defer close(l.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Sweep()
			case <-l.stop:
				return
			}
		}
	}()
}

// Close stops the sweeper, if running, and waits for it to exit.
func (l *Limiter) Close() {
	l.once.Do(func() {
		if l.stop == nil {
			return
		}
		close(l.stop)
		<-l.done
	})
}
