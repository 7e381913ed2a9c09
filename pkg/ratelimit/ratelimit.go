// Package ratelimit implements a fixed-window request counter keyed by
// (client address, route). Windows are process-local; a multi-instance
// deployment needs a shared counter store instead.
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"orderflow/pkg/logger"
	"orderflow/pkg/metric"
)

const (
	_defaultSweepInterval = 5 * time.Minute
)

// Class is a named window configuration applied per route group.
type Class struct {
	Window      time.Duration
	MaxRequests int
}

// Decision reports the outcome of a single admit call. Remaining and Reset
// are carried on every response as X-RateLimit-* metadata.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	Reset      time.Time
	RetryAfter int
}

type window struct {
	count     int
	resetTime time.Time
}

type Limiter struct {
	mutex   sync.Mutex
	windows map[string]*window
	log     logger.Logger
	metrics metric.RateLimit

	sweepInterval time.Duration
	sweepStop     chan struct{}
	now           func() time.Time
}

func NewLimiter(log logger.Logger, metrics metric.RateLimit, opts ...Option) (*Limiter, error) {
	l := &Limiter{
		windows:       make(map[string]*window),
		log:           log,
		metrics:       metrics,
		sweepInterval: _defaultSweepInterval,
		now:           time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}
	if err := l.validate(); err != nil {
		return nil, fmt.Errorf("ratelimit.NewLimiter: %w", err)
	}

	return l, nil
}

// Admit counts a request against the window for (clientAddr, routePath). A
// denied request is still counted; the caller is told when the window resets.
// Admit never fails: the only outcomes are allowed and denied.
func (l *Limiter) Admit(clientAddr, routePath string, class Class) Decision {
	key := clientAddr + ":" + routePath
	now := l.now()

	l.mutex.Lock()
	defer l.mutex.Unlock()

	w, ok := l.windows[key]
	if !ok || now.After(w.resetTime) {
		w = &window{count: 0, resetTime: now.Add(class.Window)}
		l.windows[key] = w
	}
	w.count++

	if w.count > class.MaxRequests {
		retryAfter := int((w.resetTime.Sub(now) + time.Second - 1) / time.Second)
		if retryAfter < 1 {
			retryAfter = 1
		}
		l.metrics.Denied(routePath)
		return Decision{
			Allowed:    false,
			Limit:      class.MaxRequests,
			Remaining:  0,
			Reset:      w.resetTime,
			RetryAfter: retryAfter,
		}
	}

	l.metrics.Admitted(routePath)
	return Decision{
		Allowed:   true,
		Limit:     class.MaxRequests,
		Remaining: class.MaxRequests - w.count,
		Reset:     w.resetTime,
	}
}

func (l *Limiter) Len() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return len(l.windows)
}

// StartSweep launches the periodic removal of expired windows. An expired
// window is functionally equivalent to no window, so the sweep only bounds
// memory and is never correctness-critical.
func (l *Limiter) StartSweep() {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.sweepStop != nil {
		close(l.sweepStop)
	}
	l.sweepStop = make(chan struct{})
	go l.runSweep(l.sweepStop)
}

func (l *Limiter) StopSweep() {
	l.mutex.Lock()
	if l.sweepStop != nil {
		close(l.sweepStop)
		l.sweepStop = nil
	}
	l.mutex.Unlock()
}

func (l *Limiter) runSweep(stop chan struct{}) {
	ticker := time.NewTicker(l.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.sweepExpired()
		case <-stop:
			return
		}
	}
}

func (l *Limiter) sweepExpired() {
	now := l.now()

	l.mutex.Lock()
	removed := 0
	for key, w := range l.windows {
		if now.After(w.resetTime) {
			delete(l.windows, key)
			removed++
		}
	}
	remaining := len(l.windows)
	l.mutex.Unlock()

	l.metrics.TrackedKeys(remaining)
	if removed > 0 {
		l.log.Infow("rate limit sweep completed",
			"removed", removed,
			"remaining", remaining,
		)
	}
}
