package ratelimit

import (
	"errors"
	"time"
)

type Option func(*Limiter)

func SweepInterval(interval time.Duration) Option {
	return func(l *Limiter) {
		l.sweepInterval = interval
	}
}

// Clock overrides the time source, for tests.
func Clock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

func (l *Limiter) validate() error {
	if l.sweepInterval <= 0 {
		return errors.New("invalid sweepInterval: must be > 0")
	}

	if l.now == nil {
		return errors.New("invalid clock: must not be nil")
	}
	return nil
}
