package service

import "time"

type Option func(*IntakeService)

func QueryTimeout(timeout time.Duration) Option {
	return func(s *IntakeService) {
		s.queryTimeout = timeout
	}
}

func DuplicateWindow(window time.Duration) Option {
	return func(s *IntakeService) {
		s.duplicateWindow = window
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *IntakeService) {
		s.now = now
	}
}
