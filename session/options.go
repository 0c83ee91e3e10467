package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-desk/clock"
	"github.com/AntonStoeckl/library-desk/observability"
)

// Option defines a functional option for configuring a Session.
type Option func(*Session) error

// WithClock sets the clock used for borrow timestamps and notification expiry.
func WithClock(c clock.Clock) Option {
	return func(s *Session) error {
		s.clock = c
		return nil
	}
}

// WithNotificationTTL sets how long notifications stay visible.
func WithNotificationTTL(ttl time.Duration) Option {
	return func(s *Session) error {
		s.notificationTTL = ttl
		return nil
	}
}

// WithSessionID sets the session id instead of generating one.
func WithSessionID(id uuid.UUID) Option {
	return func(s *Session) error {
		s.id = id
		return nil
	}
}

// WithUUIDGenerator replaces uuid.New for loan and notification ids.
func WithUUIDGenerator(generate func() uuid.UUID) Option {
	return func(s *Session) error {
		s.newID = generate
		return nil
	}
}

// WithLogger sets the logger for the Session and its catalog loader.
func WithLogger(logger observability.Logger) Option {
	return func(s *Session) error {
		s.instruments.Logger = logger
		return nil
	}
}

// WithContextualLogger sets the context-aware logger for the Session and its catalog loader.
func WithContextualLogger(logger observability.ContextualLogger) Option {
	return func(s *Session) error {
		s.instruments.ContextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Session and its catalog loader.
func WithMetrics(collector observability.MetricsCollector) Option {
	return func(s *Session) error {
		s.instruments.Metrics = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Session and its catalog loader.
func WithTracing(collector observability.TracingCollector) Option {
	return func(s *Session) error {
		s.instruments.Tracing = collector
		return nil
	}
}
