package session

import (
	"log/slog"

	"github.com/humus-dev/humus/pkg/host"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithValidation enables tree validation before every render.
// Invalid trees are rejected without touching the host.
func WithValidation(enabled bool) Option {
	return func(s *Session) {
		s.validate = enabled
	}
}

// WithMaterializeHook sets a hook called for every host node the session
// creates.
func WithMaterializeHook(hook host.Hook) Option {
	return func(s *Session) {
		s.hook = hook
	}
}

// WithObserver registers an observer. May be given more than once.
func WithObserver(o Observer) Option {
	return func(s *Session) {
		s.observers = append(s.observers, o)
	}
}

// WithMetrics records render metrics.
func WithMetrics(m *Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// WithTracer sets the tracer used for render spans.
// Default: otel.Tracer("humus").
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Session) {
		s.tracer = tracer
	}
}

// WithID sets the session ID. Default: a random UUID.
func WithID(id string) Option {
	return func(s *Session) {
		s.id = id
	}
}
