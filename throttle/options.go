package throttle

import (
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// DefaultPollInterval bounds how long a blocked Acquire sleeps before it
// re-checks the window.
const DefaultPollInterval = 50 * time.Millisecond

const tracerName = "github.com/adamwoolhether/crpt/throttle"

// Option is a functional option for configuring a [Window] via [New].
type Option func(*options) error

type options struct {
	poll    time.Duration
	maxWait time.Duration
	now     func() time.Time
	metrics *Metrics
	tracer  trace.Tracer
}

func defaultOptions() options {
	return options{
		poll:   DefaultPollInterval,
		now:    time.Now,
		tracer: otel.Tracer(tracerName),
	}
}

// WithPollInterval sets the upper bound on a single sleep while blocked.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return errors.New("poll interval must be positive")
		}
		o.poll = d
		return nil
	}
}

// WithMaxWait caps how long one Acquire may block. Zero means no cap.
func WithMaxWait(d time.Duration) Option {
	return func(o *options) error {
		if d < 0 {
			return errors.New("max wait must not be negative")
		}
		o.maxWait = d
		return nil
	}
}

// WithClock replaces time.Now as the source of admission timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now == nil {
			return errors.New("clock must not be nil")
		}
		o.now = now
		return nil
	}
}

// WithMetrics records admissions, abandoned waits and wait time to m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) error {
		o.metrics = m
		return nil
	}
}

// WithTracer replaces the global otel tracer used for acquire spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) error {
		if tracer == nil {
			return errors.New("tracer must not be nil")
		}
		o.tracer = tracer
		return nil
	}
}
