package documents

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/adamwoolhether/crpt/throttle"
)

// DefaultBaseURL is the production registry.
const DefaultBaseURL = "https://ismp.crpt.ru"

const createPath = "/api/v3/lk/documents/create"

// Option is a functional option for configuring an [API] via [New].
type Option func(*options) error

type options struct {
	baseURL   *url.URL
	logger    *slog.Logger
	rt        http.RoundTripper
	timeout   *time.Duration
	userAgent string
	metrics   *throttle.Metrics
	poll      time.Duration
	expected  int
}

func defaultOptions() options {
	base, _ := url.Parse(DefaultBaseURL)

	return options{
		baseURL:  base,
		logger:   slog.Default(),
		poll:     throttle.DefaultPollInterval,
		expected: http.StatusOK,
	}
}

// WithBaseURL points the API at another registry, such as a local stub.
func WithBaseURL(raw string) Option {
	return func(o *options) error {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("parsing base url: %w", err)
		}
		if u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("base url[%s] must be absolute", raw)
		}
		o.baseURL = u
		return nil
	}
}

// WithLogger sets the logger for request and throttle events.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) error {
		if log == nil {
			return errors.New("logger must not be nil")
		}
		o.logger = log
		return nil
	}
}

// WithTransport sets the transport beneath the throttle.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) error {
		if rt == nil {
			return errors.New("transport must not be nil")
		}
		o.rt = rt
		return nil
	}
}

// WithTimeout bounds each call end to end, including time spent waiting
// for a throttle slot.
func WithTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d < 0 {
			return errors.New("timeout must not be negative")
		}
		o.timeout = &d
		return nil
	}
}

// WithUserAgent sets the User-Agent header on every call.
func WithUserAgent(ua string) Option {
	return func(o *options) error {
		o.userAgent = ua
		return nil
	}
}

// WithMetrics records throttle activity to m.
func WithMetrics(m *throttle.Metrics) Option {
	return func(o *options) error {
		o.metrics = m
		return nil
	}
}

// WithPollInterval bounds a single sleep while waiting for a slot.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return errors.New("poll interval must be positive")
		}
		o.poll = d
		return nil
	}
}

// WithExpectedStatus sets the status treated as success. Default is 200.
func WithExpectedStatus(code int) Option {
	return func(o *options) error {
		if code < 100 || code > 599 {
			return fmt.Errorf("invalid status code: %d", code)
		}
		o.expected = code
		return nil
	}
}
