package throttle

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// throttle is an http.RoundTripper that holds each outbound request
// until its Limiter admits it.
type throttle struct {
	limiter Limiter
	next    http.RoundTripper
	logFn   func() *slog.Logger
	sampler *rate.Sometimes
}

// NewRoundTripper returns an http.RoundTripper gating requests through l.
// logFn lazily resolves the logger at request time, making option ordering
// irrelevant. A nil-returning logFn disables throttle logging.
//
// The request itself runs after admission and outside the limiter, and
// errors from next are returned untouched.
func NewRoundTripper(l Limiter, logFn func() *slog.Logger, next http.RoundTripper) (http.RoundTripper, error) {
	if l == nil {
		return nil, errors.New("limiter must not be nil")
	}
	if next == nil {
		next = http.DefaultTransport
	}
	if logFn == nil {
		logFn = func() *slog.Logger { return nil }
	}

	t := &throttle{
		limiter: l,
		next:    next,
		logFn:   logFn,
		sampler: &rate.Sometimes{First: 1, Interval: time.Second},
	}

	return t, nil
}

func (t *throttle) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx := r.Context()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w early: %w", ErrContextEnded, err)
	}

	if t.limiter.TryAcquire() {
		return t.next.RoundTrip(r)
	}

	logger := t.logFn()
	if logger != nil {
		t.sampler.Do(func() {
			logger.Info("throttle window saturated", "limit", fmt.Sprint(t.limiter), "path", r.URL.Path)
		})
	}

	start := time.Now()
	if err := t.limiter.Acquire(ctx); err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Debug("throttle wait complete", "waited", time.Since(start).String(), "path", r.URL.Path)
	}

	return t.next.RoundTrip(r)
}
