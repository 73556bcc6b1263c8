package throttle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Window is a sliding-window limiter. It keeps the start time of every
// admission in the trailing period and admits a caller only while fewer
// than capacity of those remain. Callers over the limit block until the
// oldest admission ages out; they are never rejected.
//
// A Window is safe for concurrent use and is meant to be shared by every
// caller of the operation it protects.
type Window struct {
	capacity int
	period   time.Duration
	poll     time.Duration
	maxWait  time.Duration
	now      func() time.Time
	metrics  *Metrics
	tracer   trace.Tracer

	mu    sync.Mutex
	log   []time.Time // ring of admissions, oldest at head
	head  int
	count int
}

// New returns a Window admitting at most capacity operations within any
// trailing period. Non-positive values are rejected, never clamped.
func New(capacity int, period time.Duration, optFns ...Option) (*Window, error) {
	if err := (Config{Capacity: capacity, Period: period}).Validate(); err != nil {
		return nil, err
	}

	opts := defaultOptions()
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying window option: %w", err)
		}
	}

	w := &Window{
		capacity: capacity,
		period:   period,
		poll:     opts.poll,
		maxWait:  opts.maxWait,
		now:      opts.now,
		metrics:  opts.metrics,
		tracer:   opts.tracer,
		log:      make([]time.Time, capacity),
	}

	return w, nil
}

// Capacity returns the maximum number of admissions per period.
func (w *Window) Capacity() int { return w.capacity }

// Period returns the window length.
func (w *Window) Period() time.Duration { return w.period }

func (w *Window) String() string {
	return fmt.Sprintf("%d per %s", w.capacity, w.period)
}

// Len returns the number of admissions still inside the window.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.evict(w.now())
	w.metrics.setInUse(w.count)

	return w.count
}

// TryAcquire makes a single admission attempt without blocking.
func (w *Window) TryAcquire() bool {
	ok, _ := w.admit()
	if ok {
		w.metrics.admitted(false, 0)
	}

	return ok
}

// Acquire blocks until the caller is admitted, ctx is done, or the
// configured maximum wait elapses. A returned error means nothing was
// recorded against the window.
func (w *Window) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w early: %w", ErrContextEnded, err)
	}

	if w.maxWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.maxWait)
		defer cancel()
	}

	ctx, span := w.tracer.Start(ctx, "throttle.acquire", trace.WithAttributes(
		attribute.Int("throttle.capacity", w.capacity),
		attribute.String("throttle.period", w.period.String()),
	))
	defer span.End()

	start := time.Now()
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for waited := false; ; waited = true {
		ok, delay := w.admit()
		if ok {
			elapsed := time.Since(start)
			span.SetAttributes(attribute.Bool("throttle.waited", waited), attribute.String("throttle.wait", elapsed.String()))
			w.metrics.admitted(waited, elapsed)
			return nil
		}

		delay = min(delay, w.poll)
		if timer == nil {
			timer = time.NewTimer(delay)
		} else {
			timer.Reset(delay)
		}

		select {
		case <-ctx.Done():
			err := ctx.Err()
			span.RecordError(err)
			span.SetStatus(codes.Error, "wait abandoned")
			w.metrics.abandon()
			return fmt.Errorf("%w: %w", ErrWaitingFailed, err)
		case <-timer.C:
		}
	}
}

// admit runs one evict-check-append pass under the lock. When the window
// is full it returns the time left until the oldest admission goes stale.
func (w *Window) admit() (bool, time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	w.evict(now)

	if w.count == w.capacity {
		oldest := w.log[w.head]
		return false, oldest.Add(w.period).Sub(now) + time.Nanosecond
	}

	// Keep the ring sorted even if an injected clock steps backwards.
	if w.count > 0 {
		if newest := w.log[(w.head+w.count-1)%w.capacity]; now.Before(newest) {
			now = newest
		}
	}

	w.log[(w.head+w.count)%w.capacity] = now
	w.count++
	w.metrics.setInUse(w.count)

	return true, 0
}

// evict drops the stale prefix of the ring. An entry is stale once its
// age is strictly greater than the period; dropped entries are gone.
func (w *Window) evict(now time.Time) {
	for w.count > 0 && now.Sub(w.log[w.head]) > w.period {
		w.log[w.head] = time.Time{}
		w.head = (w.head + 1) % w.capacity
		w.count--
	}
}
