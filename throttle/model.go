package throttle

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrMustNotBeZero = errors.New("must be greater than zero")
	ErrWaitingFailed = errors.New("limiter waiting failed")
	ErrContextEnded  = errors.New("throttle context ended")
)

// Limiter gates the start of an operation. TryAcquire never blocks and
// reports whether the caller was admitted. Acquire blocks until the caller
// is admitted or ctx ends; an error means no admission was recorded.
type Limiter interface {
	TryAcquire() bool
	Acquire(ctx context.Context) error
}

// Config defines a sliding window:
// at most Capacity admissions within any trailing Period.
type Config struct {
	Capacity int
	Period   time.Duration
}

// Validate reports whether the window can be constructed.
func (c Config) Validate() error {
	if c.Capacity <= 0 || c.Period <= 0 {
		return fmt.Errorf("capacity[%d] and period[%s] %w", c.Capacity, c.Period, ErrMustNotBeZero)
	}

	return nil
}
