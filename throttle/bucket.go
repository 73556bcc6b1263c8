package throttle

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Bucket adapts the time/rate token bucket to the [Limiter] interface.
// Unlike [Window] it allows bursts up to burst and then refills smoothly
// at rps tokens per second.
type Bucket struct {
	limiter *rate.Limiter
	rps     int
	burst   int
}

// NewBucket returns a token bucket refilling rps tokens per second.
func NewBucket(rps, burst int) (*Bucket, error) {
	if rps <= 0 || burst <= 0 {
		return nil, fmt.Errorf("rps[%d] and burst[%d] %w", rps, burst, ErrMustNotBeZero)
	}

	b := &Bucket{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		rps:     rps,
		burst:   burst,
	}

	return b, nil
}

func (b *Bucket) String() string {
	return fmt.Sprintf("rps[%d] burst[%d]", b.rps, b.burst)
}

// TryAcquire takes a token if one is available.
func (b *Bucket) TryAcquire() bool {
	return b.limiter.Allow()
}

// Acquire waits for a token. It fails without consuming one if ctx ends
// first or the wait would outlast the ctx deadline.
func (b *Bucket) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w early: %w", ErrContextEnded, err)
	}

	if err := b.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrWaitingFailed, err)
	}

	return nil
}
