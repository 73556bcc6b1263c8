package stub

import (
	"log/slog"
	"math/rand/v2"
	"testing"
	"time"
)

func newTestRegistry(period time.Duration) *Registry {
	return New(period, slog.New(slog.DiscardHandler), nil)
}

func TestRecord_KeepsRecentBounded(t *testing.T) {
	const (
		period  = time.Second
		spacing = 600 * time.Millisecond
		n       = 200
	)

	s := newTestRegistry(period)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := range n {
		s.record(base.Add(time.Duration(i) * spacing))

		if got := len(s.recent); got > 5 {
			t.Fatalf("after %d arrivals %d are retained; want them trimmed to about two periods", i+1, got)
		}
	}

	a := s.Audit()
	if a.Received != n {
		t.Errorf("received = %d; want %d", a.Received, n)
	}
	if a.MaxInWindow != 2 {
		t.Errorf("max in window = %d; want 2", a.MaxInWindow)
	}
}

func TestRecord_PeakMatchesFullScan(t *testing.T) {
	const period = 100 * time.Millisecond

	s := newTestRegistry(period)
	rng := rand.New(rand.NewPCG(1, 2))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var all []time.Time
	at := base
	for range 500 {
		at = at.Add(time.Duration(rng.IntN(40)) * time.Millisecond)
		// Arrivals may be recorded a little out of order.
		jittered := at.Add(-time.Duration(rng.IntN(20)) * time.Millisecond)

		all = append(all, jittered)
		s.record(jittered)
	}

	if got, want := s.Audit().MaxInWindow, MaxInWindow(all, period); got != want {
		t.Errorf("running peak = %d; full scan = %d", got, want)
	}
}

func TestRecord_Reset(t *testing.T) {
	s := newTestRegistry(time.Second)
	now := time.Now()

	s.record(now)
	s.record(now)
	s.Reset()

	if a := s.Audit(); a.Received != 0 || a.MaxInWindow != 0 || len(s.recent) != 0 {
		t.Errorf("after reset: %+v with %d retained", a, len(s.recent))
	}

	s.record(now)
	if got := s.Audit().MaxInWindow; got != 1 {
		t.Errorf("max in window after reset = %d; want 1", got)
	}
}
