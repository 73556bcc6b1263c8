// Package stub is a local stand-in for the document registry. It accepts
// create-document calls and audits how many arrived within any trailing
// period, so a client's throttle can be checked end to end.
package stub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/adamwoolhether/crpt/documents"
	"github.com/adamwoolhether/crpt/web"
	"github.com/adamwoolhether/crpt/web/errs"
	"github.com/adamwoolhether/crpt/web/middleware"
	"github.com/adamwoolhether/crpt/web/mux"
)

const namespace = "crpt_stub"

// Audit summarises the arrivals seen so far.
type Audit struct {
	Received    int    `json:"received"`
	MaxInWindow int    `json:"max_in_window"`
	Period      string `json:"period"`
}

// Registry records create-document arrivals.
type Registry struct {
	period   time.Duration
	log      *slog.Logger
	app      *mux.App
	docs     prometheus.Counter
	peakSeen prometheus.Gauge

	mu       sync.Mutex
	received int
	peak     int
	recent   []time.Time
}

// New returns a Registry auditing arrivals against period. A nil reg
// gets a fresh registry, which /metrics then serves.
func New(period time.Duration, log *slog.Logger, reg *prometheus.Registry) *Registry {
	if log == nil {
		log = slog.Default()
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	factory := promauto.With(reg)

	s := &Registry{
		period: period,
		log:    log,
		docs: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_received_total",
			Help:      "Total number of documents accepted",
		}),
		peakSeen: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "max_in_window",
			Help:      "Most documents seen within any trailing audit period",
		}),
	}

	s.app = mux.New(
		mux.WithLogger(log),
		mux.WithMiddleware(
			middleware.Logger(log),
			middleware.Metrics(reg, namespace),
			middleware.Errors(log),
			middleware.Panics(),
		),
	)
	s.app.Post("/api/v3/lk/documents/create", s.create)
	s.app.Get("/v1/audit", s.audit)
	s.app.HandleRaw(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	return s
}

// Handler returns the registry's routes.
func (s *Registry) Handler() http.Handler {
	return s.app
}

// Audit reports arrivals so far.
func (s *Registry) Audit() Audit {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.auditLocked()
}

// Reset forgets every recorded arrival.
func (s *Registry) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.received, s.peak, s.recent = 0, 0, nil
	s.peakSeen.Set(0)
}

func (s *Registry) auditLocked() Audit {
	return Audit{
		Received:    s.received,
		MaxInWindow: s.peak,
		Period:      s.period.String(),
	}
}

func (s *Registry) create(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if r.Header.Get("Signature") == "" {
		return errs.NewFieldsError("Signature", errors.New("header is required"))
	}

	var doc documents.Document
	if err := web.DecodeAllowUnknownFields(r, &doc); err != nil {
		return errs.New(http.StatusBadRequest, err)
	}

	a := s.record(mux.GetValues(ctx).Now)

	s.docs.Inc()
	s.peakSeen.Set(float64(a.MaxInWindow))

	s.log.Info("document received",
		"request_id", mux.GetRequestID(ctx),
		"doc_id", doc.DocID,
		"doc_type", doc.DocType,
		"in_window", a.MaxInWindow,
	)

	return web.RespondJSON(ctx, w, http.StatusOK, map[string]string{"value": uuid.NewString()})
}

// record adds an arrival and updates the peak from the windows that
// contain it. recent stays sorted and keeps only arrivals within two
// periods of the newest, so an arrival recorded slightly out of order
// still meets its neighbours.
func (s *Registry) record(at time.Time) Audit {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recent = slices.Insert(s.recent, search(s.recent, at), at)
	s.received++

	lo := search(s.recent, at.Add(-s.period))
	hi := search(s.recent, at.Add(s.period).Add(time.Nanosecond))
	s.peak = max(s.peak, MaxInWindow(s.recent[lo:hi], s.period))

	newest := s.recent[len(s.recent)-1]
	if cut := search(s.recent, newest.Add(-2*s.period)); cut > 0 {
		s.recent = slices.Delete(s.recent, 0, cut)
	}

	return s.auditLocked()
}

// search returns the index of the first time in sorted not before t.
func search(sorted []time.Time, t time.Time) int {
	i, _ := slices.BinarySearchFunc(sorted, t, func(e, t time.Time) int { return e.Compare(t) })
	return i
}

func (s *Registry) audit(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	reset, err := web.QueryBool(r, "reset")
	if err != nil {
		return errs.New(http.StatusBadRequest, err)
	}

	a := s.Audit()
	if reset {
		s.Reset()
	}

	return web.RespondJSON(ctx, w, http.StatusOK, a)
}

// MaxInWindow returns the largest number of times falling within any
// closed interval of length period.
func MaxInWindow(times []time.Time, period time.Duration) int {
	sorted := slices.SortedFunc(slices.Values(times), func(a, b time.Time) int { return a.Compare(b) })

	var best, lo int
	for hi := range sorted {
		for sorted[hi].Sub(sorted[lo]) > period {
			lo++
		}
		best = max(best, hi-lo+1)
	}

	return best
}

func (a Audit) String() string {
	return fmt.Sprintf("%d received, at most %d per %s", a.Received, a.MaxInWindow, a.Period)
}
