package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/adamwoolhether/crpt/web/mux"
)

// Metrics counts requests and observes their latency by route pattern
// and status code.
func Metrics(reg prometheus.Registerer, namespace string) mux.Middleware {
	factory := promauto.With(reg)

	requests := factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled",
		},
		[]string{"route", "code"},
	)
	latency := factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Time spent handling HTTP requests",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	m := func(handler mux.Handler) mux.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			start := time.Now()

			err := handler(ctx, w, r)

			code := mux.GetValues(ctx).StatusCode
			if code == 0 {
				code = http.StatusOK
			}

			requests.WithLabelValues(r.Pattern, strconv.Itoa(code)).Inc()
			latency.WithLabelValues(r.Pattern).Observe(time.Since(start).Seconds())

			return err
		}

		return h
	}

	return m
}
