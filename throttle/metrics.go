package throttle

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for a limiter. A nil *Metrics
// records nothing.
type Metrics struct {
	admissions *prometheus.CounterVec
	abandoned  prometheus.Counter
	wait       prometheus.Histogram
	inUse      prometheus.Gauge
}

// NewMetrics registers the throttle collectors with reg. A nil reg
// creates unregistered collectors.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		admissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "throttle",
				Name:      "admissions_total",
				Help:      "Total number of admitted operations, by whether the caller had to wait",
			},
			[]string{"result"},
		),
		abandoned: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "throttle",
				Name:      "abandoned_total",
				Help:      "Total number of waits abandoned before admission",
			},
		),
		wait: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "throttle",
				Name:      "wait_seconds",
				Help:      "Time spent blocked before admission",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 16), // 1ms to ~33s
			},
		),
		inUse: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "throttle",
				Name:      "window_in_use",
				Help:      "Admissions currently inside the sliding window",
			},
		),
	}
}

func (m *Metrics) admitted(waited bool, d time.Duration) {
	if m == nil {
		return
	}

	result := "immediate"
	if waited {
		result = "waited"
	}
	m.admissions.WithLabelValues(result).Inc()
	m.wait.Observe(d.Seconds())
}

func (m *Metrics) abandon() {
	if m == nil {
		return
	}
	m.abandoned.Inc()
}

func (m *Metrics) setInUse(n int) {
	if m == nil {
		return
	}
	m.inUse.Set(float64(n))
}
