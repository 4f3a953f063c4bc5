package host

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/pageroutes/pkg/deferred"
)

// Request outcomes recorded by RequestMetrics.
const (
	OutcomeOK       = "ok"
	OutcomePending  = "pending"
	OutcomeDegraded = "degraded"
	OutcomeError    = "error"
	OutcomeCanceled = "canceled"
)

// RequestMetrics counts page requests by chi pattern and outcome.
//
// Metrics collected:
//   - <namespace>_page_requests_total{pattern,outcome}
//   - <namespace>_page_request_duration_seconds{pattern}
type RequestMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewRequestMetrics registers request metrics with reg. A nil reg uses the
// default registerer.
func NewRequestMetrics(reg prometheus.Registerer, namespace string) *RequestMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &RequestMetrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "page_requests_total",
			Help:      "Page requests by route pattern and outcome",
		}, []string{"pattern", "outcome"}),

		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "page_request_duration_seconds",
			Help:      "Time from request to rendered page in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"pattern"}),
	}
}

func (m *RequestMetrics) observe(pattern, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(pattern, outcome).Inc()
	if outcome != OutcomeCanceled {
		m.duration.WithLabelValues(pattern).Observe(elapsed.Seconds())
	}
}

// outcome classifies a rendered chain. A failed element outranks one still
// loading.
func outcome(acts []*deferred.Activation) string {
	result := OutcomeOK
	for _, a := range acts {
		_, err := a.Result()
		switch {
		case err == nil:
		case errors.Is(err, deferred.ErrNotSettled):
			result = OutcomePending
		default:
			return OutcomeDegraded
		}
	}
	return result
}
