package router

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "waypoint"

// Outcomes label how a Dispatcher answered a request.
const (
	OutcomeDenied       = "denied"
	OutcomeError        = "error"
	OutcomeNotFound     = "not_found"
	OutcomeOK           = "ok"
	OutcomeRedirect     = "redirect"
	OutcomeShortCircuit = "short_circuit"
	OutcomeStatic       = "static"
)

// Metrics counts and times the requests a Dispatcher handles.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics constructs *Metrics registered with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests dispatched, by method, outcome and status code.",
		}, []string{"method", "outcome", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Time spent dispatching requests, by outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
	}

	for _, c := range []prometheus.Collector{m.requests, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Metrics) observe(method, outcome string, code int, start time.Time) {
	if m == nil {
		return
	}

	m.requests.WithLabelValues(method, outcome, strconv.Itoa(code)).Inc()
	m.duration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}
