// Package metrics exposes Prometheus metrics for user fetches and HTTP traffic.
//
// A Recorder is created once per process with the registry it should register
// into (prometheus.NewRegistry() in tests, so parallel tests never collide on
// the global default registry). All methods are safe on a nil *Recorder, which
// lets callers that don't care about metrics simply pass nil.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "ghusers"

	// Fetch outcomes.
	OutcomeSuccess    = "success"
	OutcomeEmpty      = "empty"
	OutcomeOffline    = "offline"
	OutcomeError      = "error"
	OutcomeSuperseded = "superseded"
)

type Recorder struct {
	fetches       *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	usersListed   prometheus.Gauge
	requests      *prometheus.CounterVec
	requestTime   *prometheus.HistogramVec
}

// New registers the metric set into reg.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		fetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "fetch",
				Name:      "attempts_total",
				Help:      "Number of user list fetch attempts by outcome.",
			},
			[]string{"outcome"},
		),
		fetchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "fetch",
				Name:      "duration_seconds",
				Help:      "Time from fetch start to its terminal state.",
				Buckets:   prometheus.DefBuckets,
			},
		),
		usersListed: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "fetch",
				Name:      "users_listed",
				Help:      "Number of users returned by the last successful fetch.",
			},
		),
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests by method, route and status.",
			},
			[]string{"method", "route", "status"},
		),
		requestTime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency by route.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
}

// ObserveFetch records one finished fetch attempt. users is only used for the
// success outcome.
func (r *Recorder) ObserveFetch(outcome string, d time.Duration, users int) {
	if r == nil {
		return
	}
	r.fetches.WithLabelValues(outcome).Inc()
	if outcome == OutcomeSuperseded {
		return
	}
	r.fetchDuration.Observe(d.Seconds())
	switch outcome {
	case OutcomeSuccess:
		r.usersListed.Set(float64(users))
	case OutcomeEmpty:
		r.usersListed.Set(0)
	}
}

// ObserveRequest records one served HTTP request. route should be the router
// pattern ("/api/users/{login}"), not the raw path, to keep cardinality bounded.
func (r *Recorder) ObserveRequest(method, route string, status int, d time.Duration) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.requestTime.WithLabelValues(route).Observe(d.Seconds())
}
