// Package observability holds the Prometheus metrics for the API and the
// degree-plan ingestion path.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ansarctica/ross/internal/degreeplan"
)

const metricsNamespace = "ross"

type Metrics struct {
	// RequestsTotal counts HTTP requests.
	// Labels: route, method, status
	RequestsTotal *prometheus.CounterVec

	// RequestDurationSeconds measures handler latency.
	// Labels: route
	RequestDurationSeconds *prometheus.HistogramVec

	// IngestedCoursesTotal counts routed courses by bucket kind.
	// Labels: bucket (credited, non-term)
	IngestedCoursesTotal *prometheus.CounterVec

	// DroppedCoursesTotal counts raw strings left out of a registry.
	// Labels: reason (malformed, unassigned)
	DroppedCoursesTotal *prometheus.CounterVec

	// EngineCallsTotal counts scheduling engine calls.
	// Labels: status (success, error)
	EngineCallsTotal *prometheus.CounterVec
}

// NewMetrics registers the metrics with reg. Tests pass a fresh registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		RequestDurationSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP handler latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		IngestedCoursesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "ingest",
			Name:      "courses_total",
			Help:      "Courses placed into a degree-plan registry.",
		}, []string{"bucket"}),
		DroppedCoursesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "ingest",
			Name:      "dropped_total",
			Help:      "Raw course strings left out of a registry.",
		}, []string{"reason"}),
		EngineCallsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "engine",
			Name:      "calls_total",
			Help:      "Scheduling engine calls by outcome.",
		}, []string{"status"}),
	}
}

func (m *Metrics) RecordIngest(res degreeplan.Result) {
	for _, b := range res.Registry.Buckets {
		kind := "credited"
		if !b.Key.Credited() {
			kind = "non-term"
		}
		m.IngestedCoursesTotal.WithLabelValues(kind).Add(float64(len(b.Courses)))
	}
	if n := len(res.Skipped); n > 0 {
		m.DroppedCoursesTotal.WithLabelValues("malformed").Add(float64(n))
	}
	if n := len(res.Unassigned); n > 0 {
		m.DroppedCoursesTotal.WithLabelValues("unassigned").Add(float64(n))
	}
}

func (m *Metrics) RecordEngineCall(ok bool) {
	status := "success"
	if !ok {
		status = "error"
	}
	m.EngineCallsTotal.WithLabelValues(status).Inc()
}
