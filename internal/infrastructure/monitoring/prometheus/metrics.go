// Package prometheus exposes the service's operational metrics.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector the service registers. One instance is
// created at startup and shared by the HTTP layer and the application
// services.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	TransitionsTotal      *prometheus.CounterVec
	TransitionConflicts   prometheus.Counter
	TimetablesComputed    prometheus.Counter
	NotificationsTotal    *prometheus.CounterVec
	CalendarFetchFailures prometheus.Counter
}

// New builds and registers all collectors on a fresh registry.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, path and status.",
		}, []string{"method", "path", "status"}),

		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and path.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),

		TransitionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_transitions_total",
			Help:      "Completed status transitions by target status.",
		}, []string{"to"}),

		TransitionConflicts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_transition_conflicts_total",
			Help:      "Optimistic-concurrency conflicts on status writes.",
		}),

		TimetablesComputed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timetables_computed_total",
			Help:      "Timetable computations, including procedure-change recomputes.",
		}),

		NotificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification dispatch outcomes by template and result.",
		}, []string{"template", "result"}),

		CalendarFetchFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calendar_fetch_failures_total",
			Help:      "Public-holiday feed fetch failures.",
		}),
	}
}

// Registry returns the underlying registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
