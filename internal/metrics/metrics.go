// Package metrics exposes Prometheus collectors for the HTTP API and the
// approval workflow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "leave_approval"

// Metrics holds every collector, registered on one registry
type Metrics struct {
	Registry *prometheus.Registry

	APIRequestsTotal   *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec

	RequestsSubmitted   *prometheus.CounterVec
	StepsRecorded       *prometheus.CounterVec
	RequestsDecided     *prometheus.CounterVec
	DecidedBusinessDays *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry, together with the Go and process collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		APIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "HTTP requests by method, route and status code",
			},
			[]string{"method", "path", "status"},
		),
		APIRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		RequestsSubmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_submitted_total",
				Help:      "Leave requests submitted by owner role",
			},
			[]string{"role"},
		),
		StepsRecorded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "steps_recorded_total",
				Help:      "Approval actions recorded by role, action and mode",
			},
			[]string{"role", "action", "mode"},
		),
		RequestsDecided: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_decided_total",
				Help:      "Requests reaching a terminal status",
			},
			[]string{"status", "mode"},
		),
		DecidedBusinessDays: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "decided_business_days",
				Help:      "Business days of decided requests",
				Buckets:   []float64{1, 2, 3, 5, 10, 15, 20, 30},
			},
			[]string{"status"},
		),
	}
}
