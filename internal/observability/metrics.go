// Package observability provides Prometheus metrics for provider requests.
// The fragment wire contract itself stays metadata-free; counting happens
// out of band, on the service side.
package observability

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"tutorchat/internal/core"
)

// Metrics holds the request counters. All methods are safe on a nil
// receiver, so callers that run without metrics pass nil and skip the
// conditional plumbing.
type Metrics struct {
	requests  *prometheus.CounterVec
	errors    *prometheus.CounterVec
	fragments *prometheus.CounterVec
}

// New registers the counters on the given registerer (the default one when
// nil) and returns the Metrics handle.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tutorchat_requests_total",
			Help: "Completion requests dispatched, by provider and operation.",
		}, []string{"provider", "operation"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tutorchat_request_errors_total",
			Help: "Failed completion requests, by provider, operation, and error type.",
		}, []string{"provider", "operation", "type"}),
		fragments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tutorchat_fragments_total",
			Help: "Text fragments streamed back to callers, by provider.",
		}, []string{"provider"}),
	}
}

// RecordRequest counts one dispatched completion request.
func (m *Metrics) RecordRequest(provider, operation string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(provider, operation).Inc()
}

// RecordError counts one failed request, labeled with the taxonomy type
// when the error is a ChatError and "internal" otherwise.
func (m *Metrics) RecordError(provider, operation string, err error) {
	if m == nil {
		return
	}
	errType := "internal"
	var ce *core.ChatError
	if errors.As(err, &ce) {
		errType = string(ce.Type)
	}
	m.errors.WithLabelValues(provider, operation, errType).Inc()
}

// RecordFragment counts one streamed fragment.
func (m *Metrics) RecordFragment(provider string) {
	if m == nil {
		return
	}
	m.fragments.WithLabelValues(provider).Inc()
}
