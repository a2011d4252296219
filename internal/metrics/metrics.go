// Package metrics exposes Prometheus instrumentation for patient record
// operations and the audit trail.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/seanrito/patients-backend/internal/domain"
)

const namespace = "patients"

// Recorder collects operation counters, latencies and audit failures.
type Recorder struct {
	operations    *prometheus.CounterVec
	durations     *prometheus.HistogramVec
	auditFailures *prometheus.CounterVec
}

// New creates a Recorder and registers its collectors with reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Patient record operations by outcome.",
		}, []string{"op", "result"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Latency of patient record operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		auditFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_failures_total",
			Help:      "Audit entries that could not be recorded after a committed mutation.",
		}, []string{"action"}),
	}
	reg.MustRegister(r.operations, r.durations, r.auditFailures)
	return r
}

// NewRegistry returns a registry preloaded with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Observe records the outcome and latency of one operation.
func (r *Recorder) Observe(_ context.Context, op string, err error, duration time.Duration) {
	r.operations.WithLabelValues(op, Result(err)).Inc()
	r.durations.WithLabelValues(op).Observe(duration.Seconds())
}

// AuditFailed counts an audit entry that was lost.
func (r *Recorder) AuditFailed(action domain.AuditAction) {
	r.auditFailures.WithLabelValues(string(action)).Inc()
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Result classifies err into a low-cardinality label value.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrAlreadyExists):
		return "duplicate"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, domain.ErrTimeout):
		return "timeout"
	default:
		return "error"
	}
}
