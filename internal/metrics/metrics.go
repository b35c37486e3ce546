// Package metrics exposes Prometheus counters for dispatched events, access
// gating and admin operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "catalog_bot"

// Gate reasons.
const (
	ReasonDisabled     = "disabled"
	ReasonBanned       = "banned"
	ReasonUnauthorized = "unauthorized"
	ReasonMembership   = "membership"
)

// Admin operation results.
const (
	ResultOK       = "ok"
	ResultInvalid  = "invalid"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Recorder owns the bot's collectors. A nil *Recorder is a valid no-op.
type Recorder struct {
	events   *prometheus.CounterVec
	gated    *prometheus.CounterVec
	adminOps *prometheus.CounterVec
}

// NewRecorder creates the collectors and registers them with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Inbound chat events by kind.",
		}, []string{"kind"}),
		gated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gated_total",
			Help:      "Events stopped by an access check, by reason.",
		}, []string{"reason"}),
		adminOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admin_operations_total",
			Help:      "Admin mutations by operation and result.",
		}, []string{"operation", "result"}),
	}

	if reg != nil {
		reg.MustRegister(r.events, r.gated, r.adminOps)
	}
	return r
}

// Event counts one inbound event.
func (r *Recorder) Event(kind string) {
	if r == nil {
		return
	}
	r.events.WithLabelValues(kind).Inc()
}

// Gated counts one event stopped by an access check.
func (r *Recorder) Gated(reason string) {
	if r == nil {
		return
	}
	r.gated.WithLabelValues(reason).Inc()
}

// AdminOperation counts one admin operation outcome.
func (r *Recorder) AdminOperation(operation, result string) {
	if r == nil {
		return
	}
	r.adminOps.WithLabelValues(operation, result).Inc()
}
