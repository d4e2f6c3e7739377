// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "timeguard"

var (
	// AdmissionRejections counts requests stopped by the admission pipeline, by stage.
	AdmissionRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "admission_rejections_total",
		Help:      "Requests rejected by the admission pipeline.",
	}, []string{"stage"})

	// StreamSubscribers is the number of connected live viewers.
	StreamSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "stream_subscribers",
		Help:      "Connected timesheet stream subscribers.",
	})

	// BroadcastDrops counts subscribers removed after a failed send.
	BroadcastDrops = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "broadcast_dropped_subscribers_total",
		Help:      "Subscribers removed because an event could not be delivered.",
	})

	// TimesheetWrites counts timesheet write attempts by outcome.
	TimesheetWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "timesheet_writes_total",
		Help:      "Timesheet write attempts by outcome.",
	}, []string{"outcome"})

	// AuditWriteFailures counts access log records that could not be stored.
	AuditWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_write_failures_total",
		Help:      "Access log records lost to storage errors.",
	})
)

// Timesheet write outcomes.
const (
	OutcomeSaved    = "saved"
	OutcomeForced   = "forced"
	OutcomeConflict = "conflict"
	OutcomeInvalid  = "invalid"
)

// Handler serves the default registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
