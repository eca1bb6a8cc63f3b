// Package metrics provides Prometheus metrics collection for the bot's
// session lifecycle and message cleanup paths.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const subsystem = "chatbot"

// Metrics holds the Prometheus collectors for the session core.
type Metrics struct {
	reg *prometheus.Registry

	SessionsStarted    prometheus.Counter
	SessionsCleared    prometheus.Counter
	SessionRenewals    prometheus.Counter
	WarningsSent       prometheus.Counter
	Terminations       *prometheus.CounterVec // by cause: timeout, exit
	MessagesTracked    *prometheus.CounterVec // by message type
	MessagesDeleted    prometheus.Counter
	DeletionFailures   *prometheus.CounterVec // by failure reason
	DeleteRunDuration  prometheus.Histogram
	LedgerSweepRemoved prometheus.Counter
}

// New creates a Metrics instance with all collectors registered on a
// dedicated registry.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
	}

	m.SessionsStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "sessions_started_total",
		Help:      "Chat sessions started",
	})
	m.SessionsCleared = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "sessions_cleared_total",
		Help:      "Chat sessions cleared",
	})
	m.SessionRenewals = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "session_renewals_total",
		Help:      "Inactivity timer renewals",
	})
	m.WarningsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "inactivity_warnings_total",
		Help:      "Inactivity warnings sent",
	})
	m.Terminations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "session_terminations_total",
		Help:      "Session terminations by cause",
	}, []string{"cause"})
	m.MessagesTracked = prometheus.NewCounterVec(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "messages_tracked_total",
		Help:      "Messages recorded in the ledger by type",
	}, []string{"type"})
	m.MessagesDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "messages_deleted_total",
		Help:      "Messages successfully deleted from the transport",
	})
	m.DeletionFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "message_deletion_failures_total",
		Help:      "Message deletion failures by classified reason",
	}, []string{"reason"})
	m.DeleteRunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Subsystem: subsystem,
		Name:      "bulk_delete_duration_seconds",
		Help:      "Duration of bulk deletion runs",
		Buckets:   []float64{0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
	})
	m.LedgerSweepRemoved = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "ledger_sweep_removed_total",
		Help:      "Chats removed from the ledger by the retention sweep",
	})

	m.reg.MustRegister(
		m.SessionsStarted,
		m.SessionsCleared,
		m.SessionRenewals,
		m.WarningsSent,
		m.Terminations,
		m.MessagesTracked,
		m.MessagesDeleted,
		m.DeletionFailures,
		m.DeleteRunDuration,
		m.LedgerSweepRemoved,
	)

	return m
}

// Handler returns an HTTP handler serving the registry in Prometheus
// exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for custom collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}
