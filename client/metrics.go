package client

import "github.com/prometheus/client_golang/prometheus"

// Drop reasons recorded by the dispatcher and correlator.
const (
	dropUnknownID    = "unknown_id"
	dropNotification = "notification"
)

// Metrics holds the client's connection-level instruments. All methods are
// nil-receiver safe so an unconfigured client pays nothing.
type Metrics struct {
	droppedResponses *prometheus.CounterVec
	decodeErrors     prometheus.Counter
	reconnects       prometheus.Counter
}

// NewMetrics builds the instruments and registers them with reg; pass nil to
// skip registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		droppedResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "subrpc_dropped_responses_total",
			Help: "Responses discarded because they could not be routed to a caller.",
		}, []string{"reason"}),
		decodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "subrpc_decode_errors_total",
			Help: "Incoming frames that failed to decode as JSON-RPC envelopes.",
		}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "subrpc_reconnect_attempts_total",
			Help: "Scheduled reconnection attempts.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.droppedResponses, m.decodeErrors, m.reconnects)
	}
	return m
}

func (m *Metrics) droppedResponse(reason string) {
	if m == nil {
		return
	}
	m.droppedResponses.WithLabelValues(reason).Inc()
}

func (m *Metrics) decodeError() {
	if m == nil {
		return
	}
	m.decodeErrors.Inc()
}

func (m *Metrics) reconnectScheduled() {
	if m == nil {
		return
	}
	m.reconnects.Inc()
}
