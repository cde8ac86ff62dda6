package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CallMetrics instruments calls with prometheus counters and latency
// histograms.
type CallMetrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewCallMetrics builds the instruments and registers them with reg; pass
// nil to skip registration (tests).
func NewCallMetrics(reg prometheus.Registerer) *CallMetrics {
	m := &CallMetrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "subrpc_calls_total",
			Help: "Total JSON-RPC calls issued, by method and outcome.",
		}, []string{"method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "subrpc_call_duration_seconds",
			Help:    "JSON-RPC call latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}
	if reg != nil {
		reg.MustRegister(m.calls, m.duration)
	}
	return m
}

// Middleware returns the interceptor feeding these instruments.
func (m *CallMetrics) Middleware() Middleware {
	return func(next CallFunc) CallFunc {
		return func(ctx context.Context, method string, params []any) (json.RawMessage, error) {
			start := time.Now()
			result, err := next(ctx, method, params)
			status := "ok"
			if err != nil {
				status = "error"
			}
			m.calls.WithLabelValues(method, status).Inc()
			m.duration.WithLabelValues(method).Observe(time.Since(start).Seconds())
			return result, err
		}
	}
}
