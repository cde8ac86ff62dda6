package client

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// reconnector schedules connection retries after failures. Delays grow
// exponentially from the initial interval, doubling up to the cap:
// 1s, 2s, 4s, 8s, 16s, 16s, … with the defaults.
type reconnector struct {
	mu       sync.Mutex
	enabled  bool
	max      int
	attempts int
	bo       *backoff.ExponentialBackOff
	timer    *time.Timer

	log     *zap.Logger
	metrics *Metrics
}

func newReconnector(enabled bool, max int, initial, cap time.Duration, log *zap.Logger, metrics *Metrics) *reconnector {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initial
	bo.Multiplier = 2
	bo.MaxInterval = cap
	// Jitter would break the deterministic delay sequence and the bound on
	// time-to-give-up that callers rely on.
	bo.RandomizationFactor = 0
	// Attempts are bounded by count, not elapsed time.
	bo.MaxElapsedTime = 0
	bo.Reset()

	return &reconnector{
		enabled: enabled,
		max:     max,
		bo:      bo,
		log:     log,
		metrics: metrics,
	}
}

// schedule arms the retry timer after a failed attempt, returning false when
// retries are disabled or the attempt budget is spent. max = 0 means no
// retries at all.
func (r *reconnector) schedule(fn func()) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.enabled || r.attempts >= r.max {
		if r.enabled && r.max > 0 {
			r.log.Warn("giving up on reconnect", zap.Int("attempts", r.attempts))
		}
		return false
	}

	r.attempts++
	delay := r.bo.NextBackOff()
	r.metrics.reconnectScheduled()
	r.log.Info("scheduling reconnect",
		zap.Int("attempt", r.attempts),
		zap.Int("max", r.max),
		zap.Duration("delay", delay))
	r.timer = time.AfterFunc(delay, fn)
	return true
}

// reset stops any armed timer and clears the attempt counter and backoff.
// Called on successful connection, explicit disconnect, and owner teardown.
func (r *reconnector) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.attempts = 0
	r.bo.Reset()
}
