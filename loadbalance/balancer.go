// Package loadbalance provides endpoint selection strategies used when a
// reconnect can choose between several discovered node endpoints.
//
// Two strategies are implemented:
//   - RoundRobin:     equal-capacity nodes, spread reconnects evenly
//   - WeightedRandom: heterogeneous nodes, bias toward higher weights
package loadbalance

import "subrpc/registry"

// Balancer selects the endpoint for the next connection attempt.
type Balancer interface {
	// Pick selects one endpoint from the available list. Must be
	// goroutine-safe: reconnect timers and explicit Connect calls can race.
	Pick(endpoints []registry.Endpoint) (*registry.Endpoint, error)

	// Name returns the strategy name (for logging/debugging).
	Name() string
}
