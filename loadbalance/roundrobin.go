package loadbalance

import (
	"fmt"
	"sync/atomic"

	"subrpc/registry"
)

// RoundRobinBalancer walks the endpoint list in order. Uses an atomic
// counter for lock-free, goroutine-safe operation.
type RoundRobinBalancer struct {
	counter int64
}

func (b *RoundRobinBalancer) Pick(endpoints []registry.Endpoint) (*registry.Endpoint, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("no endpoints available")
	}
	index := atomic.AddInt64(&b.counter, 1) % int64(len(endpoints))
	return &endpoints[index], nil
}

func (b *RoundRobinBalancer) Name() string {
	return "RoundRobin"
}
