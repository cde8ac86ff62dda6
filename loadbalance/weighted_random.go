package loadbalance

import (
	"fmt"
	"math/rand"

	"subrpc/registry"
)

// WeightedRandomBalancer picks endpoints with probability proportional to
// their weight. Endpoints with no weights fall back to a uniform pick.
type WeightedRandomBalancer struct{}

func (b *WeightedRandomBalancer) Pick(endpoints []registry.Endpoint) (*registry.Endpoint, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("no endpoints available")
	}

	totalWeight := 0
	for _, ep := range endpoints {
		totalWeight += ep.Weight
	}
	if totalWeight <= 0 {
		return &endpoints[rand.Intn(len(endpoints))], nil
	}

	r := rand.Intn(totalWeight)
	for i := range endpoints {
		r -= endpoints[i].Weight
		if r < 0 {
			return &endpoints[i], nil
		}
	}

	return nil, fmt.Errorf("unexpected error in weighted random selection")
}

func (b *WeightedRandomBalancer) Name() string {
	return "WeightedRandom"
}
