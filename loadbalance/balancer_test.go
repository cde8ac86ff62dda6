package loadbalance

import (
	"testing"

	"subrpc/registry"
)

var testEndpoints = []registry.Endpoint{
	{Name: "node-a", URL: "ws://10.0.0.1:9944", Weight: 10},
	{Name: "node-b", URL: "ws://10.0.0.2:9944", Weight: 5},
	{Name: "node-c", URL: "ws://10.0.0.3:9944", Weight: 10},
}

func TestRoundRobin(t *testing.T) {
	b := &RoundRobinBalancer{}

	// Pick 3 times, should cycle through all endpoints
	results := make([]string, 3)
	for i := 0; i < 3; i++ {
		ep, err := b.Pick(testEndpoints)
		if err != nil {
			t.Fatal(err)
		}
		results[i] = ep.URL
	}

	// Pick again, should wrap around to first
	ep, _ := b.Pick(testEndpoints)
	if ep.URL != results[0] {
		t.Fatalf("expect wrap around to %s, got %s", results[0], ep.URL)
	}
}

func TestRoundRobinEmpty(t *testing.T) {
	b := &RoundRobinBalancer{}
	if _, err := b.Pick(nil); err == nil {
		t.Fatal("expect error for empty endpoint list")
	}
}

func TestWeightedRandom(t *testing.T) {
	b := &WeightedRandomBalancer{}

	counts := map[string]int{}
	n := 10000
	for i := 0; i < n; i++ {
		ep, err := b.Pick(testEndpoints)
		if err != nil {
			t.Fatal(err)
		}
		counts[ep.Name]++
	}

	// Weight ratio is 10:5:10, so node-a should be ~2x of node-b
	ratio := float64(counts["node-a"]) / float64(counts["node-b"])
	if ratio < 1.5 || ratio > 2.5 {
		t.Fatalf("weight ratio node-a/node-b = %.2f, expect ~2.0", ratio)
	}
}

func TestWeightedRandomZeroWeights(t *testing.T) {
	b := &WeightedRandomBalancer{}
	unweighted := []registry.Endpoint{
		{Name: "node-a", URL: "ws://10.0.0.1:9944"},
		{Name: "node-b", URL: "ws://10.0.0.2:9944"},
	}

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		ep, err := b.Pick(unweighted)
		if err != nil {
			t.Fatal(err)
		}
		seen[ep.Name] = true
	}
	if len(seen) < 2 {
		t.Fatalf("expect uniform fallback to hit both endpoints, got %d", len(seen))
	}
}
