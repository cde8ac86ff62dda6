// Package registry provides node-endpoint discovery. A client configured
// with a registry and a balancer can fail over to another discovered node
// endpoint when reconnecting; without one, every retry reuses the endpoint
// from the last Connect.
package registry

import "context"

// Endpoint is one node RPC endpoint known to the registry. Name is the
// registry key (URLs contain slashes and make poor keys); Weight feeds
// weighted balancers.
type Endpoint struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Weight int    `json:"weight"`
}

// Registry is the endpoint source. Register/Deregister are used by node
// operators or sidecars advertising endpoints; clients only Discover and
// Watch.
type Registry interface {
	Register(ctx context.Context, ep Endpoint, ttl int64) error
	Deregister(ctx context.Context, ep Endpoint) error
	Discover(ctx context.Context) ([]Endpoint, error)
	Watch(ctx context.Context) <-chan []Endpoint
}
