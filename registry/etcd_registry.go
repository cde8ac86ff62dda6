// etcd-backed registry. Node endpoints live under a shared prefix:
//
//	Key:   /subrpc/nodes/{Name}
//	Value: JSON-encoded Endpoint
//
// Registration uses TTL-based leases: if the registering side crashes, the
// lease expires and the entry disappears on its own, so clients never fail
// over to a ghost endpoint.
package registry

import (
	"context"
	"encoding/json"

	clientv3 "go.etcd.io/etcd/client/v3"
)

const etcdPrefix = "/subrpc/nodes/"

// EtcdRegistry implements Registry on etcd v3.
type EtcdRegistry struct {
	client *clientv3.Client
}

// NewEtcdRegistry connects to the given etcd endpoints.
func NewEtcdRegistry(endpoints []string) (*EtcdRegistry, error) {
	c, err := clientv3.New(clientv3.Config{
		Endpoints: endpoints,
	})
	if err != nil {
		return nil, err
	}
	return &EtcdRegistry{client: c}, nil
}

// Register advertises an endpoint with a TTL lease and keeps the lease alive
// in the background.
func (r *EtcdRegistry) Register(ctx context.Context, ep Endpoint, ttl int64) error {
	lease, err := r.client.Grant(ctx, ttl)
	if err != nil {
		return err
	}

	val, err := json.Marshal(ep)
	if err != nil {
		return err
	}

	_, err = r.client.Put(ctx, etcdPrefix+ep.Name, string(val), clientv3.WithLease(lease.ID))
	if err != nil {
		return err
	}

	ch, err := r.client.KeepAlive(ctx, lease.ID)
	if err != nil {
		return err
	}

	// Drain keep-alive responses so the channel never fills up.
	go func() {
		for range ch {
		}
	}()
	return nil
}

func (r *EtcdRegistry) Deregister(ctx context.Context, ep Endpoint) error {
	_, err := r.client.Delete(ctx, etcdPrefix+ep.Name)
	return err
}

// Discover returns all currently advertised node endpoints.
func (r *EtcdRegistry) Discover(ctx context.Context) ([]Endpoint, error) {
	resp, err := r.client.Get(ctx, etcdPrefix, clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}

	endpoints := make([]Endpoint, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var ep Endpoint
		if err := json.Unmarshal(kv.Value, &ep); err != nil {
			continue // skip malformed entries
		}
		endpoints = append(endpoints, ep)
	}
	return endpoints, nil
}

// Watch emits the full endpoint list whenever anything under the prefix
// changes (registration, deregistration, lease expiry).
func (r *EtcdRegistry) Watch(ctx context.Context) <-chan []Endpoint {
	ch := make(chan []Endpoint, 1)

	go func() {
		defer close(ch)
		watchChan := r.client.Watch(ctx, etcdPrefix, clientv3.WithPrefix())
		for range watchChan {
			// Re-list on any change; simpler than folding individual events.
			endpoints, err := r.Discover(ctx)
			if err != nil {
				continue
			}
			select {
			case ch <- endpoints:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch
}

// Close releases the etcd client.
func (r *EtcdRegistry) Close() error {
	return r.client.Close()
}
