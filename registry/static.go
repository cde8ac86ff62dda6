package registry

import (
	"context"
	"sync"
)

// Static is a fixed endpoint list for deployments where node addresses are
// known up front. It still supports Register/Deregister and Watch so it can
// stand in for the etcd registry in tests.
type Static struct {
	mu        sync.Mutex
	endpoints []Endpoint
	watchers  []chan []Endpoint
}

// NewStatic builds a registry preloaded with the given endpoints.
func NewStatic(endpoints ...Endpoint) *Static {
	return &Static{endpoints: endpoints}
}

func (s *Static) Register(ctx context.Context, ep Endpoint, ttl int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.endpoints {
		if e.Name == ep.Name {
			s.endpoints[i] = ep
			s.notifyLocked()
			return nil
		}
	}
	s.endpoints = append(s.endpoints, ep)
	s.notifyLocked()
	return nil
}

func (s *Static) Deregister(ctx context.Context, ep Endpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.endpoints {
		if e.Name == ep.Name {
			s.endpoints = append(s.endpoints[:i], s.endpoints[i+1:]...)
			s.notifyLocked()
			return nil
		}
	}
	return nil
}

func (s *Static) Discover(ctx context.Context) ([]Endpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Endpoint, len(s.endpoints))
	copy(out, s.endpoints)
	return out, nil
}

func (s *Static) Watch(ctx context.Context) <-chan []Endpoint {
	ch := make(chan []Endpoint, 1)
	s.mu.Lock()
	s.watchers = append(s.watchers, ch)
	s.mu.Unlock()
	return ch
}

// notifyLocked pushes the current list to watchers; a stale unread snapshot
// is replaced rather than queued.
func (s *Static) notifyLocked() {
	snapshot := make([]Endpoint, len(s.endpoints))
	copy(snapshot, s.endpoints)
	for _, ch := range s.watchers {
		select {
		case ch <- snapshot:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
}
