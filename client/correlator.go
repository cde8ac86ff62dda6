package client

import (
	"sync"

	"go.uber.org/zap"

	"subrpc/protocol"
)

// callResult is the single resolution of a pending call: a response from the
// wire or a failure injected by cancellation.
type callResult struct {
	resp *protocol.Response
	err  error
}

// correlator owns the request-id counter and the id→pending map, both under
// one mutex so an id can never appear on the wire before its slot exists.
// No other component touches the map.
type correlator struct {
	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]chan callResult

	log     *zap.Logger
	metrics *Metrics
}

func newCorrelator(log *zap.Logger, metrics *Metrics) *correlator {
	return &correlator{
		pending: make(map[uint64]chan callResult),
		log:     log,
		metrics: metrics,
	}
}

// register allocates the next id and inserts an unresolved slot. It must
// complete before the request frame is sent; a response that arrived first
// would be unroutable.
func (c *correlator) register() (uint64, <-chan callResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	// Buffered so resolution never blocks the dispatcher, even if the caller
	// already gave up.
	ch := make(chan callResult, 1)
	c.pending[id] = ch
	return id, ch
}

// complete resolves the slot for id with a wire response. An unknown id
// (already timed out, duplicate, or foreign) is logged and dropped without
// raising any error.
func (c *correlator) complete(id uint64, resp *protocol.Response) {
	c.mu.Lock()
	ch, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.mu.Unlock()

	if !ok {
		c.log.Debug("dropping response for unknown id", zap.Uint64("id", id))
		c.metrics.droppedResponse(dropUnknownID)
		return
	}
	ch <- callResult{resp: resp}
}

// cancel removes a slot without resolving it. Used when the caller gives up
// (timeout, context cancellation) or the send failed.
func (c *correlator) cancel(id uint64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// cancelAll resolves every outstanding slot with err so no caller blocks
// forever. Used on disconnect and on connection loss.
func (c *correlator) cancelAll(err error) {
	c.mu.Lock()
	pending := c.pending
	c.pending = make(map[uint64]chan callResult)
	c.mu.Unlock()

	for _, ch := range pending {
		ch <- callResult{err: err}
	}
}

// inFlight reports the number of outstanding calls.
func (c *correlator) inFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
