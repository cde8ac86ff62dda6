// Package client implements a long-lived WebSocket JSON-RPC client for
// Substrate-style blockchain nodes. One socket carries any number of
// concurrent calls, matched back to their callers by correlation id; lost
// connections are re-established with capped exponential backoff.
//
//	goroutine-1 ──Call(id=1)──┐
//	goroutine-2 ──Call(id=2)──┼──→ single WebSocket ──→ node
//	goroutine-3 ──Call(id=3)──┘
//
//	dispatch:  ←── response(id=2) → pending[2] chan ← result → goroutine-2 wakes up
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"subrpc/config"
	"subrpc/loadbalance"
	"subrpc/middleware"
	"subrpc/protocol"
	"subrpc/registry"
	"subrpc/transport"
)

// MetadataMethod is the well-known call that returns the chain's runtime
// metadata as opaque hex-encoded bytes.
const MetadataMethod = "state_getMetadata"

// Client is the node client facade. All methods are safe for concurrent use.
type Client struct {
	cfg      config.Config
	log      *zap.Logger
	provider transport.Provider
	metrics  *Metrics
	mws      []middleware.Middleware
	reg      registry.Registry
	bal      loadbalance.Balancer

	pending *correlator
	states  *stateMachine
	resched *reconnector
	meta    *observable[json.RawMessage]
	invoke  middleware.CallFunc

	// ctx is the externally owned lifecycle context; cancelling it stops the
	// dispatcher, cancels any reconnect timer, and fails all pending calls.
	ctx context.Context

	// connectMu serializes connection attempts (explicit Connect and fired
	// reconnect timers).
	connectMu sync.Mutex

	mu       sync.Mutex
	sess     transport.Session
	endpoint string
	// epoch increments on Disconnect/teardown so a connection attempt that
	// was in flight at the time cannot install its session afterwards.
	epoch uint64
}

// Option customizes a Client beyond its config.
type Option func(*Client)

// WithLogger sets the diagnostic logger; default is a nop logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithProvider replaces the WebSocket transport, e.g. with a fake in tests.
func WithProvider(p transport.Provider) Option {
	return func(c *Client) { c.provider = p }
}

// WithMetrics attaches connection-level prometheus instruments.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithMiddleware wraps the call path; the first middleware listed is the
// outermost layer. A rate limit configured via Config.RateLimit sits ahead
// of all listed middlewares, so throttled calls are rejected before any of
// them run; callers who need a different ordering leave Config.RateLimit
// zero and list middleware.RateLimit here themselves.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(c *Client) { c.mws = append(c.mws, mws...) }
}

// WithDiscovery lets reconnects fail over across the registry's endpoints
// instead of always reusing the last one.
func WithDiscovery(reg registry.Registry, bal loadbalance.Balancer) Option {
	return func(c *Client) {
		c.reg = reg
		c.bal = bal
	}
}

// New builds a client owned by ctx. The client starts Disconnected; nothing
// happens on the network until Connect.
func New(ctx context.Context, cfg config.Config, opts ...Option) *Client {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 30 * time.Second
	}
	if cfg.ReconnectInitialDelay <= 0 {
		cfg.ReconnectInitialDelay = time.Second
	}
	if cfg.ReconnectMaxDelay <= 0 {
		cfg.ReconnectMaxDelay = 16 * time.Second
	}

	c := &Client{
		cfg: cfg,
		log: zap.NewNop(),
		ctx: ctx,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.provider == nil {
		c.provider = &transport.WSProvider{
			HandshakeTimeout: cfg.HandshakeTimeout,
			Log:              c.log,
		}
	}

	c.pending = newCorrelator(c.log, c.metrics)
	c.states = newStateMachine(c.log)
	c.meta = newObservable[json.RawMessage](nil)
	c.resched = newReconnector(
		cfg.AutoReconnect,
		cfg.MaxReconnectAttempts,
		cfg.ReconnectInitialDelay,
		cfg.ReconnectMaxDelay,
		c.log,
		c.metrics,
	)

	mws := c.mws
	if cfg.RateLimit.RPS > 0 {
		mws = append([]middleware.Middleware{middleware.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst)}, mws...)
	}
	c.invoke = middleware.Chain(mws...)(c.doCall)

	go func() {
		<-ctx.Done()
		c.shutdown(fmt.Errorf("%w: owning context cancelled", ErrCancelled))
	}()

	return c
}

// Connect opens the connection and starts the dispatcher. Calling Connect
// while already connected is a no-op: the existing session is kept and no
// new handshake happens.
func (c *Client) Connect(ctx context.Context, endpoint string) error {
	c.mu.Lock()
	if c.sess != nil {
		c.mu.Unlock()
		return nil
	}
	c.endpoint = endpoint
	epoch := c.epoch
	c.mu.Unlock()

	c.resched.reset()
	return c.establish(ctx, endpoint, epoch)
}

// Disconnect cancels any scheduled reconnect, fails every pending call with
// ErrCancelled, closes the session, clears cached metadata, and settles in
// Disconnected. Safe to call from any state. The client can Connect again
// afterwards.
func (c *Client) Disconnect() {
	c.shutdown(fmt.Errorf("%w: client disconnected", ErrCancelled))
}

// Call issues a JSON-RPC request and waits for the response bearing its id,
// regardless of wire arrival order. The configured call timeout applies
// unless ctx carries an earlier deadline. The raw result is returned as-is;
// its shape is method-defined.
func (c *Client) Call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	return c.invoke(ctx, method, params)
}

// FetchMetadata retrieves the runtime metadata and caches it for Metadata
// and metadata watchers.
func (c *Client) FetchMetadata(ctx context.Context) (json.RawMessage, error) {
	raw, err := c.Call(ctx, MetadataMethod)
	if err != nil {
		return nil, err
	}
	c.meta.set(raw)
	return raw, nil
}

// State returns the current connection status.
func (c *Client) State() Status {
	return c.states.get()
}

// WatchState delivers the current status immediately, then every transition
// in occurrence order, never coalesced. The stop function releases the
// watcher.
func (c *Client) WatchState() (<-chan Status, func()) {
	return c.states.watch()
}

// Metadata returns the last fetched runtime metadata, nil before the first
// successful fetch and after Disconnect.
func (c *Client) Metadata() json.RawMessage {
	return c.meta.get()
}

// WatchMetadata delivers the cached metadata immediately, then every update.
func (c *Client) WatchMetadata() (<-chan json.RawMessage, func()) {
	return c.meta.watch()
}

// doCall is the innermost call path, below the middleware chain.
func (c *Client) doCall(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	c.mu.Lock()
	sess := c.sess
	c.mu.Unlock()
	if sess == nil {
		return nil, ErrNotConnected
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.CallTimeout)
		defer cancel()
	}

	// Register before send: once the frame is on the wire the response can
	// race back, and it must find its slot.
	id, done := c.pending.register()

	frame, err := protocol.NewRequest(id, method, params).Encode()
	if err != nil {
		c.pending.cancel(id)
		return nil, err
	}
	if err := sess.Send(ctx, frame); err != nil {
		c.pending.cancel(id)
		return nil, fmt.Errorf("send %s: %w", method, err)
	}

	select {
	case res := <-done:
		if res.err != nil {
			return nil, res.err
		}
		if res.resp.Error != nil {
			return nil, res.resp.Error
		}
		return res.resp.Result, nil
	case <-ctx.Done():
		// Remove the slot so a late response takes the unknown-id path and
		// is silently dropped.
		c.pending.cancel(id)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", ErrTimeout, method)
		}
		return nil, fmt.Errorf("%w: %s", ErrCancelled, method)
	}
}

// establish runs one Connecting → Connected/Error sequence. epoch is the
// value observed when this attempt was decided on; a mismatch means a
// Disconnect (or owner teardown) happened in between and the attempt must
// not proceed. That also covers a reconnect timer whose callback had already
// started when Disconnect stopped the timer.
func (c *Client) establish(ctx context.Context, endpoint string, epoch uint64) error {
	c.connectMu.Lock()
	defer c.connectMu.Unlock()

	c.mu.Lock()
	if c.sess != nil {
		c.mu.Unlock()
		return nil
	}
	if c.epoch != epoch || c.ctx.Err() != nil {
		c.mu.Unlock()
		return ErrCancelled
	}
	c.mu.Unlock()

	c.states.set(Status{State: StateConnecting})

	sess, err := c.provider.Open(ctx, endpoint)
	if err != nil {
		c.mu.Lock()
		stale := c.epoch != epoch || c.ctx.Err() != nil
		c.mu.Unlock()
		if stale {
			// The teardown already published Disconnected; undo our
			// Connecting rather than report the failure.
			c.states.set(Status{State: StateDisconnected})
			return err
		}
		c.states.set(Status{State: StateError, Err: err.Error()})
		c.maybeReconnect(epoch)
		return err
	}

	c.mu.Lock()
	if c.epoch != epoch || c.ctx.Err() != nil {
		// Torn down while the handshake was in flight.
		c.mu.Unlock()
		sess.Close()
		c.states.set(Status{State: StateDisconnected})
		return ErrCancelled
	}
	c.sess = sess
	c.mu.Unlock()

	c.resched.reset()
	c.states.set(Status{State: StateConnected})

	go c.dispatch(sess)
	go c.refreshMetadata()
	return nil
}

// maybeReconnect arms the retry timer after a failure if auto-reconnect
// still has attempt budget; otherwise the client stays in Error. epoch is
// captured at the failure and rides into the attempt so that a Disconnect
// between scheduling and firing invalidates it.
func (c *Client) maybeReconnect(epoch uint64) {
	c.mu.Lock()
	endpoint := c.endpoint
	c.mu.Unlock()

	c.resched.schedule(func() {
		_ = c.establish(c.ctx, c.pickEndpoint(endpoint), epoch)
	})
}

// pickEndpoint consults the discovery registry when one is configured;
// otherwise every retry reuses the endpoint from the last Connect.
func (c *Client) pickEndpoint(last string) string {
	if c.reg == nil || c.bal == nil {
		return last
	}
	endpoints, err := c.reg.Discover(c.ctx)
	if err != nil || len(endpoints) == 0 {
		return last
	}
	ep, err := c.bal.Pick(endpoints)
	if err != nil {
		return last
	}
	return ep.URL
}

// refreshMetadata runs after every successful connect. Best effort: metadata
// is a cache, not a liveness signal, so failure is logged and swallowed.
func (c *Client) refreshMetadata() {
	if _, err := c.FetchMetadata(c.ctx); err != nil {
		c.log.Debug("metadata fetch failed", zap.Error(err))
	}
}

// shutdown detaches and closes the session, stops retries, fails pending
// calls with reason, and settles in Disconnected.
func (c *Client) shutdown(reason error) {
	c.resched.reset()

	c.mu.Lock()
	c.epoch++
	sess := c.sess
	c.sess = nil
	c.mu.Unlock()

	c.pending.cancelAll(reason)
	if sess != nil {
		sess.Close()
	}
	c.meta.set(nil)
	c.states.set(Status{State: StateDisconnected})
}
