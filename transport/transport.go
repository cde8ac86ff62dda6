// Package transport provides the WebSocket session layer: one physical
// connection per session, text frames in both directions.
//
// The session is deliberately dumb: it knows nothing about JSON-RPC ids or
// pending calls. Correlation lives one layer up so that a session can be torn
// down and replaced without touching in-flight bookkeeping.
package transport

import (
	"context"
	"errors"
	"fmt"
)

// Call outcome sentinels. They live here, below both the client facade and
// the middleware package, so either side can test for them with errors.Is.
var (
	// ErrTimeout marks a call whose deadline fired before its response
	// arrived.
	ErrTimeout = errors.New("call timed out")

	// ErrCancelled marks a call resolved by disconnect or context
	// cancellation rather than by a response.
	ErrCancelled = errors.New("call cancelled")
)

// Session is one open WebSocket connection.
//
// Send writes a single text frame; concurrent senders are serialized so that
// frames from different requests never interleave. Frames yields incoming
// text frames and is closed when the socket closes; after that, Err reports
// the terminal read error (nil when the close was locally initiated). Close
// is idempotent and never fails.
type Session interface {
	Send(ctx context.Context, frame []byte) error
	Frames() <-chan []byte
	Err() error
	Close()
}

// Provider opens sessions. The client holds at most one live session at a
// time; tests substitute a scripted provider.
type Provider interface {
	Open(ctx context.Context, endpoint string) (Session, error)
}

// ConnectionError reports a failed dial or WebSocket upgrade, or a broken
// established connection. The underlying failure message is preserved
// verbatim: DNS errors, refused connections, TLS and upgrade rejections all
// surface as-is.
type ConnectionError struct {
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection to %s failed: %v", e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
