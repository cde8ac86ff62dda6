package client

import (
	"errors"

	"subrpc/transport"
)

// Call-scoped errors. These surface only to the awaiting caller and never
// drive a connection state transition. Connection-scoped failures are
// *transport.ConnectionError; server-reported failures are *protocol.Error.
var (
	// ErrNotConnected is returned by Call when there is no active session.
	ErrNotConnected = errors.New("not connected")

	// ErrTimeout is returned when a call's deadline fires before its
	// response arrives. A response that shows up later is silently dropped.
	// Alias for transport.ErrTimeout.
	ErrTimeout = transport.ErrTimeout

	// ErrCancelled resolves pending calls removed by Disconnect or by the
	// owning context being cancelled. Alias for transport.ErrCancelled.
	ErrCancelled = transport.ErrCancelled
)
