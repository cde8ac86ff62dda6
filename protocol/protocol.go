// Package protocol defines the JSON-RPC 2.0 envelopes exchanged with the node
// over WebSocket text frames.
//
// Request:
//
//	{"jsonrpc":"2.0","id":1,"method":"system_chain","params":[]}
//
// Response:
//
//	{"jsonrpc":"2.0","id":1,"result":"Development"}
//	{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"Method not found"}}
//
// The id is the key to multiplexing: it matches a response back to the caller
// that sent the request, regardless of arrival order. A response whose id is
// null is a server notification; this client does not support subscriptions,
// so the dispatcher drops those envelopes.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Version is the fixed protocol version carried by every envelope.
const Version = "2.0"

// Request is an outgoing call envelope.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

// NewRequest builds a request envelope. Params is never null on the wire:
// an empty call is encoded as "params":[].
func NewRequest(id uint64, method string, params []any) *Request {
	if params == nil {
		params = []any{}
	}
	return &Request{
		JSONRPC: Version,
		ID:      id,
		Method:  method,
		Params:  params,
	}
}

// Encode serializes the request into a single text frame.
func (r *Request) Encode() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return data, nil
}

// Response is an incoming envelope. Exactly one of Result and Error is set on
// a well-formed response; ID is nil for notifications.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *uint64         `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Notification reports whether the envelope carries no correlation id and
// therefore cannot be routed to any caller.
func (r *Response) Notification() bool {
	return r.ID == nil
}

// Error is the server-supplied error member, surfaced to the caller verbatim.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// DecodeResponse parses one incoming text frame.
func DecodeResponse(frame []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(frame, &resp); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return &resp, nil
}
