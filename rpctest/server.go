// Package rpctest provides an in-process WebSocket JSON-RPC node for tests.
//
// The server registers per-method handlers and answers requests over real
// gorilla/websocket connections, so the full client stack (dial, upgrade,
// frame codec, correlation) is exercised without a live node. Misbehavior
// knobs (silenced methods, raw frame injection, forced connection drops)
// simulate the failure modes a remote node can produce.
package rpctest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"subrpc/protocol"
)

// Handler answers one request. Returning a *protocol.Error produces an error
// response; otherwise the returned value is marshalled into the result member.
type Handler func(id uint64, params []json.RawMessage) (any, *protocol.Error)

// Server is a fake node listening on a loopback httptest listener.
type Server struct {
	httpSrv  *httptest.Server
	upgrader websocket.Upgrader

	mu       sync.Mutex
	handlers map[string]Handler
	silenced map[string]bool
	conns    map[*serverConn]struct{}

	requests atomic.Int64
}

// serverConn pairs a connection with its write lock: handlers run
// concurrently and Inject writes from yet another goroutine.
type serverConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *serverConn) write(frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

// NewServer starts the fake node. Callers must Close it.
func NewServer() *Server {
	s := &Server{
		handlers: make(map[string]Handler),
		silenced: make(map[string]bool),
		conns:    make(map[*serverConn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	s.httpSrv = httptest.NewServer(http.HandlerFunc(s.serveWS))
	return s
}

// URL returns the ws:// endpoint of the fake node.
func (s *Server) URL() string {
	return "ws" + strings.TrimPrefix(s.httpSrv.URL, "http")
}

// Handle registers the handler for a method.
func (s *Server) Handle(method string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method] = h
}

// Silence makes the server swallow requests for a method without answering,
// so callers run into their timeout.
func (s *Server) Silence(method string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.silenced[method] = true
}

// Inject sends a raw text frame to every connected client. Used to feed the
// dispatcher malformed frames, null-id notifications, and unsolicited
// responses.
func (s *Server) Inject(frame string) {
	s.mu.Lock()
	conns := make([]*serverConn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		_ = c.write([]byte(frame))
	}
}

// DropConnections force-closes every open connection, simulating a node
// crash. The listener stays up so reconnect attempts can succeed.
func (s *Server) DropConnections() {
	s.mu.Lock()
	conns := make([]*serverConn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		_ = c.conn.Close()
	}
}

// Requests returns the number of request frames received so far.
func (s *Server) Requests() int64 {
	return s.requests.Load()
}

// Close shuts the listener and all connections down.
func (s *Server) Close() {
	s.DropConnections()
	s.httpSrv.Close()
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	sc := &serverConn{conn: conn}

	s.mu.Lock()
	s.conns[sc] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, sc)
		s.mu.Unlock()
		_ = conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var req struct {
			ID     uint64            `json:"id"`
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		if err := json.Unmarshal(data, &req); err != nil {
			continue
		}
		s.requests.Add(1)

		s.mu.Lock()
		silenced := s.silenced[req.Method]
		handler := s.handlers[req.Method]
		s.mu.Unlock()

		if silenced {
			continue
		}

		// Handlers run concurrently so slow methods do not serialize the
		// connection; responses may arrive in any order, like a real node.
		go s.reply(sc, req.ID, handler, req.Params)
	}
}

func (s *Server) reply(sc *serverConn, id uint64, h Handler, params []json.RawMessage) {
	resp := protocol.Response{JSONRPC: protocol.Version, ID: &id}

	if h == nil {
		resp.Error = &protocol.Error{Code: -32601, Message: "Method not found"}
	} else {
		result, perr := h(id, params)
		if perr != nil {
			resp.Error = perr
		} else {
			data, err := json.Marshal(result)
			if err != nil {
				resp.Error = &protocol.Error{Code: -32603, Message: "Internal error"}
			} else {
				resp.Result = data
			}
		}
	}

	frame, err := json.Marshal(&resp)
	if err != nil {
		return
	}
	_ = sc.write(frame)
}
