package transport

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// DefaultHandshakeTimeout bounds the dial + upgrade of a single attempt.
const DefaultHandshakeTimeout = 10 * time.Second

// WSProvider opens gorilla/websocket sessions.
type WSProvider struct {
	// HandshakeTimeout bounds dial and upgrade; DefaultHandshakeTimeout when zero.
	HandshakeTimeout time.Duration
	// Header carries extra handshake headers, may be nil.
	Header http.Header
	// Log receives transport-level diagnostics. Nil means no logging.
	Log *zap.Logger
}

// Open dials the endpoint and starts the session's read pump.
func (p *WSProvider) Open(ctx context.Context, endpoint string) (Session, error) {
	timeout := p.HandshakeTimeout
	if timeout == 0 {
		timeout = DefaultHandshakeTimeout
	}

	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, resp, err := dialer.DialContext(ctx, endpoint, p.Header)
	if err != nil {
		return nil, &ConnectionError{Endpoint: endpoint, Err: err}
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}

	s := &wsSession{
		conn:   conn,
		frames: make(chan []byte, 16),
		log:    log,
	}
	go s.readPump()
	return s, nil
}

// wsSession wraps one gorilla connection. A single readPump goroutine owns
// reads; writes are serialized by writeMu.
type wsSession struct {
	conn      *websocket.Conn
	writeMu   sync.Mutex
	frames    chan []byte
	closed    atomic.Bool
	closeOnce sync.Once
	errMu     sync.Mutex
	readErr   error
	log       *zap.Logger
}

// readPump reads frames until the connection dies, then closes the frame
// channel. Non-text frames are not part of the protocol and are skipped.
func (s *wsSession) readPump() {
	defer close(s.frames)
	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			if !s.closed.Load() {
				s.setErr(err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			s.log.Debug("skipping non-text frame", zap.Int("type", msgType))
			continue
		}
		s.frames <- data
	}
}

func (s *wsSession) Send(ctx context.Context, frame []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	deadline := time.Time{}
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, frame)
}

func (s *wsSession) Frames() <-chan []byte {
	return s.frames
}

func (s *wsSession) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.readErr
}

func (s *wsSession) setErr(err error) {
	s.errMu.Lock()
	s.readErr = err
	s.errMu.Unlock()
}

// Close sends a close frame on a best-effort basis and tears down the
// connection. Safe to call multiple times and never fails; underlying close
// errors are logged only.
func (s *wsSession) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		if err := s.conn.Close(); err != nil {
			s.log.Debug("close websocket", zap.Error(err))
		}
	})
}
