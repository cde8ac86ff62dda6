package client

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"subrpc/transport"
)

// wireReq is the decoded shape of a sent request frame.
type wireReq struct {
	ID     uint64            `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// fakeSession is a scripted transport session. When auto is set, every sent
// request is immediately answered with whatever frame it returns (nil means
// stay silent). push injects arbitrary frames; fail simulates a read error.
type fakeSession struct {
	mu        sync.Mutex
	reqs      []wireReq
	auto      func(req wireReq) []byte
	readErr   error
	frames    chan []byte
	closeOnce sync.Once
}

func newFakeSession(auto func(req wireReq) []byte) *fakeSession {
	return &fakeSession{
		auto:   auto,
		frames: make(chan []byte, 64),
	}
}

func (s *fakeSession) Send(ctx context.Context, frame []byte) error {
	var req wireReq
	if err := json.Unmarshal(frame, &req); err != nil {
		return err
	}
	s.mu.Lock()
	s.reqs = append(s.reqs, req)
	auto := s.auto
	s.mu.Unlock()

	if auto != nil {
		if out := auto(req); out != nil {
			s.frames <- out
		}
	}
	return nil
}

func (s *fakeSession) Frames() <-chan []byte { return s.frames }

func (s *fakeSession) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readErr
}

func (s *fakeSession) Close() {
	s.closeOnce.Do(func() { close(s.frames) })
}

func (s *fakeSession) push(frame string) {
	s.frames <- []byte(frame)
}

func (s *fakeSession) fail(err error) {
	s.mu.Lock()
	s.readErr = err
	s.mu.Unlock()
	s.closeOnce.Do(func() { close(s.frames) })
}

func (s *fakeSession) requests() []wireReq {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]wireReq, len(s.reqs))
	copy(out, s.reqs)
	return out
}

// fakeProvider opens fakeSessions. failOpens > 0 fails that many Opens
// before succeeding; failAlways fails every Open.
type fakeProvider struct {
	mu         sync.Mutex
	auto       func(req wireReq) []byte
	failOpens  int
	failAlways bool
	opens      int
	sessions   []*fakeSession
}

func (p *fakeProvider) Open(ctx context.Context, endpoint string) (transport.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.opens++
	if p.failAlways || p.failOpens > 0 {
		if p.failOpens > 0 {
			p.failOpens--
		}
		return nil, &transport.ConnectionError{Endpoint: endpoint, Err: errors.New("connect: connection refused")}
	}

	s := newFakeSession(p.auto)
	p.sessions = append(p.sessions, s)
	return s, nil
}

func (p *fakeProvider) openCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opens
}

func (p *fakeProvider) lastSession() *fakeSession {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.sessions) == 0 {
		return nil
	}
	return p.sessions[len(p.sessions)-1]
}

// echoID answers every request with its own id as the result.
func echoID(req wireReq) []byte {
	frame, _ := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      req.ID,
		"result":  req.ID,
	})
	return frame
}

// answer builds a per-method response table; unlisted methods stay silent.
func answer(results map[string]any) func(req wireReq) []byte {
	return func(req wireReq) []byte {
		result, ok := results[req.Method]
		if !ok {
			return nil
		}
		frame, _ := json.Marshal(map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  result,
		})
		return frame
	}
}
