package client

import "go.uber.org/zap"

// State is the connection lifecycle state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateError
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Status pairs a State with the failure message that produced it. Err is
// non-empty only for StateError and carries the raw transport/handshake
// failure verbatim.
type Status struct {
	State State
	Err   string
}

// stateMachine publishes Status transitions. Watchers receive the current
// status immediately, then every subsequent transition in occurrence order.
// Setting the already-current status is a no-op, so idempotent operations
// (Disconnect from Disconnected) don't produce phantom transitions.
type stateMachine struct {
	obs *observable[Status]
	log *zap.Logger
}

func newStateMachine(log *zap.Logger) *stateMachine {
	return &stateMachine{
		obs: newObservable(Status{State: StateDisconnected}),
		log: log,
	}
}

func (m *stateMachine) get() Status {
	return m.obs.get()
}

func (m *stateMachine) set(s Status) {
	m.obs.mu.Lock()
	if m.obs.current == s {
		m.obs.mu.Unlock()
		return
	}
	m.obs.current = s
	for mb := range m.obs.watchers {
		mb.push(s)
	}
	m.obs.mu.Unlock()

	if s.State == StateError {
		m.log.Warn("connection state", zap.Stringer("state", s.State), zap.String("error", s.Err))
		return
	}
	m.log.Info("connection state", zap.Stringer("state", s.State))
}

func (m *stateMachine) watch() (<-chan Status, func()) {
	return m.obs.watch()
}
