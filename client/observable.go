package client

import "sync"

// observable fans values out to watchers. Each watcher owns an unbounded
// ordered mailbox: a slow consumer never blocks the publisher and never
// observes values coalesced or reordered. New watchers receive the current
// value first.
type observable[T any] struct {
	mu       sync.Mutex
	current  T
	watchers map[*mailbox[T]]struct{}
}

func newObservable[T any](initial T) *observable[T] {
	return &observable[T]{
		current:  initial,
		watchers: make(map[*mailbox[T]]struct{}),
	}
}

func (o *observable[T]) get() T {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}

// set publishes v to every watcher. Publication order under the lock is the
// delivery order each watcher sees.
func (o *observable[T]) set(v T) {
	o.mu.Lock()
	o.current = v
	for mb := range o.watchers {
		mb.push(v)
	}
	o.mu.Unlock()
}

// watch registers a new watcher. The returned stop function releases it;
// afterwards the channel stops delivering.
func (o *observable[T]) watch() (<-chan T, func()) {
	mb := newMailbox[T]()

	o.mu.Lock()
	mb.push(o.current)
	o.watchers[mb] = struct{}{}
	o.mu.Unlock()

	go mb.drain()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.watchers, mb)
			o.mu.Unlock()
			close(mb.done)
		})
	}
	return mb.out, stop
}

// mailbox is the per-watcher unbounded FIFO between publisher and consumer.
type mailbox[T any] struct {
	mu    sync.Mutex
	queue []T
	wake  chan struct{}
	out   chan T
	done  chan struct{}
}

func newMailbox[T any]() *mailbox[T] {
	return &mailbox[T]{
		wake: make(chan struct{}, 1),
		out:  make(chan T),
		done: make(chan struct{}),
	}
}

func (m *mailbox[T]) push(v T) {
	m.mu.Lock()
	m.queue = append(m.queue, v)
	m.mu.Unlock()
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *mailbox[T]) drain() {
	for {
		select {
		case <-m.done:
			return
		case <-m.wake:
		}
		for {
			m.mu.Lock()
			if len(m.queue) == 0 {
				m.mu.Unlock()
				break
			}
			v := m.queue[0]
			m.queue = m.queue[1:]
			m.mu.Unlock()

			select {
			case m.out <- v:
			case <-m.done:
				return
			}
		}
	}
}
