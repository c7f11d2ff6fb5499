package usecase

import "sync"

// eventQueue is an unbounded FIFO of callbacks drained by a single loop.
// push never blocks, so providers may report events from any goroutine,
// including synchronously from inside a call made by the loop itself.
type eventQueue struct {
	mu     sync.Mutex
	items  []func()
	notify chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{notify: make(chan struct{}, 1)}
}

func (q *eventQueue) push(fn func()) {
	q.mu.Lock()
	q.items = append(q.items, fn)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *eventQueue) drain() []func() {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}
